package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"cafe-be/internal/order"
	"cafe-be/internal/user"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	var req PlaceOrderRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	items := make([]order.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, order.ItemInput{
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Note:       it.Note,
		})
	}

	o, err := h.Orders.Place(r.Context(), actor, order.PlaceInput{
		CustomerID:   req.CustomerID,
		CafeID:       req.CafeID,
		Type:         order.Type(req.Type),
		Items:        items,
		Instructions: req.Instructions,
		BookingID:    req.BookingID,
	})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, mapOrder(o))
	return nil
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	var (
		filter order.ListFilter
		err    error
	)
	if filter.CustomerID, err = queryID(r, "customer_id"); err != nil {
		return err
	}
	if filter.CafeID, err = queryID(r, "cafe_id"); err != nil {
		return err
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return err
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		return err
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = order.Status(s)
		if !filter.Status.Valid() {
			return fmt.Errorf("%w %q", order.ErrInvalidStatus, s)
		}
	}

	orders, err := h.Orders.List(r.Context(), actor, filter)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, mapOrders(orders))
	return nil
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	o, err := h.Orders.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
	return nil
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	o, err := h.Orders.GetByNumber(r.Context(), actor, r.PathValue("number"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
	return nil
}

// orderTransition is one of the order.Service lifecycle methods, bound to the
// handler's service at request time.
type orderTransition func(svc order.Service, ctx context.Context, actor user.Actor, orderID int64) (*order.Order, error)

func (h *Handler) orderStep(step orderTransition) actorHandler {
	return func(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		o, err := step(h.Orders, r.Context(), actor, id)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, mapOrder(o))
		return nil
	}
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	var req CancelRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			return err
		}
	}

	o, err := h.Orders.Cancel(r.Context(), actor, id, req.Reason)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
	return nil
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	var req UpdateStatusRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	o, err := h.Orders.UpdateStatus(r.Context(), actor, id, order.Status(req.Status))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
	return nil
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.Orders.Delete(r.Context(), actor, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
