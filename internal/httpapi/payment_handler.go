package httpapi

import (
	"net/http"

	"cafe-be/internal/payment"
	"cafe-be/internal/user"
)

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	var req CreatePaymentRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	p, err := h.Payments.Create(r.Context(), actor, payment.CreateInput{
		OrderID: req.OrderID,
		Amount:  req.Amount,
		Method:  payment.Method(req.Method),
	})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, mapPayment(p))
	return nil
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	p, err := h.Payments.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapPayment(p))
	return nil
}

func (h *Handler) getPaymentByTransaction(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	p, err := h.Payments.GetByTransactionID(r.Context(), actor, r.PathValue("txn"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapPayment(p))
	return nil
}

func (h *Handler) getPaymentByOrder(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	orderID, err := pathID(r, "id")
	if err != nil {
		return err
	}
	p, err := h.Payments.GetByOrderID(r.Context(), actor, orderID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapPayment(p))
	return nil
}

func (h *Handler) refundPayment(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	p, err := h.Payments.Refund(r.Context(), actor, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapPayment(p))
	return nil
}
