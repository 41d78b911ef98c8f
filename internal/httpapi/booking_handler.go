package httpapi

import (
	"context"
	"net/http"

	"cafe-be/internal/apperr"
	"cafe-be/internal/booking"
	"cafe-be/internal/user"
)

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	var req CreateBookingRequest
	if err := decode(r, &req); err != nil {
		return err
	}

	b, err := h.Bookings.Create(r.Context(), actor, booking.CreateInput{
		TableID:         req.TableID,
		Date:            req.Date,
		Time:            req.Time,
		PartySize:       req.PartySize,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, mapBooking(b))
	return nil
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	b, err := h.Bookings.Get(r.Context(), actor, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, mapBooking(b))
	return nil
}

type bookingTransition func(svc booking.Service, ctx context.Context, actor user.Actor, bookingID int64) (*booking.Booking, error)

func (h *Handler) bookingStep(step bookingTransition) actorHandler {
	return func(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
		id, err := pathID(r, "id")
		if err != nil {
			return err
		}
		b, err := step(h.Bookings, r.Context(), actor, id)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, mapBooking(b))
		return nil
	}
}

// listBookings serves exactly one of the listing modes: by date (optionally
// within a cafe), by table, by cafe or by customer. With no filter a customer
// gets their own bookings.
func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request, actor user.Actor) error {
	customerID, err := queryID(r, "customer_id")
	if err != nil {
		return err
	}
	tableID, err := queryID(r, "table_id")
	if err != nil {
		return err
	}
	cafeID, err := queryID(r, "cafe_id")
	if err != nil {
		return err
	}
	date := r.URL.Query().Get("date")

	ctx := r.Context()
	var bookings []*booking.Booking
	switch {
	case date != "":
		bookings, err = h.Bookings.ListByDate(ctx, actor, cafeID, date)
	case tableID != 0:
		bookings, err = h.Bookings.ListByTable(ctx, actor, tableID)
	case cafeID != 0:
		bookings, err = h.Bookings.ListByCafe(ctx, actor, cafeID)
	case customerID != 0:
		bookings, err = h.Bookings.ListByCustomer(ctx, actor, customerID)
	case actor.Role == user.RoleCustomer:
		bookings, err = h.Bookings.ListByCustomer(ctx, actor, actor.UserID)
	default:
		return apperr.InvalidInput("one of date, table_id, cafe_id or customer_id is required")
	}
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, mapBookings(bookings))
	return nil
}
