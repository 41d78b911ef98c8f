package httpapi

import (
	"time"

	"cafe-be/internal/booking"
	"cafe-be/internal/order"
	"cafe-be/internal/payment"
)

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func mapOrder(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			Subtotal:   it.Subtotal.StringFixed(2),
			Note:       it.Note,
		})
	}

	return OrderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		CustomerID:          o.CustomerID,
		CafeID:              o.CafeID,
		Type:                string(o.Type),
		Status:              string(o.Status),
		TotalAmount:         o.TotalAmount.StringFixed(2),
		BookingID:           o.BookingID,
		PaymentID:           o.PaymentID,
		SpecialInstructions: o.SpecialInstructions,
		PreparedBy:          o.PreparedBy,
		ServedBy:            o.ServedBy,
		PlacedAt:            *formatTime(&o.PlacedAt),
		ConfirmedAt:         formatTime(o.ConfirmedAt),
		PreparingStartedAt:  formatTime(o.PreparingStartedAt),
		ReadyAt:             formatTime(o.ReadyAt),
		ServedAt:            formatTime(o.ServedAt),
		CompletedAt:         formatTime(o.CompletedAt),
		CancelledAt:         formatTime(o.CancelledAt),
		Items:               items,
	}
}

func mapOrders(orders []*order.Order) []OrderResponse {
	res := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		res = append(res, mapOrder(o))
	}
	return res
}

func mapBooking(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		CustomerID:      b.CustomerID,
		CafeID:          b.CafeID,
		TableID:         b.TableID,
		Date:            b.Slot.DateString(),
		Time:            b.Slot.TimeString(),
		PartySize:       b.PartySize,
		SpecialRequests: b.SpecialRequests,
		Status:          string(b.Status),
		CreatedAt:       *formatTime(&b.CreatedAt),
	}
}

func mapBookings(bookings []*booking.Booking) []BookingResponse {
	res := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		res = append(res, mapBooking(b))
	}
	return res
}

func mapPayment(p *payment.Payment) PaymentResponse {
	res := PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		BookingID:     p.BookingID,
		CustomerID:    p.CustomerID,
		Amount:        p.Amount.StringFixed(2),
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Gateway:       p.Gateway,
		PaymentDate:   formatTime(p.PaymentDate),
	}
	if p.Status == payment.StatusPending {
		res.Instructions = payment.InstructionsFor(p)
	}
	return res
}
