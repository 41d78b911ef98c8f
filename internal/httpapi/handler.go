// Package httpapi exposes the order, booking and payment services over
// JSON/HTTP. Every route except the internal metrics endpoint needs an actor
// resolved by the auth middleware.
package httpapi

import (
	"net/http"

	"cafe-be/internal/booking"
	"cafe-be/internal/metrics"
	"cafe-be/internal/order"
	"cafe-be/internal/payment"
)

type Handler struct {
	Orders      order.Service
	Bookings    booking.Service
	Payments    payment.Service
	InternalKey string
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders", h.authed(h.placeOrder))
	mux.HandleFunc("GET /orders", h.authed(h.listOrders))
	mux.HandleFunc("GET /orders/{id}", h.authed(h.getOrder))
	mux.HandleFunc("GET /orders/number/{number}", h.authed(h.getOrderByNumber))
	mux.HandleFunc("POST /orders/{id}/confirm", h.authed(h.orderStep(order.Service.Confirm)))
	mux.HandleFunc("POST /orders/{id}/start-preparing", h.authed(h.orderStep(order.Service.StartPreparing)))
	mux.HandleFunc("POST /orders/{id}/ready", h.authed(h.orderStep(order.Service.MarkReady)))
	mux.HandleFunc("POST /orders/{id}/served", h.authed(h.orderStep(order.Service.MarkServed)))
	mux.HandleFunc("POST /orders/{id}/complete", h.authed(h.orderStep(order.Service.Complete)))
	mux.HandleFunc("POST /orders/{id}/cancel", h.authed(h.cancelOrder))
	mux.HandleFunc("PUT /orders/{id}/status", h.authed(h.updateOrderStatus))
	mux.HandleFunc("DELETE /orders/{id}", h.authed(h.deleteOrder))

	mux.HandleFunc("POST /bookings", h.authed(h.createBooking))
	mux.HandleFunc("GET /bookings", h.authed(h.listBookings))
	mux.HandleFunc("GET /bookings/{id}", h.authed(h.getBooking))
	mux.HandleFunc("POST /bookings/{id}/confirm", h.authed(h.bookingStep(booking.Service.Confirm)))
	mux.HandleFunc("POST /bookings/{id}/cancel", h.authed(h.bookingStep(booking.Service.Cancel)))
	mux.HandleFunc("POST /bookings/{id}/complete", h.authed(h.bookingStep(booking.Service.Complete)))

	mux.HandleFunc("POST /payments", h.authed(h.createPayment))
	mux.HandleFunc("GET /payments/{id}", h.authed(h.getPayment))
	mux.HandleFunc("GET /payments/transaction/{txn}", h.authed(h.getPaymentByTransaction))
	mux.HandleFunc("GET /payments/order/{id}", h.authed(h.getPaymentByOrder))
	mux.HandleFunc("POST /payments/{id}/refund", h.authed(h.refundPayment))

	mux.HandleFunc("GET /internal/metrics", h.metrics)
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if h.InternalKey == "" || r.Header.Get("X-Service-Auth") != h.InternalKey {
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return
	}
	writeJSON(w, http.StatusOK, metrics.Snapshot())
}
