package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"cafe-be/internal/apperr"
	"cafe-be/internal/logger"
	"cafe-be/internal/payment"

	"go.uber.org/zap"
)

const signatureHeader = "X-Razorpay-Signature"

// WebhookPayload is the body the gateway posts once the customer has paid.
type WebhookPayload struct {
	TransactionID string `json:"transaction_id"`
	Signature     string `json:"signature,omitempty"`
}

type Handler struct {
	PaymentSvc payment.Service
}

func NewWebhookHandler(paymentSvc payment.Service) *Handler {
	return &Handler{PaymentSvc: paymentSvc}
}

// PaymentWebhookHandler verifies a pending payment. The signature may come in
// the header or the body; the header wins.
func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context()).With(zap.String("layer", "webhook"))

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if sig := r.Header.Get(signatureHeader); sig != "" {
		payload.Signature = sig
	}
	if payload.TransactionID == "" {
		http.Error(w, "transaction_id is required", http.StatusBadRequest)
		return
	}

	log = log.With(zap.String("transaction_id", payload.TransactionID))

	p, err := h.PaymentSvc.Verify(r.Context(), payload.TransactionID, payload.Signature)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("payment verification failed", zap.Error(err))
		} else {
			log.Warn("payment verification rejected", zap.Error(err))
		}
		http.Error(w, err.Error(), status)
		return
	}

	log.Info("payment webhook processed", zap.Int64("payment_id", p.ID))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"transaction_id": p.TransactionID,
		"status":         string(p.Status),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, payment.ErrVerificationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
