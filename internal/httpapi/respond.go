package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"cafe-be/internal/apperr"
	"cafe-be/internal/auth"
	"cafe-be/internal/logger"
	"cafe-be/internal/user"

	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrInvalidInput:
		return http.StatusBadRequest
	case apperr.ErrInvalidState, apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrPreconditionFailed:
		return http.StatusPreconditionFailed
	}
	if errors.Is(err, user.ErrUnauthenticated) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func kindName(err error) string {
	switch apperr.Kind(err) {
	case apperr.ErrNotFound:
		return "NOT_FOUND"
	case apperr.ErrInvalidInput:
		return "INVALID_INPUT"
	case apperr.ErrInvalidState:
		return "INVALID_STATE"
	case apperr.ErrForbidden:
		return "FORBIDDEN"
	case apperr.ErrConflict:
		return "CONFLICT"
	case apperr.ErrPreconditionFailed:
		return "PRECONDITION_FAILED"
	}
	return ""
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "http"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, status, ErrorResponse{Error: "internal server error"})
		return
	}

	body := ErrorResponse{Error: err.Error(), Kind: kindName(err)}
	var stateErr *apperr.StateError
	if errors.As(err, &stateErr) {
		body.Actual = stateErr.Actual
	}
	writeJSON(w, status, body)
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.InvalidInput("malformed request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid %s %q", name, r.PathValue(name))
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid %s %q", name, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.InvalidInput("invalid %s %q", name, raw)
	}
	return n, nil
}

// actorHandler is a handler that needs an authenticated actor.
type actorHandler func(w http.ResponseWriter, r *http.Request, actor user.Actor) error

func (h *Handler) authed(fn actorHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
			return
		}
		if err := fn(w, r, actor); err != nil {
			writeError(w, r, err)
		}
	}
}
