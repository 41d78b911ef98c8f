package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	actorKey     ctxKey = "actor"
)

type actorFields struct {
	id   int64
	role string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithActor tags every log line produced through FromCtx with the acting user.
func WithActor(ctx context.Context, userID int64, role string) context.Context {
	return context.WithValue(ctx, actorKey, actorFields{id: userID, role: role})
}

// FromCtx returns logger with request_id and actor fields automatically added
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if a, ok := ctx.Value(actorKey).(actorFields); ok {
		l = l.With(zap.Int64("actor_id", a.id), zap.String("actor_role", a.role))
	}
	return l
}
