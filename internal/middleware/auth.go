package middleware

import (
	"errors"
	"net/http"

	"cafe-be/internal/apperr"
	"cafe-be/internal/auth"
	"cafe-be/internal/logger"
	"cafe-be/internal/user"

	"go.uber.org/zap"
)

// Auth resolves the request credential into an actor. Requests without a
// credential pass through anonymously; handlers decide whether that is enough.
func Auth(idp user.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractAccessToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := idp.GetActor(r.Context(), token)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("rejected credential",
					zap.String("layer", "middleware"),
					zap.Error(err),
				)
				if errors.Is(err, apperr.ErrForbidden) {
					writeError(w, http.StatusForbidden, "account is disabled")
					return
				}
				writeError(w, http.StatusUnauthorized, "invalid or expired credential")
				return
			}

			ctx := auth.WithActor(r.Context(), actor)
			ctx = logger.WithActor(ctx, actor.UserID, actor.Role.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
