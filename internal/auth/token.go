// Package auth carries the request credential in and the resolved actor out.
package auth

import (
	"context"
	"net/http"
	"strings"

	"cafe-be/internal/user"
)

const AccessTokenCookie = "access_token"

// ExtractAccessToken returns the credential of r. A non-empty access_token
// cookie wins over an Authorization: Bearer header; the scheme is matched
// case-insensitively.
func ExtractAccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type actorKey struct{}

func WithActor(ctx context.Context, actor user.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor, if the request carried one.
func ActorFrom(ctx context.Context) (user.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(user.Actor)
	return a, ok
}
