package testutil

import (
	"context"
	"net/http"

	"schoolchain/internal/platform/middleware"
)

// ContextWithUser returns a context carrying the given claims, the same
// way the auth middleware stores them for authenticated requests.
func ContextWithUser(ctx context.Context, claims *middleware.JWTClaims) context.Context {
	ctx = context.WithValue(ctx, middleware.ContextKeyUserID, claims.UserID)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserName, claims.Name)
	ctx = context.WithValue(ctx, middleware.ContextKeyUserRole, claims.Role)
	return ctx
}

// WithUser adds authenticated user claims to the request context.
func WithUser(req *http.Request, claims *middleware.JWTClaims) *http.Request {
	return req.WithContext(ContextWithUser(req.Context(), claims))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
