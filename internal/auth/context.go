// Package auth handles API key credentials and the authenticated caller.
package auth

import (
	"context"
	"errors"

	"github.com/nuber/nuber/internal/model"
)

type contextKey string

const authContextKey contextKey = "auth_context"

// Caller errors. The messages are shown to API clients as-is.
var (
	ErrUnauthenticated   = errors.New("Authentication required")
	ErrInsufficientScope = errors.New("Insufficient permissions")
)

// ContextWithAuth attaches the authenticated caller to ctx.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext returns the caller attached to ctx, or nil.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, ok := ctx.Value(authContextKey).(*model.AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// RequireAuth returns the caller or ErrUnauthenticated when the request is anonymous.
func RequireAuth(ctx context.Context) (*model.AuthContext, error) {
	auth := AuthFromContext(ctx)
	if auth == nil || auth.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return auth, nil
}

// RequireScope is RequireAuth plus a scope check.
func RequireScope(ctx context.Context, scope string) (*model.AuthContext, error) {
	auth, err := RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if !auth.HasScope(scope) {
		return nil, ErrInsufficientScope
	}
	return auth, nil
}
