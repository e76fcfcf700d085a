package auth

import (
	"context"

	"tickethub/internal/apperr"
	"tickethub/internal/models"
)

// Principal is the authenticated caller. It is resolved once by the HTTP
// middleware and passed explicitly into every service operation that needs
// identity; nothing below the handler layer reads it from ambient state.
type Principal struct {
	UserID string
	CPF    string
	Role   models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores p in ctx for handler extraction.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller or an Unauthorized error when no session
// was established.
func PrincipalFrom(ctx context.Context) (Principal, error) {
	if p, ok := ctx.Value(principalKey).(Principal); ok && p.UserID != "" {
		return p, nil
	}
	return Principal{}, apperr.New(apperr.Unauthorized, "", "user not authenticated")
}
