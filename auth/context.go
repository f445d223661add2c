package auth

import (
	"context"

	"github.com/jrsteele09/go-social-auth/users"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser binds the authenticated account to ctx
func WithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the account bound by WithUser, if any
func UserFromContext(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(userContextKey).(*users.User)
	return user, ok && user != nil
}
