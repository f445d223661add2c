package users

import "context"

// UserRepo is the credential store. Lookups never return inactive accounts and
// report absence with errors.ErrNotFound.
type UserRepo interface {
	Create(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*User, error)
	GetByVerifyToken(ctx context.Context, verifyToken string) (*User, error)
	Update(ctx context.Context, id string, fields Update) (*User, error)
}
