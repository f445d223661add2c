package profiles

import (
	"context"
	"time"
)

// Profile is the public face of an account. Every account created through
// signup has exactly one.
type Profile struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user"`
	FirstName string     `json:"firstname"`
	LastName  string     `json:"lastname"`
	Gender    *bool      `json:"gender"`
	Avatar    string     `json:"avatar,omitempty"`
	Address   string     `json:"address,omitempty"`
	Bio       string     `json:"bio,omitempty"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Slug      string     `json:"slug"`
}

// Repo stores profiles. Absence is reported with errors.ErrNotFound and a
// clashing slug with errors.ErrDuplicateSlug.
type Repo interface {
	Create(ctx context.Context, profile *Profile) error
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	Delete(ctx context.Context, id string) error
}
