package auth

import (
	"context"

	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// EnsureAdmin creates the system administrator account when no account with
// email exists yet. An existing account is left as it is. It reports whether
// an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = users.NormalizeEmail(email)
	if err := users.ValidateEmail(email); err != nil {
		return false, errors.Wrap(err, "[Service.EnsureAdmin] admin email")
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return false, errors.Wrap(err, "[Service.EnsureAdmin] admin password")
	}

	existing, err := s.repos.Users.GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != users.RoleAdmin {
			log.Warn().Str("user_id", existing.ID).Msg("EnsureAdmin: configured admin email belongs to a non-admin account")
		}
		return false, nil
	}
	if !errors.Is(err, autherrors.ErrNotFound) {
		return false, errors.Wrap(err, "[Service.EnsureAdmin] GetByEmail")
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return false, errors.Wrap(err, "[Service.EnsureAdmin] HashPassword")
	}
	admin := &users.User{
		Email:        email,
		Role:         users.RoleAdmin,
		PasswordHash: hash,
		Verified:     true,
		Active:       true,
		CreatedAt:    s.nowTime(),
	}
	if err := s.repos.Users.Create(ctx, admin); err != nil {
		// An inactive account already holds the email
		if errors.Is(err, autherrors.ErrDuplicateEmail) {
			return false, nil
		}
		return false, errors.Wrap(err, "[Service.EnsureAdmin] Users.Create")
	}

	log.Info().Str("user_id", admin.ID).Str("email", email).Msg("EnsureAdmin: system administrator created")
	return true, nil
}
