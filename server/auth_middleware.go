package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-social-auth/auth"
	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/internal/metrics"
	"github.com/jrsteele09/go-social-auth/users"
	"github.com/rs/zerolog"
)

// Guard inspects a request before its handler runs. It returns the request to
// continue with, possibly carrying a new context, or an error that ends the
// request. The error is written to the client as JSON.
type Guard func(r *http.Request) (*http.Request, error)

// Guarded runs guards in order ahead of the handler. The first error stops the chain.
func (s *Server) Guarded(guards ...Guard) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			for _, guard := range guards {
				nr, err := guard(r)
				if err != nil {
					writeError(w, r, err)
					return
				}
				r = nr
			}
			next(w, r)
		}
	}
}

// Protect requires a valid access token from the Authorization header or the
// jwt cookie and binds its account to the request context.
func (s *Server) Protect() Guard {
	return func(r *http.Request) (*http.Request, error) {
		user, err := s.auth.Authenticate(r.Context(), tokenFromRequest(r))
		if err != nil {
			s.metrics.RecordAuth("protect", metrics.OutcomeFailure)
			return nil, err
		}
		s.metrics.RecordAuth("protect", metrics.OutcomeSuccess)
		return r.WithContext(auth.WithUser(r.Context(), user)), nil
	}
}

// IsLoggedIn binds the account behind the jwt cookie when there is a valid
// one. It never rejects a request.
func (s *Server) IsLoggedIn() Guard {
	return func(r *http.Request) (*http.Request, error) {
		cookie, err := r.Cookie(jwtCookieName)
		if err != nil || cookie.Value == "" || cookie.Value == loggedOutCookieValue {
			return r, nil
		}

		user, err := s.auth.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			logger := zerolog.Ctx(r.Context())
			if appErr := autherrors.AsAppError(err); appErr.StatusCode >= http.StatusInternalServerError {
				logger.Warn().Err(err).Msg("IsLoggedIn: could not check session cookie")
			} else {
				logger.Debug().Err(err).Msg("IsLoggedIn: ignoring session cookie")
			}
			return r, nil
		}
		return r.WithContext(auth.WithUser(r.Context(), user)), nil
	}
}

// RestrictTo requires an account bound by Protect with one of roles
func (s *Server) RestrictTo(roles ...users.RoleType) Guard {
	return func(r *http.Request) (*http.Request, error) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok || !user.HasRole(roles...) {
			return nil, autherrors.Forbidden(auth.MsgNoPermission, nil)
		}
		return r, nil
	}
}

// tokenFromRequest prefers a bearer token over the jwt cookie
func tokenFromRequest(r *http.Request) string {
	if token, ok := bearerToken(r); ok {
		return token
	}
	if cookie, err := r.Cookie(jwtCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
