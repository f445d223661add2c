package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-social-auth/auth"
	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/internal/metrics"
	"github.com/jrsteele09/go-social-auth/profiles"
	"github.com/jrsteele09/go-social-auth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.SignupRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		profile, err := s.auth.Signup(r.Context(), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, envelope{
			"status": "success",
			"data":   envelope{"profile": profile},
		})
	}
}

// LoginHandler checks credentials and starts a session. Mobile clients get
// a longer lived access token.
func (s *Server) LoginHandler(mobile bool) http.HandlerFunc {
	operation := "login"
	if mobile {
		operation = "login_mobile"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		req.IP = s.clientIP(r)

		user, err := s.auth.Login(r.Context(), req)
		if err != nil {
			s.recordAuthFailure(operation, err)
			writeError(w, r, err)
			return
		}

		var ttl time.Duration
		if mobile {
			ttl = s.auth.MobileAccessTTL()
		}
		session, err := s.auth.CreateSendToken(r.Context(), user, ttl)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.metrics.RecordAuth(operation, metrics.OutcomeSuccess)
		zerolog.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("login")
		s.writeSession(w, session)
	}
}

// RefreshTokenHandler exchanges the bearer refresh token for a new access token
func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken, _ := bearerToken(r)

		result, err := s.auth.Refresh(r.Context(), refreshToken)
		if err != nil {
			s.recordAuthFailure("refresh", err)
			writeError(w, r, err)
			return
		}
		s.metrics.RecordAuth("refresh", metrics.OutcomeSuccess)
		s.setTokenCookie(w, result.AccessToken)
		writeJSON(w, http.StatusOK, envelope{
			"status": "success",
			"token":  result.AccessToken,
			"data":   envelope{"user": result.User},
		})
	}
}

// LogoutHandler overwrites the jwt cookie. The stored refresh token is only
// cleared when configured to do so.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.GetRevokeRefreshOnLogout() {
			if user, ok := s.logoutIdentity(r); ok {
				if err := s.auth.Logout(r.Context(), user.ID); err != nil {
					writeError(w, r, err)
					return
				}
			}
		}
		s.clearTokenCookie(w)
		writeJSON(w, http.StatusOK, envelope{"status": "success"})
	}
}

// logoutIdentity is the account bound from the cookie, else the one named by
// a valid bearer access token. Logout never fails for lack of one.
func (s *Server) logoutIdentity(r *http.Request) (*users.User, bool) {
	if user, ok := auth.UserFromContext(r.Context()); ok {
		return user, true
	}
	raw := tokenFromRequest(r)
	if raw == "" {
		return nil, false
	}
	user, err := s.auth.Authenticate(r.Context(), raw)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("logout without a valid access token")
		return nil, false
	}
	return user, true
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.VerifyEmail(r.Context(), r.PathValue("token")); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{
			"status":  "success",
			"message": "Email verified successfully",
		})
	}
}

func (s *Server) UpdatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, autherrors.Unauthenticated(auth.MsgNotLoggedIn, nil))
			return
		}

		var req auth.UpdatePasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		session, err := s.auth.UpdatePassword(r.Context(), user.ID, req, 0)
		if err != nil {
			writeError(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("password changed")
		s.writeSession(w, session)
	}
}

// MeHandler returns the authenticated account and its profile
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			writeError(w, r, autherrors.Unauthenticated(auth.MsgNotLoggedIn, nil))
			return
		}

		var profile *profiles.Profile
		p, err := s.auth.Profile(r.Context(), user.ID)
		switch {
		case err == nil:
			profile = p
		case errors.Is(err, autherrors.ErrNotFound):
			// Accounts created at startup have no profile
		default:
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, envelope{
			"status": "success",
			"data":   envelope{"user": user.Public(), "profile": profile},
		})
	}
}

// SessionHandler reports who is logged in without ever rejecting
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := envelope{"user": nil}
		if user, ok := auth.UserFromContext(r.Context()); ok {
			data["user"] = user.Public()
		}
		writeJSON(w, http.StatusOK, envelope{"status": "success", "data": data})
	}
}

func (s *Server) writeSession(w http.ResponseWriter, session *auth.Session) {
	s.setTokenCookie(w, session.AccessToken)
	writeJSON(w, http.StatusOK, envelope{
		"status":       "success",
		"token":        session.AccessToken,
		"refreshToken": session.RefreshToken,
		"data":         envelope{"user": session.User},
	})
}

func (s *Server) recordAuthFailure(operation string, err error) {
	outcome := metrics.OutcomeFailure
	if errors.Is(err, autherrors.ErrRateLimited) {
		outcome = metrics.OutcomeRateLimited
	}
	s.metrics.RecordAuth(operation, outcome)
}
