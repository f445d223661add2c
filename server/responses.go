package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	maxBodyBytes    = 1 << 20

	jwtCookieName        = "jwt"
	loggedOutCookieValue = "loggedout"
	jwtCookieLifetime    = time.Hour
	loggedOutLifetime    = 10 * time.Second
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes err as {status, message}. Anything that is not an
// AppError becomes a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := autherrors.AsAppError(err)
	logger := zerolog.Ctx(r.Context())
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else {
		logger.Debug().Err(err).Int("status", appErr.StatusCode).Msg("request rejected")
	}
	writeJSON(w, appErr.StatusCode, envelope{"status": appErr.Status(), "message": appErr.Message})
}

// decodeJSON reads a size limited JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return autherrors.Validation("Request body is empty")
		}
		return autherrors.Validation("Invalid request body")
	}
	return nil
}

// setTokenCookie hands the access token to browsers in development
func (s *Server) setTokenCookie(w http.ResponseWriter, token string) {
	if !s.config.IsDev() {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     jwtCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(jwtCookieLifetime),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearTokenCookie overwrites the jwt cookie with a short lived placeholder
func (s *Server) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     jwtCookieName,
		Value:    loggedOutCookieValue,
		Path:     "/",
		Expires:  time.Now().Add(loggedOutLifetime),
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}
