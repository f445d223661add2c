package server

import (
	"net/http"

	autherrors "github.com/jrsteele09/go-social-auth/internal/errors"
	"github.com/jrsteele09/go-social-auth/users"
	"github.com/rs/zerolog"
)

type setRoleRequest struct {
	Role users.RoleType `json:"role"`
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (s *Server) AdminSetRoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		userID := r.PathValue("id")
		updated, err := s.auth.SetRole(r.Context(), userID, req.Role)
		if err != nil {
			writeError(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Info().Str("target_user_id", userID).Str("role", string(req.Role)).Msg("role changed")
		writeJSON(w, http.StatusOK, envelope{"status": "success", "data": envelope{"user": updated}})
	}
}

// AdminSetActiveHandler soft-deletes or restores an account
func (s *Server) AdminSetActiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setActiveRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Active == nil {
			writeError(w, r, autherrors.Validation("active must be true or false"))
			return
		}

		userID := r.PathValue("id")
		updated, err := s.auth.SetActive(r.Context(), userID, *req.Active)
		if err != nil {
			writeError(w, r, err)
			return
		}
		zerolog.Ctx(r.Context()).Info().Str("target_user_id", userID).Bool("active", *req.Active).Msg("account status changed")
		writeJSON(w, http.StatusOK, envelope{"status": "success", "data": envelope{"user": updated}})
	}
}
