package server

import (
	"net/http"

	"github.com/jrsteele09/go-social-auth/users"
)

func (s *Server) initRoutes() {
	// ACCOUNT
	s.RegisterRouteFunc("POST "+RouteSignup, s.SignupHandler(), s.RateLimitMiddleware)
	s.RegisterRouteFunc("POST "+RouteLogin, s.LoginHandler(false), s.RateLimitMiddleware)
	s.RegisterRouteFunc("POST "+RouteLoginMobile, s.LoginHandler(true), s.RateLimitMiddleware)
	s.RegisterRouteFunc("POST "+RouteRefreshToken, s.RefreshTokenHandler())
	s.RegisterRouteFunc("GET "+RouteLogout, s.LogoutHandler(), s.Guarded(s.IsLoggedIn()))
	s.RegisterRouteFunc("GET "+RouteVerifyEmail, s.VerifyEmailHandler())
	s.RegisterRouteFunc("PATCH "+RouteUpdatePassword, s.UpdatePasswordHandler(), s.Guarded(s.Protect()))
	s.RegisterRouteFunc("GET "+RouteMe, s.MeHandler(), s.Guarded(s.Protect()))

	s.RegisterRouteFunc("GET "+RouteSession, s.SessionHandler(), s.Guarded(s.IsLoggedIn()))

	// ADMIN
	adminOnly := s.Guarded(s.Protect(), s.RestrictTo(users.RoleAdmin))
	s.RegisterRouteFunc("PATCH "+RouteAdminUserRole, s.AdminSetRoleHandler(), adminOnly)
	s.RegisterRouteFunc("PATCH "+RouteAdminUserActive, s.AdminSetActiveHandler(), adminOnly)

	// CORS preflight for every API route
	s.RegisterRouteFunc("OPTIONS "+RouteAPIPreflight, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	s.RegisterRouteFunc("GET "+RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, envelope{"status": "ok"})
	})
}
