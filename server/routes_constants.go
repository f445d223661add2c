package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Account routes
	RouteSignup         = "/api/v1/users/signup"
	RouteLogin          = "/api/v1/users/login"
	RouteLoginMobile    = "/api/v1/users/login/mobile"
	RouteRefreshToken   = "/api/v1/users/refresh-token"
	RouteLogout         = "/api/v1/users/logout"
	RouteVerifyEmail    = "/api/v1/users/verify/{token}"
	RouteUpdatePassword = "/api/v1/users/update-password"
	RouteMe             = "/api/v1/users/me"

	// Non-blocking login probe
	RouteSession = "/api/v1/session"

	// Admin routes
	RouteAdminUserRole   = "/api/v1/admin/users/{id}/role"
	RouteAdminUserActive = "/api/v1/admin/users/{id}/active"

	RouteAPIPreflight = "/api/"

	// Operational routes
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)
