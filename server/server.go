package server

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	"github.com/jrsteele09/go-social-auth/auth"
	"github.com/jrsteele09/go-social-auth/internal/config"
	"github.com/jrsteele09/go-social-auth/internal/metrics"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string // Environment (e.g. "DEV", "PRODUCTION")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	metrics   *metrics.Metrics
	ipLimiter *ipRateLimiter
	proxies   []netip.Prefix // Peers allowed to set X-Forwarded-For
}

func New(config config.Config, authService *auth.Service, m *metrics.Metrics) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if m == nil {
		m = metrics.New()
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		auth:    authService,
		metrics: m,
		proxies: config.GetTrustedProxies(),
	}
	if config.GetEnableRateLimiting() {
		s.ipLimiter = newIPRateLimiter(config.GetRateLimitRPS(), config.GetRateLimitBurst())
	}

	if err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, errors.Wrap(err, "[server.New] failed to initialise the system")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// InitialiseSystem creates the configured administrator account if needed
func (s *Server) InitialiseSystem(ctx context.Context) error {
	email := s.config.GetSystemAdminEmail()
	if email == "" {
		return nil
	}
	_, err := s.auth.EnsureAdmin(ctx, email, s.config.GetSystemAdminPassword())
	return err
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// RegisterRouteFunc registers handler behind the API middleware and the given
// route specific middleware, in that order.
func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	chain := append(s.APIMiddleware(), mw...)
	s.mux.HandleFunc(pattern, s.metrics.Instrument(pattern, ChainMiddleware(handler, chain...)))
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDev {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Debug().Str("path", parts[0]).Msg("route")
		}
	}
}
