package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/jrsteele09/go-social-auth/auth"
	"github.com/jrsteele09/go-social-auth/internal/config"
	"github.com/jrsteele09/go-social-auth/internal/logging"
	"github.com/jrsteele09/go-social-auth/internal/metrics"
	"github.com/jrsteele09/go-social-auth/internal/ratelimit"
	"github.com/jrsteele09/go-social-auth/internal/store/postgres"
	fakeprofilerepo "github.com/jrsteele09/go-social-auth/profiles/repofake"
	"github.com/jrsteele09/go-social-auth/server"
	"github.com/jrsteele09/go-social-auth/token"
	fakeuserrepo "github.com/jrsteele09/go-social-auth/users/repofake"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to a YAML config file")
	port := pflag.StringP("port", "p", "", "listen port, overrides PORT")
	store := pflag.String("store", "", "credential store (memory|postgres), overrides STORE")
	pflag.Parse()

	overrides := map[string]string{
		"PORT":  *port,
		"STORE": *store,
	}

	if err := run(*configPath, overrides); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run(configPath string, overrides map[string]string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load(configPath, overrides)
	if err != nil {
		return err
	}
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	if err := c.Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid configuration")
	}
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := token.New(repos.Users, token.Config{
		AccessSecret:    c.GetAccessSecret(),
		RefreshSecret:   c.GetRefreshSecret(),
		AccessTTL:       c.GetAccessTokenExpiry(),
		MobileAccessTTL: c.GetMobileAccessTokenExpiry(),
		RefreshTTL:      c.GetRefreshTokenExpiry(),
	})
	if err != nil {
		return err
	}

	serviceOptions, closeLimiter, err := loginLimiterOptions(ctx, c)
	if err != nil {
		return err
	}
	defer closeLimiter()

	authService, err := auth.NewService(repos, tokens, serviceOptions...)
	if err != nil {
		return err
	}

	handler, err := server.New(c, authService, metrics.New())
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	return shutdown(srv)
}

// openStore builds the repos for the configured store. The returned func
// releases any connection it opened.
func openStore(ctx context.Context, c config.Config) (auth.Repos, func(), error) {
	switch c.GetStore() {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, c.GetDatabaseURL())
		if err != nil {
			return auth.Repos{}, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return auth.Repos{}, nil, err
		}
		log.Info().Msg("Using postgres store")
		return auth.Repos{
			Users:    postgres.NewUserRepo(db),
			Profiles: postgres.NewProfileRepo(db),
		}, closeDB(db), nil
	default:
		log.Warn().Msg("Using in-memory store, accounts are lost on restart")
		return auth.Repos{
			Users:    fakeuserrepo.NewFakeUserRepo(),
			Profiles: fakeprofilerepo.NewFakeProfileRepo(),
		}, func() {}, nil
	}
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Closing database")
		}
	}
}

// loginLimiterOptions enables the Redis login limiter when REDIS_ADDR is set
func loginLimiterOptions(ctx context.Context, c config.Config) ([]auth.ServiceOption, func(), error) {
	addr := c.GetRedisAddr()
	if addr == "" {
		log.Warn().Msg("REDIS_ADDR not set, failed logins are not limited")
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, pkgerrors.Wrap(err, "redis ping")
	}
	limiter, err := ratelimit.NewLoginLimiter(client, ratelimit.Config{
		MaxAttempts:   c.GetLoginMaxAttempts(),
		Cooldown:      c.GetLoginCooldown(),
		EnableIPLimit: true,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return []auth.ServiceOption{auth.WithLoginLimiter(limiter)}, func() { _ = client.Close() }, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
