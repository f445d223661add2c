package config_test

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-auth/internal/config"
	"github.com/stretchr/testify/require"
)

const testYAML = `
port: 9090
env: production
jwt:
  secret: file-access
  refresh_secret: file-refresh
  expires_in: 90m
  refresh_expires_in: 7d
store:
  driver: postgres
  database_url: postgres://localhost/social
security:
  login_max_attempts: 3
  revoke_refresh_on_logout: true
  trusted_proxies:
    - 10.0.0.0/8
cors:
  allowed_origins:
    - https://a.example.com
    - https://b.example.com
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// clearEnv blanks every variable the tests depend on. Empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "JWT_SECRET", "JWT_REFRESH_SECRET", "JWT_EXPIRES_IN", "JWT_MOBILE_EXPIRES_IN",
		"JWT_REFRESH_EXPIRES_IN", "STORE", "DATABASE_URL", "LOGIN_MAX_ATTEMPTS", "LOGIN_COOLDOWN",
		"REVOKE_REFRESH_ON_LOGOUT", "ALLOWED_ORIGINS", "TRUSTED_PROXIES",
	} {
		t.Setenv(key, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := config.New()

	require.Equal(t, ":8080", cfg.GetPort())
	require.Equal(t, config.EnvDev, cfg.GetEnv())
	require.True(t, cfg.IsDev())
	require.Equal(t, 10000*time.Second, cfg.GetAccessTokenExpiry())
	require.Equal(t, 10*24*time.Hour, cfg.GetMobileAccessTokenExpiry())
	require.Equal(t, 10*24*time.Hour, cfg.GetRefreshTokenExpiry())
	require.Equal(t, config.StoreMemory, cfg.GetStore())
	require.Equal(t, 5, cfg.GetLoginMaxAttempts())
	require.False(t, cfg.GetRevokeRefreshOnLogout())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load(writeConfigFile(t, testYAML), nil)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.GetPort())
	require.True(t, cfg.IsProduction())
	require.Equal(t, "file-access", cfg.GetAccessSecret())
	require.Equal(t, 90*time.Minute, cfg.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, cfg.GetRefreshTokenExpiry())
	require.Equal(t, config.StorePostgres, cfg.GetStore())
	require.Equal(t, 3, cfg.GetLoginMaxAttempts())
	require.True(t, cfg.GetRevokeRefreshOnLogout())
	require.Equal(t, "https://a.example.com, https://b.example.com", cfg.GetAllowedOrigins().String())
	require.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}, cfg.GetTrustedProxies())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "env-access")

	cfg, err := config.Load(writeConfigFile(t, testYAML), map[string]string{"PORT": "6060"})
	require.NoError(t, err)

	require.Equal(t, ":6060", cfg.GetPort(), "flags win over env")
	require.Equal(t, "env-access", cfg.GetAccessSecret(), "env wins over file")
	require.Equal(t, "file-refresh", cfg.GetRefreshSecret())
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)

	_, err = config.Load(writeConfigFile(t, "jwt: [unclosed"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	require.Error(t, config.New().Validate())

	t.Setenv("JWT_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")
	require.Error(t, config.New().Validate())

	t.Setenv("JWT_REFRESH_SECRET", "other")
	require.NoError(t, config.New().Validate())

	t.Setenv("JWT_EXPIRES_IN", "soon")
	require.Error(t, config.New().Validate())
	t.Setenv("JWT_EXPIRES_IN", "")

	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, not-an-ip")
	require.Error(t, config.New().Validate())
	t.Setenv("TRUSTED_PROXIES", "")

	t.Setenv("STORE", "postgres")
	t.Setenv("DATABASE_URL", "")
	require.Error(t, config.New().Validate())

	t.Setenv("STORE", "mongo")
	require.Error(t, config.New().Validate())
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"10000":  10000 * time.Second,
		"10000s": 10000 * time.Second,
		"90m":    90 * time.Minute,
		"10d":    10 * 24 * time.Hour,
	}
	for raw, want := range cases {
		got, err := config.ParseDuration(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "xd", "later"} {
		_, err := config.ParseDuration(raw)
		require.Error(t, err, raw)
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := config.ParseTrustedProxies(" 10.0.0.0/8, 192.0.2.1 ,,::1")
	require.NoError(t, err)
	require.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.1/32"),
		netip.MustParsePrefix("::1/128"),
	}, prefixes)

	prefixes, err = config.ParseTrustedProxies("")
	require.NoError(t, err)
	require.Empty(t, prefixes)

	for _, raw := range []string{"proxy.local", "10.0.0.0/40"} {
		_, err := config.ParseTrustedProxies(raw)
		require.Error(t, err, raw)
	}
}
