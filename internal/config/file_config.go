package config

import (
	"strconv"
	"strings"
)

// FileConfig is the layout of the optional YAML config file.
type FileConfig struct {
	Port    string `yaml:"port"`
	AppName string `yaml:"app_name"`
	Env     string `yaml:"env"`
	Log     struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	JWT struct {
		Secret           string `yaml:"secret"`
		RefreshSecret    string `yaml:"refresh_secret"`
		ExpiresIn        string `yaml:"expires_in"`
		MobileExpiresIn  string `yaml:"mobile_expires_in"`
		RefreshExpiresIn string `yaml:"refresh_expires_in"`
	} `yaml:"jwt"`
	Store struct {
		Driver      string `yaml:"driver"`
		DatabaseURL string `yaml:"database_url"`
		RedisAddr   string `yaml:"redis_addr"`
	} `yaml:"store"`
	Security struct {
		LoginMaxAttempts      int      `yaml:"login_max_attempts"`
		LoginCooldown         string   `yaml:"login_cooldown"`
		RateLimitRPS          string   `yaml:"rate_limit_rps"`
		RateLimitBurst        int      `yaml:"rate_limit_burst"`
		RevokeRefreshOnLogout bool     `yaml:"revoke_refresh_on_logout"`
		TrustedProxies        []string `yaml:"trusted_proxies"`
	} `yaml:"security"`
	Cors struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// values flattens the file onto the environment variable names
func (f FileConfig) values() map[string]string {
	v := map[string]string{
		portEnvVar:             f.Port,
		appNameVar:             f.AppName,
		envVar:                 f.Env,
		logLevelVar:            f.Log.Level,
		jwtSecretVar:           f.JWT.Secret,
		jwtRefreshSecretVar:    f.JWT.RefreshSecret,
		jwtExpiresInVar:        f.JWT.ExpiresIn,
		jwtMobileExpiresInVar:  f.JWT.MobileExpiresIn,
		jwtRefreshExpiresInVar: f.JWT.RefreshExpiresIn,
		storeVar:               f.Store.Driver,
		databaseURLVar:         f.Store.DatabaseURL,
		redisAddrVar:           f.Store.RedisAddr,
		loginCooldownVar:       f.Security.LoginCooldown,
		rateLimitRPSVar:        f.Security.RateLimitRPS,
		allowedOriginsVar:      joinOrigins(f.Cors.AllowedOrigins),
		trustedProxiesVar:      strings.Join(f.Security.TrustedProxies, ","),
	}
	if f.Security.LoginMaxAttempts > 0 {
		v[loginMaxAttemptsVar] = strconv.Itoa(f.Security.LoginMaxAttempts)
	}
	if f.Security.RateLimitBurst > 0 {
		v[rateLimitBurstVar] = strconv.Itoa(f.Security.RateLimitBurst)
	}
	if f.Security.RevokeRefreshOnLogout {
		v[revokeRefreshOnLogoutVar] = "true"
	}
	return v
}
