package config

import (
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	loginMaxAttemptsVar      = "LOGIN_MAX_ATTEMPTS"
	loginCooldownVar         = "LOGIN_COOLDOWN"
	rateLimitRPSVar          = "RATE_LIMIT_RPS"
	rateLimitBurstVar        = "RATE_LIMIT_BURST"
	revokeRefreshOnLogoutVar = "REVOKE_REFRESH_ON_LOGOUT"
	adminEmailVar            = "ADMIN_EMAIL"
	adminPasswordVar         = "ADMIN_PASSWORD"
	trustedProxiesVar        = "TRUSTED_PROXIES"
)

type SecurityConfig interface {
	GetLoginMaxAttempts() int
	GetLoginCooldown() time.Duration
	GetEnableRateLimiting() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
	GetRevokeRefreshOnLogout() bool
	GetSystemAdminEmail() string
	GetSystemAdminPassword() string
	GetTrustedProxies() []netip.Prefix
}

type Security struct{ source }

var _ SecurityConfig = Security{}

func (s Security) GetLoginMaxAttempts() int {
	return s.integer(loginMaxAttemptsVar, 5)
}

func (s Security) GetLoginCooldown() time.Duration {
	return s.duration(loginCooldownVar, 15*time.Minute)
}

// GetEnableRateLimiting is false when RATE_LIMIT_RPS is set to zero
func (s Security) GetEnableRateLimiting() bool {
	return s.GetRateLimitRPS() > 0
}

func (s Security) GetRateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(s.get(rateLimitRPSVar, "10"), 64)
	if err != nil || rps < 0 {
		return 10
	}
	return rps
}

func (s Security) GetRateLimitBurst() int {
	return s.integer(rateLimitBurstVar, 20)
}

func (s Security) GetRevokeRefreshOnLogout() bool {
	revoke, err := strconv.ParseBool(s.get(revokeRefreshOnLogoutVar, "false"))
	return err == nil && revoke
}

// GetSystemAdminEmail is empty when no administrator should be created at startup
func (s Security) GetSystemAdminEmail() string {
	return s.get(adminEmailVar, "")
}

func (s Security) GetSystemAdminPassword() string {
	return s.get(adminPasswordVar, "")
}

// GetTrustedProxies lists the peers whose X-Forwarded-For header is believed.
// Invalid entries are dropped here and reported by Validate.
func (s Security) GetTrustedProxies() []netip.Prefix {
	prefixes, _ := ParseTrustedProxies(s.get(trustedProxiesVar, ""))
	return prefixes
}

// ParseTrustedProxies reads a comma separated list of addresses and CIDR ranges
func ParseTrustedProxies(raw string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid trusted proxy %q", entry)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid trusted proxy %q", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func (s source) integer(key string, defaultValue int) int {
	n, err := strconv.Atoi(s.get(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
