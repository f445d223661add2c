package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	jwtSecretVar           = "JWT_SECRET"
	jwtRefreshSecretVar    = "JWT_REFRESH_SECRET"
	jwtExpiresInVar        = "JWT_EXPIRES_IN"
	jwtMobileExpiresInVar  = "JWT_MOBILE_EXPIRES_IN"
	jwtRefreshExpiresInVar = "JWT_REFRESH_EXPIRES_IN"
)

type TokenConfig interface {
	GetAccessSecret() string
	GetRefreshSecret() string
	GetAccessTokenExpiry() time.Duration
	GetMobileAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Token struct{ source }

var _ TokenConfig = Token{}

func (t Token) GetAccessSecret() string {
	return t.get(jwtSecretVar, "")
}

func (t Token) GetRefreshSecret() string {
	return t.get(jwtRefreshSecretVar, "")
}

func (t Token) GetAccessTokenExpiry() time.Duration {
	return t.duration(jwtExpiresInVar, 10000*time.Second)
}

func (t Token) GetMobileAccessTokenExpiry() time.Duration {
	return t.duration(jwtMobileExpiresInVar, 10*24*time.Hour)
}

func (t Token) GetRefreshTokenExpiry() time.Duration {
	return t.duration(jwtRefreshExpiresInVar, 10*24*time.Hour)
}

func (s source) duration(key string, defaultValue time.Duration) time.Duration {
	d, err := ParseDuration(s.get(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// ParseDuration accepts Go durations ("90m"), a day count ("10d") or plain seconds ("10000").
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty duration")
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid duration %q", raw)
	}
	return d, nil
}
