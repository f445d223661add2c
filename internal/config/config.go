package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	SecurityConfig
	StoreConfig
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	IsDev() bool
	IsProduction() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// source resolves a setting: override flags first, then the environment,
// then the config file, then the default.
type source struct {
	overrides map[string]string
	file      map[string]string
}

func (s source) get(key, defaultValue string) string {
	if v, ok := s.overrides[key]; ok && v != "" {
		return v
	}
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return defaultValue
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Security
	Store
}

// New returns a Config that reads only the environment
func New() Config {
	return newMainConfig(source{})
}

// Load reads the YAML file at path, if any, and applies overrides on top of
// everything else. Keys of overrides are environment variable names.
func Load(path string, overrides map[string]string) (Config, error) {
	src := source{overrides: overrides}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "[config.Load] ReadFile")
		}
		var file FileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, errors.Wrapf(err, "[config.Load] parse %s", path)
		}
		src.file = file.values()
	}
	return newMainConfig(src), nil
}

func newMainConfig(src source) mainConfig {
	return mainConfig{
		EnvVars:  EnvVars{src},
		Cors:     Cors{src},
		Token:    Token{src},
		Security: Security{src},
		Store:    Store{src},
	}
}

// Validate reports settings the server cannot start without
func (c mainConfig) Validate() error {
	if c.GetAccessSecret() == "" {
		return errors.Errorf("%s is required", jwtSecretVar)
	}
	if c.GetRefreshSecret() == "" {
		return errors.Errorf("%s is required", jwtRefreshSecretVar)
	}
	if c.GetAccessSecret() == c.GetRefreshSecret() {
		return errors.Errorf("%s and %s must differ", jwtSecretVar, jwtRefreshSecretVar)
	}
	for _, key := range []string{jwtExpiresInVar, jwtMobileExpiresInVar, jwtRefreshExpiresInVar, loginCooldownVar} {
		if raw := c.Token.get(key, ""); raw != "" {
			if _, err := ParseDuration(raw); err != nil {
				return errors.Wrapf(err, "%s", key)
			}
		}
	}
	if _, err := ParseTrustedProxies(c.Security.get(trustedProxiesVar, "")); err != nil {
		return errors.Wrapf(err, "%s", trustedProxiesVar)
	}
	if c.GetSystemAdminEmail() != "" && c.GetSystemAdminPassword() == "" {
		return errors.Errorf("%s is required when %s is set", adminPasswordVar, adminEmailVar)
	}
	switch c.GetStore() {
	case StoreMemory:
	case StorePostgres:
		if c.GetDatabaseURL() == "" {
			return errors.Errorf("%s is required when %s=%s", databaseURLVar, storeVar, StorePostgres)
		}
	default:
		return errors.Errorf("%s must be %s or %s", storeVar, StoreMemory, StorePostgres)
	}
	return nil
}
