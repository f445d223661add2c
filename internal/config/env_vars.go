package config

import (
	"strings"
)

const (
	portEnvVar  = "PORT"
	appNameVar  = "APP_NAME"
	envVar      = "ENV"
	logLevelVar = "LOG_LEVEL"
)

const (
	EnvDev        = "DEV"
	EnvProduction = "PRODUCTION"
)

type EnvVars struct{ source }

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "Social Auth")
}

// GetEnv returns the upper-cased environment name, DEV by default
func (e EnvVars) GetEnv() string {
	return strings.ToUpper(e.get(envVar, EnvDev))
}

func (e EnvVars) GetLogLevel() string {
	return e.get(logLevelVar, "info")
}

func (e EnvVars) IsDev() bool {
	env := e.GetEnv()
	return env == EnvDev || env == "DEVELOPMENT"
}

func (e EnvVars) IsProduction() bool {
	env := e.GetEnv()
	return env == EnvProduction || env == "PROD"
}
