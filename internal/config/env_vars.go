package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	hostEnvVar       = "HOST"
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	logLevelEnvVar   = "LOG_LEVEL"
	routesFileEnvVar = "ROUTES_FILE"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "3000")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetHost is the interface the console listens on. It defaults to loopback
// because the process holds a single signed in session.
func (EnvVars) GetHost() string {
	return GetEnv(hostEnvVar, "127.0.0.1")
}

// GetAddr is the listen address, host and port.
func (e EnvVars) GetAddr() string {
	return e.GetHost() + e.GetPort()
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "ProductMS")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetLogLevel returns a zerolog level name (debug, info, warn, error).
func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

// GetRoutesFile is an optional YAML file overriding the guarded route table.
func (EnvVars) GetRoutesFile() string {
	return GetEnv(routesFileEnvVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvBool(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

func GetEnvDuration(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}
