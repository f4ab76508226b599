package config

import (
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the backend root, e.g. "http://localhost:8000/api", without a trailing slash.
func (API) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv("API_BASE_URL", "http://localhost:8000/api"), "/")
}

func (API) GetRequestTimeout() time.Duration {
	return GetEnvDuration("API_TIMEOUT", 10*time.Second)
}
