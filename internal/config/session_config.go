package config

import "time"

// Session store backends
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type SessionConfig interface {
	GetSessionStore() string
	GetSessionDir() string
	GetSessionKey() string
	GetSessionOrigin() string
	GetRedisURL() string
	GetSessionTTL() time.Duration
	GetFailOpenRoles() bool
}

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetSessionStore() string {
	return GetEnv("SESSION_STORE", StoreFile)
}

func (Session) GetSessionDir() string {
	return GetEnv("SESSION_DIR", "./data/sessions")
}

// GetSessionKey is an optional passphrase; when set the file store encrypts values at rest.
func (Session) GetSessionKey() string {
	return GetEnv("SESSION_KEY", "")
}

// GetSessionOrigin scopes persisted keys the way browser storage is scoped to an origin.
func (Session) GetSessionOrigin() string {
	return GetEnv("SESSION_ORIGIN", "http://localhost:3000")
}

func (Session) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

// GetSessionTTL is applied to redis keys; zero means keys never expire.
func (Session) GetSessionTTL() time.Duration {
	return GetEnvDuration("SESSION_TTL", 0)
}

// GetFailOpenRoles restores the legacy role check that grants access when no user is loaded.
func (Session) GetFailOpenRoles() bool {
	return GetEnvBool("FAIL_OPEN_ROLES", false)
}
