package sessions

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Credentials is the access/refresh token pair issued by the backend.
// Both tokens are present or both are absent; a half pair is treated as no credentials.
type Credentials struct {
	Access  string
	Refresh string
}

// Valid reports whether both tokens are present.
func (c Credentials) Valid() bool {
	return c.Access != "" && c.Refresh != ""
}

// AccessExpiry reads the exp claim of the access token without verifying its
// signature. Opaque (non-JWT) tokens and tokens without exp report ok=false.
func (c Credentials) AccessExpiry() (expiry time.Time, ok bool) {
	if c.Access == "" {
		return time.Time{}, false
	}
	claims := jwtlib.RegisteredClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(c.Access, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Expired reports whether the access token carries an exp claim that is before now.
func (c Credentials) Expired(now time.Time) bool {
	exp, ok := c.AccessExpiry()
	return ok && exp.Before(now)
}
