package authmodel

import (
	"github.com/jrsteele09/productms-console/internal/utils"
	"github.com/jrsteele09/productms-console/users"
)

// AuthResponse is returned by both /auth/login/ and /auth/register/.
type AuthResponse struct {
	// Access is the bearer token attached to every subsequent API call.
	Access *string `json:"access,omitempty"`

	// Refresh is stored alongside Access and discarded with it.
	Refresh *string `json:"refresh,omitempty"`

	// User is the profile of the account the tokens were issued for.
	User *users.Profile `json:"user,omitempty"`
}

// Complete reports whether the response carries both tokens and a usable profile.
func (r *AuthResponse) Complete() bool {
	if r == nil {
		return false
	}
	if utils.Value(r.Access) == "" || utils.Value(r.Refresh) == "" {
		return false
	}
	return r.User.Validate() == nil
}

// AccessToken returns the access token or "" when absent.
func (r *AuthResponse) AccessToken() string {
	return utils.Value(r.Access)
}

// RefreshToken returns the refresh token or "" when absent.
func (r *AuthResponse) RefreshToken() string {
	return utils.Value(r.Refresh)
}
