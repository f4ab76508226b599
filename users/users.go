package users

import (
	"fmt"
	"strings"
)

// RoleType is one of the closed set of roles the backend assigns to a user.
type RoleType string

const (
	RoleAdmin   RoleType = "admin"   // Full access including the admin area
	RoleManager RoleType = "manager" // Can create and edit products
	RoleViewer  RoleType = "viewer"  // Read-only access
)

// DefaultRole is the role preselected on the registration form.
const DefaultRole = RoleViewer

var knownRoles = map[RoleType]struct{}{
	RoleAdmin:   {},
	RoleManager: {},
	RoleViewer:  {},
}

// ParseRole converts a raw role identifier into a RoleType, rejecting anything outside the closed set.
func ParseRole(s string) (RoleType, error) {
	r := RoleType(strings.TrimSpace(s))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r RoleType) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r RoleType) String() string {
	return string(r)
}

// Roles returns the closed role set in privilege order.
func Roles() []RoleType {
	return []RoleType{RoleAdmin, RoleManager, RoleViewer}
}

// Profile is the cached identity of the signed in user.
type Profile struct {
	ID        int      `json:"id,omitempty"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Role      RoleType `json:"role"`
}

// Validate reports whether the profile is usable as a session identity.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("missing profile")
	}
	if strings.TrimSpace(p.Username) == "" {
		return fmt.Errorf("profile has no username")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("profile has unknown role %q", p.Role)
	}
	return nil
}

// DisplayName prefers the first name and falls back to the username.
func (p *Profile) DisplayName() string {
	if p.FirstName != "" {
		return p.FirstName
	}
	return p.Username
}

// HasAnyRole reports whether the profile's role is one of roles.
func (p *Profile) HasAnyRole(roles ...RoleType) bool {
	for _, r := range roles {
		if r == p.Role {
			return true
		}
	}
	return false
}

// JoinRoles renders roles as a comma separated list.
func JoinRoles(roles []RoleType) string {
	s := make([]string, 0, len(roles))
	for _, r := range roles {
		s = append(s, string(r))
	}
	return strings.Join(s, ", ")
}
