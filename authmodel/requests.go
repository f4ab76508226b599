package authmodel

import (
	"strings"

	"github.com/jrsteele09/productms-console/users"
)

// LoginRequest is the body posted to /auth/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks for missing fields before any request is sent.
func (r LoginRequest) Validate() FieldErrors {
	fe := FieldErrors{}
	if strings.TrimSpace(r.Username) == "" {
		fe.Add("username", "This field is required.")
	}
	if r.Password == "" {
		fe.Add("password", "This field is required.")
	}
	return fe
}

// RegistrationRequest is the body posted to /auth/register/.
type RegistrationRequest struct {
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	Password        string         `json:"password"`
	PasswordConfirm string         `json:"password_confirm"`
	Role            users.RoleType `json:"role"`
}

// Validate checks the fields the client can decide on its own: required
// values, the password confirmation and the requested role.
func (r RegistrationRequest) Validate() FieldErrors {
	fe := FieldErrors{}
	required := map[string]string{
		"username":   r.Username,
		"email":      r.Email,
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"password":   r.Password,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			fe.Add(field, "This field is required.")
		}
	}
	if r.Password != r.PasswordConfirm {
		fe.Add("password_confirm", "Passwords don't match.")
	}
	if !r.Role.Valid() {
		fe.Add("role", "Select a valid role.")
	}
	return fe
}
