package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/productms-console/auth"
	"github.com/jrsteele09/productms-console/authmodel"
	"github.com/jrsteele09/productms-console/gateway"
	"github.com/jrsteele09/productms-console/guard"
	"github.com/jrsteele09/productms-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const msgRegistrationFailed = "Registration failed. Please try again."

// RegisterPageHandler displays the sign up form (GET /register).
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch s.sessionFrom(r).Session().State {
		case auth.StateAuthenticated:
			http.Redirect(w, r, guard.HomePath, http.StatusSeeOther)
			return
		case auth.StateInitializing:
			s.renderLoading(w, r)
			return
		}

		data := s.newPage(r, "Register")
		data.Roles = users.Roles()
		data.Form["role"] = users.DefaultRole.String()
		s.pages.render(w, http.StatusOK, pageRegister, data)
	}
}

// RegisterSubmissionHandler creates the account and signs it in (POST /register).
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		role := users.DefaultRole
		if v := strings.TrimSpace(r.PostFormValue("role")); v != "" {
			role = users.RoleType(v)
		}
		form := authmodel.RegistrationRequest{
			Username:        strings.TrimSpace(r.PostFormValue("username")),
			Email:           strings.TrimSpace(r.PostFormValue("email")),
			FirstName:       strings.TrimSpace(r.PostFormValue("first_name")),
			LastName:        strings.TrimSpace(r.PostFormValue("last_name")),
			Password:        r.PostFormValue("password"),
			PasswordConfirm: r.PostFormValue("password_confirm"),
			Role:            role,
		}

		_, err := s.sessionFrom(r).Register(r.Context(), form)
		if err == nil {
			http.Redirect(w, r, guard.HomePath, http.StatusSeeOther)
			return
		}

		// Passwords are never echoed back.
		data := s.newPage(r, "Register")
		data.Roles = users.Roles()
		data.Form["username"] = form.Username
		data.Form["email"] = form.Email
		data.Form["first_name"] = form.FirstName
		data.Form["last_name"] = form.LastName
		data.Form["role"] = form.Role.String()

		status := http.StatusBadGateway
		var validationErr *gateway.ValidationError
		if errors.As(err, &validationErr) {
			status = http.StatusBadRequest
			data.Fields = validationErr.Fields
		} else {
			log.Err(err).Str("username", form.Username).Msg("Registration failed")
			data.Error = msgRegistrationFailed
		}
		s.pages.render(w, status, pageRegister, data)
	}
}
