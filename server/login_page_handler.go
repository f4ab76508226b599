package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/productms-console/auth"
	"github.com/jrsteele09/productms-console/authmodel"
	"github.com/jrsteele09/productms-console/gateway"
	"github.com/jrsteele09/productms-console/guard"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Messages shown on the login page
const (
	msgInvalidCredentials = "Invalid username or password."
	msgLoginFailed        = "Login failed. Please try again."
)

// LoginPageHandler displays the login page (GET /login).
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := guard.SafeNext(r.URL.Query().Get(guard.NextParam))

		switch s.sessionFrom(r).Session().State {
		case auth.StateAuthenticated:
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		case auth.StateInitializing:
			s.renderLoading(w, r)
			return
		}

		data := s.newPage(r, "Login")
		data.Next = next
		s.pages.render(w, http.StatusOK, pageLogin, data)
	}
}

// LoginSubmissionHandler processes the login form (POST /login) and resumes
// the navigation the guard interrupted.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := authmodel.LoginRequest{
			Username: strings.TrimSpace(r.PostFormValue("username")),
			Password: r.PostFormValue("password"),
		}
		next := guard.SafeNext(r.PostFormValue(guard.NextParam))

		_, err := s.sessionFrom(r).Login(r.Context(), form)
		if err == nil {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}

		data := s.newPage(r, "Login")
		data.Next = next
		data.Form["username"] = form.Username

		status := http.StatusBadGateway
		var validationErr *gateway.ValidationError
		switch {
		case errors.As(err, &validationErr):
			status = http.StatusBadRequest
			data.Fields = validationErr.Fields
		case errors.Is(err, gateway.ErrInvalidCredentials):
			status = http.StatusUnauthorized
			data.Error = msgInvalidCredentials
		default:
			log.Err(err).Str("username", form.Username).Msg("Login failed")
			data.Error = msgLoginFailed
		}
		s.pages.render(w, status, pageLogin, data)
	}
}

// LogoutHandler ends the session (POST /logout).
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessionFrom(r).Logout(r.Context())
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}
