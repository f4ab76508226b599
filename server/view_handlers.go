package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/productms-console/gateway"
	"github.com/jrsteele09/productms-console/guard"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const msgLoadFailed = "Could not load data from the server."

// dataLoader maps a request to the backend path whose JSON fills the view.
type dataLoader func(r *http.Request) string

// ViewHandler runs the route guard for view and, when it may render,
// loads the view data through the bearer client.
func (s *Server) ViewHandler(view guard.Route, load dataLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decision := guard.Check(s.sessionFrom(r), view.Roles, r.URL.RequestURI())

		switch decision.Kind {
		case guard.Suspend:
			s.renderLoading(w, r)
		case guard.RedirectToLogin:
			http.Redirect(w, r, guard.LoginURL(decision.Next), http.StatusSeeOther)
		case guard.Deny:
			s.renderDenied(w, r, decision.Required)
		case guard.Render:
			s.renderView(w, r, view, load)
		default:
			log.Error().Stringer("decision", decision.Kind).Msg("Unhandled guard decision")
			s.renderDenied(w, r, view.Roles)
		}
	}
}

func (s *Server) renderView(w http.ResponseWriter, r *http.Request, view guard.Route, load dataLoader) {
	data := s.newPage(r, view.Title)
	status := http.StatusOK

	if load != nil {
		var payload any
		err := s.api.GetJSON(r.Context(), load(r), &payload)
		switch {
		case errors.Is(err, gateway.ErrUnauthorized):
			// The backend no longer accepts the token: drop the session and
			// come back here after signing in again.
			log.Warn().Str("path", r.URL.Path).Msg("Backend rejected the session token, signing out")
			s.sessionFrom(r).Logout(r.Context())
			http.Redirect(w, r, guard.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		case err != nil:
			log.Err(err).Str("path", r.URL.Path).Msg("Failed to load view data")
			status = http.StatusBadGateway
			data.Error = msgLoadFailed
		default:
			pretty, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				log.Err(err).Msg("Failed to format view data")
			}
			data.Data = string(pretty)
		}
	}

	s.pages.render(w, status, pageView, data)
}
