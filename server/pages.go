package server

import (
	"net/http"

	"github.com/jrsteele09/productms-console/authmodel"
	"github.com/jrsteele09/productms-console/guard"
	"github.com/jrsteele09/productms-console/users"
)

// pageData is what every template receives.
type pageData struct {
	AppName string
	Title   string
	Nav     *navBar // nil when nobody is signed in
	Refresh bool

	Error  string
	Fields authmodel.FieldErrors
	Form   map[string]string
	Next   string
	Roles  []users.RoleType

	Required string
	Data     string
}

// navBar is shown only to an authenticated session.
type navBar struct {
	DisplayName string
	Role        users.RoleType
	Active      string
	CanEdit     bool
	IsAdmin     bool
}

func (s *Server) newPage(r *http.Request, title string) pageData {
	data := pageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		Form:    map[string]string{},
	}

	c := s.sessionFrom(r)
	sess := c.Session()
	if !sess.Authenticated() {
		return data
	}
	data.Nav = &navBar{
		DisplayName: sess.User.DisplayName(),
		Role:        sess.User.Role,
		Active:      r.URL.Path,
		CanEdit:     c.HasRole(users.RoleAdmin, users.RoleManager),
		IsAdmin:     c.HasRole(users.RoleAdmin),
	}
	return data
}

// renderLoading is the Suspend outcome: the browser retries shortly.
func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(r, "Loading")
	data.Refresh = true
	w.Header().Set("Retry-After", "1")
	w.Header().Set("Cache-Control", "no-store")
	s.pages.render(w, http.StatusServiceUnavailable, pageLoading, data)
}

func (s *Server) renderDenied(w http.ResponseWriter, r *http.Request, required guard.Requirement) {
	data := s.newPage(r, "Access Denied")
	data.Required = required.String()
	s.pages.render(w, http.StatusForbidden, pageDenied, data)
}

// NotFoundHandler serves every path no other route claims.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.pages.render(w, http.StatusNotFound, pageNotFound, s.newPage(r, "Not Found"))
	}
}
