package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/productms-console/auth"
	"github.com/jrsteele09/productms-console/gateway"
	"github.com/jrsteele09/productms-console/guard"
	"github.com/jrsteele09/productms-console/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Server is the view shell: it renders the console pages and runs the
// route guard on every navigation.
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.EnvConfig
	session *auth.Controller
	api     *gateway.APIClient
	views   guard.Routes
	pages   *pages
}

func New(config config.EnvConfig, session *auth.Controller, api *gateway.APIClient, views guard.Routes) (*Server, error) {
	if session == nil {
		return nil, errors.New("[Server New] session controller is required")
	}
	if api == nil {
		return nil, errors.New("[Server New] API client is required")
	}
	if len(views) == 0 {
		views = guard.DefaultRoutes()
	}

	p, err := parsePages()
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to parse templates")
	}

	s := &Server{
		env:     config.GetEnv(),
		mux:     http.NewServeMux(),
		config:  config,
		session: session,
		api:     api,
		views:   views,
		pages:   p,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}
