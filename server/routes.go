package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/productms-console/guard"
)

func (s *Server) initRoutes() {
	html := s.HTMLMiddleWare()

	// AUTH
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), html...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), html...))
	s.RegisterRouteFunc("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), html...))
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterSubmissionHandler(), html...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), html...))

	// GUARDED VIEWS
	for _, view := range s.views {
		s.RegisterRouteFunc("GET "+viewPattern(view.Path), ChainMiddleware(s.ViewHandler(view, viewLoader(view.Path)), html...))
	}

	s.RegisterRouteHandler(RouteNotFound, ChainMiddleware(s.NotFoundHandler(), html...))
}

// viewPattern turns a view path into a ServeMux pattern. The dashboard
// lives at the root, which must not swallow every other path.
func viewPattern(path string) string {
	if path == guard.RouteDashboard {
		return "/{$}"
	}
	return path
}

// viewLoader returns the backend call that fills a view, or nil for views
// that render without data.
func viewLoader(path string) dataLoader {
	switch path {
	case guard.RouteDashboard:
		return staticLoader(APIDashboardStats)
	case guard.RouteProducts:
		return staticLoader(APIProducts)
	case guard.RouteProductDetail, guard.RouteProductEdit:
		return func(r *http.Request) string {
			return fmt.Sprintf(APIProduct, url.PathEscape(r.PathValue("id")))
		}
	case guard.RouteAdmin:
		return staticLoader(APIAdminOnly)
	default:
		return nil
	}
}

func staticLoader(apiPath string) dataLoader {
	return func(*http.Request) string { return apiPath }
}
