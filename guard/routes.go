package guard

import (
	"os"
	"strings"

	apperrors "github.com/jrsteele09/productms-console/internal/errors"
	"github.com/jrsteele09/productms-console/users"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Route is a guarded view.
type Route struct {
	Path  string      `yaml:"path"`
	Title string      `yaml:"title"`
	Roles Requirement `yaml:"roles"`
}

type Routes []Route

// Guarded view paths
const (
	RouteDashboard     = "/"
	RouteProducts      = "/products"
	RouteProductCreate = "/products/create"
	RouteProductDetail = "/products/{id}"
	RouteProductEdit   = "/products/{id}/edit"
	RouteAdmin         = "/admin"
)

var editors = Requirement{users.RoleAdmin, users.RoleManager}

// DefaultRoutes is the built in route table.
func DefaultRoutes() Routes {
	return Routes{
		{Path: RouteDashboard, Title: "Dashboard"},
		{Path: RouteProducts, Title: "Products"},
		{Path: RouteProductCreate, Title: "Add Product", Roles: editors},
		{Path: RouteProductDetail, Title: "Product"},
		{Path: RouteProductEdit, Title: "Edit Product", Roles: editors},
		{Path: RouteAdmin, Title: "Admin", Roles: Requirement{users.RoleAdmin}},
	}
}

type routesFile struct {
	Routes Routes `yaml:"routes"`
}

// LoadRoutes reads a YAML route table and merges it over DefaultRoutes.
// Only the roles and titles of built in paths can be changed; an unknown
// path is an error because the console has no view to render for it.
func LoadRoutes(path string) (Routes, error) {
	routes := DefaultRoutes()
	if path == "" {
		return routes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "[LoadRoutes] read")
	}
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "[LoadRoutes] parse")
	}

	for _, override := range f.Routes {
		for _, r := range override.Roles {
			if !r.Valid() {
				return nil, errors.Wrapf(apperrors.ErrInvalidConfig, "[LoadRoutes] route %s: unknown role %q", override.Path, r)
			}
		}
		i := routes.index(override.Path)
		if i < 0 {
			return nil, errors.Wrapf(apperrors.ErrInvalidConfig, "[LoadRoutes] unknown route %s", override.Path)
		}
		routes[i].Roles = override.Roles
		if strings.TrimSpace(override.Title) != "" {
			routes[i].Title = override.Title
		}
	}
	return routes, nil
}

func (rs Routes) index(path string) int {
	for i, r := range rs {
		if r.Path == path {
			return i
		}
	}
	return -1
}

// Lookup returns the route registered for path.
func (rs Routes) Lookup(path string) (Route, bool) {
	if i := rs.index(path); i >= 0 {
		return rs[i], true
	}
	return Route{}, false
}
