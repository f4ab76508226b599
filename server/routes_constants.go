package server

import "github.com/jrsteele09/productms-console/guard"

// Route path constants
const (
	// Auth pages
	RouteLogin    = guard.LoginPath
	RouteRegister = guard.RegisterPath
	RouteLogout   = "/logout"

	// Catch all for the not found page
	RouteNotFound = "/"
)

// Backend resources the guarded views load, relative to the API base URL
const (
	APIDashboardStats = "/dashboard/stats/"
	APIProducts       = "/products/"
	APIProduct        = "/products/%s/"
	APIAdminOnly      = "/admin-only/"
)
