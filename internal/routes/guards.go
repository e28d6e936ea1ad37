// Package routes decides which view may be shown for the current session.
package routes

// Route names a view.
type Route string

const (
	RouteHome      Route = "/"
	RouteLogin     Route = "/login"
	RouteRegister  Route = "/register"
	RouteDashboard Route = "/dashboard"
)

// LandingRoute is where an authenticated user is sent.
const LandingRoute = RouteDashboard

// Decision is the outcome of a guard: render the view or redirect.
type Decision struct {
	Render   bool
	Redirect Route
}

// Guard maps the session flag to a Decision.
type Guard func(active bool) Decision

// PrivateRoute renders only for an active session; otherwise it redirects
// to the login view.
func PrivateRoute(active bool) Decision {
	if active {
		return Decision{Render: true}
	}
	return Decision{Redirect: RouteLogin}
}

// PublicRoute renders only for an inactive session; otherwise it
// redirects to the landing view.
func PublicRoute(active bool) Decision {
	if !active {
		return Decision{Render: true}
	}
	return Decision{Redirect: LandingRoute}
}

// Unguarded always renders.
func Unguarded(bool) Decision {
	return Decision{Render: true}
}
