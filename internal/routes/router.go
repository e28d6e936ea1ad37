package routes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stockportal/pkg/logging"
)

// maxRedirects breaks guard cycles.
const maxRedirects = 4

var (
	// ErrUnknownRoute is returned when navigating to an unregistered route.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrRedirectLoop is returned when guards keep redirecting.
	ErrRedirectLoop = errors.New("too many redirects")
)

// View renders a route. It runs outside the router lock.
type View func(ctx context.Context) error

// Session is the observable session flag the router evaluates.
type Session interface {
	Active() bool
	Subscribe(fn func(active bool)) (unsubscribe func())
}

type entry struct {
	guard Guard
	view  View
}

// Router evaluates guards on every navigation and follows redirects.
type Router struct {
	session Session

	mu      sync.Mutex
	routes  map[Route]entry
	current Route

	unsubscribe func()
}

// NewRouter creates a router bound to session. When the session turns
// inactive while a view that requires it is current, the router follows
// that view's redirect.
func NewRouter(session Session) *Router {
	r := &Router{
		session: session,
		routes:  make(map[Route]entry),
	}
	r.unsubscribe = session.Subscribe(r.sessionChanged)
	return r
}

// Register binds a guard and a view to route, replacing any previous binding.
// A view reached through a session-loss redirect runs on the goroutine that
// ended the session, with a background context, and must not block.
func (r *Router) Register(route Route, guard Guard, view View) {
	if guard == nil {
		guard = Unguarded
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route] = entry{guard: guard, view: view}
}

// Current returns the route that was last rendered.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Resolve follows guard redirects from route and returns the route that
// would render, without rendering it.
func (r *Router) Resolve(route Route) (Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, _, err := r.resolveLocked(route)
	return target, err
}

// Navigate resolves route and renders the resulting view.
func (r *Router) Navigate(ctx context.Context, route Route) error {
	r.mu.Lock()
	target, e, err := r.resolveLocked(route)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.current = target
	r.mu.Unlock()

	if target != route {
		logging.Debug("Router", "Redirected %s -> %s", route, target)
	}
	if e.view == nil {
		return nil
	}
	return e.view(ctx)
}

// Close stops following session changes.
func (r *Router) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

func (r *Router) resolveLocked(route Route) (Route, entry, error) {
	active := r.session.Active()
	for hop := 0; hop <= maxRedirects; hop++ {
		e, ok := r.routes[route]
		if !ok {
			return "", entry{}, fmt.Errorf("%w: %s", ErrUnknownRoute, route)
		}
		decision := e.guard(active)
		if decision.Render {
			return route, e, nil
		}
		route = decision.Redirect
	}
	return "", entry{}, fmt.Errorf("%w from %s", ErrRedirectLoop, route)
}

func (r *Router) sessionChanged(active bool) {
	if active {
		return
	}

	r.mu.Lock()
	current := r.current
	e, ok := r.routes[current]
	r.mu.Unlock()
	if !ok || e.guard(false).Render {
		return
	}

	logging.Info("Router", "Session ended while on %s", current)
	if err := r.Navigate(context.Background(), current); err != nil {
		logging.Debug("Router", "Navigation after session end: %v", err)
	}
}
