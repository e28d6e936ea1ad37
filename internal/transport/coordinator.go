package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"stockportal/internal/tokenstore"
	"stockportal/pkg/logging"
)

// renewalKey identifies the single pending renewal in the singleflight group.
const renewalKey = "renewal"

// DefaultRenewalTimeout bounds one renewal request.
const DefaultRenewalTimeout = 15 * time.Second

// DefaultExemptPaths are the credential endpoints whose failures are never
// intercepted.
var DefaultExemptPaths = []string{"/token/", "/token/refresh/"}

// State is the renewal state of a RefreshCoordinator.
type State int

const (
	// StateIdle means no renewal is running.
	StateIdle State = iota
	// StateRefreshing means exactly one renewal is in flight.
	StateRefreshing
	// StateFailed is entered when a renewal fails, before returning to idle.
	StateFailed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRefreshing:
		return "Refreshing"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Renewer exchanges a refresh credential for a new access credential.
type Renewer interface {
	Refresh(ctx context.Context, refresh string) (string, error)
}

// CredentialStore is the subset of the token store the coordinator uses.
type CredentialStore interface {
	Get() (tokenstore.Credentials, bool)
	SetAccessOnly(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}

// RefreshCoordinator turns 401 responses into one shared renewal and a
// replay of every affected call.
type RefreshCoordinator struct {
	store   CredentialStore
	renewer Renewer
	exempt  []string
	timeout time.Duration

	mu    sync.Mutex
	state State
	group singleflight.Group

	onTransition func(from, to State)
	onFailure    []func(error)

	renewals atomic.Int64
}

// CoordinatorOption configures a RefreshCoordinator.
type CoordinatorOption func(*RefreshCoordinator)

// WithExemptPaths replaces the list of path suffixes that bypass renewal.
func WithExemptPaths(paths ...string) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		c.exempt = append([]string(nil), paths...)
	}
}

// WithRenewalTimeout bounds each renewal request.
func WithRenewalTimeout(d time.Duration) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransitionHook registers a function called on every state change.
// It runs with the coordinator lock held and must not call back into the
// coordinator.
func WithTransitionHook(fn func(from, to State)) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		c.onTransition = fn
	}
}

// WithFailureListener registers a function called once per failed renewal,
// after the store has been cleared and before waiting calls are released.
func WithFailureListener(fn func(error)) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		c.onFailure = append(c.onFailure, fn)
	}
}

// NewRefreshCoordinator creates a coordinator in StateIdle.
func NewRefreshCoordinator(store CredentialStore, renewer Renewer, opts ...CoordinatorOption) *RefreshCoordinator {
	c := &RefreshCoordinator{
		store:   store,
		renewer: renewer,
		exempt:  append([]string(nil), DefaultExemptPaths...),
		timeout: DefaultRenewalTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current renewal state.
func (c *RefreshCoordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Renewals returns the number of renewal requests issued so far.
func (c *RefreshCoordinator) Renewals() int64 {
	return c.renewals.Load()
}

// HandleResponse is the coordinator's response stage.
func (c *RefreshCoordinator) HandleResponse(req *http.Request, resp *http.Response, replay Next) (*http.Response, error) {
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if c.isExempt(req.URL.Path) {
		return resp, nil
	}
	if IsReplay(req.Context()) {
		logging.Debug("Refresh", "Replayed call to %s rejected again, not renewing", req.URL.Path)
		return resp, nil
	}
	if !rewindable(req) {
		logging.Debug("Refresh", "Call to %s has a body that cannot be replayed, not renewing", req.URL.Path)
		return resp, nil
	}

	sent := bearerToken(req)
	drainAndClose(resp)

	if _, err := c.Renew(req.Context(), sent); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Endpoint == "" {
			copied := *authErr
			copied.Endpoint = req.URL.String()
			return nil, &copied
		}
		return nil, err
	}

	next, err := replayRequest(req)
	if err != nil {
		return nil, err
	}
	logging.Debug("Refresh", "Replaying call to %s", req.URL.Path)
	return replay(next)
}

// Renew ensures the store holds an access credential newer than stale. If
// the store already moved past stale no renewal is issued. Otherwise the
// caller joins the pending renewal, starting one if none is running.
//
// The renewal itself is detached from ctx: a cancelled caller stops
// waiting but does not abort the renewal other callers depend on.
func (c *RefreshCoordinator) Renew(ctx context.Context, stale string) (string, error) {
	c.mu.Lock()
	creds, ok := c.store.Get()
	if !ok {
		c.mu.Unlock()
		return "", &AuthError{Kind: KindUnauthenticated, Err: ErrUnauthenticated}
	}

	if c.state == StateIdle {
		if creds.Access != stale {
			c.mu.Unlock()
			logging.Debug("Refresh", "Access credential already renewed, skipping renewal")
			return creds.Access, nil
		}
		c.transitionLocked(StateRefreshing)
	}

	renewCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(renewalKey, func() (interface{}, error) {
		return c.renew(renewCtx, creds.Refresh)
	})
	c.mu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// renew runs the single renewal request and settles its outcome.
func (c *RefreshCoordinator) renew(ctx context.Context, refresh string) (interface{}, error) {
	c.renewals.Add(1)
	logging.Info("Refresh", "Renewing access credential")

	// Store updates must still run when the renewal timed out.
	settle := context.WithoutCancel(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	access, err := c.renewer.Refresh(ctx, refresh)

	c.mu.Lock()
	if err == nil {
		err = c.store.SetAccessOnly(settle, access)
	}
	if err == nil {
		// Forget and the return to idle share one critical section, so a
		// caller that observes idle always starts a fresh flight.
		c.group.Forget(renewalKey)
		c.transitionLocked(StateIdle)
		c.mu.Unlock()

		slog.Info("SECURITY_AUDIT: access credential renewed", "event", "credential_renewed")
		return access, nil
	}

	if clearErr := c.store.Clear(settle); clearErr != nil {
		logging.Warn("Refresh", "Failed to clear credentials after renewal failure: %v", clearErr)
	}
	c.transitionLocked(StateFailed)
	c.group.Forget(renewalKey)
	c.transitionLocked(StateIdle)
	listeners := slices.Clone(c.onFailure)
	c.mu.Unlock()

	logging.Error("Refresh", err, "Renewal failed, session ended")
	slog.Warn("SECURITY_AUDIT: renewal failed, credentials cleared", "event", "credential_renewal_failed")

	authErr := &AuthError{Kind: KindSessionExpired, Err: err}
	for _, fn := range listeners {
		fn(authErr)
	}
	return "", authErr
}

func (c *RefreshCoordinator) transitionLocked(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	logging.Debug("Refresh", "State %s -> %s", from, to)
	if c.onTransition != nil {
		c.onTransition(from, to)
	}
}

func (c *RefreshCoordinator) isExempt(path string) bool {
	for _, suffix := range c.exempt {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
