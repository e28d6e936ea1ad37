// Package session tracks whether the user currently holds a usable
// credential pair and notifies observers when that changes.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stockportal/internal/tokenstore"
	"stockportal/pkg/logging"
)

// CredentialStore is the subset of the token store the session needs.
type CredentialStore interface {
	Load(ctx context.Context) error
	Get() (tokenstore.Credentials, bool)
	Clear(ctx context.Context) error
}

// State is the observable "is the user logged in" flag.
type State struct {
	store CredentialStore
	now   func() time.Time

	mu     sync.Mutex
	active bool
	subs   map[int]func(active bool)
	nextID int
}

// Option configures a State.
type Option func(*State)

// WithClock overrides the time source used to judge credential expiry.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// New creates an inactive session over store.
func New(store CredentialStore, opts ...Option) *State {
	s := &State{
		store: store,
		now:   time.Now,
		subs:  make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Active reports whether the session is active.
func (s *State) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Subscribe registers fn to be called with the new value on every change.
// The returned function removes the subscription.
func (s *State) Subscribe(fn func(active bool)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Init loads persisted credentials and derives the initial value. The
// session starts active only when both credentials are present and the
// refresh credential is not known to be expired. A known-expired pair is
// cleared.
func (s *State) Init(ctx context.Context) error {
	if err := s.store.Load(ctx); err != nil {
		s.SetActive(false)
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	creds, ok := s.store.Get()
	if !ok {
		logging.Debug("Session", "No stored credentials, session inactive")
		s.SetActive(false)
		return nil
	}

	if tokenstore.KnownExpired(creds.Refresh, s.now()) {
		logging.Info("Session", "Stored refresh credential has expired, clearing")
		slog.Info("SECURITY_AUDIT: expired credentials discarded at startup", "event", "credentials_expired")
		s.SetActive(false)
		if err := s.store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear expired credentials: %w", err)
		}
		return nil
	}

	s.SetActive(true)
	return nil
}

// SetActive sets the flag and notifies subscribers if it changed.
func (s *State) SetActive(active bool) {
	s.mu.Lock()
	if s.active == active {
		s.mu.Unlock()
		return
	}
	s.active = active
	subs := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	logging.Debug("Session", "Session active=%t", active)
	for _, fn := range subs {
		fn(active)
	}
}

// Expire ends the session after a failed renewal. It has the signature of
// a renewal failure listener.
func (s *State) Expire(err error) {
	if err != nil {
		logging.Info("Session", "Session ended: %v", err)
	}
	s.SetActive(false)
}
