package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"
)

var (
	// ErrNoCredentials is returned by SetAccessOnly when no refresh
	// credential is held.
	ErrNoCredentials = errors.New("no credentials stored")

	// ErrEmptyCredential is returned by Set and SetAccessOnly for empty values.
	ErrEmptyCredential = errors.New("credential value must not be empty")
)

// Credentials is the access/refresh pair owned by the Store.
type Credentials struct {
	// Access is the short-lived credential sent on every protected call.
	Access string
	// Refresh is the long-lived credential used only for renewal.
	Refresh string
}

// Complete reports whether both credentials are present.
func (c Credentials) Complete() bool {
	return c.Access != "" && c.Refresh != ""
}

// Token converts the pair to an oauth2.Token. Expiry is taken from the
// access credential's exp claim when it is readable.
func (c Credentials) Token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  c.Access,
		RefreshToken: c.Refresh,
		TokenType:    "Bearer",
	}
	if exp, ok := ExpiresAt(c.Access); ok {
		token.Expiry = exp
	}
	return token
}

// Store is the durable, shared holder of the credential pair.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	creds   Credentials
}

// New creates a store on top of backend. Call Load to read existing
// entries; until then the store is empty.
func New(backend Backend) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{backend: backend}
}

// Load reads both entries from the backend. A pair with only one entry
// present is treated as corrupt: both entries are removed and the store
// stays empty.
func (s *Store) Load(ctx context.Context) error {
	access, hasAccess, err := s.backend.Read(ctx, EntryAccess)
	if err != nil {
		return err
	}
	refresh, hasRefresh, err := s.backend.Read(ctx, EntryRefresh)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := Credentials{Access: access, Refresh: refresh}
	if !hasAccess || !hasRefresh || !loaded.Complete() {
		s.creds = Credentials{}
		if hasAccess || hasRefresh {
			slog.Warn("SECURITY_AUDIT: Incomplete credential pair discarded",
				"event", "credentials_discarded",
				"has_access", hasAccess,
				"has_refresh", hasRefresh,
			)
			return s.removeAllLocked(ctx)
		}
		return nil
	}

	s.creds = loaded
	return nil
}

// Get returns the current pair, or false when no session credentials are held.
func (s *Store) Get() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.creds.Complete() {
		return Credentials{}, false
	}
	return s.creds, true
}

// Access returns the current access credential or "".
func (s *Store) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Access
}

// Set replaces both credentials.
// SECURITY: Token values are never logged.
func (s *Store) Set(ctx context.Context, access, refresh string) error {
	if access == "" || refresh == "" {
		return ErrEmptyCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeLocked(ctx, EntryRefresh, refresh); err != nil {
		return err
	}
	if err := s.writeLocked(ctx, EntryAccess, access); err != nil {
		return err
	}

	s.creds = Credentials{Access: access, Refresh: refresh}
	slog.Info("SECURITY_AUDIT: Credentials stored",
		"event", "credentials_stored",
	)
	return nil
}

// SetAccessOnly replaces the access credential after a renewal; the refresh
// credential is retained.
func (s *Store) SetAccessOnly(ctx context.Context, access string) error {
	if access == "" {
		return ErrEmptyCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds.Refresh == "" {
		return ErrNoCredentials
	}

	if err := s.writeLocked(ctx, EntryAccess, access); err != nil {
		return err
	}

	s.creds.Access = access
	slog.Debug("SECURITY_AUDIT: Access credential renewed",
		"event", "access_renewed",
	)
	return nil
}

// Clear removes both credentials. The in-memory pair is always dropped,
// even if the backend fails, so readers never observe a stale session.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadCredentials := s.creds.Complete()
	s.creds = Credentials{}

	if err := s.removeAllLocked(ctx); err != nil {
		slog.Warn("SECURITY_AUDIT: Credential removal failed",
			"event", "credentials_clear_failed",
			"error", err.Error(),
		)
		return err
	}

	slog.Info("SECURITY_AUDIT: Credentials cleared",
		"event", "credentials_cleared",
		"had_credentials", hadCredentials,
	)
	return nil
}

// writeLocked writes one entry. On failure both entries are removed and the
// in-memory pair dropped so the backend never keeps half a pair.
// REQUIRES: s.mu held for writing.
func (s *Store) writeLocked(ctx context.Context, name, value string) error {
	err := s.backend.Write(ctx, name, value)
	if err == nil {
		return nil
	}

	s.creds = Credentials{}
	if rmErr := s.removeAllLocked(ctx); rmErr != nil {
		err = errors.Join(err, rmErr)
	}
	slog.Warn("SECURITY_AUDIT: Credential storage failed",
		"event", "credentials_store_failed",
		"entry", name,
		"error", err.Error(),
	)
	return fmt.Errorf("failed to persist credentials: %w", err)
}

// REQUIRES: s.mu held for writing.
func (s *Store) removeAllLocked(ctx context.Context) error {
	return errors.Join(
		s.backend.Remove(ctx, EntryAccess),
		s.backend.Remove(ctx, EntryRefresh),
	)
}
