// Package auth implements the user-facing credential flows: login, logout,
// registration and startup restoration of a previous session.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stockportal/internal/api"
	"stockportal/internal/routes"
	"stockportal/internal/tokenstore"
	"stockportal/pkg/logging"
)

// MinPasswordLength matches the portal's account rules.
const MinPasswordLength = 6

// Client is the subset of the portal API the flows call.
type Client interface {
	ObtainTokens(ctx context.Context, username, password string) (tokenstore.Credentials, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.Account, error)
}

// CredentialStore is where a successful login puts the credential pair.
type CredentialStore interface {
	Set(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// Session is the observable login flag.
type Session interface {
	Init(ctx context.Context) error
	SetActive(active bool)
}

// Navigator moves the user to a route after a flow completes.
type Navigator interface {
	Navigate(ctx context.Context, route routes.Route) error
}

// Service runs the credential flows.
type Service struct {
	client    Client
	store     CredentialStore
	session   Session
	navigator Navigator
}

// NewService wires the flows. navigator may be nil when no navigation is
// wanted after a flow.
func NewService(client Client, store CredentialStore, session Session, navigator Navigator) *Service {
	return &Service{
		client:    client,
		store:     store,
		session:   session,
		navigator: navigator,
	}
}

// Init restores a previous session from durable storage.
func (s *Service) Init(ctx context.Context) error {
	return s.session.Init(ctx)
}

// Login obtains a credential pair, stores it, activates the session and
// navigates to the landing route. On failure nothing changes.
func (s *Service) Login(ctx context.Context, username, password string) error {
	fields := map[string]string{}
	if strings.TrimSpace(username) == "" {
		fields["username"] = "This field may not be blank."
	}
	if password == "" {
		fields["password"] = "This field may not be blank."
	}
	if len(fields) > 0 {
		return api.NewFieldError(fields)
	}

	creds, err := s.client.ObtainTokens(ctx, username, password)
	if err != nil {
		slog.Warn("SECURITY_AUDIT: login failed", "event", "login_failed", "username", username)
		return err
	}

	if err := s.store.Set(ctx, creds.Access, creds.Refresh); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	s.session.SetActive(true)
	slog.Info("SECURITY_AUDIT: login succeeded", "event", "login", "username", username)

	return s.navigate(ctx, routes.LandingRoute)
}

// Logout discards both credentials, deactivates the session and returns
// to the public entry point. The session ends even if storage fails.
func (s *Service) Logout(ctx context.Context) error {
	clearErr := s.store.Clear(ctx)
	s.session.SetActive(false)
	slog.Info("SECURITY_AUDIT: logout", "event", "logout")

	if clearErr != nil {
		logging.Warn("Auth", "Credentials could not be removed from storage: %v", clearErr)
		return fmt.Errorf("failed to clear credentials: %w", clearErr)
	}
	return s.navigate(ctx, routes.RouteHome)
}

// Register creates an account. Registration never changes credential
// state. Password rules are checked locally before calling the portal.
func (s *Service) Register(ctx context.Context, req api.RegisterRequest) (*api.Account, error) {
	if verr := validateRegistration(req); verr != nil {
		return nil, verr
	}

	account, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	logging.Info("Auth", "Registered account %s", account.Username)
	return account, nil
}

func validateRegistration(req api.RegisterRequest) *api.ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		fields["username"] = "This field may not be blank."
	}
	switch {
	case req.Password == "":
		fields["password"] = "This field may not be blank."
	case len(req.Password) < MinPasswordLength:
		fields["password"] = fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength)
	}
	if req.Password != "" && req.PasswordConfirm != req.Password {
		fields["password_confirm"] = "Passwords do not match."
	}
	if len(fields) == 0 {
		return nil
	}
	return api.NewFieldError(fields)
}

func (s *Service) navigate(ctx context.Context, route routes.Route) error {
	if s.navigator == nil {
		return nil
	}
	return s.navigator.Navigate(ctx, route)
}
