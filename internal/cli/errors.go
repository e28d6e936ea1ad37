package cli

import (
	"errors"
	"fmt"
	"net/http"

	"stockportal/internal/api"
	"stockportal/internal/transport"
)

// AuthRequiredError indicates the command needs a logged-in session.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Endpoint is the URL that requires authentication.
	Endpoint string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`Authentication required for %s

To log in, run:
  stockportal login

To check current session status:
  stockportal status`, endpointOrPortal(e.Endpoint))
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthExpiredError indicates the refresh credential was rejected and the
// session has ended.
type AuthExpiredError struct {
	// Endpoint is the URL whose call triggered the failed renewal.
	Endpoint string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf(`Session expired for %s

Stored credentials have been removed. To log in again, run:
  stockportal login`, endpointOrPortal(e.Endpoint))
}

// Unwrap returns the underlying error.
func (e *AuthExpiredError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// AuthFailedError indicates the portal rejected the username or password.
type AuthFailedError struct {
	// Endpoint is the URL where authentication failed.
	Endpoint string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`Authentication failed for %s: %v

To retry, run:
  stockportal login`, endpointOrPortal(e.Endpoint), e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// Translate maps pipeline errors to the user-facing auth errors above.
// Other errors are returned unchanged.
func Translate(err error) error {
	var authErr *transport.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case transport.KindSessionExpired:
			return &AuthExpiredError{Endpoint: authErr.Endpoint, Reason: err}
		default:
			return &AuthRequiredError{Endpoint: authErr.Endpoint}
		}
	}
	return err
}

// TranslateLogin is Translate for the login flow: a 401 from the token
// endpoint becomes an AuthFailedError. Field validation errors are kept so
// callers can show them per field.
func TranslateLogin(err error) error {
	var verr *api.ValidationError
	if errors.As(err, &verr) && verr.Status == http.StatusUnauthorized {
		return &AuthFailedError{Endpoint: verr.Endpoint, Reason: verr}
	}
	return Translate(err)
}

func endpointOrPortal(endpoint string) string {
	if endpoint == "" {
		return "the portal"
	}
	return endpoint
}
