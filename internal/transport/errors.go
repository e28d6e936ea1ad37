package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no credentials were available for a call
	// that required them.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrSessionExpired means the refresh credential was rejected or could
	// not be used, and the session has ended.
	ErrSessionExpired = errors.New("session expired")
)

// AuthErrorKind categorizes an authentication failure surfaced by the pipeline.
type AuthErrorKind int

const (
	// KindUnauthenticated indicates no credential was present.
	KindUnauthenticated AuthErrorKind = iota
	// KindSessionExpired indicates renewal failed and credentials were cleared.
	KindSessionExpired
)

// String returns a human-readable name for the kind.
func (k AuthErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

// AuthError is returned for calls the pipeline could not authorize.
type AuthError struct {
	// Kind categorizes the failure.
	Kind AuthErrorKind
	// Endpoint is the URL of the call that failed.
	Endpoint string
	// Err is the underlying cause (e.g. the renewal failure).
	Err error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	var msg string
	switch e.Kind {
	case KindSessionExpired:
		msg = "session expired"
	default:
		msg = "not authenticated"
	}
	if e.Endpoint != "" {
		msg = fmt.Sprintf("%s for %s", msg, e.Endpoint)
	}
	if e.Err != nil && !errors.Is(e.Err, ErrUnauthenticated) {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches ErrUnauthenticated and ErrSessionExpired by kind.
func (e *AuthError) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.Kind == KindUnauthenticated
	case ErrSessionExpired:
		return e.Kind == KindSessionExpired
	}
	return false
}
