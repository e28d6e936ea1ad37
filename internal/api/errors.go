package api

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ValidationError is a rejection of the submitted data or credentials.
type ValidationError struct {
	// Status is the HTTP status code of the rejection.
	Status int
	// Endpoint is the URL that rejected the call.
	Endpoint string
	// Detail is the top-level message, if any.
	Detail string
	// Code is the machine-readable rejection code, if any.
	Code string
	// Fields maps field names to every message the portal gave for them.
	Fields map[string][]string
	// Messages holds per-credential details of a token rejection.
	Messages []TokenMessage
}

// TokenMessage describes why one credential was rejected.
type TokenMessage struct {
	TokenClass string `json:"token_class"`
	TokenType  string `json:"token_type"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], " ")))
		}
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("request rejected with status %d", e.Status)
}

// First returns the first message for a field, or "".
func (e *ValidationError) First(name string) string {
	if msgs := e.Fields[name]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// NewFieldError is a 400 ValidationError with one message per field.
func NewFieldError(single map[string]string) *ValidationError {
	fields := make(map[string][]string, len(single))
	for name, msg := range single {
		fields[name] = []string{msg}
	}
	return &ValidationError{Status: http.StatusBadRequest, Fields: fields}
}

// StatusError is an unexpected non-2xx response that is not a validation
// failure (typically a 5xx).
type StatusError struct {
	Status   int
	Endpoint string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.Endpoint, e.Status, http.StatusText(e.Status))
}

// PredictionError is a failed prediction reported by the portal.
type PredictionError struct {
	Ticker  string
	Status  int
	Message string
}

func (e *PredictionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("prediction for %s failed (%d): %s", e.Ticker, e.Status, e.Message)
	}
	return fmt.Sprintf("prediction for %s failed: %s", e.Ticker, e.Message)
}

// decodeRejection builds a ValidationError from a 4xx body. DRF style
// bodies hold {"detail": "...", "code": "...", "messages": [...]} or
// {"field": ["msg", ...], ...}.
func decodeRejection(status int, endpoint string, body []byte) *ValidationError {
	verr := &ValidationError{Status: status, Endpoint: endpoint, Fields: map[string][]string{}}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		verr.Detail = http.StatusText(status)
		return verr
	}

	for name, value := range raw {
		switch name {
		case "messages":
			_ = json.Unmarshal(value, &verr.Messages)
		case "code":
			_ = json.Unmarshal(value, &verr.Code)
		case "detail":
			if msgs := messageList(value); len(msgs) > 0 {
				verr.Detail = msgs[0]
			}
		default:
			if msgs := messageList(value); len(msgs) > 0 {
				verr.Fields[name] = msgs
			}
		}
	}
	if verr.Detail == "" {
		verr.Detail = verr.First("non_field_errors")
	}
	return verr
}

// messageList reads either a string or an array of strings.
func messageList(value json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(value, &list); err == nil {
		return list
	}
	return nil
}

// TransportErrorType categorizes a failure to reach the portal.
type TransportErrorType int

const (
	// TransportErrorUnknown indicates an unclassified failure.
	TransportErrorUnknown TransportErrorType = iota
	// TransportErrorTLS indicates a TLS/certificate verification error.
	TransportErrorTLS
	// TransportErrorNetwork indicates a connectivity error (refused, unreachable).
	TransportErrorNetwork
	// TransportErrorTimeout indicates the call timed out.
	TransportErrorTimeout
	// TransportErrorDNS indicates a DNS resolution failure.
	TransportErrorDNS
	// TransportErrorDecode indicates an unreadable response body.
	TransportErrorDecode
)

// String returns a human-readable name for the type.
func (t TransportErrorType) String() string {
	switch t {
	case TransportErrorTLS:
		return "TLS certificate error"
	case TransportErrorNetwork:
		return "Network error"
	case TransportErrorTimeout:
		return "Connection timeout"
	case TransportErrorDNS:
		return "DNS resolution error"
	case TransportErrorDecode:
		return "Invalid response"
	default:
		return "Connection error"
	}
}

// TransportError indicates the portal could not be reached or answered
// with something unreadable.
type TransportError struct {
	// Endpoint is the URL of the failed call.
	Endpoint string
	// Type categorizes the failure.
	Type TransportErrorType
	// Err is the underlying error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: cannot reach %s: %v", e.Type, e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// classifyTransportError analyzes a failed round trip.
func classifyTransportError(err error, endpoint string) *TransportError {
	if err == nil {
		return nil
	}

	terr := &TransportError{Endpoint: endpoint, Type: TransportErrorUnknown, Err: err}
	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		terr.Type = TransportErrorTLS
	case errors.As(err, &dnsErr):
		terr.Type = TransportErrorDNS
	case isTimeoutError(err):
		terr.Type = TransportErrorTimeout
	case isNetworkError(err.Error()):
		terr.Type = TransportErrorNetwork
	}
	return terr
}

func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
