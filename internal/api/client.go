package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stockportal/internal/tokenstore"
	"stockportal/internal/transport"
	"stockportal/pkg/logging"
)

const (
	// DefaultBaseURL is the portal API root used when none is configured.
	DefaultBaseURL = "http://127.0.0.1:8000/api/v1"

	// DefaultHTTPTimeout bounds each HTTP call.
	DefaultHTTPTimeout = 30 * time.Second

	// maxBodySize caps response bodies; prediction payloads carry four
	// base64 images.
	maxBodySize = 32 << 20
)

// Portal endpoints, relative to the base URL.
const (
	PathToken     = "/token/"
	PathRefresh   = "/token/refresh/"
	PathRegister  = "/register/"
	PathProtected = "/protected/"
	PathPredict   = "/predict/"
)

// Client talks to the portal API.
type Client struct {
	baseURL string
	raw     *http.Client
	authed  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the raw HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.raw = httpClient
	}
}

// WithTimeout sets the per-call timeout of the raw client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.raw.Timeout = d
		}
	}
}

// New creates a client for the portal at baseURL. Until Authenticated is
// called, protected calls use the raw client.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		raw:     &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.authed = c.raw
	return c, nil
}

// Authenticated returns a copy of c whose protected calls go through rt.
// Credential and registration calls keep using the raw client.
func (c *Client) Authenticated(rt http.RoundTripper) *Client {
	copied := *c
	copied.authed = &http.Client{Transport: rt, Timeout: c.raw.Timeout}
	return &copied
}

// BaseURL returns the portal API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Endpoint returns the absolute URL of path.
func (c *Client) Endpoint(path string) string {
	return c.baseURL + path
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// ObtainTokens exchanges a username and password for a credential pair.
func (c *Client) ObtainTokens(ctx context.Context, username, password string) (tokenstore.Credentials, error) {
	var pair tokenPair
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, c.raw, http.MethodPost, PathToken, body, &pair); err != nil {
		return tokenstore.Credentials{}, err
	}

	creds := tokenstore.Credentials{Access: pair.Access, Refresh: pair.Refresh}
	if !creds.Complete() {
		return tokenstore.Credentials{}, &TransportError{
			Endpoint: c.Endpoint(PathToken),
			Type:     TransportErrorDecode,
			Err:      errors.New("response is missing access or refresh credential"),
		}
	}
	return creds, nil
}

// Refresh exchanges a refresh credential for a new access credential.
// It implements transport.Renewer.
func (c *Client) Refresh(ctx context.Context, refresh string) (string, error) {
	var pair tokenPair
	if err := c.do(ctx, c.raw, http.MethodPost, PathRefresh, map[string]string{"refresh": refresh}, &pair); err != nil {
		return "", err
	}
	if pair.Access == "" {
		return "", &TransportError{
			Endpoint: c.Endpoint(PathRefresh),
			Type:     TransportErrorDecode,
			Err:      errors.New("response is missing access credential"),
		}
	}
	return pair.Access, nil
}

var _ transport.Renewer = (*Client)(nil)

// RegisterRequest is a new account.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

// Account is the created account as echoed by the portal.
type Account struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register creates an account. Registration never issues credentials.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	var account Account
	if err := c.do(ctx, c.raw, http.MethodPost, PathRegister, req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// ProtectedMessage is the greeting returned to authenticated users.
type ProtectedMessage struct {
	Message string `json:"message"`
}

// Protected fetches the authenticated greeting shown on the dashboard.
func (c *Client) Protected(ctx context.Context) (*ProtectedMessage, error) {
	var msg ProtectedMessage
	if err := c.doAuthed(ctx, http.MethodGet, PathProtected, nil, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// doAuthed is do over the authenticated client. A 401 that survives the
// pipeline's renewal and replay is an authorization failure, not a
// validation error.
func (c *Client) doAuthed(ctx context.Context, method, path string, in, out interface{}) error {
	err := c.do(ctx, c.authed, method, path, in, out)
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Status == http.StatusUnauthorized {
		logging.Debug("API", "%s %s still unauthorized after renewal", method, verr.Endpoint)
		return &transport.AuthError{Kind: transport.KindUnauthenticated, Endpoint: verr.Endpoint, Err: verr}
	}
	return err
}

// do sends one JSON call and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, httpClient *http.Client, method, path string, in, out interface{}) error {
	endpoint := c.Endpoint(path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request for %s: %w", endpoint, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.Debug("API", "%s %s", method, endpoint)
	resp, err := httpClient.Do(req)
	if err != nil {
		return wrapCallError(err, endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &TransportError{Endpoint: endpoint, Type: TransportErrorNetwork, Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		verr := decodeRejection(resp.StatusCode, endpoint, data)
		logging.Debug("API", "%s %s rejected with %d", method, endpoint, resp.StatusCode)
		return verr
	default:
		return &StatusError{Status: resp.StatusCode, Endpoint: endpoint}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &TransportError{Endpoint: endpoint, Type: TransportErrorDecode, Err: err}
	}
	return nil
}

// wrapCallError keeps pipeline and cancellation errors intact and
// classifies everything else.
func wrapCallError(err error, endpoint string) error {
	var authErr *transport.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	return classifyTransportError(err, endpoint)
}
