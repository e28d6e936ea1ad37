package transport

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-ID"

// AccessSource provides the current access credential, or "" when none is held.
type AccessSource interface {
	Access() string
}

// Authorizer returns a request stage that stamps the current access
// credential as a bearer Authorization header. Calls are forwarded
// unchanged when no credential is held.
func Authorizer(source AccessSource) RequestStage {
	return func(req *http.Request) *http.Request {
		access := source.Access()
		if access == "" {
			return req
		}

		out := req.Clone(req.Context())
		token := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
		token.SetAuthHeader(out)
		return out
	}
}

// RequestID stamps X-Request-ID when the call does not carry one yet.
// Replays keep the id of the call they repeat.
func RequestID(req *http.Request) *http.Request {
	if req.Header.Get(RequestIDHeader) != "" {
		return req
	}
	out := req.Clone(req.Context())
	out.Header.Set(RequestIDHeader, uuid.NewString())
	return out
}
