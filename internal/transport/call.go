package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type replayKey struct{}

// WithReplay marks a call as a replay. The marker is set once and never
// cleared; a marked call is not renewed again.
func WithReplay(ctx context.Context) context.Context {
	return context.WithValue(ctx, replayKey{}, true)
}

// IsReplay reports whether the call was already replayed after a renewal.
func IsReplay(ctx context.Context) bool {
	v, _ := ctx.Value(replayKey{}).(bool)
	return v
}

// rewindable reports whether the request body can be sent a second time.
func rewindable(req *http.Request) bool {
	if req.Body == nil || req.Body == http.NoBody {
		return true
	}
	return req.GetBody != nil
}

// replayRequest clones req with the replay marker and a fresh body.
func replayRequest(req *http.Request) (*http.Request, error) {
	replay := req.Clone(WithReplay(req.Context()))
	if req.Body != nil && req.Body != http.NoBody {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		replay.Body = body
	}
	return replay, nil
}

// bearerToken extracts the credential from an Authorization header.
func bearerToken(req *http.Request) string {
	auth := req.Header.Get("Authorization")
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// drainAndClose discards a response body so the connection can be reused.
func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
