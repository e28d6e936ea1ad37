// Package transport implements the authenticated request pipeline.
//
// A Pipeline is an http.RoundTripper built from an ordered list of request
// stages (func(*http.Request) *http.Request) and response stages that may
// pass a response through, fail the call, or replay it. Each stage can be
// tested in isolation without a live transport.
//
// # Stages
//
//   - RequestID stamps X-Request-ID so a replay can be correlated with the
//     call it repeats.
//   - Authorizer stamps "Authorization: Bearer <access>" when the credential
//     store holds an access credential.
//   - RefreshCoordinator.HandleResponse turns a 401 into a single shared
//     renewal followed by a replay of the call.
//
// # Renewal
//
// The RefreshCoordinator is a small state machine (idle, refreshing,
// failed). Calls that fail while a renewal is running join it instead of
// starting another one, so at most one renewal request is in flight. A
// replayed call carries an immutable replay marker in its context and is
// never renewed again. Calls to the login and refresh endpoints are never
// intercepted.
//
// When renewal fails the credential store is cleared, failure listeners are
// notified (the session turns inactive) and every waiting call fails with
// an *AuthError of kind KindSessionExpired.
package transport
