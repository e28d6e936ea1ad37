// Package mock provides an in-process stand-in for the stock prediction
// portal, used by package tests and by the `stockportal mock-server`
// command.
//
// The PortalServer serves the same endpoints as the real backend under
// /api/v1: /token/, /token/refresh/, /token/verify/, /register/,
// /protected/ and /predict/. Credentials are HS256 JWTs whose expiry is
// judged against a Clock, so tests can expire access or refresh
// credentials by advancing a MockClock instead of sleeping:
//
//	clock := mock.NewMockClock(time.Time{})
//	portal := mock.NewPortalServer(mock.PortalConfig{Clock: clock})
//	srv := httptest.NewServer(portal.Handler())
//	defer srv.Close()
//
//	// ... log in ...
//	clock.Advance(10 * time.Minute) // access credential now rejected
//
// Counters such as RefreshCalls let tests assert how many renewals the
// client issued. Predictions are synthetic and deterministic per ticker.
package mock
