package mock

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPortal(t *testing.T) (*PortalServer, *MockClock, *httptest.Server) {
	t.Helper()
	clock := NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	portal := NewPortalServer(PortalConfig{
		Clock: clock,
		Users: map[string]string{"alice": "s3cret!"},
	})
	srv := httptest.NewServer(portal.Handler())
	t.Cleanup(srv.Close)
	return portal, clock, srv
}

func call(t *testing.T, srv *httptest.Server, method, path, bearer string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, srv.URL+"/api/v1"+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func login(t *testing.T, srv *httptest.Server) (string, string) {
	t.Helper()
	status, body := call(t, srv, http.MethodPost, "/token/", "", map[string]string{"username": "alice", "password": "s3cret!"})
	require.Equal(t, http.StatusOK, status)
	return body["access"].(string), body["refresh"].(string)
}

func TestPortal_Token(t *testing.T) {
	portal, _, srv := newTestPortal(t)

	access, refresh := login(t, srv)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, access, refresh)

	status, body := call(t, srv, http.MethodPost, "/token/", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgNoAccount, body["detail"])

	status, body = call(t, srv, http.MethodPost, "/token/", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "username")
	assert.Contains(t, body, "password")

	assert.EqualValues(t, 3, portal.TokenCalls())
}

func TestPortal_ProtectedAndExpiry(t *testing.T) {
	portal, clock, srv := newTestPortal(t)
	access, refresh := login(t, srv)

	status, body := call(t, srv, http.MethodGet, "/protected/", access, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello alice, this is a protected view.", body["message"])

	status, body = call(t, srv, http.MethodGet, "/protected/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgNoAuth, body["detail"])

	status, _ = call(t, srv, http.MethodGet, "/protected/", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "refresh credential is not an access credential")

	clock.Advance(6 * time.Minute)
	status, body = call(t, srv, http.MethodGet, "/protected/", access, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token_not_valid", body["code"])

	status, body = call(t, srv, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, status)
	renewed := body["access"].(string)
	assert.NotEqual(t, access, renewed)

	status, _ = call(t, srv, http.MethodGet, "/protected/", renewed, nil)
	assert.Equal(t, http.StatusOK, status)

	assert.EqualValues(t, 1, portal.RefreshCalls())
	assert.EqualValues(t, 2, portal.ProtectedCalls())
	assert.EqualValues(t, 3, portal.RejectedCalls())
}

func TestPortal_RefreshRejections(t *testing.T) {
	portal, clock, srv := newTestPortal(t)
	access, refresh := login(t, srv)

	status, _ := call(t, srv, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": access})
	assert.Equal(t, http.StatusUnauthorized, status, "access credential cannot renew")

	status, _ = call(t, srv, http.MethodPost, "/token/refresh/", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	portal.RevokeRefresh(refresh)
	status, body := call(t, srv, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgTokenInvalid, body["detail"])

	_, refresh = login(t, srv)
	clock.Advance(25 * time.Hour)
	status, _ = call(t, srv, http.MethodPost, "/token/refresh/", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPortal_Verify(t *testing.T) {
	_, clock, srv := newTestPortal(t)
	access, refresh := login(t, srv)

	status, _ := call(t, srv, http.MethodPost, "/token/verify/", "", map[string]string{"token": access})
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, srv, http.MethodPost, "/token/verify/", "", map[string]string{"token": refresh})
	assert.Equal(t, http.StatusOK, status)

	clock.Advance(time.Hour)
	status, _ = call(t, srv, http.MethodPost, "/token/verify/", "", map[string]string{"token": access})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPortal_Register(t *testing.T) {
	portal, _, srv := newTestPortal(t)

	status, body := call(t, srv, http.MethodPost, "/register/", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "hunter22", "password_confirm": "hunter22",
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "bob", body["username"])
	assert.NotContains(t, body, "password")
	assert.True(t, portal.HasUser("bob"))

	status, body = call(t, srv, http.MethodPost, "/register/", "", map[string]string{
		"username": "alice", "email": "not-an-email", "password": "123", "password_confirm": "456",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"A user with that username already exists."}, body["username"])
	assert.Equal(t, []interface{}{"Enter a valid email address."}, body["email"])
	assert.Equal(t, []interface{}{"Ensure this field has at least 6 characters."}, body["password"])
	assert.Equal(t, []interface{}{"Passwords do not match."}, body["password_confirm"])
}

func TestPortal_Predict(t *testing.T) {
	_, _, srv := newTestPortal(t)
	access, _ := login(t, srv)

	status, body := call(t, srv, http.MethodPost, "/predict/", access, map[string]string{"ticker": "aapl"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, 229.87, body["today_price"])
	assert.Contains(t, body["plot_img"], "data:image/png;base64,")
	assert.Len(t, body["prediction_summary"], 5)

	_, again := call(t, srv, http.MethodPost, "/predict/", access, map[string]string{"ticker": "AAPL"})
	assert.Equal(t, body["tomorrow_prediction"], again["tomorrow_prediction"], "predictions are deterministic")

	status, body = call(t, srv, http.MethodPost, "/predict/", access, map[string]string{"ticker": "ZZZZ"})
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, http.StatusNotFound, body["status"])
	assert.Contains(t, body["error"], "No data found for ticker 'ZZZZ'")

	status, _ = call(t, srv, http.MethodPost, "/predict/", "", map[string]string{"ticker": "AAPL"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPortal_StartStop(t *testing.T) {
	portal := NewPortalServer(PortalConfig{Users: map[string]string{"alice": "s3cret!"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	port, err := portal.Start(ctx, "")
	require.NoError(t, err)
	assert.Positive(t, port)
	require.NoError(t, portal.WaitForReady(ctx))
	assert.True(t, portal.IsRunning())
	assert.Contains(t, portal.BaseURL(), "/api/v1")

	again, err := portal.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, port, again)

	resp, err := http.Get(portal.BaseURL() + "/protected/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, portal.Stop(ctx))
	assert.False(t, portal.IsRunning())
	require.NoError(t, portal.Stop(ctx))
}
