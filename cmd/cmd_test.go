package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockportal/internal/api"
	"stockportal/internal/cli"
	"stockportal/internal/config"
	"stockportal/internal/testing/mock"
	"stockportal/internal/transport"
)

// scriptedPrompter answers prompts in order.
type scriptedPrompter struct {
	answers []string
	asked   []string
}

func (p *scriptedPrompter) next(prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if len(p.answers) == 0 {
		return "", cli.ErrPromptAborted
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func (p *scriptedPrompter) Line(prompt string) (string, error)   { return p.next(prompt) }
func (p *scriptedPrompter) Secret(prompt string) (string, error) { return p.next(prompt) }

type testEnv struct {
	portal    *mock.PortalServer
	clock     *mock.MockClock
	configDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv(config.EnvStorage, "")

	clock := mock.NewMockClock(time.Now())
	portal := mock.NewPortalServer(mock.PortalConfig{
		Clock: clock,
		Users: map[string]string{"alice": "s3cret!"},
	})
	srv := httptest.NewServer(portal.Handler())
	t.Cleanup(srv.Close)

	cfg := config.GetDefaultConfig()
	cfg.API.BaseURL = srv.URL + "/api/v1"
	cfg.Storage = config.StorageConfig{Backend: config.StorageFile, Dir: filepath.Join(t.TempDir(), "credentials")}

	configDir := t.TempDir()
	require.NoError(t, config.SaveConfig(configDir, cfg))

	return &testEnv{portal: portal, clock: clock, configDir: configDir}
}

// run executes one command in a fresh command tree, as a separate process
// invocation would.
func (e *testEnv) run(t *testing.T, prompter cli.Prompter, args ...string) (string, string, error) {
	t.Helper()

	original := newPrompter
	newPrompter = func(*cobra.Command) cli.Prompter {
		if prompter == nil {
			return &scriptedPrompter{}
		}
		return prompter
	}
	defer func() { newPrompter = original }()

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--config-path", e.configDir, "--quiet"}, args...))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	out, _, err := e.run(t, &scriptedPrompter{answers: []string{"s3cret!"}}, "login", "-u", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "Hello alice, this is a protected view.")
}

func TestLoginPromptsAndShowsDashboard(t *testing.T) {
	env := newTestEnv(t)

	prompter := &scriptedPrompter{answers: []string{"alice", "s3cret!"}}
	out, _, err := env.run(t, prompter, "login")
	require.NoError(t, err)
	assert.Equal(t, []string{"Username: ", "Password: "}, prompter.asked)
	assert.Contains(t, out, "Hello alice, this is a protected view.")

	out, _, err = env.run(t, nil, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello alice")

	out, _, err = env.run(t, nil, "login")
	require.NoError(t, err, "logging in again shows the dashboard")
	assert.Contains(t, out, "Hello alice")
}

func TestLoginPasswordStdin(t *testing.T) {
	env := newTestEnv(t)

	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("s3cret!\n"))
	root.SetArgs([]string{"--config-path", env.configDir, "-q", "login", "-u", "alice", "--password-stdin"})

	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "Hello alice")
}

func TestLoginRejected(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, &scriptedPrompter{answers: []string{"wrong"}}, "login", "-u", "alice")
	var failed *cli.AuthFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, ExitCodeAuthFailed, getExitCode(err))

	_, _, err = env.run(t, nil, "dashboard")
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
}

func TestLoginAborted(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, &scriptedPrompter{}, "login")
	assert.ErrorIs(t, err, cli.ErrPromptAborted)
	assert.Zero(t, env.portal.TokenCalls())
}

func TestDashboardRenewsExpiredAccess(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	env.clock.Advance(10 * time.Minute)

	out, _, err := env.run(t, nil, "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello alice")
	assert.Equal(t, int64(1), env.portal.RefreshCalls())

	// The renewed access credential was persisted.
	_, _, err = env.run(t, nil, "dashboard")
	require.NoError(t, err)
	assert.Equal(t, int64(1), env.portal.RefreshCalls())
}

func TestDashboardAfterRefreshExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	env.clock.Advance(48 * time.Hour)

	_, _, err := env.run(t, nil, "dashboard")
	var expired *cli.AuthExpiredError
	require.ErrorAs(t, err, &expired)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))

	out, _, err := env.run(t, nil, "status", "-o", "json")
	require.NoError(t, err)
	var status cli.PortalStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Authenticated)
	assert.True(t, status.Reachable)

	_, _, err = env.run(t, nil, "dashboard")
	var required *cli.AuthRequiredError
	assert.ErrorAs(t, err, &required)
	assert.Equal(t, int64(1), env.portal.RefreshCalls())
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	_, _, err := env.run(t, nil, "logout")
	require.NoError(t, err)

	_, _, err = env.run(t, nil, "dashboard")
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	out, _, err := env.run(t, nil, "status", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "authenticated: true")
	assert.Contains(t, out, "reachable: true")
	assert.Contains(t, out, "refreshExpiresAt:")

	out, _, err = env.run(t, nil, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "ENDPOINT")
	assert.NotContains(t, out, "REFRESH EXPIRES")

	out, _, err = env.run(t, nil, "status", "-o", "wide")
	require.NoError(t, err)
	assert.Contains(t, out, "REFRESH EXPIRES")
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, err := env.run(t, &scriptedPrompter{answers: []string{"hunter22", "hunter22"}}, "register", "-u", "alice", "--email", "alice@example.com")
	var verr *api.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "A user with that username already exists.", verr.First("username"))
	assert.Contains(t, stderr, "already exists")
	assert.Zero(t, env.portal.TokenCalls())

	_, _, err = env.run(t, &scriptedPrompter{answers: []string{"hunter22", "hunter23"}}, "register", "-u", "bob")
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.First("password_confirm"))
	assert.False(t, env.portal.HasUser("bob"))

	_, _, err = env.run(t, &scriptedPrompter{answers: []string{"bob", "hunter22", "hunter22"}}, "register", "--email", "bob@example.com")
	require.NoError(t, err)
	assert.True(t, env.portal.HasUser("bob"))

	// Registration never starts a session.
	_, _, err = env.run(t, nil, "dashboard")
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
}

func TestRegisterWhileLoggedIn(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	_, _, err := env.run(t, nil, "register", "-u", "carol")
	assert.ErrorContains(t, err, "already logged in")
}

func TestPredict(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	out, _, err := env.run(t, nil, "predict", "aapl", "-o", "json")
	require.NoError(t, err)
	var prediction api.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &prediction))
	assert.Equal(t, "AAPL", prediction.Ticker)
	assert.True(t, prediction.TodayPrice.IsPositive())

	plotDir := t.TempDir()
	out, _, err = env.run(t, nil, "predict", "MSFT", "-o", "wide", "--save-plots", plotDir)
	require.NoError(t, err)
	assert.Contains(t, out, "RMSE")
	entries, err := os.ReadDir(plotDir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	_, _, err = env.run(t, nil, "predict", "ZZZZ")
	var perr *api.PredictionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ExitCodeError, getExitCode(err))
}

func TestPredictRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, nil, "predict", "AAPL")
	var required *cli.AuthRequiredError
	require.ErrorAs(t, err, &required)
	assert.Zero(t, env.portal.ProtectedCalls())
}

func TestInvalidOutputFormat(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, nil, "status", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestInvalidLogLevel(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, nil, "--log-level", "verbose", "status")
	assert.ErrorContains(t, err, "invalid log level")

	_, _, err = env.run(t, nil, "--log-level", "verbose", "mock-server")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestMockServerRejectsBadUser(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.run(t, nil, "mock-server", "--user", "alice")
	assert.ErrorContains(t, err, "expected NAME:PASSWORD")
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), ExitCodeError},
		{"auth required", &cli.AuthRequiredError{}, ExitCodeAuthRequired},
		{"auth expired", &cli.AuthExpiredError{}, ExitCodeAuthRequired},
		{"auth failed", &cli.AuthFailedError{Reason: errors.New("x")}, ExitCodeAuthFailed},
		{"rejected login", &api.ValidationError{Status: 401}, ExitCodeAuthFailed},
		{"field validation", &api.ValidationError{Status: 400}, ExitCodeError},
		{
			"protected call still unauthorized",
			&transport.AuthError{Kind: transport.KindUnauthenticated, Err: &api.ValidationError{Status: 401}},
			ExitCodeAuthRequired,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}
