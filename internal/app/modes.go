package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockportal/internal/testing/mock"
	"stockportal/pkg/logging"
)

// MockServerConfig configures RunMockServer.
type MockServerConfig struct {
	// Addr is the listen address, e.g. 127.0.0.1:8000.
	Addr string

	// Users seeds accounts, username to password.
	Users map[string]string

	// AccessLifetime overrides how long access credentials live.
	AccessLifetime time.Duration

	// Ready is called with the API base URL once the server accepts
	// connections.
	Ready func(baseURL string)
}

// RunMockServer serves the mock portal until ctx is done or the process
// receives SIGINT or SIGTERM.
func RunMockServer(ctx context.Context, cfg MockServerConfig) error {
	portal := mock.NewPortalServer(mock.PortalConfig{
		Users:          cfg.Users,
		AccessLifetime: cfg.AccessLifetime,
	})

	if _, err := portal.Start(ctx, cfg.Addr); err != nil {
		return fmt.Errorf("failed to start mock portal: %w", err)
	}

	readyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err := portal.WaitForReady(readyCtx)
	cancel()
	if err != nil {
		_ = portal.Stop(context.Background())
		return fmt.Errorf("mock portal did not become ready: %w", err)
	}
	if cfg.Ready != nil {
		cfg.Ready(portal.BaseURL())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
	case sig := <-sigChan:
		logging.Info("MockServer", "Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return portal.Stop(shutdownCtx)
}
