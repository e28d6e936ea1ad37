package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// PortalStatus is the connectivity and session status shown by the
// status command.
type PortalStatus struct {
	// Endpoint is the portal API root.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Reachable indicates whether the portal answered at all.
	Reachable bool `json:"reachable" yaml:"reachable"`

	// Authenticated indicates whether a credential pair is stored.
	Authenticated bool `json:"authenticated" yaml:"authenticated"`

	// AccessExpiresAt is when the stored access credential expires, if known.
	AccessExpiresAt *time.Time `json:"accessExpiresAt,omitempty" yaml:"accessExpiresAt,omitempty"`

	// RefreshExpiresAt is when the stored refresh credential expires, if known.
	RefreshExpiresAt *time.Time `json:"refreshExpiresAt,omitempty" yaml:"refreshExpiresAt,omitempty"`

	// Error holds the reachability error, if any.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// CheckPortalReachable probes the portal API root. Any HTTP answer,
// including 401 or 404, counts as reachable.
func CheckPortalReachable(ctx context.Context, endpoint string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("portal at %s is not reachable: %w", endpoint, err)
	}
	resp.Body.Close()
	return nil
}

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return fmt.Sprintf("✓ %s", msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return fmt.Sprintf("⚠ %s", msg)
}
