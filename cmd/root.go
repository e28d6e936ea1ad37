package cmd

import (
	"errors"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"stockportal/internal/api"
	"stockportal/internal/cli"
	"stockportal/internal/transport"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates a session is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the portal rejected the login.
	ExitCodeAuthFailed = 3
)

var version = "dev"

// rootCmd represents the base command for the stockportal application.
var rootCmd = newRootCmd()

// rootOptions holds the persistent flag values of one command tree.
type rootOptions struct {
	flags cli.CommandFlags
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "stockportal",
		Short: "Stock price predictions from the terminal",
		Long: `stockportal logs in to a stock prediction portal and requests
price forecasts for tickers. Credentials are stored locally and renewed
automatically while the refresh credential is valid.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
		Version:      version,
	}
	root.SetVersionTemplate(`{{printf "stockportal version %s\n" .Version}}`)

	cli.RegisterCommonFlags(root, &opts.flags)

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newRegisterCmd(opts),
		newStatusCmd(opts),
		newDashboardCmd(opts),
		newPredictCmd(opts),
		newMockServerCmd(opts),
		newVersionCmd(),
	)
	return root
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return version
}

// Execute is the main entry point for the CLI application.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authExpired *cli.AuthExpiredError
	if errors.As(err, &authExpired) {
		return ExitCodeAuthRequired
	}

	var authErr *transport.AuthError
	if errors.As(err, &authErr) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	var verr *api.ValidationError
	if errors.As(err, &verr) && verr.Status == http.StatusUnauthorized {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}
