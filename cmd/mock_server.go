package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stockportal/internal/app"
	"stockportal/internal/cli"
	"stockportal/pkg/logging"
)

func newMockServerCmd(root *rootOptions) *cobra.Command {
	var (
		addr           string
		users          []string
		accessLifetime time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run a local mock of the prediction portal",
		Long: `Serve a mock portal for trying stockportal without the real service.
Accounts are kept in memory. Short access lifetimes make credential renewal
easy to observe.

Examples:
  stockportal mock-server --user alice:s3cret!
  STOCKPORTAL_API_URL=http://127.0.0.1:8000/api/v1 stockportal login -u alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := root.flags.ResolveLogLevel(logging.LevelInfo)
			if err != nil {
				return err
			}
			logging.InitForCLI(level, cmd.ErrOrStderr())

			seeded := make(map[string]string, len(users))
			for _, u := range users {
				name, password, ok := strings.Cut(u, ":")
				if !ok || name == "" || password == "" {
					return fmt.Errorf("invalid --user %q: expected NAME:PASSWORD", u)
				}
				seeded[name] = password
			}

			return app.RunMockServer(cmd.Context(), app.MockServerConfig{
				Addr:           addr,
				Users:          seeded,
				AccessLifetime: accessLifetime,
				Ready: func(baseURL string) {
					if !root.flags.Quiet {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\n", cli.FormatSuccess("Mock portal serving at "+baseURL))
					}
				},
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "Listen address")
	cmd.Flags().StringArrayVar(&users, "user", nil, "Seed an account as NAME:PASSWORD (repeatable)")
	cmd.Flags().DurationVar(&accessLifetime, "access-lifetime", 5*time.Minute, "Lifetime of issued access credentials")
	return cmd
}
