package cmd

import (
	"github.com/spf13/cobra"

	"stockportal/internal/routes"
)

func newDashboardCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the authenticated dashboard",
		Long: `Fetch the protected greeting. An expired access credential is renewed
transparently. If renewal fails the stored credentials are removed and
you need to log in again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer s.Close()

			return s.svc.Router.Navigate(cmd.Context(), routes.RouteDashboard)
		},
	}
}
