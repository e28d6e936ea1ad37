package cmd

import (
	"github.com/spf13/cobra"
)

func newLogoutCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored credentials",
		Long: `Remove both stored credentials and end the session. Nothing is sent
to the portal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer s.Close()

			return s.svc.Auth.Logout(cmd.Context())
		},
	}
}
