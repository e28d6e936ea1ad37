package cmd

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"stockportal/internal/cli"
	"stockportal/internal/tokenstore"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show portal reachability and session state",
		Long: `Show whether the portal is reachable and whether a session is stored.
Wide output adds credential expiry times when they can be read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, root)
			if err != nil {
				return err
			}
			defer s.Close()

			status := cli.PortalStatus{
				Endpoint:      s.svc.Client.BaseURL(),
				Reachable:     true,
				Authenticated: s.svc.Session.Active(),
			}
			if err := cli.CheckPortalReachable(cmd.Context(), status.Endpoint); err != nil {
				status.Reachable = false
				status.Error = err.Error()
			}
			if creds, ok := s.svc.Store.Get(); ok {
				status.AccessExpiresAt = expiry(creds.Access)
				status.RefreshExpiresAt = expiry(creds.Refresh)
			}

			return s.out.Render(status, cli.Table{
				Columns: []cli.Column{
					{Header: "Endpoint"},
					{Header: "Reachable"},
					{Header: "Session"},
					{Header: "Access Expires", Wide: true},
					{Header: "Refresh Expires", Wide: true},
				},
				Rows: [][]string{{
					status.Endpoint,
					strconv.FormatBool(status.Reachable),
					sessionLabel(status.Authenticated),
					formatExpiry(status.AccessExpiresAt),
					formatExpiry(status.RefreshExpiresAt),
				}},
			})
		},
	}
}

func expiry(token string) *time.Time {
	exp, ok := tokenstore.ExpiresAt(token)
	if !ok {
		return nil
	}
	return &exp
}

func sessionLabel(active bool) string {
	if active {
		return text.FgGreen.Sprint("active")
	}
	return text.FgYellow.Sprint("none")
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "-"
	}
	if time.Now().After(*t) {
		return text.FgYellow.Sprintf("expired %s", t.Local().Format(time.RFC3339))
	}
	return t.Local().Format(time.RFC3339)
}
