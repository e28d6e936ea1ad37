package cmd

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"stockportal/internal/cli"
	"stockportal/internal/routes"
)

type loginOptions struct {
	username      string
	passwordStdin bool
}

func newLoginCmd(root *rootOptions) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the portal",
		Long: `Log in with a username and password. The credential pair is stored
locally and the dashboard is shown.

Examples:
  stockportal login                          # Prompt for username and password
  stockportal login -u alice                 # Prompt for the password only
  echo "$PW" | stockportal login -u alice --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "Username")
	cmd.Flags().BoolVar(&opts.passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func runLogin(cmd *cobra.Command, root *rootOptions, opts *loginOptions) error {
	s, err := openSession(cmd, root)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.requireRoute(routes.RouteLogin); err != nil {
		s.out.Printf("%s\n", cli.FormatSuccess("Already logged in."))
		return s.svc.Router.Navigate(ctx, routes.LandingRoute)
	}

	username := opts.username
	var password string
	prompter := newPrompter(cmd)

	if username == "" {
		if username, err = prompter.Line("Username: "); err != nil {
			return err
		}
	}
	if opts.passwordStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		password = strings.TrimRight(string(data), "\r\n")
		if password == "" {
			return errors.New("no password on stdin")
		}
	} else if password, err = prompter.Secret("Password: "); err != nil {
		return err
	}

	// Login navigates to the dashboard, which renders the greeting.
	return cli.TranslateLogin(s.svc.Auth.Login(ctx, username, password))
}
