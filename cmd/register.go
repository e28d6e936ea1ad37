package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"stockportal/internal/api"
	"stockportal/internal/cli"
	"stockportal/internal/routes"
)

func newRegisterCmd(root *rootOptions) *cobra.Command {
	req := &api.RegisterRequest{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a portal account",
		Long: `Create an account. The password is prompted for twice. Registering
does not log you in.

Examples:
  stockportal register -u alice --email alice@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, root, *req)
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	return cmd
}

func runRegister(cmd *cobra.Command, root *rootOptions, req api.RegisterRequest) error {
	s, err := openSession(cmd, root)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.requireRoute(routes.RouteRegister); err != nil {
		return errors.New("already logged in: run 'stockportal logout' before registering a new account")
	}

	prompter := newPrompter(cmd)
	if req.Username == "" {
		if req.Username, err = prompter.Line("Username: "); err != nil {
			return err
		}
	}
	if req.Password, err = prompter.Secret("Password: "); err != nil {
		return err
	}
	if req.PasswordConfirm, err = prompter.Secret("Confirm password: "); err != nil {
		return err
	}

	var account *api.Account
	err = s.out.Progress("Creating account...", func() error {
		var regErr error
		account, regErr = s.svc.Auth.Register(cmd.Context(), req)
		return regErr
	})
	if err != nil {
		var verr *api.ValidationError
		if errors.As(err, &verr) && len(verr.Fields) > 0 {
			renderFieldErrors(s.out, verr)
		}
		return err
	}

	s.out.Printf("%s\n", cli.FormatSuccess(fmt.Sprintf("Account %s created. Run 'stockportal login' to start a session.", account.Username)))
	return nil
}

func renderFieldErrors(out *cli.Output, verr *api.ValidationError) {
	names := make([]string, 0, len(verr.Fields))
	for name := range verr.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := cli.Table{Columns: []cli.Column{{Header: "Field"}, {Header: "Problem"}}}
	for _, name := range names {
		for _, msg := range verr.Fields[name] {
			tbl.Rows = append(tbl.Rows, []string{name, msg})
		}
	}
	errOut := *out
	errOut.Format = cli.OutputFormatTable
	errOut.Writer = out.ErrWriter
	_ = errOut.Render(nil, tbl)
}
