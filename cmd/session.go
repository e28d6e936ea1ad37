package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"stockportal/internal/app"
	"stockportal/internal/cli"
	"stockportal/internal/routes"
	"stockportal/pkg/logging"
)

// newPrompter is replaced in tests.
var newPrompter = func(cmd *cobra.Command) cli.Prompter {
	return cli.NewReadlinePrompter(nil, cmd.ErrOrStderr())
}

// portalSession is an initialized application plus the output of the
// running command.
type portalSession struct {
	app *app.Application
	svc *app.Services
	out *cli.Output
}

// openSession builds the application for cmd, restores the stored session
// and registers the views.
func openSession(cmd *cobra.Command, opts *rootOptions) (*portalSession, error) {
	out, err := opts.flags.ToOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	level, err := opts.flags.ResolveLogLevel(logging.LevelWarn)
	if err != nil {
		return nil, err
	}
	application, err := app.NewApplication(app.NewConfig(level, opts.flags.ConfigPath))
	if err != nil {
		return nil, err
	}
	if err := application.Init(cmd.Context()); err != nil {
		application.Close()
		return nil, err
	}

	s := &portalSession{app: application, svc: application.Services(), out: out}
	s.registerViews()
	return s, nil
}

func (s *portalSession) Close() {
	_ = s.app.Close()
}

func (s *portalSession) registerViews() {
	router := s.svc.Router
	router.Register(routes.RouteHome, routes.Unguarded, s.homeView)
	router.Register(routes.RouteLogin, routes.PublicRoute, s.loginView)
	router.Register(routes.RouteRegister, routes.PublicRoute, nil)
	router.Register(routes.RouteDashboard, routes.PrivateRoute, s.dashboardView)
}

func (s *portalSession) homeView(context.Context) error {
	s.out.Printf("Logged out. Run 'stockportal login' to start a new session.\n")
	return nil
}

// loginView is reached when a view needs a session and there is none.
func (s *portalSession) loginView(context.Context) error {
	return &cli.AuthRequiredError{Endpoint: s.svc.Client.BaseURL()}
}

func (s *portalSession) dashboardView(ctx context.Context) error {
	var greeting string
	err := s.out.Progress("Loading dashboard...", func() error {
		msg, err := s.svc.Client.Protected(ctx)
		if err != nil {
			return err
		}
		greeting = msg.Message
		return nil
	})
	if err != nil {
		return cli.Translate(err)
	}

	data := map[string]string{"message": greeting}
	return s.out.Render(data, cli.Table{
		Columns: []cli.Column{{Header: "Dashboard"}},
		Rows:    [][]string{{greeting}},
	})
}

// requireRoute fails unless route would render for the current session.
func (s *portalSession) requireRoute(route routes.Route) error {
	target, err := s.svc.Router.Resolve(route)
	if err != nil {
		return err
	}
	if target != route {
		return fmt.Errorf("%s is not available: redirected to %s", route, target)
	}
	return nil
}
