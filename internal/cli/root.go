// Package cli contains the tutorctl commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lashkaryadi/get-me-a-tutor/internal/app"
	"github.com/lashkaryadi/get-me-a-tutor/internal/config"
	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/session"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/logger"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/pagination"
)

// Command annotations controlling how much of the app a command needs.
const (
	// annotationNoApp marks commands that run without config or store.
	annotationNoApp = "tutorctl/no-app"
	// annotationNoInit marks commands that open the store but skip the
	// identity and balance reads.
	annotationNoInit = "tutorctl/no-init"
)

var (
	commit    = "unknown"
	buildTime = "unknown"
)

// SetBuildInfo sets the commit hash and build time.
func SetBuildInfo(c, bt string) {
	commit = c
	buildTime = bt
}

// runtime is the state shared by every command of one invocation.
type runtime struct {
	verbose bool
	jsonOut bool
	page    pagination.Params

	cfg    *config.Config
	logger *slog.Logger
	app    *app.App
}

// newRoot builds the full command tree.
func newRoot() (*cobra.Command, *runtime) {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "tutorctl",
		Short: "Command-line client for the Get Me A Tutor marketplace",
		Long: `tutorctl signs in to the Get Me A Tutor marketplace, keeps the session
and credit balance in a local or shared store, and drives jobs, applications,
profiles and credit purchases from the terminal.

Example usage:
  tutorctl login --email asha@example.com --password ...
  tutorctl whoami
  tutorctl jobs list --subject Maths --location Pune
  tutorctl buy order --credits 25
  tutorctl serve-callback --once`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd)
		},
	}

	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&rt.jsonOut, "json", false, "output as JSON")

	root.AddCommand(
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newStatusCommand(rt),
		newVerifyEmailCommand(rt),
		newResendOTPCommand(rt),
		newCreditsCommand(rt),
		newJobsCommand(rt),
		newApplyCommand(rt),
		newApplicationsCommand(rt),
		newProfileCommand(rt),
		newBuyCommand(rt),
		newServeCallbackCommand(rt),
		newVersionCommand(rt),
	)
	return root, rt
}

// Execute runs the command tree against ctx and releases the store and
// tracer afterwards.
func Execute(ctx context.Context) error {
	root, rt := newRoot()
	err := root.ExecuteContext(ctx)
	if cerr := rt.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// ErrorMessage renders err for the terminal, adding where to go next when
// the session does not allow the command.
func ErrorMessage(err error) string {
	msg := apperrors.UserMessage(err)
	var denied *session.DeniedError
	if errors.As(err, &denied) && denied.Redirect == domain.RouteLogin {
		msg += " (run: tutorctl login)"
	}
	return msg
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	if hasAnnotation(cmd, annotationNoApp) {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if rt.verbose {
		level = "debug"
	}
	rt.cfg = cfg
	rt.logger = logger.New("tutorctl", level, cfg.LogFormat)

	a, err := app.NewApp(cfg, rt.logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	rt.app = a

	if hasAnnotation(cmd, annotationNoInit) {
		return nil
	}
	if err := a.Init(cmd.Context()); err != nil {
		// Commands that need an identity fail on their own guard.
		rt.logger.Debug("session init failed", slog.String("error", err.Error()))
	}
	return nil
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

// authorize checks the mirrored identity against the allowed roles.
func (rt *runtime) authorize(ctx context.Context, roles ...domain.Role) (*domain.User, error) {
	return session.Authorize(ctx, rt.app.Store(), roles...)
}

func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if _, ok := c.Annotations[key]; ok {
			return true
		}
	}
	return false
}

func noApp() map[string]string  { return map[string]string{annotationNoApp: "true"} }
func noInit() map[string]string { return map[string]string{annotationNoInit: "true"} }

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
