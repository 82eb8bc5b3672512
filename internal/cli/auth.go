package cli

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
	"github.com/lashkaryadi/get-me-a-tutor/internal/marketplace"
	"github.com/lashkaryadi/get-me-a-tutor/internal/session"
	"github.com/lashkaryadi/get-me-a-tutor/internal/store"
	apperrors "github.com/lashkaryadi/get-me-a-tutor/pkg/errors"
	"github.com/lashkaryadi/get-me-a-tutor/pkg/health"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var in marketplace.Login
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with email and password. Without --password the password is
read from the first line of stdin.`,
		Annotations: noInit(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required: pass --password or pipe it on stdin")
				}
				in.Password = strings.TrimRight(line, "\r\n")
			}

			u, err := rt.app.Marketplace().Login(cmd.Context(), in)
			if err != nil {
				return err
			}
			if rt.jsonOut {
				return writeJSON(out(cmd), u)
			}
			fmt.Fprintf(out(cmd), "Signed in as %s (%s)\n", orDash(u.Name), u.Role)
			fmt.Fprintf(out(cmd), "Credits: %d\n", rt.app.Ledger().Balance())
			fmt.Fprintf(out(cmd), "Dashboard: %s\n", domain.DashboardRoute(u.Role))
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Forget the stored session",
		Annotations: noInit(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Marketplace().Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u := rt.app.Session().Identity()
			if u == nil {
				return &session.DeniedError{Redirect: domain.RouteLogin, Err: apperrors.Unauthorized("sign in to continue")}
			}
			if rt.jsonOut {
				return writeJSON(out(cmd), struct {
					*domain.User
					Credits   int    `json:"credits"`
					Dashboard string `json:"dashboard"`
				}{u, rt.app.Ledger().Balance(), domain.DashboardRoute(u.Role)})
			}
			t := newTable(out(cmd), "field", "value")
			t.row("id", u.ID)
			t.row("name", orDash(u.Name))
			t.row("email", orDash(u.Email))
			t.row("role", u.Role)
			t.row("credits", rt.app.Ledger().Balance())
			t.row("dashboard", domain.DashboardRoute(u.Role))
			return t.flush()
		},
	}
}

// statusReport is the output of tutorctl status.
type statusReport struct {
	Store     string        `json:"store"`
	SignedIn  bool          `json:"signed_in"`
	Subject   string        `json:"subject,omitempty"`
	Role      string        `json:"role,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	Expired   bool          `json:"expired"`
	Refresh   bool          `json:"has_refresh_token"`
	Health    health.Report `json:"health"`
}

func newStatusCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored credential and backend reachability",
		Long: `Decode the stored access token without verifying it and probe the store
and the API. No API call is made with the credential.`,
		Annotations: noInit(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			report := statusReport{Store: rt.cfg.StoreBackend}

			cred, err := store.LoadCredential(ctx, rt.app.Store())
			if err != nil {
				return err
			}
			report.Refresh = cred.RefreshToken != ""
			if cred.AccessToken != "" {
				report.SignedIn = true
				if info, err := session.InspectToken(cred.AccessToken); err == nil {
					report.Subject = info.Subject
					report.Role = info.Role
					if !info.ExpiresAt.IsZero() {
						exp := info.ExpiresAt
						report.ExpiresAt = &exp
						report.Expired = info.Expired(time.Now())
					}
				} else {
					rt.logger.Debug("access token is not a JWT", slog.String("error", err.Error()))
				}
			}
			report.Health = rt.app.Health().Check(ctx)

			if rt.jsonOut {
				return writeJSON(out(cmd), report)
			}
			t := newTable(out(cmd), "check", "result")
			t.row("store", report.Store)
			t.row("signed in", report.SignedIn)
			if report.Subject != "" {
				t.row("subject", report.Subject)
			}
			if report.Role != "" {
				t.row("role", report.Role)
			}
			if report.ExpiresAt != nil {
				state := "valid"
				if report.Expired {
					state = "expired"
				}
				t.row("token expires", report.ExpiresAt.Format(time.RFC3339)+" ("+state+")")
			}
			t.row("refresh token", report.Refresh)
			for _, name := range rt.app.Health().Names() {
				res := report.Health.Checks[name]
				line := string(res.Status)
				if res.Error != "" {
					line += ": " + res.Error
				}
				t.row(name, line)
			}
			return t.flush()
		},
	}
}

func newVerifyEmailCommand(rt *runtime) *cobra.Command {
	var email, otp string
	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Verify the email address with the 6-digit code",
		Long: `Submit the code mailed at signup. Without --email the address stored by
the pending signup is used.`,
		Annotations: noInit(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.app.Marketplace().VerifyEmail(cmd.Context(), email, otp); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "Email verified, you can now log in")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address to verify")
	cmd.Flags().StringVar(&otp, "otp", "", "6-digit code")
	_ = cmd.MarkFlagRequired("otp")
	return cmd
}

func newResendOTPCommand(rt *runtime) *cobra.Command {
	var userID, email string
	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Mail a fresh verification code for the pending signup",
		Long: `Ask for a new verification code. --user-id (and optionally --email) records
the signup to verify; later runs of resend-otp and verify-email reuse it.`,
		Annotations: noInit(),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := rt.app.Marketplace()
			if userID != "" {
				if err := m.BeginVerification(cmd.Context(), email, userID); err != nil {
					return err
				}
			}
			if err := m.ResendEmailOTP(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), "A new code has been sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "id of the account awaiting verification")
	cmd.Flags().StringVar(&email, "email", "", "email address the code goes to")
	return cmd
}
