package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/userdeck/authkit/internal/app"
	"github.com/userdeck/authkit/internal/domain"
	"github.com/userdeck/authkit/internal/observability"
	"github.com/userdeck/authkit/internal/tools/ui"
)

func newLoginCommand(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				var user *domain.User
				err := runStep(opts, "signing in", func(ctx context.Context) error {
					var loginErr error
					user, loginErr = a.Session.LoginUser(ctx, email, password)
					return loginErr
				})
				if err != nil {
					return renderAuthError(cmd, err)
				}
				observability.Audit(cmd.Context(), "cli.login", "email", user.Email)
				cmd.Println(ui.SuccessStyle.Render(fmt.Sprintf("signed in as %s (%s)", user.Email, user.Role)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCommand(opts *options) *cobra.Command {
	var email, password, confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and persist the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				var user *domain.User
				err := runStep(opts, "registering", func(ctx context.Context) error {
					var regErr error
					user, regErr = a.Session.RegisterUser(ctx, email, password, confirm)
					return regErr
				})
				if err != nil {
					return renderAuthError(cmd, err)
				}
				observability.Audit(cmd.Context(), "cli.register", "email", user.Email)
				cmd.Println(ui.SuccessStyle.Render(fmt.Sprintf("registered %s", user.Email)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "password confirmation")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("confirm-password")
	return cmd
}

func newLogoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session remotely and clear local auth state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				a.Session.LogoutUser(cmd.Context())
				observability.Audit(cmd.Context(), "cli.logout")
				cmd.Println(ui.SuccessStyle.Render("signed out"))
				return nil
			})
		},
	}
}

func newWhoamiCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the locally persisted session identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				record := a.Session.GetSession(cmd.Context())
				if record == nil {
					cmd.Println(ui.DetailStyle.Render("not signed in"))
					return nil
				}
				cmd.Printf("id:    %d\n", record.User.ID)
				cmd.Printf("email: %s\n", record.User.Email)
				cmd.Printf("role:  %s\n", record.User.Role)
				return nil
			})
		},
	}
}

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"refresh"},
		Short:   "Check whether a usable access token is available, refreshing if due",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				switch a.Session.EnsureValidToken(cmd.Context()) {
				case domain.TokenValid:
					cmd.Println(ui.SuccessStyle.Render("token valid"))
				case domain.TokenExpired:
					cmd.Println(ui.ErrorStyle.Render("token expired and refresh failed"))
				default:
					cmd.Println(ui.DetailStyle.Render("no token persisted"))
				}
				return nil
			})
		},
	}
}

func newForgotPasswordCommand(opts *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Session.ForgotUserPassword(cmd.Context(), email); err != nil {
					return renderAuthError(cmd, err)
				}
				cmd.Println(ui.SuccessStyle.Render("reset email requested"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCommand(opts *options) *cobra.Command {
	var password, confirm, key string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password using a reset key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Session.ResetUserPassword(cmd.Context(), password, confirm, key); err != nil {
					return renderAuthError(cmd, err)
				}
				cmd.Println(ui.SuccessStyle.Render("password reset"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "password confirmation")
	cmd.Flags().StringVar(&key, "key", "", "reset key from the email link")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("confirm-password")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newVerifyAccountCommand(opts *options) *cobra.Command {
	var password, confirm, key string
	cmd := &cobra.Command{
		Use:   "verify-account",
		Short: "Activate an invited account using a verification key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Session.VerifyUserAccount(cmd.Context(), password, confirm, key); err != nil {
					return renderAuthError(cmd, err)
				}
				cmd.Println(ui.SuccessStyle.Render("account verified"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm-password", "", "password confirmation")
	cmd.Flags().StringVar(&key, "key", "", "verification key from the invite link")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("confirm-password")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// runStep shows a spinner around fn unless plain output was requested.
func runStep(opts *options, title string, fn func(context.Context) error) error {
	if opts.plain {
		return fn(context.Background())
	}
	_, err := ui.Run(title, func(ctx context.Context) ([]string, error) {
		return nil, fn(ctx)
	})
	return err
}

func renderAuthError(cmd *cobra.Command, err error) error {
	authErr := &domain.AuthError{}
	if errors.As(err, &authErr) {
		cmd.Println(ui.ErrorStyle.Render(authErr.Message))
		if authErr.FieldError != nil {
			cmd.Println(ui.DetailStyle.Render(fmt.Sprintf("%s: %s", authErr.FieldError.Field, authErr.FieldError.Message)))
		}
		return fmt.Errorf("authentication failed")
	}
	return err
}
