package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/userdeck/authkit/internal/app"
	"github.com/userdeck/authkit/internal/tools/common"
)

type options struct {
	envFile string
	plain   bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "authkit",
		Short:         "Session and token lifecycle client for the Userdeck API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return common.LoadEnvFile(opts.envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file to load before reading config")
	cmd.PersistentFlags().BoolVar(&opts.plain, "plain", false, "disable interactive output")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newWhoamiCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newForgotPasswordCommand(opts))
	cmd.AddCommand(newResetPasswordCommand(opts))
	cmd.AddCommand(newVerifyAccountCommand(opts))
	cmd.AddCommand(newMockServerCommand(opts))
	cmd.AddCommand(newLoadgenCommand(opts))
	return cmd
}

// withApp wires the application for commands that need the full session
// manager, tearing it down when the command returns.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, cleanup, err := app.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()
	return fn(a)
}
