package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/userdeck/authkit/internal/mockserver"
	"github.com/userdeck/authkit/internal/tools/loadgen"
	"github.com/userdeck/authkit/internal/tools/ui"
)

func newMockServerCommand(opts *options) *cobra.Command {
	var addr, seedEmail, seedPassword string
	var accessTTL time.Duration
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-memory auth API for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			srv := mockserver.New(mockserver.Options{AccessTTL: accessTTL, Logger: logger})
			if seedEmail != "" {
				user := srv.Seed(seedEmail, seedPassword, "admin")
				logger.Info("seeded account", "email", user.Email, "role", user.Role)
			}
			logger.Info("mock auth server listening", "addr", addr)
			server := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			return server.ListenAndServe()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&seedEmail, "seed-email", "admin@local", "account to seed at startup")
	cmd.Flags().StringVar(&seedPassword, "seed-password", "admin", "password for the seeded account")
	cmd.Flags().DurationVar(&accessTTL, "access-ttl", 15*time.Minute, "access token lifetime")
	return cmd
}

func newLoadgenCommand(opts *options) *cobra.Command {
	cfg := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate auth traffic against an API",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := loadgen.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cmd.Println(ui.SuccessStyle.Render(fmt.Sprintf("requests=%d failures=%d", result.TotalRequests, result.Failures)))
			for class, count := range result.StatusCounts {
				cmd.Println(ui.DetailStyle.Render(fmt.Sprintf("  %s: %d", class, count)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&cfg.Profile, "profile", "mixed", "traffic profile (auth, mixed)")
	cmd.Flags().DurationVar(&cfg.Duration, "duration", 5*time.Second, "run duration")
	cmd.Flags().IntVar(&cfg.RPS, "rps", 20, "requests per second")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", 4, "worker count")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", 42, "random seed")
	cmd.Flags().StringVar(&cfg.Email, "email", "admin@local", "seeded account email")
	cmd.Flags().StringVar(&cfg.Password, "password", "admin", "seeded account password")
	return cmd
}
