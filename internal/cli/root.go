package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shopadmin-dev/shopadmin/internal/cli/commands"
	"github.com/shopadmin-dev/shopadmin/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree. Options are passed to every command
// that talks to the API.
func NewRootCmd(opts ...commands.Option) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shopadmin",
		Short: "shopadmin - Shop back-office from the terminal",
		Long: `shopadmin CLI - Manage products, orders, customers and reviews of your shop.

Log in once with an admin account; the session is kept in your OS keyring
(or the store configured in shopadmin.yaml) and renewed automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env files are optional
			_ = godotenv.Load(".env")

			level := os.Getenv("SHOPADMIN_LOG_LEVEL")
			if level == "" {
				level = "warn"
			}
			logger.InitWithWriter(os.Stderr, level, os.Getenv("SHOPADMIN_LOG_FORMAT"))
		},
	}

	rootCmd.PersistentFlags().String("server", "", "Server alias from shopadmin.yaml (defaults to the selected server)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shopadmin version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd(opts...))
	rootCmd.AddCommand(commands.NewLogoutCmd(opts...))
	rootCmd.AddCommand(commands.NewStatusCmd(opts...))
	rootCmd.AddCommand(commands.NewDashboardCmd(opts...))
	rootCmd.AddCommand(commands.NewProductsCmd(opts...))
	rootCmd.AddCommand(commands.NewOrdersCmd(opts...))
	rootCmd.AddCommand(commands.NewCustomersCmd(opts...))
	rootCmd.AddCommand(commands.NewReviewsCmd(opts...))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
