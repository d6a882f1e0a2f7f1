package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shopadmin-dev/shopadmin/internal/cli/userconfig"
	"github.com/shopadmin-dev/shopadmin/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd(opts ...Option) *cobra.Command {
	var email, password string
	var force bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the shop back office as an admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, newEnv(opts), email, password, force)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SHOPADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SHOPADMIN_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&force, "force", false, "Log in again even if a session exists")

	return cmd
}

func runLogin(cmd *cobra.Command, e *env, email, password string, force bool) error {
	out := cmd.OutOrStdout()

	manager, server, cleanup, err := e.openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	if !force && e.guard.ShouldSkip(commandPath(cmd), manager) {
		user := manager.CurrentUser()
		fmt.Fprintf(out, "Already logged in to %s as %s (%s)\n", server.Alias, user.DisplayName(), user.Email)
		fmt.Fprintln(out, "Use --force to log in again.")
		return nil
	}

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("SHOPADMIN_EMAIL")
	}
	if password == "" {
		password = os.Getenv("SHOPADMIN_PASSWORD")
	}
	if email == "" {
		if email, err = userconfig.LoginEmail(server.URL); err != nil {
			logger := e.log()
			logger.Debug().Err(err).Msg("Failed to read remembered login email")
		}
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or SHOPADMIN_EMAIL env var)")
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or SHOPADMIN_PASSWORD env var)")
		}
		fmt.Fprint(out, "Password: ")
		bytePassword, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
	}

	fmt.Fprintf(out, "Logging in to %s (%s)...\n", server.Alias, server.URL)

	user, err := manager.Login(commandContext(cmd), email, password)
	if err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("login failed: %s", authErr.Message)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if !user.Role().Privileged() {
		// The API only issues tokens to staff, but never keep a session the
		// rest of the CLI would refuse.
		manager.Logout()
		return fmt.Errorf("login failed: account %s has no admin privileges", user.Email)
	}

	if err := userconfig.RememberLoginEmail(server.URL, user.Email); err != nil {
		logger := e.log()
		logger.Warn().Err(err).Msg("Failed to remember login email")
	}

	fmt.Fprintln(out, "✓ Login successful!")
	fmt.Fprintf(out, "  User: %s (%s)\n", user.DisplayName(), user.Email)
	fmt.Fprintf(out, "  Role: %s\n", user.Role().Label())

	return nil
}
