package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session for the selected server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, newEnv(opts))
		},
	}
}

func runLogout(cmd *cobra.Command, e *env) error {
	manager, server, cleanup, err := e.openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	manager.Logout()

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged out of %s (%s)\n", server.Alias, server.URL)
	return nil
}
