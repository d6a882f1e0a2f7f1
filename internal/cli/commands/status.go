package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd(opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the selected server and the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, newEnv(opts))
		},
	}
}

func runStatus(cmd *cobra.Command, e *env) error {
	out := cmd.OutOrStdout()

	manager, server, cleanup, err := e.openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintf(out, "Server: %s (%s)\n", server.Alias, server.URL)

	user := manager.CurrentUser()
	if user == nil || !manager.IsAuthenticated() {
		fmt.Fprintln(out, "Not logged in. Run 'shopadmin login' to authenticate.")
		return nil
	}

	fmt.Fprintf(out, "User:   %s (%s)\n", user.DisplayName(), user.Email)
	fmt.Fprintf(out, "Role:   %s\n", user.Role().Label())

	if exp, ok := manager.AccessTokenExpiry(); ok {
		if remaining := time.Until(exp); remaining > 0 {
			fmt.Fprintf(out, "Access: valid until %s (%s left)\n", formatDate(exp), remaining.Round(time.Second))
		} else {
			fmt.Fprintf(out, "Access: expired at %s, renewed on next request\n", formatDate(exp))
		}
	}

	return nil
}
