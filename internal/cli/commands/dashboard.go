package commands

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
)

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(opts ...Option) *cobra.Command {
	var watch time.Duration
	var open bool

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show shop totals and the most recent orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, newEnv(opts), watch, open)
		},
	}

	cmd.Flags().DurationVar(&watch, "watch", 0, "Redraw at this interval until interrupted (e.g. 30s)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the web admin panel in the browser")

	return cmd
}

func runDashboard(cmd *cobra.Command, e *env, watch time.Duration, open bool) error {
	out := cmd.OutOrStdout()

	auth, err := e.authorize(cmd)
	if err != nil {
		return err
	}
	defer auth.close()

	if open {
		if err := openBrowser(auth.server.URL); err != nil {
			fmt.Fprintf(out, "⚠ Could not open browser automatically: %v\n", err)
			fmt.Fprintf(out, "Please visit: %s\n", auth.server.URL)
		}
	}

	if watch <= 0 {
		return printDashboard(out, auth.api)
	}

	// Long-running: keep the access token fresh in the background
	auth.manager.Start()

	ctx := commandContext(cmd)
	ticker := time.NewTicker(watch)
	defer ticker.Stop()

	for {
		if err := printDashboard(out, auth.api); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nUpdated %s · refreshing every %s (Ctrl+C to stop)\n\n", formatDate(time.Now()), watch)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printDashboard(w io.Writer, apiClient *client.Client) error {
	overview, err := apiClient.DashboardOverview()
	if err != nil {
		return err
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Revenue\t%s\n", formatCurrency(overview.TotalRevenue))
	fmt.Fprintf(tw, "Orders\t%d (%d completed, %d pending)\n", overview.TotalOrders, overview.CompletedOrders, overview.PendingOrders)
	fmt.Fprintf(tw, "Products\t%d (%d featured)\n", overview.TotalProducts, overview.FeaturedProducts)
	fmt.Fprintf(tw, "Customers\t%d\n", overview.TotalCustomers)
	fmt.Fprintf(tw, "Reviews\t%d\n", overview.TotalReviews)
	tw.Flush()

	orders, err := apiClient.RecentOrders()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\nRecent orders:")
	if len(orders) == 0 {
		fmt.Fprintln(w, "  No orders yet.")
		return nil
	}
	fmt.Fprintln(w)
	printOrders(w, orders)

	return nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
