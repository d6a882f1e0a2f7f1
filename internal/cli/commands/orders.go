package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
)

// NewOrdersCmd creates the orders command group
func NewOrdersCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "Browse orders and update their status",
	}

	cmd.AddCommand(newOrdersListCmd(opts))
	cmd.AddCommand(newOrdersShowCmd(opts))
	cmd.AddCommand(newOrdersSetStatusCmd(opts))
	cmd.AddCommand(newOrdersStatsCmd(opts))

	return cmd
}

func newOrdersListCmd(opts []Option) *cobra.Command {
	var params client.ListParams
	var status string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			complete, err := completeFilter(status)
			if err != nil {
				return err
			}

			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			params.Filters = map[string]string{"complete": complete}
			page, err := auth.api.ListOrders(params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(page.Results) == 0 {
				fmt.Fprintln(out, "No orders found.")
				return nil
			}

			printOrders(out, page.Results)
			printPageFooter(out, page, params.Page)
			return nil
		},
	}

	addListFlags(cmd, &params)
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: completed or pending")

	return cmd
}

func newOrdersShowCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			order, err := auth.api.GetOrder(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := newTable(out)
			fmt.Fprintf(tw, "Order\t%d\n", order.ID)
			fmt.Fprintf(tw, "Customer\t%s (%s)\n", order.CustomerName, order.CustomerEmail)
			fmt.Fprintf(tw, "Date\t%s\n", formatDate(order.DateOrdered))
			fmt.Fprintf(tw, "Status\t%s\n", order.Status())
			if order.TransactionID != "" {
				fmt.Fprintf(tw, "Transaction\t%s\n", order.TransactionID)
			}
			fmt.Fprintf(tw, "Total\t%s\n", formatCurrency(order.CartTotal))
			tw.Flush()

			if len(order.Items) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			tw = newTable(out)
			fmt.Fprintln(tw, "PRODUCT\tPRICE\tQTY\tTOTAL")
			fmt.Fprintln(tw, "───────\t─────\t───\t─────")
			for _, item := range order.Items {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
					item.ProductName,
					formatCurrency(item.ProductPrice),
					item.Quantity,
					formatCurrency(item.Total),
				)
			}
			tw.Flush()
			return nil
		},
	}
}

func newOrdersSetStatusCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Change the status of an order",
		Long: `Change the status of an order.

Statuses: pending, confirmed, completed, cancelled.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := client.ParseOrderStatus(args[1])
			if err != nil {
				return err
			}

			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			msg, err := auth.api.UpdateOrderStatus(id, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (order %d → %s)\n", msg.Message, id, status)
			return nil
		},
	}
}

func newOrdersStatsCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show order statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			stats, err := auth.api.OrderStatistics()
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Orders\t%d\n", stats.TotalOrders)
			fmt.Fprintf(tw, "Completed\t%d\n", stats.CompletedOrders)
			fmt.Fprintf(tw, "Pending\t%d\n", stats.PendingOrders)
			fmt.Fprintf(tw, "Revenue\t%s\n", formatCurrency(stats.TotalRevenue))
			tw.Flush()
			return nil
		},
	}
}

func completeFilter(status string) (string, error) {
	switch status {
	case "":
		return "", nil
	case "completed", "complete":
		return "true", nil
	case "pending":
		return "false", nil
	}
	return "", fmt.Errorf("invalid status filter '%s' (expected completed or pending)", status)
}
