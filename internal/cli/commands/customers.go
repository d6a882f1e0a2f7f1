package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
)

// NewCustomersCmd creates the customers command group
func NewCustomersCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "customers",
		Aliases: []string{"customer"},
		Short:   "Browse customers and manage their accounts",
	}

	cmd.AddCommand(newCustomersListCmd(opts))
	cmd.AddCommand(newCustomersShowCmd(opts))
	cmd.AddCommand(newCustomersOrdersCmd(opts))
	cmd.AddCommand(newCustomersToggleActiveCmd(opts))

	return cmd
}

func newCustomersListCmd(opts []Option) *cobra.Command {
	var params client.ListParams

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			page, err := auth.api.ListCustomers(params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(page.Results) == 0 {
				fmt.Fprintln(out, "No customers found.")
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tJOINED\tACTIVE")
			fmt.Fprintln(tw, "──\t────\t─────\t──────\t──────")
			for _, customer := range page.Results {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
					customer.ID,
					customer.FullName(),
					customer.Email,
					formatDate(customer.DateJoined),
					yesNo(customer.IsActive),
				)
			}
			tw.Flush()
			printPageFooter(out, page, params.Page)
			return nil
		},
	}

	addListFlags(cmd, &params)

	return cmd
}

func newCustomersShowCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a customer",
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

			customer, err := auth.api.GetCustomer(id)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "ID\t%d\n", customer.ID)
			fmt.Fprintf(tw, "Name\t%s\n", customer.FullName())
			fmt.Fprintf(tw, "Username\t%s\n", customer.Username)
			fmt.Fprintf(tw, "Email\t%s\n", customer.Email)
			fmt.Fprintf(tw, "Joined\t%s\n", formatDate(customer.DateJoined))
			fmt.Fprintf(tw, "Active\t%s\n", yesNo(customer.IsActive))
			tw.Flush()
			return nil
		},
	}
}

func newCustomersOrdersCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "orders <id>",
		Short: "List the orders of a customer",
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

			orders, err := auth.api.CustomerOrders(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(orders) == 0 {
				fmt.Fprintf(out, "Customer %d has no orders.\n", id)
				return nil
			}
			printOrders(out, orders)
			return nil
		},
	}
}

func newCustomersToggleActiveCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-active <id>",
		Short: "Activate an inactive customer or deactivate an active one",
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

			msg, err := auth.api.ToggleCustomerActive(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", msg.Message)
			return nil
		},
	}
}
