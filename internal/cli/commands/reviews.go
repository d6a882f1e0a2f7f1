package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
)

// NewReviewsCmd creates the reviews command group
func NewReviewsCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Aliases: []string{"review"},
		Short:   "Moderate product reviews",
	}

	cmd.AddCommand(newReviewsListCmd(opts))
	cmd.AddCommand(newReviewsDeleteCmd(opts))

	return cmd
}

func newReviewsListCmd(opts []Option) *cobra.Command {
	var params client.ListParams
	var rating, product string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List reviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			params.Filters = map[string]string{"rating": rating, "product": product}
			page, err := auth.api.ListReviews(params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(page.Results) == 0 {
				fmt.Fprintln(out, "No reviews found.")
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tPRODUCT\tCUSTOMER\tRATING\tDATE\tCOMMENT")
			fmt.Fprintln(tw, "──\t───────\t────────\t──────\t────\t───────")
			for _, review := range page.Results {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					review.ID,
					truncate(review.ProductName, 30),
					review.CustomerName,
					formatRating(review.Rating),
					formatDate(review.CreatedAt),
					truncate(review.Comment, 50),
				)
			}
			tw.Flush()
			printPageFooter(out, page, params.Page)
			return nil
		},
	}

	addListFlags(cmd, &params)
	cmd.Flags().StringVar(&rating, "rating", "", "Filter by rating (1-5)")
	cmd.Flags().StringVar(&product, "product", "", "Filter by product id")

	return cmd
}

func newReviewsDeleteCmd(opts []Option) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a review",
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

			ok, err := confirm(fmt.Sprintf("Delete review %d", id), yes)
			if err != nil || !ok {
				return err
			}

			if err := auth.api.DeleteReview(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted review %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
