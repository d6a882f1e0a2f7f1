package commands

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shopadmin-dev/shopadmin/internal/cli/client"
	"github.com/shopadmin-dev/shopadmin/internal/cli/userconfig"
)

// NewProductsCmd creates the products command group
func NewProductsCmd(opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "Browse and manage the product catalogue",
	}

	cmd.AddCommand(newProductsListCmd(opts))
	cmd.AddCommand(newProductsShowCmd(opts))
	cmd.AddCommand(newProductsCreateCmd(opts))
	cmd.AddCommand(newProductsEditCmd(opts))
	cmd.AddCommand(newProductsDeleteCmd(opts))
	cmd.AddCommand(newProductsFeatureCmd(opts))
	cmd.AddCommand(newProductsStatsCmd(opts))

	return cmd
}

func newProductsListCmd(opts []Option) *cobra.Command {
	var params client.ListParams
	var category, featured string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			params.Filters = map[string]string{"category": category, "is_featured": featured}
			page, err := auth.api.ListProducts(params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(page.Results) == 0 {
				fmt.Fprintln(out, "No products found.")
				return nil
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "ID\tNAME\tSKU\tCATEGORY\tPRICE\tFLAGS")
			fmt.Fprintln(tw, "──\t────\t───\t────────\t─────\t─────")
			for _, product := range page.Results {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
					product.ID,
					truncate(product.Name, 40),
					product.SKU,
					product.CategoryName,
					formatCurrency(product.Price()),
					productFlags(&product),
				)
			}
			tw.Flush()
			printPageFooter(out, page, params.Page)

			return nil
		},
	}

	addListFlags(cmd, &params)
	cmd.Flags().StringVar(&category, "category", "", "Filter by category id")
	cmd.Flags().StringVar(&featured, "featured", "", "Filter by featured flag (true or false)")

	return cmd
}

func newProductsShowCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a product",
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

			product, err := auth.api.GetProduct(id)
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "ID\t%d\n", product.ID)
			fmt.Fprintf(tw, "Name\t%s\n", product.Name)
			fmt.Fprintf(tw, "SKU\t%s\n", product.SKU)
			fmt.Fprintf(tw, "Category\t%s\n", product.CategoryName)
			fmt.Fprintf(tw, "Regular price\t%s\n", formatCurrency(product.RegularPrice))
			if product.SalePrice != nil {
				fmt.Fprintf(tw, "Sale price\t%s (%d%% off)\n", formatCurrency(*product.SalePrice), product.DiscountPercentage)
			}
			fmt.Fprintf(tw, "Material\t%s\n", product.Material)
			fmt.Fprintf(tw, "Flags\t%s\n", productFlags(product))
			fmt.Fprintf(tw, "Image\t%s\n", product.MainImageURL)
			fmt.Fprintf(tw, "Created\t%s\n", formatDate(product.CreatedAt))
			tw.Flush()

			if product.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", product.Description)
			}
			return nil
		},
	}
}

func newProductsCreateCmd(opts []Option) *cobra.Command {
	var fields productFields

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a product to the catalogue",
		Long: `Add a product to the catalogue.

Examples:
  $ shopadmin products create --name "Mulmul Kurta" --price 1899
  $ shopadmin products create --name "Tussar Saree" --sku SAR-010 --price 8999 --sale-price 7499 --category 1 --featured`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var input client.ProductInput
			if err := fields.apply(cmd, &input); err != nil {
				return err
			}

			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			product, err := auth.api.CreateProduct(input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created product %d (%s)\n", product.ID, product.Name)
			return nil
		},
	}

	fields.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func newProductsEditCmd(opts []Option) *cobra.Command {
	var fields productFields

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a product",
		Long: `Change fields of a product. Only the flags given are changed.

Use "none" to clear the sale price or the category.

Examples:
  $ shopadmin products edit 3 --price 2199
  $ shopadmin products edit 3 --sale-price none --featured=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !fields.changed(cmd) {
				return fmt.Errorf("nothing to change (see 'shopadmin products edit --help')")
			}

			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			current, err := auth.api.GetProduct(id)
			if err != nil {
				return err
			}
			input := current.Input()
			if err := fields.apply(cmd, &input); err != nil {
				return err
			}

			product, err := auth.api.UpdateProduct(id, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated product %d (%s)\n", product.ID, product.Name)
			return nil
		},
	}

	fields.register(cmd)

	return cmd
}

// productFields holds the product flags shared by create and edit
type productFields struct {
	name, sku, description, material string
	price, salePrice, category       string
	featured, newArrival, bestSeller bool
}

var productFieldFlags = []string{
	"name", "sku", "description", "material", "price", "sale-price", "category",
	"featured", "new-arrival", "best-seller",
}

func (f *productFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Product name")
	cmd.Flags().StringVar(&f.sku, "sku", "", "Stock keeping unit")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringVar(&f.material, "material", "", "Material")
	cmd.Flags().StringVar(&f.price, "price", "", "Regular price in rupees")
	cmd.Flags().StringVar(&f.salePrice, "sale-price", "", "Sale price in rupees, or none")
	cmd.Flags().StringVar(&f.category, "category", "", "Category id, or none")
	cmd.Flags().BoolVar(&f.featured, "featured", false, "Show on the storefront home page")
	cmd.Flags().BoolVar(&f.newArrival, "new-arrival", false, "Mark as a new arrival")
	cmd.Flags().BoolVar(&f.bestSeller, "best-seller", false, "Mark as a best seller")
}

func (f *productFields) changed(cmd *cobra.Command) bool {
	for _, name := range productFieldFlags {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply copies every flag set on the command line onto input
func (f *productFields) apply(cmd *cobra.Command, input *client.ProductInput) error {
	flags := cmd.Flags()

	if flags.Changed("name") {
		if strings.TrimSpace(f.name) == "" {
			return fmt.Errorf("name cannot be empty")
		}
		input.Name = f.name
	}
	if flags.Changed("sku") {
		input.SKU = f.sku
	}
	if flags.Changed("description") {
		input.Description = f.description
	}
	if flags.Changed("material") {
		input.Material = f.material
	}
	if flags.Changed("price") {
		price, err := parseAmount(f.price)
		if err != nil {
			return fmt.Errorf("invalid price: %w", err)
		}
		input.RegularPrice = price
	}
	if flags.Changed("sale-price") {
		input.SalePrice = nil
		if !clears(f.salePrice) {
			sale, err := parseAmount(f.salePrice)
			if err != nil {
				return fmt.Errorf("invalid sale price: %w", err)
			}
			input.SalePrice = &sale
		}
	}
	if flags.Changed("category") {
		input.Category = nil
		if !clears(f.category) {
			id, err := parseID(f.category)
			if err != nil {
				return fmt.Errorf("invalid category: %w", err)
			}
			input.Category = &id
		}
	}
	if flags.Changed("featured") {
		input.IsFeatured = f.featured
	}
	if flags.Changed("new-arrival") {
		input.IsNewArrival = f.newArrival
	}
	if flags.Changed("best-seller") {
		input.IsBestSeller = f.bestSeller
	}
	return nil
}

func clears(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, "none")
}

func parseAmount(value string) (client.Amount, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || amount < 0 || math.IsInf(amount, 0) || math.IsNaN(amount) {
		return 0, fmt.Errorf("'%s' is not a valid amount", value)
	}
	return client.Amount(amount), nil
}

func newProductsDeleteCmd(opts []Option) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product",
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

			ok, err := confirm(fmt.Sprintf("Delete product %d", id), yes)
			if err != nil || !ok {
				return err
			}

			if err := auth.api.DeleteProduct(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted product %d\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func newProductsFeatureCmd(opts []Option) *cobra.Command {
	var flag string
	var unset bool

	cmd := &cobra.Command{
		Use:   "feature <id>...",
		Short: "Set or clear a merchandising flag on products",
		Long: `Set or clear a merchandising flag on one or more products.

Flags: featured, new-arrival, best-seller.

Examples:
  $ shopadmin products feature 3 4 5
  $ shopadmin products feature 3 --flag best-seller --unset`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := buildBulkUpdate(args, flag, !unset)
			if err != nil {
				return err
			}

			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			msg, err := auth.api.BulkUpdateProducts(update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", msg.Message)
			return nil
		},
	}

	cmd.Flags().StringVar(&flag, "flag", "featured", "Flag to change: featured, new-arrival or best-seller")
	cmd.Flags().BoolVar(&unset, "unset", false, "Clear the flag instead of setting it")

	return cmd
}

func newProductsStatsCmd(opts []Option) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalogue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := newEnv(opts).authorize(cmd)
			if err != nil {
				return err
			}
			defer auth.close()

			stats, err := auth.api.ProductStatistics()
			if err != nil {
				return err
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Products\t%d\n", stats.TotalProducts)
			fmt.Fprintf(tw, "Featured\t%d\n", stats.FeaturedProducts)
			fmt.Fprintf(tw, "New arrivals\t%d\n", stats.NewArrivals)
			fmt.Fprintf(tw, "Best sellers\t%d\n", stats.BestSellers)
			fmt.Fprintf(tw, "Categories\t%d\n", stats.CategoriesCount)
			tw.Flush()
			return nil
		},
	}
}

func buildBulkUpdate(args []string, flag string, value bool) (client.BulkUpdate, error) {
	update := client.BulkUpdate{}
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return update, err
		}
		update.IDs = append(update.IDs, id)
	}

	switch strings.ToLower(flag) {
	case "featured":
		update.IsFeatured = &value
	case "new-arrival":
		update.IsNewArrival = &value
	case "best-seller":
		update.IsBestSeller = &value
	default:
		return update, fmt.Errorf("unknown flag '%s' (expected featured, new-arrival or best-seller)", flag)
	}
	return update, nil
}

func productFlags(p *client.Product) string {
	var flags []string
	if p.IsFeatured {
		flags = append(flags, "featured")
	}
	if p.IsNewArrival {
		flags = append(flags, "new")
	}
	if p.IsBestSeller {
		flags = append(flags, "best-seller")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func addListFlags(cmd *cobra.Command, params *client.ListParams) {
	cmd.Flags().IntVar(&params.Page, "page", 0, "Page number")
	cmd.Flags().IntVar(&params.PageSize, "page-size", 0, "Results per page")
	cmd.Flags().StringVar(&params.Search, "search", "", "Search term")
	cmd.Flags().StringVar(&params.Ordering, "ordering", "", "Sort field, prefix with - for descending")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return applyDefaultPageSize(cmd, params)
	}
}

// applyDefaultPageSize fills in page_size from the user config when
// --page-size was not given
func applyDefaultPageSize(cmd *cobra.Command, params *client.ListParams) error {
	if cmd.Flags().Changed("page-size") {
		return nil
	}
	cfg, err := userconfig.Load()
	if err != nil {
		return err
	}
	params.PageSize = cfg.DefaultPageSize()
	return nil
}
