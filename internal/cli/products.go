package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/saree-storefront/pkg/shopper"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

func NewProductsCommand(opts *RootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products [productId]",
		Short: "Browse the catalog, or show one product",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if len(args) == 1 {
					product, err := c.Product(ctx, args[0])
					if err != nil {
						return err
					}
					return out.Success(product, productsText([]types.Product{*product}))
				}
				items, err := c.Products(ctx, category)
				if err != nil {
					return err
				}
				return out.Success(items, productsText(items))
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list this category")
	return cmd
}

func productsText(items []types.Product) string {
	if len(items) == 0 {
		return "No products"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}
