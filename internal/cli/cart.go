package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/shopper"
	shoppercart "github.com/angelmondragon/saree-storefront/pkg/shopper/cart"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

func NewCartCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and change the cart of the current partition",
	}
	cmd.AddCommand(newCartListCommand(opts))
	cmd.AddCommand(newCartAddCommand(opts))
	cmd.AddCommand(newCartUpdateCommand(opts))
	cmd.AddCommand(newCartRemoveCommand(opts))
	cmd.AddCommand(newCartClearCommand(opts))
	cmd.AddCommand(newCartSyncCommand(opts))
	return cmd
}

func cartText(items []types.CartItem) string {
	if len(items) == 0 {
		return "Cart is empty"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tCOLOR\tQTY\tSTOCK\tSUBTOTAL")
	total := decimal.Zero
	count := 0
	for _, item := range items {
		color := "-"
		if item.SelectedColor != nil {
			color = *item.SelectedColor
		}
		subtotal := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		count += item.Quantity
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", item.Product.ID, item.Product.Name, color, item.Quantity, item.Product.Stock, subtotal.StringFixed(2))
	}
	_ = tw.Flush()
	fmt.Fprintf(&b, "%d items, total %s", count, total.StringFixed(2))
	return b.String()
}

func parseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(raw)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("quantity %q is not a number", raw), err)
	}
	return q, nil
}

func newCartListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the local cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				items := c.Cart.GetCart(ctx)
				return out.Success(items, cartText(items))
			})
		},
	}
}

func newCartAddCommand(opts *RootOptions) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <productId> [quantity]",
		Short: "Add a product; an existing line grows, capped at stock",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity := 1
			if len(args) == 2 {
				q, err := parseQuantity(args[1])
				if err != nil {
					return err
				}
				quantity = q
			}
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				product, err := c.Product(ctx, args[0])
				if err != nil {
					return err
				}
				var addOpts []shoppercart.AddOption
				if color != "" {
					addOpts = append(addOpts, shoppercart.WithColor(color))
				}
				if err := c.Cart.AddToCart(ctx, *product, quantity, addOpts...); err != nil {
					return err
				}
				out.Logf("cart now holds %d items", c.Cart.GetCount(ctx))
				return out.Success(c.Cart.GetCart(ctx), fmt.Sprintf("Added %s", product.Name))
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "selected color")
	return cmd
}

func newCartUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <productId> <quantity>",
		Short: "Set the quantity of a line; zero or less removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				result, err := c.Cart.UpdateQuantity(ctx, args[0], quantity)
				if err != nil {
					return err
				}
				if !result.Success {
					return result.Err()
				}
				return out.Success(c.Cart.GetCart(ctx), fmt.Sprintf("Updated %s", args[0]))
			})
		},
	}
}

func newCartRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if err := c.Cart.RemoveFromCart(ctx, args[0]); err != nil {
					return err
				}
				return out.Success(c.Cart.GetCart(ctx), fmt.Sprintf("Removed %s", args[0]))
			})
		},
	}
}

func newCartClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if err := c.Cart.ClearCart(ctx); err != nil {
					return err
				}
				return out.Success([]types.CartItem{}, "Cart cleared")
			})
		},
	}
}

func newCartSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace the local cart with the server copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if !c.Authenticated(ctx) {
					return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to sync the cart")
				}
				if err := c.Cart.SyncFromServer(ctx); err != nil {
					return err
				}
				items := c.Cart.GetCart(ctx)
				return out.Success(items, cartText(items))
			})
		},
	}
}
