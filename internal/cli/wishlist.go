package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/shopper"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

func NewWishlistCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "wishlist",
		Aliases: []string{"wl"},
		Short:   "Inspect and change the wishlist of the current partition",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the local wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				items := c.Wishlist.GetWishlist(ctx)
				return out.Success(items, wishlistText(items))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <productId>",
		Short: "Like a product, or unlike it when already liked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				product, err := c.Product(ctx, args[0])
				if err != nil {
					return err
				}
				liked, err := c.Wishlist.ToggleWishlist(ctx, *product)
				if err != nil {
					return err
				}
				text := fmt.Sprintf("Removed %s from the wishlist", product.Name)
				if liked {
					text = fmt.Sprintf("Added %s to the wishlist", product.Name)
				}
				return out.Success(map[string]any{"productId": product.ID, "wishlisted": liked}, text)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a product from the wishlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if err := c.Wishlist.RemoveFromWishlist(ctx, args[0]); err != nil {
					return err
				}
				return out.Success(c.Wishlist.GetWishlist(ctx), fmt.Sprintf("Removed %s", args[0]))
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if err := c.Wishlist.ClearWishlist(ctx); err != nil {
					return err
				}
				return out.Success([]types.Product{}, "Wishlist cleared")
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Replace the local wishlist with the server copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, c *shopper.Client, out *Output) error {
				if !c.Authenticated(ctx) {
					return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to sync the wishlist")
				}
				if err := c.Wishlist.SyncFromServer(ctx); err != nil {
					return err
				}
				items := c.Wishlist.GetWishlist(ctx)
				return out.Success(items, wishlistText(items))
			})
		},
	})
	return cmd
}

func wishlistText(items []types.Product) string {
	if len(items) == 0 {
		return "Wishlist is empty"
	}
	lines := make([]string, 0, len(items))
	for _, p := range items {
		lines = append(lines, fmt.Sprintf("%s  %s  %s", p.ID, p.Name, p.Price.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}
