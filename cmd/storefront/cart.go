package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/app"
)

func cartCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit the local cart",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show cart lines and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				return printCart(cmd, a)
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id> [quantity]",
		Short: "Add a product, summing with an existing line",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				qty = n
			}
			return run(opts, func(ctx context.Context, a *app.App) error {
				product, err := a.API.Products.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if err := a.Cart.AddItem(ctx, product.CartLine(qty)); err != nil {
					return err
				}
				return printCart(cmd, a)
			})
		},
	}

	update := &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set a line's quantity; zero or less removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return run(opts, func(ctx context.Context, a *app.App) error {
				a.Cart.UpdateQuantity(ctx, args[0], qty)
				return printCart(cmd, a)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				a.Cart.RemoveItem(ctx, args[0])
				return printCart(cmd, a)
			})
		},
	}

	clearAll := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				a.Cart.Clear(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
				return nil
			})
		},
	}

	var pull bool
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Push the local cart to the server, or pull the server copy with --pull",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.RequireAuthenticated(); err != nil {
					return err
				}
				var err error
				if pull {
					err = a.Cart.FetchFromBackend(ctx)
				} else {
					err = a.Cart.SyncNow(ctx)
				}
				if err != nil {
					return err
				}
				return printCart(cmd, a)
			})
		},
	}
	syncCmd.Flags().BoolVar(&pull, "pull", false, "Replace the local cart with the server copy")

	cmd.AddCommand(list, add, update, remove, clearAll, syncCmd)
	return cmd
}

func printCart(cmd *cobra.Command, a *app.App) error {
	snap := a.Cart.Snapshot()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tPRICE\tQTY\tTOTAL")
	for _, l := range snap.Lines {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", l.ProductID, l.ProductName, l.Price.StringFixed(2), l.Quantity, l.LineTotal().StringFixed(2))
	}
	totals := a.Checkout.Quote()
	fmt.Fprintf(w, "\t\t\titems\t%d\n", snap.ItemCount)
	fmt.Fprintf(w, "\t\t\tsubtotal\t%s\n", totals.Subtotal.StringFixed(2))
	fmt.Fprintf(w, "\t\t\ttax\t%s\n", totals.Tax.StringFixed(2))
	fmt.Fprintf(w, "\t\t\tshipping\t%s\n", totals.Shipping.StringFixed(2))
	fmt.Fprintf(w, "\t\t\ttotal\t%s\n", totals.Total.StringFixed(2))
	return w.Flush()
}

func wishlistCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Manage saved products",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show saved products",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(opts, func(ctx context.Context, a *app.App) error {
					return printJSON(cmd.OutOrStdout(), a.Wishlist.Items())
				})
			},
		},
		&cobra.Command{
			Use:   "add <product-id>",
			Short: "Save a product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(opts, func(ctx context.Context, a *app.App) error {
					product, err := a.API.Products.Get(ctx, args[0])
					if err != nil {
						return err
					}
					if !a.Wishlist.AddProduct(ctx, *product) {
						fmt.Fprintf(cmd.OutOrStdout(), "%s is already saved\n", product.Name)
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", product.Name)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove <product-id>",
			Short: "Forget a saved product",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(opts, func(ctx context.Context, a *app.App) error {
					a.Wishlist.Remove(ctx, args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget every saved product",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(opts, func(ctx context.Context, a *app.App) error {
					a.Wishlist.Clear(ctx)
					return nil
				})
			},
		},
	)
	return cmd
}
