package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func productsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}

	var (
		query              domain.ProductQuery
		minPrice, maxPrice string
		inStock            bool
	)
	search := &cobra.Command{
		Use:   "search [text]",
		Short: "Search products",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				query.Search = args[0]
			}
			if minPrice != "" {
				d, err := decimal.NewFromString(minPrice)
				if err != nil {
					return fmt.Errorf("invalid --min-price: %w", err)
				}
				query.MinPrice = &d
			}
			if maxPrice != "" {
				d, err := decimal.NewFromString(maxPrice)
				if err != nil {
					return fmt.Errorf("invalid --max-price: %w", err)
				}
				query.MaxPrice = &d
			}
			if cmd.Flags().Changed("in-stock") {
				query.InStock = &inStock
			}
			return run(opts, func(ctx context.Context, a *app.App) error {
				page, err := a.API.Products.Search(ctx, query)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\tSAVED\tIN CART")
				for _, p := range page.Items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\t%t\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock,
						a.Wishlist.IsPresent(p.ID), a.Cart.Contains(p.ID))
				}
				fmt.Fprintf(w, "page %d/%d (%d products)\n", page.Page, page.TotalPages, page.TotalCount)
				return w.Flush()
			})
		},
	}
	search.Flags().IntVar(&query.Page, "page", 1, "Page number")
	search.Flags().IntVar(&query.PageSize, "page-size", 10, "Products per page")
	search.Flags().StringVar(&query.SortBy, "sort-by", "", "Sort field (name, price, createdAt)")
	search.Flags().StringVar(&query.SortOrder, "sort-order", "", "asc or desc")
	search.Flags().StringVar(&minPrice, "min-price", "", "Minimum price")
	search.Flags().StringVar(&maxPrice, "max-price", "", "Maximum price")
	search.Flags().BoolVar(&inStock, "in-stock", false, "Only products with stock")

	get := &cobra.Command{
		Use:   "get <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				p, err := a.API.Products.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}

	cmd.AddCommand(search, get)
	return cmd
}
