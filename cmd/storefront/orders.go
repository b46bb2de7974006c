package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func ordersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Place and track orders",
	}

	var page, pageSize int
	list := &cobra.Command{
		Use:   "list",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.RequireAuthenticated(); err != nil {
					return err
				}
				orders, err := a.API.Orders.MyOrders(ctx, page, pageSize)
				if err != nil {
					return err
				}
				printOrders(cmd, orders)
				return nil
			})
		},
	}
	list.Flags().IntVar(&page, "page", 1, "Page number")
	list.Flags().IntVar(&pageSize, "page-size", 10, "Orders per page")

	get := &cobra.Command{
		Use:   "get <order-id>",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				order, err := a.API.Orders.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), order)
			})
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel a pending order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				order, err := a.API.Orders.Cancel(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", order.ID, order.Status)
				return nil
			})
		},
	}

	var customer checkout.Customer
	place := &cobra.Command{
		Use:   "place",
		Short: "Check out the current cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.RequireAuthenticated(); err != nil {
					return err
				}
				if customer.Email == "" {
					if u := a.Session.User(); u != nil {
						customer.Email = u.Email
					}
				}
				order, err := a.Checkout.PlaceOrder(ctx, customer)
				if errors.Is(err, checkout.ErrEmptyCart) {
					return fmt.Errorf("%w: add products with storefront cart add", err)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s placed, total %s\n", order.ID, order.TotalAmount.StringFixed(2))
				return nil
			})
		},
	}
	f := place.Flags()
	f.StringVar(&customer.FullName, "name", "", "Full name")
	f.StringVar(&customer.Email, "email", "", "Email (defaults to the account email)")
	f.StringVar(&customer.Phone, "phone", "", "Phone")
	f.StringVar(&customer.Address.Line1, "address", "", "Address line 1")
	f.StringVar(&customer.Address.Line2, "address2", "", "Address line 2")
	f.StringVar(&customer.Address.City, "city", "", "City")
	f.StringVar(&customer.Address.Division, "division", "", "State or division")
	f.StringVar(&customer.Address.PostalCode, "postal-code", "", "Postal code")
	f.StringVar(&customer.Address.Country, "country", "", "Country")

	cmd.AddCommand(list, get, cancel, place)
	return cmd
}

func printOrders(cmd *cobra.Command, orders []domain.Order) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSTATUS\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), o.Status, len(o.OrderItems), o.TotalAmount.StringFixed(2))
	}
	w.Flush()
}
