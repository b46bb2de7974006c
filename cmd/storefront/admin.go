package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

func adminCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Back-office operations (Admin or Manager role)",
	}

	var limit, threshold int
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := requireStaff(a); err != nil {
					return err
				}
				overview, err := a.API.Admin.StatsOverview(ctx)
				if err != nil {
					return err
				}
				recent, err := a.API.Admin.RecentOrders(ctx, limit)
				if err != nil {
					return err
				}
				top, err := a.API.Admin.TopProducts(ctx, limit)
				if err != nil {
					return err
				}
				low, err := a.API.Admin.LowStockProducts(ctx, threshold)
				if err != nil {
					return err
				}
				total, err := a.API.Admin.TotalProducts(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"overview":         overview,
					"recentOrders":     recent,
					"topProducts":      top,
					"lowStockProducts": low,
					"totalProducts":    total,
				})
			})
		},
	}
	stats.Flags().IntVar(&limit, "limit", 5, "Rows for recent orders and top products")
	stats.Flags().IntVar(&threshold, "threshold", 10, "Low stock threshold")

	var (
		status, search string
		page, pageSize int
	)
	orders := &cobra.Command{
		Use:   "orders",
		Short: "List every order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.OrderFilter{SearchTerm: search, Page: page, PageSize: pageSize}
			if status != "" {
				st := domain.ParseOrderStatus(status)
				if st == domain.OrderStatusUnknown {
					return fmt.Errorf("unknown order status %q", status)
				}
				filter.Status = &st
			}
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := requireStaff(a); err != nil {
					return err
				}
				list, err := a.API.Admin.AllOrders(ctx, filter)
				if err != nil {
					return err
				}
				printOrders(cmd, list)
				return nil
			})
		},
	}
	orders.Flags().StringVar(&status, "status", "", "Filter by status")
	orders.Flags().StringVar(&search, "search", "", "Search customer name or email")
	orders.Flags().IntVar(&page, "page", 1, "Page number")
	orders.Flags().IntVar(&pageSize, "page-size", 10, "Orders per page")

	setStatus := &cobra.Command{
		Use:   "set-status <order-id> <status>",
		Short: "Move an order to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := domain.ParseOrderStatus(args[1])
			if st == domain.OrderStatusUnknown {
				return fmt.Errorf("unknown order status %q", args[1])
			}
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := requireStaff(a); err != nil {
					return err
				}
				if err := a.API.Admin.UpdateOrderStatus(ctx, args[0], st); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order %s set to %s\n", args[0], st)
				return nil
			})
		},
	}

	note := &cobra.Command{
		Use:   "note <order-id> [text]",
		Short: "List an order's notes, or add one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := requireStaff(a); err != nil {
					return err
				}
				if len(args) == 2 {
					n, err := a.API.Admin.AddOrderNote(ctx, args[0], args[1])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), n)
				}
				notes, err := a.API.Admin.OrderNotes(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), notes)
			})
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle-product <product-id>",
		Short: "Activate or deactivate a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := requireStaff(a); err != nil {
					return err
				}
				p, err := a.API.Products.ToggleStatus(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s active=%t\n", p.Name, p.IsActive)
				return nil
			})
		},
	}

	cmd.AddCommand(stats, orders, setStatus, note, toggle, usersCmd(opts))
	return cmd
}

func usersCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts and roles (Admin role)",
	}

	adminOnly := func(fn func(ctx context.Context, a *app.App) error) func(ctx context.Context, a *app.App) error {
		return func(ctx context.Context, a *app.App) error {
			if err := a.Session.RequireRoles(domain.RoleAdmin); err != nil {
				return err
			}
			return fn(ctx, a)
		}
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users with their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, adminOnly(func(ctx context.Context, a *app.App) error {
				users, err := a.API.Users.All(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), users)
			}))
		},
	}

	roles := &cobra.Command{
		Use:   "roles",
		Short: "List the available roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, adminOnly(func(ctx context.Context, a *app.App) error {
				roles, err := a.API.Users.Roles(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), roles)
			}))
		},
	}

	grant := &cobra.Command{
		Use:   "grant <user-id> <role-id>",
		Short: "Assign a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, adminOnly(func(ctx context.Context, a *app.App) error {
				return a.API.Users.AssignRole(ctx, args[0], args[1])
			}))
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <user-id> <role-id>",
		Short: "Remove a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, adminOnly(func(ctx context.Context, a *app.App) error {
				return a.API.Users.RemoveRole(ctx, args[0], args[1])
			}))
		},
	}

	activate := &cobra.Command{
		Use:   "activate <user-id>",
		Short: "Re-enable an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, adminOnly(func(ctx context.Context, a *app.App) error {
				return a.API.Users.Activate(ctx, args[0])
			}))
		},
	}

	deactivate := &cobra.Command{
		Use:   "deactivate <user-id>",
		Short: "Disable an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, adminOnly(func(ctx context.Context, a *app.App) error {
				return a.API.Users.Deactivate(ctx, args[0])
			}))
		},
	}

	cmd.AddCommand(list, roles, grant, revoke, activate, deactivate)
	return cmd
}
