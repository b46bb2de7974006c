package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

func passwordFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVarP(p, "password", "p", "", "Password (defaults to $STOREFRONT_PASSWORD)")
}

func resolvePassword(p string) (string, error) {
	if p == "" {
		p = os.Getenv("STOREFRONT_PASSWORD")
	}
	if p == "" {
		return "", errors.New("password is required")
	}
	return p, nil
}

func loginCmd(opts *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Sign in and merge the local cart with the server cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			return run(opts, func(ctx context.Context, a *app.App) error {
				user, err := a.Session.Login(ctx, a.API.Auth, domain.LoginRequest{UsernameOrEmail: args[0], Password: pw})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s %v\n", user.Username, user.Roles)
				return nil
			})
		},
	}
	passwordFlag(cmd, &password)
	return cmd
}

func registerCmd(opts *options) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account and sign in",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			return run(opts, func(ctx context.Context, a *app.App) error {
				user, err := a.Session.Register(ctx, a.API.Auth, domain.RegisterRequest{Username: args[0], Email: args[1], Password: pw})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", user.Username)
				return nil
			})
		},
	}
	passwordFlag(cmd, &password)
	return cmd
}

func logoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token and user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				a.Session.Logout(ctx)
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func whoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				if err := a.Session.RequireAuthenticated(); err != nil {
					return err
				}
				if a.Session.TokenExpired(time.Now()) {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: token has expired, sign in again")
				}
				return printJSON(cmd.OutOrStdout(), struct {
					*domain.User
					Home string `json:"home"`
				}{a.Session.User(), a.Session.DefaultRoute()})
			})
		},
	}
}

// requireStaff guards the admin commands the same way the facade does.
func requireStaff(a *app.App) error {
	if err := a.Session.RequireRoles(domain.RoleAdmin, domain.RoleManager); err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			return fmt.Errorf("%w: run storefront login first", err)
		}
		return err
	}
	return nil
}
