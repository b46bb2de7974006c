package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fjod/go_cart/storefront/internal/app"
)

func serveCmd(opts *options) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local JSON API with live order notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, func(ctx context.Context, a *app.App) error {
				if port != "" {
					a.Config.HTTP.Port = port
				}
				a.Start(ctx)
				return a.Serve(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides http.port)")
	return cmd
}
