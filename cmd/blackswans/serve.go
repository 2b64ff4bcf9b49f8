package main

import (
	"time"

	"blackswans/adapters/pricefile"
	"blackswans/internal/api"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var slow time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis, validation and chart endpoints over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			catalog, err := pricefile.LoadCatalog(a.cfg.Data.Dir, a.cfg.Data.CatalogFile)
			if err != nil {
				return err
			}
			a.logger.Info().
				Str("data_dir", catalog.Dir()).
				Int("tickers", len(catalog.Available())).
				Msg("ticker catalog loaded")

			server, err := api.NewServer(api.Options{
				Catalog:     catalog,
				Analysis:    a.cfg.Analysis,
				Logger:      &a.logger,
				SlowRequest: slow,
			})
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), a.cfg.Server)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address (overrides BLACKSWANS_ADDR)")
	cmd.Flags().DurationVar(&slow, "slow-request", 5*time.Second, "Log requests slower than this as warnings")
	return cmd
}
