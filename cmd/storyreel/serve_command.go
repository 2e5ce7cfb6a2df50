package main

import (
	"github.com/spf13/cobra"

	"storyreel/internal/api"
	"storyreel/internal/config"
	"storyreel/internal/store"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the caption planning and run history API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if bind != "" {
					cfg.Paths.APIBind = bind
				}
				return api.NewServer(cfg, st, logger).ListenAndServe(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default paths.api_bind)")
	return cmd
}
