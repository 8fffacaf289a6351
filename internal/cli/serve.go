package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sirpyerre/postbox/internal/app"
	"github.com/sirpyerre/postbox/internal/infrastructure/db/postgres"
	"github.com/sirpyerre/postbox/internal/pkg/config"
)

func newServeCommand() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}

			if migrateFirst && cfg.Backend == config.BackendPostgres {
				if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
					return err
				}
				log.Info().Msg("migrations applied")
			}

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(context.Background()); err != nil {
					log.Warn().Err(err).Msg("closing storage")
				}
			}()

			return a.Serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply Postgres migrations before serving")
	return cmd
}
