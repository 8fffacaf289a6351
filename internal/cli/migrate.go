package cli

import (
	"github.com/spf13/cobra"

	mongodb "github.com/sirpyerre/postbox/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/postbox/internal/infrastructure/db/postgres"
	"github.com/sirpyerre/postbox/internal/pkg/config"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations (Postgres) or create indexes (Mongo)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, log, err := setup(ctx)
			if err != nil {
				return err
			}

			if cfg.Backend == config.BackendMongo {
				client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
				if err != nil {
					return err
				}
				defer client.Disconnect(ctx)

				if err := mongodb.EnsureIndexes(ctx, db); err != nil {
					return err
				}
				log.Info().Str("database", cfg.Mongo.Database).Msg("mongo indexes ensured")
				return nil
			}

			if err := postgres.Migrate(cfg.Postgres.URL); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}
