package cmd

import (
	"context"

	"imsystem/internal/core/config"
	"imsystem/internal/core/container"
	"imsystem/internal/core/logger"
	"imsystem/internal/database"
	"imsystem/internal/inventory/grid"
	"imsystem/internal/inventory/snapshotcache"
	"imsystem/internal/repository"
	"imsystem/internal/tui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

var ViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse the inventory grid in the terminal.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.ValidateSource(); err != nil {
			return err
		}
		locale, err := cfg.Grid.Tag()
		if err != nil {
			return err
		}

		log := zap.NewNop()
		if path, _ := cmd.Flags().GetString("log-file"); path != "" {
			log, err = logger.NewLogger(cfg.Logging.Level, "json", path)
			if err != nil {
				return err
			}
		}
		defer func() { _ = log.Sync() }()

		return view(cmd.Context(), cfg, locale, log)
	},
}

func init() {
	ViewCmd.Flags().String("log-file", "imsystem-view.log", "File receiving the viewer's logs; empty disables logging")
}

func view(ctx context.Context, cfg *config.Config, locale language.Tag, log *zap.Logger) error {
	var repo *repository.Repository
	if cfg.Source.Kind == config.SourcePostgres {
		db, err := database.NewPostgresConnection(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = repository.NewRepository(db)
	}

	source, err := container.NewDataSource(cfg, repo, log)
	if err != nil {
		return err
	}

	opts := []grid.RefresherOption{
		grid.WithInterval(cfg.Grid.RefreshInterval),
		grid.WithFetchTimeout(cfg.Grid.FetchTimeout),
	}
	if client := container.ConnectRedis(ctx, cfg, log); client != nil {
		defer client.Close()
		opts = append(opts, grid.WithCache(snapshotcache.New(client, "", 0)))
	}

	refresher := grid.NewRefresher(source, grid.NewStore(), log.Named("refresher"), opts...)
	if err := refresher.Start(ctx); err != nil {
		return err
	}
	defer refresher.Stop()

	return tui.Run(ctx, refresher, locale)
}
