package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"imsystem/internal/core/config"
	"imsystem/internal/core/container"
	"imsystem/internal/core/logger"
	"imsystem/internal/core/routes"
	"imsystem/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inventory grid over HTTP.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			dir, _ := cmd.Flags().GetString("migrations-dir")
			if err := database.RunMigrations(cfg.Database.URL, dir, log); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}

		return serve(cmd.Context(), cfg, log)
	},
}

func init() {
	ServeCmd.Flags().Bool("migrate", false, "Apply pending migrations before serving")
	ServeCmd.Flags().String("migrations-dir", "./migrations", "Directory containing the migration files")
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := database.NewPostgresConnection(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Connected to the database successfully")

	app, err := container.NewAppContainer(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:              cfg.Server.Host,
		Handler:           routes.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if err := app.Refresher.Start(gctx); err != nil {
		return err
	}
	defer app.Refresher.Stop()

	g.Go(func() error {
		log.Info("Starting HTTP server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
