package cmd

import (
	"fmt"

	"imsystem/internal/core/logger"
	"imsystem/internal/database"

	"github.com/spf13/cobra"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run migrations manually.",
	Long:  `Applies every pending migration from --dir to DATABASE_URL.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		migrationDir, _ := cmd.Flags().GetString("dir")
		if err := database.RunMigrations(cfg.Database.URL, migrationDir, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		return nil
	},
}

func init() {
	MigrateCmd.Flags().String("dir", "./migrations", "Directory containing the migration files")
}
