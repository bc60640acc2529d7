package database

import (
	"fmt"
	"path/filepath"

	"imsystem/internal/database/migration"

	"go.uber.org/zap"
)

// RunMigrations applies every pending migration found in migrationsDir.
func RunMigrations(dbURL, migrationsDir string, logger *zap.Logger) error {
	if dbURL == "" {
		return fmt.Errorf("database url is required to run migrations")
	}

	migrationsURL, err := MigrationsURL(migrationsDir)
	if err != nil {
		return err
	}

	return migration.Migrate(dbURL, migrationsURL, true, logger)
}

// MigrationsURL converts a directory into the file:// source URL expected
// by the migrate library.
func MigrationsURL(migrationsDir string) (string, error) {
	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return "file://" + filepath.ToSlash(absPath), nil
}
