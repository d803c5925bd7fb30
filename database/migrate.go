package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rpupo63/fadarc-site-backend/errs"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies every pending embedded migration to a postgres database.
func RunMigrations(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errs.NewMigrationError(fmt.Errorf("open: %w", err))
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return errs.NewMigrationError(fmt.Errorf("load: %w", err))
	}

	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return errs.NewMigrationError(fmt.Errorf("driver: %w", err))
	}

	// m.Close would also close sqlDB, which the storage still owns
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return errs.NewMigrationError(fmt.Errorf("init: %w", err))
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errs.NewMigrationError(fmt.Errorf("up: %w", err))
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return errs.NewMigrationError(fmt.Errorf("version: %w", err))
	}

	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migrations completed")
	return nil
}
