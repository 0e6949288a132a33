package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"wave-portal/internal/config"
	"wave-portal/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

var DB *sql.DB

//go:embed migrations/*.sql
var migrationsFS embed.FS

var pqQuote = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// DSN builds the lib/pq keyword/value connection string.
func DSN(cfg config.DatabaseConfig) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.SSLMode)
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password='%s'", pqQuote.Replace(cfg.Password))
	}
	return dsn
}

// InitDB opens the wave archive and checks it is reachable.
func InitDB(cfg config.DatabaseConfig) error {
	var err error
	DB, err = sql.Open("postgres", DSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to open database connection: %v", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	// A single client process; a small pool is enough
	DB.SetMaxOpenConns(5)
	DB.SetMaxIdleConns(2)
	DB.SetConnMaxLifetime(5 * time.Minute)

	return nil
}

// RunMigrations brings the waves schema up to date.
func RunMigrations(cfg config.DatabaseConfig) error {
	driver, err := postgres.WithInstance(DB, &postgres.Config{MigrationsTable: "wave_portal_migrations"})
	if err != nil {
		return fmt.Errorf("could not create database driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, cfg.DBName, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.GetLogger().Debug().Msg("Wave archive schema is up to date")
	case err != nil:
		return fmt.Errorf("could not migrate wave archive: %w", err)
	default:
		version, _, _ := m.Version()
		logger.GetLogger().Info().Uint("version", version).Msg("Migrated wave archive schema")
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
