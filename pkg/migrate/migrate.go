package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

// Up applies every pending storage migration.
func Up(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	if logg != nil {
		ctx = logg.WithField(ctx, "dialect", client.Dialect())
		logg.Debug(ctx, "running goose migrations")
	}
	if err := Run(ctx, sqlDB, client.Dialect(), "up"); err != nil {
		return err
	}
	if logg != nil {
		logg.Debug(ctx, "goose migrations completed")
	}
	return nil
}

// Run executes a goose command against the embedded migrations.
func Run(ctx context.Context, sqlDB *sql.DB, dialect string, command string, args ...string) error {
	if sqlDB == nil {
		return fmt.Errorf("db is required")
	}
	if dialect == "" {
		return fmt.Errorf("dialect is required")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, sqlDB, migrationsDir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Version reports the currently applied migration version.
func Version(sqlDB *sql.DB, dialect string) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.GetDBVersion(sqlDB)
}
