// Package migration applies the embedded schema migrations before a
// generation run touches the database.
package migration

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const moduleName = "migration"

// MigrationsTable is where golang-migrate tracks the applied version.
const MigrationsTable = "escala_schema_migrations"

// Migrator runs schema migrations against an open database connection.
type Migrator struct {
	sqlDB  *sql.DB
	dbType string
}

// NewMigrator wraps an open connection. dbType selects the migrate
// driver and must be one of sqlite, mysql or postgres.
func NewMigrator(sqlDB *sql.DB, dbType string) *Migrator {
	return &Migrator{sqlDB: sqlDB, dbType: dbType}
}

func (m *Migrator) databaseDriver() (database.Driver, error) {
	switch m.dbType {
	case "sqlite", "sqlite3":
		return sqlite.WithInstance(m.sqlDB, &sqlite.Config{MigrationsTable: MigrationsTable})
	case "mysql":
		return mysql.WithInstance(m.sqlDB, &mysql.Config{MigrationsTable: MigrationsTable})
	case "postgres", "redshift":
		return postgres.WithInstance(m.sqlDB, &postgres.Config{MigrationsTable: MigrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

// Up applies all pending migrations from the given filesystem. path is
// the directory inside migrationFS holding the .sql files.
func (m *Migrator) Up(migrationFS fs.FS, path string) error {
	logger.Infof("Applying schema migrations (Path: %s, DB: %s).", path, m.dbType)

	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return exception.NewBatchErrorf(moduleName, "failed to create iofs source driver for path %s", path, err)
	}

	dbDriver, err := m.databaseDriver()
	if err != nil {
		return exception.NewBatchErrorf(moduleName, "failed to create database driver", err)
	}

	instance, err := migrate.NewWithInstance("iofs", sourceDriver, m.dbType, dbDriver)
	if err != nil {
		return exception.NewBatchErrorf(moduleName, "failed to create migrate instance", err)
	}

	if err := instance.Up(); err != nil && err != migrate.ErrNoChange {
		return exception.NewBatchErrorf(moduleName, "migration failed (DB: %s, Path: %s)", m.dbType, path, err)
	}

	logger.Infof("Schema migrations are up to date.")
	return nil
}
