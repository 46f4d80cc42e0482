package gormrepo

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	config "github.com/tigerroll/escala/internal/config"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

// NewDialector builds a GORM dialector from a database configuration.
func NewDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.Database == "" {
			return nil, exception.NewBatchErrorf(moduleName, "sqlite database path cannot be empty")
		}
		return sqlite.Open(cfg.Database), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
		return mysql.Open(dsn), nil
	case "postgres":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
			cfg.Host, cfg.User, cfg.Password, cfg.Database, cfg.Port, sslMode)
		return postgres.Open(dsn), nil
	default:
		return nil, exception.NewBatchErrorf(moduleName, "unsupported database type: %q", cfg.Type)
	}
}

// Open opens a GORM connection for the named database configuration.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := NewDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to open %s database connection", cfg.Type), err, false, true)
	}

	logger.Infof("Database connection established (type: %s).", cfg.Type)
	return db, nil
}
