package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tigerroll/escala/internal/app"
	"github.com/tigerroll/escala/internal/config"
	"github.com/tigerroll/escala/internal/roster"
	"github.com/tigerroll/escala/internal/support/logger"
)

// embeddedConfig holds the application's YAML configuration.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// embeddedRoster holds the deacon roster the schedule is drawn from.
//
//go:embed resources/roster.yaml
var embeddedRoster []byte

// migrationsFS bundles the schema migration scripts into the binary.
//
//go:embed all:resources/migrations
var migrationsFS embed.FS

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on Ctrl+C or SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the job...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	app.RunApplication(ctx, envFilePath,
		config.EmbeddedConfig(embeddedConfig),
		roster.EmbeddedRoster(embeddedRoster),
		migrationsFS,
	)
	os.Exit(0)
}
