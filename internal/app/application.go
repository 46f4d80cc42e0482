// Package app assembles the escala batch application with uber-fx and
// owns its lifecycle: start the job, watch it and shut the container
// down when it reaches a terminal status.
package app

import (
	"context"
	"embed"
	"io/fs"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/domain/repository"
	"github.com/tigerroll/escala/internal/infrastructure/migration"
	"github.com/tigerroll/escala/internal/infrastructure/repository/gormrepo"
	"github.com/tigerroll/escala/internal/infrastructure/repository/inmemory"
	jobRunner "github.com/tigerroll/escala/internal/job/runner"
	"github.com/tigerroll/escala/internal/metrics"
	"github.com/tigerroll/escala/internal/roster"
	"github.com/tigerroll/escala/internal/step/processor"
	"github.com/tigerroll/escala/internal/step/reader"
	"github.com/tigerroll/escala/internal/step/tasklet"
	"github.com/tigerroll/escala/internal/step/writer"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const moduleName = "app"

// RunApplication sets up and runs the batch application using uber-fx.
func RunApplication(
	appCtx context.Context,
	envFilePath string,
	embeddedConfig config.EmbeddedConfig,
	embeddedRoster roster.EmbeddedRoster,
	rawMigrationsFS embed.FS,
) {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLogLevel(cfg.Escala.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Escala.System.Logging.Level)

	app := fx.New(
		fx.Supply(
			embeddedConfig,
			embeddedRoster,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),
		fx.Provide(fx.Annotate(
			func() (fs.FS, error) { return fs.Sub(rawMigrationsFS, "resources/migrations") },
			fx.ResultTags(`name:"migrationsFS"`),
		)),

		logger.Module,
		config.Module,
		metrics.Module,

		repositoryOptions(cfg),

		reader.Module,
		processor.Module,
		writer.Module,
		tasklet.Module,
		jobRunner.Module,
		Module,

		fx.Invoke(fx.Annotate(startJobExecution, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // runner *jobRunner.ScheduleJobRunner
			"",              // repo repository.ScheduleRepository
			"",              // tracer metrics.Tracer
			"",              // cfg *config.Config
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

func newRoster(embedded roster.EmbeddedRoster) (*roster.Roster, error) {
	return roster.Load(embedded)
}

// repositoryOptions selects the ScheduleRepository implementation from
// configuration. The GORM repository also brings the schema migrator.
func repositoryOptions(cfg *config.Config) fx.Option {
	switch cfg.Escala.Batch.RepositoryRef {
	case "gorm":
		return fx.Options(
			fx.Provide(newGormDB),
			fx.Provide(gormrepo.NewGormScheduleRepository),
			fx.Provide(func(r *gormrepo.GormScheduleRepository) repository.ScheduleRepository { return r }),
			fx.Provide(newMigrator),
		)
	case "memory", "inmemory":
		return fx.Provide(fx.Annotate(
			inmemory.NewInMemoryScheduleRepository,
			fx.As(new(repository.ScheduleRepository)),
		))
	default:
		return fx.Error(exception.NewBatchErrorf(moduleName,
			"unknown repository ref %q (expected gorm or memory)", cfg.Escala.Batch.RepositoryRef))
	}
}

func newGormDB(cfg *config.Config) (*gorm.DB, error) {
	dbCfg, ok := cfg.Connection(cfg.Escala.Batch.DBRef)
	if !ok {
		return nil, exception.NewBatchErrorf(moduleName, "database connection %q is not configured", cfg.Escala.Batch.DBRef)
	}
	return gormrepo.Open(dbCfg)
}

func newMigrator(db *gorm.DB, cfg *config.Config) (*migration.Migrator, error) {
	dbCfg, ok := cfg.Connection(cfg.Escala.Batch.DBRef)
	if !ok {
		return nil, exception.NewBatchErrorf(moduleName, "database connection %q is not configured", cfg.Escala.Batch.DBRef)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to access underlying sql.DB", err, false, false)
	}
	return migration.NewMigrator(sqlDB, dbCfg.Type), nil
}

// startJobExecution registers the lifecycle hook that launches the job
// once the container is up and shuts the application down when the
// execution reaches a terminal status.
func startJobExecution(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	runner *jobRunner.ScheduleJobRunner,
	repo repository.ScheduleRepository,
	tracer metrics.Tracer,
	cfg *config.Config,
	appCtx context.Context,
) {
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go runAndShutdown(appCtx, runner, repo, cfg, shutdowner, done)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			select {
			case <-done:
			case <-ctx.Done():
				logger.Warnf("Stop deadline reached while the job was still finishing.")
			}
			if err := tracer.Shutdown(ctx); err != nil {
				logger.Errorf("Failed to shut down tracer: %v", err)
			}
			if err := repo.Close(); err != nil {
				logger.Errorf("Failed to close repository: %v", err)
			}
			return nil
		},
	})
}

func runAndShutdown(
	appCtx context.Context,
	runner *jobRunner.ScheduleJobRunner,
	repo repository.ScheduleRepository,
	cfg *config.Config,
	shutdowner fx.Shutdowner,
	done chan<- struct{},
) {
	defer close(done)

	type result struct {
		execution *model.GenerationExecution
		err       error
	}
	resultCh := make(chan result, 1)
	go func() {
		execution, err := runner.Run(appCtx)
		resultCh <- result{execution: execution, err: err}
	}()

	pollInterval := time.Duration(cfg.Escala.Batch.PollingIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var res result
	for waiting := true; waiting; {
		select {
		case res = <-resultCh:
			waiting = false
		case <-ticker.C:
			logger.Debugf("Job '%s' is still running.", cfg.Escala.Batch.JobName)
		}
	}

	exitCode := 0
	if res.err != nil {
		exitCode = 1
	}
	if res.execution != nil {
		logger.Infof("Job '%s' finished with status %s (exit status %s, %d assignments written).",
			res.execution.JobName, res.execution.Status, res.execution.ExitStatus, res.execution.WriteCount)

		// Cross-check the persisted terminal status.
		persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if stored, err := repo.FindExecutionByID(persistCtx, res.execution.ID); err != nil {
			logger.Warnf("Could not verify persisted execution state: %v", err)
		} else if !stored.Status.IsFinished() {
			logger.Warnf("Execution %s is persisted with non-terminal status %s.", stored.ID, stored.Status)
		}
		cancel()
	}

	if err := shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
		logger.Errorf("Failed to request application shutdown: %v", err)
	}
}
