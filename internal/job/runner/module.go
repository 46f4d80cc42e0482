package runner

import (
	"io/fs"

	"go.uber.org/fx"

	config "github.com/tigerroll/escala/internal/config"
	"github.com/tigerroll/escala/internal/domain/repository"
	"github.com/tigerroll/escala/internal/infrastructure/migration"
	"github.com/tigerroll/escala/internal/metrics"
	"github.com/tigerroll/escala/internal/roster"
	"github.com/tigerroll/escala/internal/step/processor"
	"github.com/tigerroll/escala/internal/step/reader"
	"github.com/tigerroll/escala/internal/step/tasklet"
	"github.com/tigerroll/escala/internal/step/writer"
)

// Params collects the runner's dependencies. The migrator and the
// migrations filesystem are optional: the in-memory repository has no
// schema to manage.
type Params struct {
	fx.In

	Cfg          *config.Config
	Roster       *roster.Roster
	Repo         repository.ScheduleRepository
	Reader       *reader.ServiceDateReader
	Processor    *processor.AssignmentProcessor
	Writer       *writer.ScheduleWriter
	Export       *tasklet.ParquetExportTasklet
	Migrator     *migration.Migrator `optional:"true"`
	MigrationsFS fs.FS               `name:"migrationsFS" optional:"true"`
	Recorder     metrics.MetricRecorder
	Tracer       metrics.Tracer
}

func newScheduleJobRunnerFromParams(p Params) *ScheduleJobRunner {
	return NewScheduleJobRunner(
		p.Cfg, p.Roster, p.Repo, p.Reader, p.Processor, p.Writer,
		p.Export, p.Migrator, p.MigrationsFS, p.Recorder, p.Tracer,
	)
}

// Module provides the job runner.
var Module = fx.Options(
	fx.Provide(newScheduleJobRunnerFromParams),
)
