package tasklet

import (
	"go.uber.org/fx"

	config "github.com/tigerroll/escala/internal/config"
	"github.com/tigerroll/escala/internal/domain/repository"
)

// Module provides the export tasklet with empty run-time properties.
var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, repo repository.ScheduleRepository) (*ParquetExportTasklet, error) {
		return NewParquetExportTasklet(cfg, repo, map[string]string{})
	}),
)
