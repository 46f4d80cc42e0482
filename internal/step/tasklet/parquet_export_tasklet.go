// Package tasklet holds single-shot steps that run outside the chunk
// loop, such as the Parquet export.
package tasklet

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/domain/repository"
	"github.com/tigerroll/escala/internal/step/port"
	"github.com/tigerroll/escala/internal/support/configbinder"
	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"
)

const ModuleParquetExport = "ParquetExportTasklet"

// Verify that ParquetExportTasklet implements the port.Tasklet interface.
var _ port.Tasklet = (*ParquetExportTasklet)(nil)

// ParquetExportTaskletConfig holds the export settings. Defaults come
// from the application config and may be overridden per run through
// properties.
type ParquetExportTaskletConfig struct {
	// Enabled skips the export entirely when false.
	Enabled bool `yaml:"enabled"`
	// OutputDir is the local directory receiving the partitioned files.
	OutputDir string `yaml:"outputDir"`
	// CompressionType is the Parquet compression codec (SNAPPY, GZIP, NONE).
	CompressionType string `yaml:"compressionType"`
}

// assignmentRow is the Parquet projection of a persisted assignment.
type assignmentRow struct {
	Date int64  `parquet:"name=date,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Day  string `parquet:"name=day,type=BYTE_ARRAY,convertedtype=UTF8"`
	Name string `parquet:"name=name,type=BYTE_ARRAY,convertedtype=UTF8"`
	Role string `parquet:"name=role,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// ParquetExportTasklet exports the persisted year to Parquet files
// partitioned by month under the configured output directory.
type ParquetExportTasklet struct {
	config *ParquetExportTaskletConfig
	year   int
	repo   repository.ScheduleRepository
}

// NewParquetExportTasklet creates the export tasklet. properties may
// override the configured defaults.
func NewParquetExportTasklet(
	cfg *config.Config,
	repo repository.ScheduleRepository,
	properties map[string]string,
) (*ParquetExportTasklet, error) {
	taskletCfg := &ParquetExportTaskletConfig{
		Enabled:         cfg.Escala.Export.Enabled,
		OutputDir:       cfg.Escala.Export.OutputDir,
		CompressionType: "SNAPPY",
	}

	if err := configbinder.BindProperties(properties, taskletCfg); err != nil {
		return nil, exception.NewBatchError(ModuleParquetExport, "failed to bind properties", err, false, false)
	}

	return &ParquetExportTasklet{
		config: taskletCfg,
		year:   cfg.Escala.Batch.Year,
		repo:   repo,
	}, nil
}

// Execute loads the persisted year and writes one Parquet file per
// month.
func (t *ParquetExportTasklet) Execute(ctx context.Context, execution *model.GenerationExecution) (model.ExitStatus, error) {
	if !t.config.Enabled {
		logger.Debugf("ParquetExportTasklet: export disabled, skipping.")
		return model.ExitStatusCompleted, nil
	}
	if t.config.OutputDir == "" {
		return model.ExitStatusFailed, exception.NewBatchErrorf(ModuleParquetExport, "export is enabled but no output directory is configured")
	}

	schedule, err := t.repo.FindAssignmentsByYear(ctx, t.year)
	if err != nil {
		return model.ExitStatusFailed, exception.NewBatchError(ModuleParquetExport, "failed to load assignments for export", err, false, true)
	}
	if len(schedule) == 0 {
		logger.Warnf("ParquetExportTasklet: no assignments to export for year %d.", t.year)
		return model.ExitStatusCompleted, nil
	}

	// Group by month partition.
	rowsByMonth := make(map[string][]assignmentRow)
	for _, a := range schedule {
		if a.Date == nil {
			continue
		}
		month := a.Date.Format("2006-01")
		rowsByMonth[month] = append(rowsByMonth[month], assignmentRow{
			Date: a.Date.UnixMilli(),
			Day:  string(a.Day),
			Name: a.Name,
			Role: string(a.Role),
		})
	}

	for month, rows := range rowsByMonth {
		if err := t.exportMonth(month, rows); err != nil {
			return model.ExitStatusFailed, err
		}
	}

	logger.Infof("ParquetExportTasklet: exported %d assignments across %d month partitions to %s.",
		len(schedule), len(rowsByMonth), t.config.OutputDir)
	return model.ExitStatusCompleted, nil
}

func (t *ParquetExportTasklet) exportMonth(month string, rows []assignmentRow) error {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(assignmentRow), int64(len(rows)))
	if err != nil {
		return exception.NewBatchError(ModuleParquetExport,
			fmt.Sprintf("failed to create parquet writer for month %s", month), err, false, false)
	}
	pw.CompressionType = t.compressionCodec()

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return exception.NewBatchError(ModuleParquetExport,
				fmt.Sprintf("failed to write assignment to parquet for month %s", month), err, false, false)
		}
	}

	// WriteStop can panic inside the parquet library, convert that into
	// an error instead of taking the process down.
	var writeStopErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					writeStopErr = err
				} else {
					writeStopErr = fmt.Errorf("panic value: %v", r)
				}
			}
		}()
		writeStopErr = pw.WriteStop()
	}()
	if writeStopErr != nil {
		return exception.NewBatchError(ModuleParquetExport,
			fmt.Sprintf("failed to finalize parquet file for month %s", month), writeStopErr, false, false)
	}

	partitionDir := filepath.Join(t.config.OutputDir, fmt.Sprintf("month=%s", month))
	if err := os.MkdirAll(partitionDir, 0o755); err != nil {
		return exception.NewBatchError(ModuleParquetExport,
			fmt.Sprintf("failed to create partition directory %s", partitionDir), err, false, false)
	}

	fileName := fmt.Sprintf("escala_%s_%s.parquet",
		strings.ReplaceAll(month, "-", ""),
		time.Now().Format("150405"))
	filePath := filepath.Join(partitionDir, fileName)
	if err := os.WriteFile(filePath, buf.Bytes(), 0o644); err != nil {
		return exception.NewBatchError(ModuleParquetExport,
			fmt.Sprintf("failed to write parquet file %s", filePath), err, false, false)
	}

	logger.Debugf("ParquetExportTasklet: wrote %d rows to %s (%d bytes).", len(rows), filePath, buf.Len())
	return nil
}

func (t *ParquetExportTasklet) compressionCodec() parquet.CompressionCodec {
	switch strings.ToUpper(t.config.CompressionType) {
	case "GZIP":
		return parquet.CompressionCodec_GZIP
	case "NONE", "UNCOMPRESSED":
		return parquet.CompressionCodec_UNCOMPRESSED
	default:
		return parquet.CompressionCodec_SNAPPY
	}
}

// Close is required to satisfy the Tasklet interface.
func (t *ParquetExportTasklet) Close(ctx context.Context) error {
	return nil
}
