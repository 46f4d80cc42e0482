// Package config provides structures and utilities for managing the escala
// application configuration.
package config

// EmbeddedConfig holds the content of the configuration file, typically
// passed from main.go via go:embed.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "America/Sao_Paulo").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// BatchConfig holds configuration specific to the generation job.
type BatchConfig struct {
	// JobName is the name used for execution records and metrics labels.
	JobName string `yaml:"job_name"`
	// Year is the target year of the schedule. Zero means the upcoming year.
	Year int `yaml:"year"`
	// Seed is the optional RNG seed. When nil, generation is not reproducible.
	Seed *int64 `yaml:"seed"`
	// ChunkSize is the number of service dates processed per commit.
	ChunkSize int `yaml:"chunk_size"`
	// PollingIntervalSeconds is the interval used to poll the execution status.
	PollingIntervalSeconds int `yaml:"polling_interval_seconds"`
	// RepositoryRef selects the ScheduleRepository backend ("gorm" or "inmemory").
	RepositoryRef string `yaml:"repository_ref"`
	// DBRef is the name of the database connection used by the gorm repository.
	DBRef string `yaml:"db_ref"`
}

// ExportConfig holds configuration for the Parquet export tasklet.
type ExportConfig struct {
	// Enabled toggles the export step.
	Enabled bool `yaml:"enabled"`
	// OutputDir is the base directory for exported files.
	OutputDir string `yaml:"output_dir"`
}

// TracingConfig holds configuration for the OpenTelemetry tracer.
type TracingConfig struct {
	// Enabled toggles span export. When false a no-op tracer is used.
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`
	// ServiceName is the resource service.name reported with spans.
	ServiceName string `yaml:"service_name"`
}

// DatabaseConfig holds the settings of a single named database connection.
type DatabaseConfig struct {
	// Type selects the dialect: "sqlite", "mysql" or "postgres".
	Type string `yaml:"type"`
	// Host is the server host (unused for sqlite).
	Host string `yaml:"host"`
	// Port is the server port (unused for sqlite).
	Port int `yaml:"port"`
	// Database is the database name, or the file path / ":memory:" for sqlite.
	Database string `yaml:"database"`
	// User is the connection user.
	User string `yaml:"user"`
	// Password is the connection password.
	Password string `yaml:"password"`
	// SSLMode is the postgres sslmode parameter.
	SSLMode string `yaml:"sslmode"`
}

// EscalaConfig holds all configuration under the "escala" top-level key.
type EscalaConfig struct {
	// Batch contains generation job configurations.
	Batch BatchConfig `yaml:"batch"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Export contains export tasklet configurations.
	Export ExportConfig `yaml:"export"`
	// Tracing contains tracer configurations.
	Tracing TracingConfig `yaml:"tracing"`
	// Databases holds named database connection settings.
	Databases map[string]DatabaseConfig `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Escala contains the top-level configuration of the application.
	Escala EscalaConfig `yaml:"escala"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	cfg := &Config{
		Escala: EscalaConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Batch: BatchConfig{
				JobName:                "escalaJob",
				ChunkSize:              7,
				PollingIntervalSeconds: 1,
				RepositoryRef:          "gorm",
				DBRef:                  "metadata",
			},
			Export: ExportConfig{
				Enabled:   false,
				OutputDir: "export",
			},
			Tracing: TracingConfig{
				Enabled:     false,
				Endpoint:    "localhost:4318",
				ServiceName: "escala",
			},
		},
	}

	cfg.Escala.Databases = map[string]DatabaseConfig{}
	return cfg
}

// Connection returns the database configuration registered under the given
// name.
func (c *Config) Connection(name string) (DatabaseConfig, bool) {
	db, ok := c.Escala.Databases[name]
	return db, ok
}
