package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/escala/internal/support/exception"
	"github.com/tigerroll/escala/internal/support/logger"

	"go.uber.org/fx"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig // EmbeddedConfig contains the raw bytes of the configuration file.
	EnvFilePath    string         `name:"envFilePath" optional:"true"` // EnvFilePath is the path to the .env file, if any.
}

// loadConfig loads configuration from the embedded file and environment
// variables. It is intended to be called once during application startup.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	// Expand ${VAR} placeholders before parsing so secrets can be injected
	// through the environment.
	expander := NewOsEnvironmentExpander()
	expanded, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to expand environment placeholders", err, false, false)
	}

	var yamlConfig Config
	if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded config", err, false, false)
	}

	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(&cfg.Escala).Elem(), "ESCALA_"); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false, false)
	}

	// An unset year targets the upcoming year.
	if cfg.Escala.Batch.Year == 0 {
		cfg.Escala.Batch.Year = time.Now().Year() + 1
	}
	return cfg, nil
}

// LoadConfig loads configuration from the embedded file and environment
// variables. It is expected to be called only once during application startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig)
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It loads defaults, merges the embedded YAML, and overrides with environment
// variables, then sets the global logger level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Escala.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Escala.System.Logging.Level)

	return cfg, nil
}

// mergeConfig merges non-zero values of source into dest.
func mergeConfig(dest, source *Config) {
	mergeBatchConfig(&dest.Escala.Batch, &source.Escala.Batch)
	mergeSystemConfig(&dest.Escala.System, &source.Escala.System)
	mergeExportConfig(&dest.Escala.Export, &source.Escala.Export)
	mergeTracingConfig(&dest.Escala.Tracing, &source.Escala.Tracing)

	if source.Escala.Databases != nil {
		if dest.Escala.Databases == nil {
			dest.Escala.Databases = map[string]DatabaseConfig{}
		}
		for name, db := range source.Escala.Databases {
			dest.Escala.Databases[name] = db
		}
	}
}

func mergeBatchConfig(dest, source *BatchConfig) {
	if source.JobName != "" {
		dest.JobName = source.JobName
	}
	if source.Year != 0 {
		dest.Year = source.Year
	}
	if source.Seed != nil {
		dest.Seed = source.Seed
	}
	if source.ChunkSize != 0 {
		dest.ChunkSize = source.ChunkSize
	}
	if source.PollingIntervalSeconds != 0 {
		dest.PollingIntervalSeconds = source.PollingIntervalSeconds
	}
	if source.RepositoryRef != "" {
		dest.RepositoryRef = source.RepositoryRef
	}
	if source.DBRef != "" {
		dest.DBRef = source.DBRef
	}
}

func mergeSystemConfig(dest, source *SystemConfig) {
	if source.Timezone != "" {
		dest.Timezone = source.Timezone
	}
	if source.Logging.Level != "" {
		dest.Logging.Level = source.Logging.Level
	}
}

func mergeExportConfig(dest, source *ExportConfig) {
	if source.Enabled {
		dest.Enabled = true
	}
	if source.OutputDir != "" {
		dest.OutputDir = source.OutputDir
	}
}

func mergeTracingConfig(dest, source *TracingConfig) {
	if source.Enabled {
		dest.Enabled = true
	}
	if source.Endpoint != "" {
		dest.Endpoint = source.Endpoint
	}
	if source.ServiceName != "" {
		dest.ServiceName = source.ServiceName
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from
// environment variables. The variable name is derived from the yaml tag path,
// e.g. escala.batch.chunk_size -> ESCALA_BATCH_CHUNK_SIZE.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		// Map-valued fields (database connections) are only configured via
		// YAML and ${VAR} expansion.
		if field.Kind() == reflect.Map {
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}

		if err := setFieldFromString(field, envValue); err != nil {
			return exception.NewBatchErrorf(moduleName, "environment variable %s has invalid value %q", envVarName, envValue, err)
		}
		logger.Debugf("Config override from environment: %s", envVarName)
	}
	return nil
}

// setFieldFromString assigns an environment variable string to a struct field.
func setFieldFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Ptr:
		if field.Type().Elem().Kind() == reflect.Int64 {
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.Set(reflect.ValueOf(&n))
		}
	}
	return nil
}
