// Package config defines the explicit configuration structure threaded
// through the pipeline entry points. Values come from environment
// variables (prefix ACTVAL) merged with an optional YAML file; there is
// no process-wide mutable state.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Pipeline   PipelineConfig   `yaml:"pipeline" envconfig:"PIPELINE"`
	Comparison ComparisonConfig `yaml:"comparison" envconfig:"COMPARISON"`
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
}

// PathsConfig contains default file system locations.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"output" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/actval.log"`
}

// PipelineConfig parametrizes filtering, categorization and
// aggregation.
type PipelineConfig struct {
	// ResolutionMinutes is the diary slot duration; it must divide the
	// day evenly.
	ResolutionMinutes int `yaml:"resolution_minutes" envconfig:"RESOLUTION_MINUTES" default:"10" validate:"gt=0,lte=1440"`

	// CategorizationAttributes is the ordered attribute tuple diaries
	// are grouped by.
	CategorizationAttributes []string `yaml:"categorization_attributes" envconfig:"CATEGORIZATION_ATTRIBUTES" default:"country,sex,work status,day type" validate:"min=1"`

	// UnknownValuePolicy decides how records with undetermined
	// categorical values are handled: "drop" or "map-to-undefined".
	UnknownValuePolicy string `yaml:"unknown_value_policy" envconfig:"UNKNOWN_VALUE_POLICY" default:"drop" validate:"oneof=drop map-to-undefined"`

	// MinCategorySize drops categories with fewer diaries from the
	// final set; 0 keeps everything.
	MinCategorySize int `yaml:"min_category_size" envconfig:"MIN_CATEGORY_SIZE" default:"0" validate:"gte=0"`

	// MaxConcurrency limits parallel per-category work.
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"4" validate:"gt=0"`
}

// ComparisonConfig parametrizes the comparison engine.
type ComparisonConfig struct {
	// CrossValidation enables the quadratic all-combinations mode.
	CrossValidation bool `yaml:"cross_validation" envconfig:"CROSS_VALIDATION" default:"false"`
}

// ServerConfig contains the report server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8090" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load loads configuration from environment variables and, if the file
// exists, the given YAML file. File values fill in where the
// environment left defaults.
func Load(configFile string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ACTVAL", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := applyFile(&cfg, configFile); err != nil {
				return nil, fmt.Errorf("load config from file: %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// Validate checks the structural constraints of the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if 1440%c.Pipeline.ResolutionMinutes != 0 {
		return fmt.Errorf("resolution_minutes %d does not divide the day evenly", c.Pipeline.ResolutionMinutes)
	}
	return nil
}
