package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Input      InputConfig      `yaml:"input" envconfig:"INPUT"`
	Output     OutputConfig     `yaml:"output" envconfig:"OUTPUT"`
	Cleaning   CleaningConfig   `yaml:"cleaning" envconfig:"CLEANING"`
	Imputation ImputationConfig `yaml:"imputation" envconfig:"IMPUTATION"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// InputConfig describes where the yearly files are and how to read them
type InputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" validate:"required"`
	// Files maps a scrapping year to a file name (relative to Dir) or path.
	// When empty, files are discovered in Dir by the year in their name.
	Files          map[int]string `yaml:"files" envconfig:"FILES"`
	Delimiter      string         `yaml:"delimiter" envconfig:"DELIMITER" validate:"len=1"`
	HeaderScanRows int            `yaml:"header_scan_rows" envconfig:"HEADER_SCAN_ROWS" validate:"gte=1"`
	// Aliases adds raw column names per canonical column on top of the built-in table.
	Aliases map[string][]string `yaml:"aliases" ignored:"true"`
}

// OutputConfig describes what the pipeline writes
type OutputConfig struct {
	Dir          string `yaml:"dir" envconfig:"DIR" validate:"required"`
	UnifiedFile  string `yaml:"unified_file" envconfig:"UNIFIED_FILE" validate:"required"`
	BOM          bool   `yaml:"bom" envconfig:"BOM"`
	XLSX         bool   `yaml:"xlsx" envconfig:"XLSX"`
	WorkbookFile string `yaml:"workbook_file" envconfig:"WORKBOOK_FILE" validate:"required_if=XLSX true"`
	SQLite       bool   `yaml:"sqlite" envconfig:"SQLITE"`
	SQLiteFile   string `yaml:"sqlite_file" envconfig:"SQLITE_FILE" validate:"required_if=SQLite true"`
	ReportFile   string `yaml:"report_file" envconfig:"REPORT_FILE" validate:"required"`
}

// CleaningConfig controls which records are kept
type CleaningConfig struct {
	MinYear     int  `yaml:"min_year" envconfig:"MIN_YEAR" validate:"gte=1900"`
	MaxYear     int  `yaml:"max_year" envconfig:"MAX_YEAR" validate:"gtefield=MinYear"`
	IMOChecksum bool `yaml:"imo_checksum" envconfig:"IMO_CHECKSUM"`
}

// ImputationConfig controls the LDT imputer
type ImputationConfig struct {
	MinTrainingRows int `yaml:"min_training_rows" envconfig:"MIN_TRAINING_ROWS" validate:"gte=2"`
	// Fallback is "none" or "median". With "median", rows left without LDT after the
	// regression take their TYPE median, then the overall median.
	Fallback string `yaml:"fallback" envconfig:"FALLBACK" validate:"oneof=none median"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Tracing     bool    `yaml:"tracing" envconfig:"TRACING"`
	TraceFile   string  `yaml:"trace_file" envconfig:"TRACE_FILE"`
	SampleRatio float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Metrics     bool    `yaml:"metrics" envconfig:"METRICS"`
	MetricsFile string  `yaml:"metrics_file" envconfig:"METRICS_FILE" validate:"required_if=Metrics true"`
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
//
// Precedence, highest first: environment variables (SHIPBREAKING_*, including those
// loaded from a .env file), the YAML file, built-in defaults. An empty path falls back to
// the well-known config locations.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// No default tags on the struct: envconfig leaves unset variables untouched,
	// so file values survive unless overridden.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file at filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Imputation.Fallback = strings.ToLower(c.Imputation.Fallback)

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	for year := range c.Input.Files {
		if year < c.Cleaning.MinYear || year > c.Cleaning.MaxYear {
			return fmt.Errorf("input file for year %d is outside [%d, %d]", year, c.Cleaning.MinYear, c.Cleaning.MaxYear)
		}
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"shipbreaking.yaml",
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Dir:            DefaultInputDir,
			Delimiter:      ",",
			HeaderScanRows: DefaultHeaderScanRows,
		},
		Output: OutputConfig{
			Dir:          DefaultOutputDir,
			UnifiedFile:  DefaultUnifiedFile,
			WorkbookFile: DefaultWorkbookFile,
			SQLiteFile:   DefaultSQLiteFile,
			ReportFile:   DefaultReportFile,
		},
		Cleaning: CleaningConfig{
			MinYear: DefaultMinYear,
			MaxYear: DefaultMaxYear,
		},
		Imputation: ImputationConfig{
			MinTrainingRows: DefaultMinTrainingRows,
			Fallback:        FallbackNone,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			Tracing:     true,
			TraceFile:   DefaultTraceFile,
			SampleRatio: 1.0,
			Metrics:     true,
			MetricsFile: DefaultMetricsFile,
		},
	}
}
