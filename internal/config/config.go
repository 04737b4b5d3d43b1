// Package config loads analyzer settings from defaults, a YAML file,
// ZEROCROSS_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/user/zerocross_analyzer_go/internal/parser"
	"github.com/user/zerocross_analyzer_go/internal/report"
)

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling and yaml for printing.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Input    InputConfig    `mapstructure:"input" yaml:"input"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// AnalysisConfig holds detector and batch settings.
type AnalysisConfig struct {
	MinInterval float64 `mapstructure:"min_interval" yaml:"min_interval"`
	Workers     int     `mapstructure:"workers" yaml:"workers"`
}

// InputConfig describes the layout of the input CSV files.
type InputConfig struct {
	Encoding      string `mapstructure:"encoding" yaml:"encoding"`
	TimeColumn    int    `mapstructure:"time_column" yaml:"time_column"`
	VoltageColumn int    `mapstructure:"voltage_column" yaml:"voltage_column"`
	HasHeader     bool   `mapstructure:"has_header" yaml:"has_header"`
}

// OutputConfig selects where and how results are written.
type OutputConfig struct {
	Dir         string   `mapstructure:"dir" yaml:"dir"`
	Formats     []string `mapstructure:"formats" yaml:"formats"`
	Locale      string   `mapstructure:"locale" yaml:"locale"`
	PlotSamples int      `mapstructure:"plot_samples" yaml:"plot_samples"`
}

// LoggingConfig holds log level and handler format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Output formats.
const (
	FormatXLSX   = "xlsx"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
	FormatPDF    = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatXLSX, FormatCSV, FormatSQLite, FormatPDF}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Sentinel errors for configuration validation.
var (
	ErrInvalidInterval  = errors.New("analysis.min_interval must be a non-negative number")
	ErrInvalidWorkers   = errors.New("analysis.workers must be positive")
	ErrInvalidEncoding  = errors.New("input.encoding must be shift_jis or utf-8")
	ErrInvalidColumns   = errors.New("input.time_column and input.voltage_column must be distinct and non-negative")
	ErrInvalidFormat    = errors.New("output.formats must list at least one of xlsx, csv, sqlite, pdf")
	ErrInvalidLocale    = errors.New("output.locale must be en or ja")
	ErrInvalidPlotLimit = errors.New("output.plot_samples must be non-negative")
	ErrInvalidLogging   = errors.New("logging.level must be debug, info, warn or error and logging.format text or json")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateInput(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Logging.Level)) ||
		!slices.Contains(logFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("%w (got %q/%q)", ErrInvalidLogging, c.Logging.Level, c.Logging.Format)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if math.IsNaN(c.Analysis.MinInterval) || c.Analysis.MinInterval < 0 {
		return ErrInvalidInterval
	}
	if c.Analysis.Workers < 1 {
		return ErrInvalidWorkers
	}
	return nil
}

func (c *Config) validateInput() error {
	if !parser.SupportedEncoding(c.Input.Encoding) {
		return fmt.Errorf("%w (got %q)", ErrInvalidEncoding, c.Input.Encoding)
	}
	if c.Input.TimeColumn < 0 || c.Input.VoltageColumn < 0 || c.Input.TimeColumn == c.Input.VoltageColumn {
		return ErrInvalidColumns
	}
	return nil
}

func (c *Config) validateOutput() error {
	if len(c.Output.Formats) == 0 {
		return ErrInvalidFormat
	}
	for _, f := range c.Output.Formats {
		if !slices.Contains(Formats, strings.ToLower(strings.TrimSpace(f))) {
			return fmt.Errorf("%w (got %q)", ErrInvalidFormat, f)
		}
	}
	if _, err := report.ParseLocale(c.Output.Locale); err != nil {
		return fmt.Errorf("%w (got %q)", ErrInvalidLocale, c.Output.Locale)
	}
	if c.Output.PlotSamples < 0 {
		return ErrInvalidPlotLimit
	}
	return nil
}

// ParserOptions converts the input section into CSV source options.
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		Encoding:      c.Input.Encoding,
		TimeColumn:    c.Input.TimeColumn,
		VoltageColumn: c.Input.VoltageColumn,
		HasHeader:     c.Input.HasHeader,
	}
}

// OutputFormats returns the requested formats normalized and de-duplicated,
// in the order given.
func (c *Config) OutputFormats() []string {
	out := make([]string, 0, len(c.Output.Formats))
	for _, f := range c.Output.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// Locale returns the validated output locale.
func (c *Config) Locale() report.Locale {
	l, err := report.ParseLocale(c.Output.Locale)
	if err != nil {
		return report.LocaleEnglish
	}
	return l
}
