package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
	"github.com/user/zerocross_analyzer_go/internal/batch"
	"github.com/user/zerocross_analyzer_go/internal/parser"
	"github.com/user/zerocross_analyzer_go/internal/report"
)

// configName is the config file name without extension.
const configName = "zerocross"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for analyzer settings.
const envPrefix = "ZEROCROSS"

// FlagKeys maps command-line flag names onto configuration keys.
var FlagKeys = map[string]string{
	"min-interval": "analysis.min_interval",
	"workers":      "analysis.workers",
	"encoding":     "input.encoding",
	"output-dir":   "output.dir",
	"format":       "output.formats",
	"locale":       "output.locale",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
}

// LoadConfig loads configuration from defaults, file, env vars and flags,
// lowest precedence first. If configPath is non-empty it is used as the
// explicit config file path; otherwise zerocross.yaml is searched in the
// working directory and ./config. A missing config file is not an error.
// flags may be nil; only flags listed in FlagKeys are bound.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("analysis.min_interval", analysis.DefaultMinInterval)
	v.SetDefault("analysis.workers", batch.DefaultWorkers)

	v.SetDefault("input.encoding", parser.EncodingShiftJIS)
	v.SetDefault("input.time_column", parser.DefaultTimeColumn)
	v.SetDefault("input.voltage_column", parser.DefaultVoltageColumn)
	v.SetDefault("input.has_header", true)

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.formats", []string{FormatXLSX})
	v.SetDefault("output.locale", string(report.LocaleEnglish))
	v.SetDefault("output.plot_samples", report.DefaultPlotSamples)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// WriteYAML prints cfg as YAML.
func WriteYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
