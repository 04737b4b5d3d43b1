package main

import (
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
	"github.com/user/zerocross_analyzer_go/internal/batch"
	"github.com/user/zerocross_analyzer_go/internal/config"
	"github.com/user/zerocross_analyzer_go/internal/logging"
	"github.com/user/zerocross_analyzer_go/internal/parser"
	"github.com/user/zerocross_analyzer_go/internal/report"
)

func addConfigFlags(cmd *cobra.Command, configPath *string) {
	flags := cmd.Flags()
	flags.StringVar(configPath, "config", "", "config file (default: zerocross.yaml in . or ./config)")
	flags.Float64("min-interval", analysis.DefaultMinInterval, "minimum time between retained crossings, in seconds")
	flags.Int("workers", batch.DefaultWorkers, "number of files processed concurrently")
	flags.String("encoding", parser.EncodingShiftJIS, "input encoding: shift_jis or utf-8")
	flags.StringSlice("format", []string{config.FormatXLSX}, "output formats: xlsx, csv, sqlite, pdf")
	flags.String("output-dir", ".", "directory for output files")
	flags.String("locale", string(report.LocaleEnglish), "header and label language: en or ja")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
}

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath string
		outputName string
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <csv>...",
		Short: "Detect zero crossings in CSV files",
		Long: `Detect zero crossings in one or more CSV files and write the results.

Each file is processed independently: a file that cannot be read or parsed is
reported and skipped, the others are still written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}

			cfg, err := config.LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			app := NewApp(cfg, logger, cmd.OutOrStdout())
			_, err = app.Analyze(ctx, args, outputName)
			return err
		},
	}

	addConfigFlags(cmd, &configPath)
	cmd.Flags().StringVarP(&outputName, "output", "o", "", "output file name (default: zero_crossing_results_<first>_<timestamp>)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func newConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return config.WriteYAML(cmd.OutOrStdout(), cfg)
		},
	}

	addConfigFlags(cmd, &configPath)
	return cmd
}
