package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/tessara/memcarve/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string

	outputDir   string
	dbPath      string
	formats     []string
	convert     bool
	maxPerType  int
	chunkSizeMB int
	workers     int
	logLevel    string
	logFormat   string
	noProgress  bool
)

var rootCmd = &cobra.Command{
	Use:   "memcarve",
	Short: "Game asset carving tool for raw memory images",
	Long: `memcarve scans raw memory dump images for embedded game assets,
validates and sizes each candidate, and extracts them to disk.

Recovered console textures are detiled and rebuilt as standard DDS files,
compressed streams are inflated, and every run produces a JSON manifest
plus a queryable SQLite catalog.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("output") {
			cfg.OutputDir = outputDir
		}
		if cmd.Flags().Changed("database") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("formats") {
			cfg.Formats = formats
		}
		if cmd.Flags().Changed("convert") {
			cfg.Convert = convert
		}
		if cmd.Flags().Changed("max-per-type") {
			cfg.MaxPerType = maxPerType
		}
		if cmd.Flags().Changed("chunk-size-mb") {
			cfg.ChunkSizeMB = chunkSizeMB
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = workers
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		logger := slog.New(handler)
		slog.SetDefault(logger)

		slog.Debug("Configuration",
			"output_dir", cfg.OutputDir,
			"database", cfg.Database,
			"formats", cfg.Formats,
			"convert", cfg.Convert,
			"max_per_type", cfg.MaxPerType,
			"chunk_size_mb", cfg.ChunkSizeMB,
			"workers", cfg.Workers,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is memcarve.yaml in pwd)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory for recovered files")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database file path")
	rootCmd.PersistentFlags().StringSliceVar(&formats, "formats", []string{}, "comma-separated list of format ids to carve")
	rootCmd.PersistentFlags().BoolVar(&convert, "convert", true, "convert recovered assets to standard formats")
	rootCmd.PersistentFlags().IntVar(&maxPerType, "max-per-type", 0, "cap extracted files per type (0 = unlimited)")
	rootCmd.PersistentFlags().IntVar(&chunkSizeMB, "chunk-size-mb", 0, "scan chunk size in MiB")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "extraction worker count (0 = all CPUs)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
