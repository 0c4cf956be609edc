package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessara/memcarve/internal/carve"
	"github.com/tessara/memcarve/internal/database"
	"github.com/tessara/memcarve/internal/format"
	"github.com/tessara/memcarve/internal/utils"
)

var carveCmd = &cobra.Command{
	Use:   "carve <image>",
	Short: "Scan a memory image and extract recognized game assets",
	Long: `Carve scans a raw memory dump image for known asset signatures,
validates every hit, resolves overlapping candidates, and extracts the
winners into per-type folders under the output directory.

Tiled console textures are rebuilt as standard DDS files and zlib streams
are inflated when conversion is enabled. The run writes a JSON manifest and
records everything in the SQLite catalog. Interrupting the run keeps what
was already recovered and writes a partial manifest.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		imagePath := args[0]

		f, err := os.Open(imagePath)
		if err != nil {
			return fmt.Errorf("opening image: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("inspecting image: %w", err)
		}
		if info.Size() == 0 {
			return fmt.Errorf("image %s is empty", imagePath)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		progress := utils.NewProgress(!(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))

		carver, err := carve.New(format.Default(), carve.Options{
			OutputDir:        cfg.OutputDir,
			Formats:          cfg.Formats,
			Convert:          cfg.Convert,
			MaxPerType:       cfg.MaxPerType,
			ChunkSize:        int64(cfg.ChunkSizeMB) << 20,
			Workers:          cfg.Workers,
			ConverterOptions: cfg.ConverterOptions,
			Progress: func(fraction float64) {
				phase := "scanning"
				if fraction >= 0.5 {
					phase = "extracting"
				}
				progress.SetFraction(fraction, phase)
			},
		})
		if err != nil {
			return fmt.Errorf("configuring carver: %w", err)
		}

		slog.Info("Starting carve...", "image", imagePath, "size", utils.Size(info.Size()))
		res, err := carver.Run(ctx, f, info.Size())
		progress.Finish()
		if err != nil {
			return fmt.Errorf("carving %s: %w", imagePath, err)
		}

		if cfg.Database != "" {
			catalog, err := database.NewCatalog(database.DefaultDatabaseOptions(cfg.Database))
			if err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer catalog.Close()
			runID, err := catalog.InsertRun(ctx, imagePath, res, info.Size())
			if err != nil {
				// The files and manifest are already on disk; a catalog
				// failure should not fail the run.
				slog.Warn("Failed to record run in catalog", "error", err)
			} else {
				slog.Info("Recorded run in catalog", "database", cfg.Database, "run_id", runID)
			}
		}

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		var throughput, fileRate float64
		if secs := res.Elapsed.Seconds(); secs > 0 {
			throughput = float64(info.Size()) / secs
			fileRate = float64(len(res.Entries)) / secs
		}

		if res.Cancelled {
			fmt.Println("Run cancelled; partial results kept.")
		}
		fmt.Printf("Candidates validated: %s\n", utils.Number(int64(res.Candidates)))
		fmt.Printf("Files extracted: %s\n", utils.Number(int64(len(res.Entries))))
		types := make([]string, 0, len(res.Summary))
		for typ := range res.Summary {
			types = append(types, typ)
		}
		sort.Strings(types)
		for _, typ := range types {
			s := res.Summary[typ]
			fmt.Printf("  %-12s %4d file(s)  %s\n", typ, s.Count, utils.Size(s.Bytes))
		}
		fmt.Printf("Duplicates skipped: %d\n", res.Duplicates)
		fmt.Printf("Conversion failures: %d\n", res.Failed)
		fmt.Printf("Duration: %s\n", utils.Duration(res.Elapsed))
		fmt.Printf("Scan rate: %s/sec\n", utils.Size(int64(throughput)))
		fmt.Printf("Extraction rate: %s files/sec\n", utils.Rate(fileRate))
		fmt.Printf("Memory usage: %.2fmb\n", float64(memStats.Alloc)/1024.0/1024.0)
		fmt.Printf("Manifest: %s\n", res.ManifestPath)
		fmt.Println("Try running: memcarve query --summary")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(carveCmd)
}
