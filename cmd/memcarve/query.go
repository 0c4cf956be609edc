package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessara/memcarve/internal/database"
	"github.com/tessara/memcarve/internal/utils"
)

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the carving catalog from the command line",
	Long: `Query inspects the SQLite catalog of past carving runs: a per-type
summary, filtered entry listings, or raw SQL against the catalog tables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		showSummary, err := cmd.Flags().GetBool("summary")
		if err != nil {
			return fmt.Errorf("failed to get summary flag: %w", err)
		}
		fileType, err := cmd.Flags().GetString("type")
		if err != nil {
			return fmt.Errorf("failed to get type flag: %w", err)
		}
		partialOnly, err := cmd.Flags().GetBool("partial")
		if err != nil {
			return fmt.Errorf("failed to get partial flag: %w", err)
		}
		runID, err := cmd.Flags().GetInt64("run")
		if err != nil {
			return fmt.Errorf("failed to get run flag: %w", err)
		}
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return fmt.Errorf("failed to get limit flag: %w", err)
		}

		slog.Debug("Query parameters",
			"database", cfg.Database,
			"summary", showSummary,
			"type", fileType,
			"partial", partialOnly,
			"run", runID)

		catalog, err := database.NewCatalog(database.DefaultDatabaseOptions(cfg.Database))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer catalog.Close()

		if showSummary {
			summary, err := catalog.Summary(ctx, runID)
			if err != nil {
				return fmt.Errorf("summarizing catalog: %w", err)
			}
			if len(summary) == 0 {
				fmt.Println("Catalog is empty.")
				return nil
			}

			types := make([]string, 0, len(summary))
			for typ := range summary {
				types = append(types, typ)
			}
			sort.Strings(types)

			fmt.Printf("%-12s %8s %12s\n", "Type", "Count", "Bytes")
			fmt.Println(strings.Repeat("-", 34))
			for _, typ := range types {
				s := summary[typ]
				fmt.Printf("%-12s %8d %12s\n", typ, s.Count, utils.Size(s.Bytes))
			}
			return nil
		}

		// Raw SQL passthrough for anything the filters cannot express.
		if len(args) > 0 {
			return runRawQuery(ctx, catalog, args[0])
		}

		entries, err := catalog.QueryEntries(ctx, database.EntryFilter{
			RunID:    runID,
			FileType: fileType,
			Partial:  partialOnly,
			Limit:    limit,
		})
		if err != nil {
			return fmt.Errorf("querying entries: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No matching entries.")
			return nil
		}

		fmt.Printf("%-12s %-12s %10s %-8s %s\n", "Offset", "Type", "Size", "Partial", "Filename")
		fmt.Println(strings.Repeat("-", 70))
		for _, e := range entries {
			partial := ""
			if e.IsPartial {
				partial = "yes"
			}
			fmt.Printf("%-12s %-12s %10d %-8s %s\n", e.OffsetHex, e.FileType, e.SizeInDump, partial, e.Filename)
		}
		return nil
	},
}

// runRawQuery executes an arbitrary SQL query and prints a tab-separated
// table of the results.
func runRawQuery(ctx context.Context, catalog *database.Catalog, query string) error {
	slog.Debug("Executing SQL query", "query", query)

	rows, err := catalog.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("getting column names: %w", err)
	}

	for i, col := range columns {
		if i > 0 {
			fmt.Print("\t")
		}
		fmt.Print(col)
	}
	fmt.Println()
	for i, col := range columns {
		if i > 0 {
			fmt.Print("\t")
		}
		fmt.Print(strings.Repeat("-", len(col)))
	}
	fmt.Println()

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("scanning row: %w", err)
		}
		for i, val := range values {
			if i > 0 {
				fmt.Print("\t")
			}
			if val != nil {
				fmt.Print(val)
			} else {
				fmt.Print("NULL")
			}
		}
		fmt.Println()
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rows: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("summary", false, "Show per-type totals across the catalog")
	queryCmd.Flags().String("type", "", "Filter entries by file type")
	queryCmd.Flags().Bool("partial", false, "Show only partially recovered entries")
	queryCmd.Flags().Int64("run", 0, "Restrict to one run id")
	queryCmd.Flags().Int("limit", 0, "Limit the number of listed entries")
}
