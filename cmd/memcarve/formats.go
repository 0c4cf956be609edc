package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessara/memcarve/internal/format"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the asset formats the carver recognizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := format.Default()
		fmt.Printf("%-12s %-10s %-9s %s\n", "ID", "Folder", "Priority", "Description")
		fmt.Println(strings.Repeat("-", 70))
		for _, id := range reg.IDs() {
			f := reg.Lookup(id)
			fmt.Printf("%-12s %-10s %-9d %s\n", f.ID, f.Folder, f.Priority, f.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
