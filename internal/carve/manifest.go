package carve

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry describes one recovered file in the carving manifest.
type Entry struct {
	Offset     int64  `json:"offset"`
	OffsetHex  string `json:"offset_hex"`
	SizeInDump int64  `json:"size_in_dump"`
	FileType   string `json:"file_type"`
	Filename   string `json:"filename"`
	IsPartial  bool   `json:"is_partial"`
	Converted  bool   `json:"converted"`
}

// TypeSummary aggregates recovered files of one type.
type TypeSummary struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

// Manifest is the JSON record written next to the recovered files. A
// cancelled run still produces a manifest covering everything extracted
// before the cancellation.
type Manifest struct {
	Created    time.Time              `json:"created"`
	SourceSize int64                  `json:"source_size"`
	Cancelled  bool                   `json:"cancelled,omitempty"`
	Duplicates int                    `json:"duplicates_skipped"`
	Summary    map[string]TypeSummary `json:"summary"`
	Entries    []Entry                `json:"entries"`
}

// WriteFile writes the manifest atomically: a temp file in the target
// directory, then a rename. Readers never observe a half-written manifest.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.json")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming manifest into place: %w", err)
	}
	return nil
}

// summarize builds the per-type rollup from manifest entries.
func summarize(entries []Entry) map[string]TypeSummary {
	summary := make(map[string]TypeSummary)
	for _, e := range entries {
		s := summary[e.FileType]
		s.Count++
		s.Bytes += e.SizeInDump
		summary[e.FileType] = s
	}
	return summary
}
