package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memcarve.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "carved" || cfg.Database != "memcarve.db" {
		t.Errorf("defaults %+v", cfg)
	}
	if !cfg.Convert || cfg.ChunkSizeMB != 10 || cfg.LogLevel != "info" {
		t.Errorf("defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
output_dir: recovered
formats:
  - dds
  - script
chunk_size_mb: 4
workers: 2
converter_options:
  skip_endian_swap: "true"
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OutputDir != "recovered" || cfg.ChunkSizeMB != 4 || cfg.Workers != 2 {
		t.Errorf("config %+v", cfg)
	}
	if len(cfg.Formats) != 2 || cfg.Formats[0] != "dds" {
		t.Errorf("formats %v", cfg.Formats)
	}
	if cfg.ConverterOptions["skip_endian_swap"] != "true" {
		t.Errorf("converter options %v", cfg.ConverterOptions)
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load(writeConfig(t, "formats:\n  - bogus\n")); err == nil {
		t.Fatal("unknown format id accepted")
	}
}
