package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/tessara/memcarve/internal/format"
)

type Config struct {
	OutputDir        string            `mapstructure:"output_dir"`
	Database         string            `mapstructure:"database"`
	Formats          []string          `mapstructure:"formats"`
	Convert          bool              `mapstructure:"convert"`
	MaxPerType       int               `mapstructure:"max_per_type"`
	ChunkSizeMB      int               `mapstructure:"chunk_size_mb"`
	Workers          int               `mapstructure:"workers"`
	LogLevel         string            `mapstructure:"log_level"`
	LogFormat        string            `mapstructure:"log_format"`
	ConverterOptions map[string]string `mapstructure:"converter_options"`
}

// Load initializes and loads configuration from file
func Load(cfgFile string) (*Config, error) {
	// Set defaults
	viper.SetDefault("output_dir", "carved")
	viper.SetDefault("database", "memcarve.db")
	viper.SetDefault("convert", true)
	viper.SetDefault("chunk_size_mb", 10)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	// Config file handling
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName("memcarve")
		viper.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateFormats(cfg.Formats); err != nil {
		return nil, fmt.Errorf("invalid format configuration: %w", err)
	}
	if cfg.ChunkSizeMB <= 0 {
		return nil, fmt.Errorf("chunk_size_mb must be positive, got %d", cfg.ChunkSizeMB)
	}

	return &cfg, nil
}

// validateFormats checks that every configured format id is registered.
func validateFormats(ids []string) error {
	reg := format.Default()
	for _, id := range ids {
		if reg.Lookup(id) == nil {
			return fmt.Errorf("unknown format %q (known: %v)", id, reg.IDs())
		}
	}
	return nil
}
