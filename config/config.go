// Package config loads process configuration for the timbre CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/soundvault/timbre/analysis"
)

// Config holds every tunable of the analysis pipeline.
type Config struct {
	// DatabasePath is the SQLite feature database location
	DatabasePath string `toml:"database_path"`

	// LibraryPath is the root directory scanned for audio files
	LibraryPath string `toml:"library_path"`

	// BatchSize bounds both the hand-off queue and the number of
	// concurrently analyzed files
	BatchSize int `toml:"batch_size"`

	// Analysis frame geometry
	WindowSize int `toml:"window_size"`
	HopSize    int `toml:"hop_size"`

	// Decoder settings
	FFmpegPath    string        `toml:"ffmpeg_path"`
	DecodeTimeout time.Duration `toml:"decode_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DatabasePath:  filepath.Join(home, ".timbre", "features.db"),
		LibraryPath:   filepath.Join(home, "Music"),
		BatchSize:     8,
		WindowSize:    analysis.DefaultWindowSize,
		HopSize:       analysis.DefaultHopSize,
		FFmpegPath:    "ffmpeg",
		DecodeTimeout: 2 * time.Minute,
	}
}

// Load reads a TOML config file over the defaults. A missing file is not an
// error: the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("database_path must not be empty")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	if c.HopSize <= 0 || c.HopSize > c.WindowSize {
		return fmt.Errorf("hop_size must be in (0, %d], got %d", c.WindowSize, c.HopSize)
	}
	return nil
}
