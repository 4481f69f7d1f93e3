package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config holds tool-level settings. Values come from Default, optionally
// overlaid by a TOML file; command-line flags override both.
type Config struct {
	// FFmpegPath overrides the ffmpeg binary location; empty means PATH.
	FFmpegPath string `toml:"ffmpeg_path"`

	// OutputDir is the default directory for batch output.
	OutputDir string `toml:"output_dir"`

	// PresetDir holds watermark preset JSON files.
	PresetDir string `toml:"preset_dir"`

	Verbose bool `toml:"verbose"`

	Thumbnails ThumbnailConfig `toml:"thumbnails"`
}

// ThumbnailConfig bounds the thumbnail cache.
type ThumbnailConfig struct {
	// CacheDir overrides the cache location; empty selects a fixed
	// subdirectory of the system temporary directory.
	CacheDir   string `toml:"cache_dir"`
	MaxEntries int    `toml:"max_entries"`
	MaxSizeMB  int64  `toml:"max_size_mb"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputDir: "watermarked",
		PresetDir: "presets",
		Thumbnails: ThumbnailConfig{
			MaxEntries: 100,
			MaxSizeMB:  500,
			MaxAgeDays: 7,
		},
	}
}

// Load returns the default configuration overlaid with the TOML file at
// path. An empty path, or a missing file at the default location, yields
// the defaults; an unreadable or invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	usingDefaultPath := path == ""
	if usingDefaultPath {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && usingDefaultPath {
			return &cfg, nil
		}
		return nil, errors.Wrap(err, "read config file")
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}

	return &cfg, nil
}

// DefaultPath is the conventional config file location.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "bulk-watermark.toml"
	}
	return filepath.Join(configDir, "bulk-watermark", "config.toml")
}
