package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.OutputDir != "watermarked" {
		t.Errorf("output dir = %q, want watermarked", cfg.OutputDir)
	}
	if cfg.PresetDir != "presets" {
		t.Errorf("preset dir = %q, want presets", cfg.PresetDir)
	}
	if cfg.Thumbnails.MaxEntries != 100 || cfg.Thumbnails.MaxSizeMB != 500 || cfg.Thumbnails.MaxAgeDays != 7 {
		t.Errorf("thumbnail bounds = %+v", cfg.Thumbnails)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
ffmpeg_path = "/opt/ffmpeg/bin/ffmpeg"
output_dir = "done"
verbose = true

[thumbnails]
max_entries = 25
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("ffmpeg path = %q", cfg.FFmpegPath)
	}
	if cfg.OutputDir != "done" {
		t.Errorf("output dir = %q, want done", cfg.OutputDir)
	}
	if !cfg.Verbose {
		t.Error("verbose should be set")
	}

	// Unset keys keep their defaults.
	if cfg.PresetDir != "presets" {
		t.Errorf("preset dir = %q, want default", cfg.PresetDir)
	}
	if cfg.Thumbnails.MaxEntries != 25 {
		t.Errorf("max entries = %d, want 25", cfg.Thumbnails.MaxEntries)
	}
	if cfg.Thumbnails.MaxSizeMB != 500 {
		t.Errorf("max size = %d, want default 500", cfg.Thumbnails.MaxSizeMB)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("an explicitly named missing file must fail")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("output_dir = ["), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("invalid TOML must fail")
	}
}
