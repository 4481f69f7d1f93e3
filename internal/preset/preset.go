package preset

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/watermarktools/bulk-watermark/pkg/types"
)

// Store reads watermark presets from a directory of JSON files; the file
// stem is the preset id.
type Store struct {
	dir string
}

// NewStore creates a preset store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// List returns metadata for every readable preset, sorted by name.
// Unreadable or malformed preset files are skipped with a warning.
func (s *Store) List() ([]types.PresetMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read presets directory")
	}

	var presets []types.PresetMetadata
	for _, entry := range entries {
		name := entry.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		id := strings.TrimSuffix(name, ".json")

		path := filepath.Join(s.dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Failed to read preset file %s: %v", path, err)
			continue
		}

		var preset types.WatermarkPreset
		if err := json.Unmarshal(content, &preset); err != nil {
			log.Printf("Failed to parse preset %s: %v", path, err)
			continue
		}

		presets = append(presets, types.PresetMetadata{
			ID:          id,
			Name:        preset.Name,
			Description: preset.Description,
		})
	}

	slices.SortFunc(presets, func(a, b types.PresetMetadata) int {
		return strings.Compare(a.Name, b.Name)
	})

	return presets, nil
}

// Load returns the configuration embedded in the preset with the given id.
func (s *Store) Load(id string) (*types.WatermarkConfig, error) {
	if !validID(id) {
		return nil, errors.Errorf("invalid preset ID %q", id)
	}

	path := filepath.Join(s.dir, id+".json")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "preset not found")
	}

	var preset types.WatermarkPreset
	if err := json.Unmarshal(content, &preset); err != nil {
		return nil, errors.Wrap(err, "invalid preset format")
	}

	return &preset.Config, nil
}

// validID rejects ids that could traverse outside the preset directory.
func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
