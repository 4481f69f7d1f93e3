package thumbcache

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Cleanup removes cache entries older than maxAgeDays (or whose thumbnail
// file is missing), then deletes orphaned thumbnail files the cache no
// longer references. A negative maxAgeDays selects the default. Individual
// deletion failures never fail the caller.
func (m *Manager) Cleanup(maxAgeDays int) (string, error) {
	if maxAgeDays < 0 {
		maxAgeDays = DefaultMaxAgeDays
	}

	if _, err := os.Stat(m.dir); err != nil {
		return "No thumbnails to clean up.", nil
	}

	unlock := m.lock()
	defer unlock()

	cache := m.load()
	cutoff := m.now().Unix() - int64(maxAgeDays)*24*60*60

	cleaned := 0
	var freed int64

	for key, entry := range cache.Entries {
		_, statErr := os.Stat(entry.ThumbnailPath)
		missing := statErr != nil
		if entry.CreatedAt >= cutoff && !missing {
			continue
		}

		delete(cache.Entries, key)

		if missing {
			cleaned++
			continue
		}
		if err := os.Remove(entry.ThumbnailPath); err != nil {
			log.Printf("Failed to delete thumbnail %s: %v", entry.ThumbnailPath, err)
			continue
		}
		cleaned++
		freed += entry.FileSize
	}

	// Sweep files in the cache directory that no surviving entry references.
	if dirEntries, err := os.ReadDir(m.dir); err == nil {
		for _, de := range dirEntries {
			name := de.Name()
			if name == cacheFileName || name == lockFileName {
				continue
			}
			if filepath.Ext(name) != thumbnailExt {
				continue
			}

			path := filepath.Join(m.dir, name)
			if referencedBy(cache, path) {
				continue
			}

			info, err := de.Info()
			if err != nil {
				continue
			}
			if err := os.Remove(path); err != nil {
				log.Printf("Failed to delete orphaned file %s: %v", path, err)
				continue
			}
			cleaned++
			freed += info.Size()
		}
	}

	if err := m.save(cache); err != nil {
		log.Printf("Failed to save cache after cleanup: %v", err)
	}

	freedMB := float64(freed) / (1024.0 * 1024.0)
	return fmt.Sprintf("Cleaned up %d thumbnails, freed %.2f MB", cleaned, freedMB), nil
}

// CleanupAsync runs Cleanup in the background with the default age cutoff.
// It never blocks the caller; the outcome is only logged.
func (m *Manager) CleanupAsync() {
	go func() {
		report, err := m.Cleanup(-1)
		if err != nil {
			log.Printf("Thumbnail cache cleanup failed: %v", err)
			return
		}
		log.Printf("%s\n", report)
	}()
}

func referencedBy(cache *cacheState, path string) bool {
	for _, entry := range cache.Entries {
		if entry.ThumbnailPath == path {
			return true
		}
	}
	return false
}
