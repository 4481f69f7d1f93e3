package thumbcache

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

const (
	cacheVersion  = 1
	cacheFileName = "cache.json"
	lockFileName  = "cache.lock"
	thumbnailExt  = ".jpg"

	// DefaultMaxEntries and DefaultMaxBytes bound the cache footprint.
	DefaultMaxEntries = 100
	DefaultMaxBytes   = 500 * 1024 * 1024

	// DefaultMaxAgeDays is the cleanup age cutoff measured from creation.
	DefaultMaxAgeDays = 7
)

// Entry is one cached thumbnail. It is valid only while its thumbnail file
// still exists on disk; entries whose file vanished are purged on load.
type Entry struct {
	VideoPath     string `json:"videoPath"`
	VideoMtime    int64  `json:"videoMtime"`
	ThumbnailPath string `json:"thumbnailPath"`
	CreatedAt     int64  `json:"createdAt"`
	LastAccessed  int64  `json:"lastAccessed"`
	FileSize      int64  `json:"fileSize"`
}

// cacheState is the persisted cache document, rewritten in full on every
// mutating operation.
type cacheState struct {
	Entries map[string]Entry `json:"entries"`
	Version int              `json:"version"`
}

// FrameExtractor is the narrow single-purpose path into the external
// processor: extract one frame from a video into a file.
type FrameExtractor interface {
	ExtractFrame(videoPath, outputPath string) error
}

// Options configures a Manager; zero values select the defaults.
type Options struct {
	Dir        string
	MaxEntries int
	MaxBytes   int64
}

// Manager owns the thumbnail cache directory. All cache mutation goes
// through it: every load-mutate-persist sequence runs under an in-process
// mutex plus a cross-process advisory file lock, so concurrent callers
// cannot lose updates.
type Manager struct {
	dir        string
	extractor  FrameExtractor
	maxEntries int
	maxBytes   int64

	mu  sync.Mutex
	flk *flock.Flock
	now func() time.Time
}

// NewManager creates a cache manager rooted at opts.Dir, defaulting to a
// fixed subdirectory of the system temporary directory.
func NewManager(extractor FrameExtractor, opts Options) *Manager {
	dir := opts.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "bulk-watermark-thumbnails")
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Manager{
		dir:        dir,
		extractor:  extractor,
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
		flk:        flock.New(filepath.Join(dir, lockFileName)),
		now:        time.Now,
	}
}

// Dir returns the cache directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Thumbnail returns a thumbnail path for videoPath, reusing a previous
// extraction while the source file is unchanged. A change to the source's
// content or mtime produces a new cache key and a fresh extraction.
func (m *Manager) Thumbnail(videoPath string) (string, error) {
	mtime, err := fileMtime(videoPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to get video file modification time")
	}
	key := cacheKey(videoPath, mtime)

	unlock := m.lock()
	defer unlock()

	cache := m.load()

	if entry, ok := cache.Entries[key]; ok {
		if _, err := os.Stat(entry.ThumbnailPath); err == nil {
			entry.LastAccessed = m.now().Unix()
			cache.Entries[key] = entry
			if err := m.save(cache); err != nil {
				log.Printf("Failed to save cache after access update: %v", err)
			}
			return entry.ThumbnailPath, nil
		}
		// Thumbnail file missing out-of-band; treat as a miss.
		delete(cache.Entries, key)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create cache directory")
	}

	outputPath := filepath.Join(m.dir, key+thumbnailExt)
	if err := m.extractor.ExtractFrame(videoPath, outputPath); err != nil {
		return "", err
	}

	var fileSize int64
	if info, err := os.Stat(outputPath); err == nil {
		fileSize = info.Size()
	}

	now := m.now().Unix()
	cache.Entries[key] = Entry{
		VideoPath:     videoPath,
		VideoMtime:    mtime,
		ThumbnailPath: outputPath,
		CreatedAt:     now,
		LastAccessed:  now,
		FileSize:      fileSize,
	}

	m.evict(cache)

	if err := m.save(cache); err != nil {
		log.Printf("Failed to save cache: %v", err)
	}

	return outputPath, nil
}

// evict removes least-recently-accessed entries, and their files, until the
// cache satisfies both the entry-count and byte-size bounds. File deletion
// failures are logged; the cache record is removed regardless.
func (m *Manager) evict(cache *cacheState) {
	var totalSize int64
	for _, entry := range cache.Entries {
		totalSize += entry.FileSize
	}
	if len(cache.Entries) <= m.maxEntries && totalSize <= m.maxBytes {
		return
	}

	type victim struct {
		key   string
		entry Entry
	}
	victims := make([]victim, 0, len(cache.Entries))
	for key, entry := range cache.Entries {
		victims = append(victims, victim{key: key, entry: entry})
	}
	slices.SortFunc(victims, func(a, b victim) int {
		switch {
		case a.entry.LastAccessed < b.entry.LastAccessed:
			return -1
		case a.entry.LastAccessed > b.entry.LastAccessed:
			return 1
		default:
			return 0
		}
	})

	count := len(cache.Entries)
	for _, v := range victims {
		if count <= m.maxEntries && totalSize <= m.maxBytes {
			break
		}
		if _, err := os.Stat(v.entry.ThumbnailPath); err == nil {
			if err := os.Remove(v.entry.ThumbnailPath); err != nil {
				log.Printf("Failed to delete thumbnail %s: %v", v.entry.ThumbnailPath, err)
			}
		}
		delete(cache.Entries, v.key)
		totalSize -= v.entry.FileSize
		count--
	}
}

// lock serializes a load-mutate-persist sequence against both other
// goroutines and other processes. Failure to take the advisory file lock
// degrades to unlocked operation with a warning.
func (m *Manager) lock() func() {
	m.mu.Lock()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		log.Printf("Warning: could not create cache directory: %v", err)
		return m.mu.Unlock
	}
	if err := m.flk.Lock(); err != nil {
		log.Printf("Warning: could not lock thumbnail cache: %v", err)
		return m.mu.Unlock
	}

	return func() {
		if err := m.flk.Unlock(); err != nil {
			log.Printf("Warning: could not unlock thumbnail cache: %v", err)
		}
		m.mu.Unlock()
	}
}

// load reads the persisted cache, dropping entries whose thumbnail file no
// longer exists. Corrupt or unreadable state starts an empty cache rather
// than failing.
func (m *Manager) load() *cacheState {
	empty := &cacheState{
		Entries: make(map[string]Entry),
		Version: cacheVersion,
	}

	data, err := os.ReadFile(filepath.Join(m.dir, cacheFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read cache file: %v", err)
		}
		return empty
	}

	var cache cacheState
	if err := json.Unmarshal(data, &cache); err != nil {
		log.Printf("Failed to parse cache file: %v", err)
		return empty
	}
	if cache.Entries == nil {
		cache.Entries = make(map[string]Entry)
	}

	for key, entry := range cache.Entries {
		if _, err := os.Stat(entry.ThumbnailPath); err != nil {
			delete(cache.Entries, key)
		}
	}

	return &cache
}

// save rewrites the persisted cache in full, atomically via a temp file.
func (m *Manager) save(cache *cacheState) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal cache")
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return errors.Wrap(err, "create cache directory")
	}

	path := filepath.Join(m.dir, cacheFileName)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "rename temp file")
	}

	return nil
}

// cacheKey derives the cache key from the source path and its modification
// time in seconds, so any source change invalidates prior thumbnails.
func cacheKey(videoPath string, mtime int64) string {
	h := fnv.New64a()
	h.Write([]byte(videoPath))
	h.Write([]byte(strconv.FormatInt(mtime, 10)))
	return fmt.Sprintf("%x", h.Sum64())
}

func fileMtime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.ModTime().Unix(), nil
}
