// Package embed turns chunks into vectors through a content-addressed
// cache and a batched provider dispatch.
package embed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docpipe/docpipe/internal/fsutil"
)

// cacheEntry is the on-disk cache file shape.
type cacheEntry struct {
	Timestamp string    `json:"timestamp"`
	Embedding []float32 `json:"embedding"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
}

// DiskCache stores one JSON file per embedding, keyed by the hash of
// text, provider and model. The whole directory is safe to delete at
// any time.
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a cache rooted at dir with the given TTL in
// days. A non-positive TTL means entries never expire.
func NewDiskCache(dir string, ttlDays int) *DiskCache {
	return &DiskCache{
		dir: dir,
		ttl: time.Duration(ttlDays) * 24 * time.Hour,
		now: time.Now,
	}
}

// Key derives the cache key for one text under a provider/model pair.
func Key(text, provider, model string) string {
	return fsutil.HashParts(text, provider, model)
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get returns the cached vector for key. A missing, corrupt or stale
// file is a miss; stale files are deleted on read.
func (c *DiskCache) Get(key string) ([]float32, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if c.stale(entry.Timestamp) {
		os.Remove(path)
		return nil, false
	}
	return entry.Embedding, true
}

// Put writes one vector to the cache.
func (c *DiskCache) Put(key string, vector []float32, provider, model string) error {
	if err := fsutil.EnsureDir(c.dir); err != nil {
		return err
	}
	entry := cacheEntry{
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Embedding: vector,
		Provider:  provider,
		Model:     model,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry; %w", err)
	}
	return fsutil.AtomicWriteFile(c.path(key), data, 0o644)
}

// Sweep removes every stale or unreadable entry and returns how many
// files were deleted. A missing cache directory is not an error.
func (c *DiskCache) Sweep() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory; %w", err)
	}

	removed := 0
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, dirEntry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry cacheEntry
		if err := json.Unmarshal(data, &entry); err != nil || c.stale(entry.Timestamp) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (c *DiskCache) stale(timestamp string) bool {
	if c.ttl <= 0 {
		return false
	}
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return true
	}
	return c.now().Sub(t) > c.ttl
}
