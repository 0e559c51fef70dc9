package fingerprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SchemaVersion is bumped whenever Entry changes meaning. Entries written with
// another version are ignored.
const SchemaVersion = 2

// Entry is what the image service reported for an uploaded source.
type Entry struct {
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	Vector  bool `json:"vector"`
	Version int  `json:"version"`
}

// Covers reports whether a source with this entry can produce an output of
// the given size. Vector artwork covers every size.
func (e Entry) Covers(width, height int) bool {
	return e.Vector || (e.Width >= width && e.Height >= height)
}

// Cache stores one JSON file per fingerprint in Dir.
//
// Reads never fail: missing, unreadable, corrupt or outdated entries are
// reported as absent. Concurrent stores for the same fingerprint are safe;
// the last rename wins.
type Cache struct {
	Dir string
}

// Stats summarizes the cache contents.
type Stats struct {
	Dir        string    `json:"dir" yaml:"dir"`
	Entries    int       `json:"entries" yaml:"entries"`
	TotalBytes int64     `json:"total_bytes" yaml:"total_bytes"`
	Oldest     time.Time `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest     time.Time `json:"newest,omitempty" yaml:"newest,omitempty"`
}

// DefaultDir is the shared cache location under the OS temp directory.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), "resgen-cache")
}

// NewCache creates a cache rooted at dir, or DefaultDir when dir is empty.
func NewCache(dir string) *Cache {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Cache{Dir: dir}
}

func (c *Cache) path(token string) string {
	return filepath.Join(c.Dir, token+".json")
}

// Lookup returns the entry for token if a trusted one exists.
func (c *Cache) Lookup(token string) (Entry, bool) {
	if !Valid(token) {
		return Entry{}, false
	}

	data, err := os.ReadFile(c.path(token))
	if err != nil {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false
	}
	if entry.Version != SchemaVersion {
		return Entry{}, false
	}
	return entry, true
}

// Store writes the entry for token, stamping the current schema version.
func (c *Cache) Store(token string, entry Entry) error {
	if !Valid(token) {
		return fmt.Errorf("invalid fingerprint %q", token)
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	entry.Version = SchemaVersion
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.Dir, token+".*.tmp")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(token)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

// entries lists the cache files. A missing directory is an empty cache.
func (c *Cache) entries() ([]os.DirEntry, error) {
	dirEntries, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	var out []os.DirEntry
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if !Valid(strings.TrimSuffix(e.Name(), ".json")) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Stats returns cache statistics
func (c *Cache) Stats() (Stats, error) {
	stats := Stats{Dir: c.Dir}

	entries, err := c.entries()
	if err != nil {
		return stats, err
	}

	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		mod := info.ModTime()
		if stats.Oldest.IsZero() || mod.Before(stats.Oldest) {
			stats.Oldest = mod
		}
		if mod.After(stats.Newest) {
			stats.Newest = mod
		}
	}
	return stats, nil
}

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear() (int, error) {
	return c.Prune(-1)
}

// Prune removes entries not written within maxAge. A negative maxAge removes
// everything.
func (c *Cache) Prune(maxAge time.Duration) (int, error) {
	entries, err := c.entries()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if maxAge >= 0 {
			info, err := e.Info()
			if err != nil || time.Since(info.ModTime()) <= maxAge {
				continue
			}
		}
		if err := os.Remove(filepath.Join(c.Dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
