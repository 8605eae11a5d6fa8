package backfill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alan/repo-tracker/internal/replay"
)

// Cache is an on-disk cache of fully-fetched issues, one JSON file per issue
// number. Fetching an issue's event timeline costs one API call per page, so
// across reruns the cache is what makes a backfill resumable after quota
// exhaustion. Reads and writes are idempotent: the same issue number always
// maps to the same file.
type Cache struct {
	dir string
}

// NewCache opens (creating if needed) a cache directory.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string { return c.dir }

// Load reads a cached issue. The second return is false if the issue has
// never been cached. A file that exists but does not parse is an error: a
// corrupt cache entry must be deleted and refetched, never silently trusted.
func (c *Cache) Load(number int) (*replay.RawIssue, bool, error) {
	path := c.path(number)
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from an issue number
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", path, err)
	}

	var issue replay.RawIssue
	if err := json.Unmarshal(data, &issue); err != nil {
		return nil, false, fmt.Errorf("malformed cache entry %s (delete it and rerun): %w", path, err)
	}
	return &issue, true, nil
}

// Store writes an issue to the cache.
func (c *Cache) Store(issue replay.RawIssue) error {
	data, err := json.MarshalIndent(issue, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal issue #%d: %w", issue.Number, err)
	}
	path := c.path(issue.Number)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", path, err)
	}
	return nil
}

func (c *Cache) path(number int) string {
	return filepath.Join(c.dir, strconv.Itoa(number)+".json")
}
