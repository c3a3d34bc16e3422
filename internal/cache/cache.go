package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is one cached upstream response.
type Entry struct {
	URL          string    `json:"url"`
	Body         []byte    `json:"body"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	StatusCode   int       `json:"status_code"`
	StoredAt     time.Time `json:"stored_at"`
}

// Age reports how long ago the entry was stored.
func (e *Entry) Age() time.Duration {
	return time.Since(e.StoredAt)
}

// FileCache keeps upstream catalog responses on disk, one file per URL.
// The engine never reads it; it only saves repeat downloads of the catalog.
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// New creates the cache directory if needed.
func New(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get returns the entry for url and whether it is still fresh. An expired
// entry is still returned so the caller can revalidate it with ETag or
// Last-Modified.
func (c *FileCache) Get(url string) (*Entry, bool) {
	path := c.path(url)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil || entry.URL != url {
		_ = os.Remove(path)
		return nil, false
	}

	return &entry, c.now().Sub(entry.StoredAt) <= c.ttl
}

// Set stores entry under its URL and stamps it with the current time.
func (c *FileCache) Set(entry *Entry) error {
	if entry.URL == "" {
		return errors.New("cache entry has no url")
	}
	entry.StoredAt = c.now()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	path := c.path(entry.URL)
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Delete drops the entry for url. A missing entry is not an error.
func (c *FileCache) Delete(url string) error {
	if err := os.Remove(c.path(url)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

func (c *FileCache) path(url string) string {
	h := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(h[:])+".json")
}
