package discover

import (
	"log/slog"
	"sync"

	"github.com/mmcdole/foodpin/internal/domain"
)

// ImageCache maps record ids to downloaded image files.
// Entries are never evicted. When an index is set, entries are written
// through to it and read back lazily on first lookup of an id.
type ImageCache struct {
	mu      sync.RWMutex
	entries map[domain.RecordID]string
	index   domain.ImageIndex
	logger  *slog.Logger
}

// NewImageCache creates a cache. index may be nil for memory-only use.
func NewImageCache(index domain.ImageIndex, logger *slog.Logger) *ImageCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageCache{
		entries: make(map[domain.RecordID]string),
		index:   index,
		logger:  logger,
	}
}

// Get returns the cached file path for a record
func (c *ImageCache) Get(id domain.RecordID) (string, bool) {
	c.mu.RLock()
	path, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		return path, true
	}

	if c.index == nil {
		return "", false
	}
	path, ok = c.index.GetImagePath(id)
	if !ok {
		return "", false
	}

	// Promote to memory
	c.mu.Lock()
	c.entries[id] = path
	c.mu.Unlock()
	return path, true
}

// Set records the file path for a record
func (c *ImageCache) Set(id domain.RecordID, path string) {
	c.mu.Lock()
	c.entries[id] = path
	c.mu.Unlock()

	if c.index != nil {
		if err := c.index.SaveImagePath(id, path); err != nil {
			c.logger.Warn("failed to persist image path", "id", id, "error", err)
		}
	}
}

// Remove forgets a record's file path
func (c *ImageCache) Remove(id domain.RecordID) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()

	if c.index != nil {
		if err := c.index.DeleteImagePath(id); err != nil {
			c.logger.Warn("failed to remove image path", "id", id, "error", err)
		}
	}
}

// Len returns the number of entries held in memory
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
