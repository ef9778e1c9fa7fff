// cache.go provides the L1 cache of decoded templates. Records are keyed
// by id and version, so saving a template (which bumps its version)
// naturally produces a miss. Cached templates are shared between renders
// and must be treated as read-only.
package engine

import (
	"log/slog"
	"sync"

	"propostaflow/internal/document"
)

type cacheKey struct {
	id      string
	version int
}

// documentCache is a concurrency-safe cache of decoded templates.
type documentCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*document.Template
}

func newDocumentCache() *documentCache {
	return &documentCache{
		entries: make(map[cacheKey]*document.Template),
	}
}

// get returns the decoded template, or nil on miss.
func (c *documentCache) get(id string, version int) *document.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[cacheKey{id: id, version: version}]
}

func (c *documentCache) put(id string, version int, tpl *document.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{id: id, version: version}] = tpl
	slog.Debug("document cached", "id", id, "version", version, "size", len(c.entries))
}

// invalidate drops every cached version of a template.
func (c *documentCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.id == id {
			delete(c.entries, k)
		}
	}
	slog.Debug("document cache invalidated", "id", id)
}

func (c *documentCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[cacheKey]*document.Template)
	slog.Debug("document cache fully cleared")
}

func (c *documentCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
