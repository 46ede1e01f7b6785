package zest

import (
	"html/template"
	"sync"
)

// cachedTemplate is a parsed template that has never been executed, so it
// can be cloned for every render.
type cachedTemplate struct {
	tmpl *template.Template

	// name is the template to execute within tmpl.
	name string

	// fingerprint identifies the sources tmpl was parsed from.
	fingerprint uint64
}

// templateCache caches parsed templates in memory to avoid re-parsing them
// for every request, keyed by template ID.
//
// It can safely be used by multiple goroutines.
type templateCache struct {
	mu      sync.RWMutex
	entries map[string]cachedTemplate
}

func newTemplateCache() *templateCache {
	return &templateCache{
		entries: map[string]cachedTemplate{},
	}
}

// get returns the cached template for key, if one exists.
func (c *templateCache) get(key string) (cachedTemplate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[key]
	return res, ok
}

// set caches a template for the given key.
func (c *templateCache) set(key string, entry cachedTemplate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// purge empties the cache.
func (c *templateCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]cachedTemplate{}
}
