package core

import "sort"

// ActionCache stores Actions of cache-eligible routes by path so that
// returning to a route wakes the existing Action instead of building a new
// one. Entries live for the navigator's lifetime; there is no eviction.
//
// Owned by the event loop; not safe for concurrent use.
type ActionCache struct {
	entries map[string]Action
}

// NewActionCache creates an empty cache.
func NewActionCache() *ActionCache {
	return &ActionCache{entries: make(map[string]Action)}
}

// Get returns the Action cached for path.
func (c *ActionCache) Get(path string) (Action, bool) {
	a, ok := c.entries[path]
	return a, ok
}

// Put stores action under path.
func (c *ActionCache) Put(path string, action Action) {
	if action == nil {
		return
	}
	c.entries[path] = action
}

// Delete removes the entry for path if it holds action.
func (c *ActionCache) Delete(path string, action Action) bool {
	if cur, ok := c.entries[path]; ok && cur == action {
		delete(c.entries, path)
		return true
	}
	return false
}

// Contains reports whether action is cached under any path.
func (c *ActionCache) Contains(action Action) bool {
	for _, a := range c.entries {
		if a == action {
			return true
		}
	}
	return false
}

// Len returns the number of cached Actions.
func (c *ActionCache) Len() int {
	return len(c.entries)
}

// Paths returns the cached paths in sorted order.
func (c *ActionCache) Paths() []string {
	paths := make([]string, 0, len(c.entries))
	for p := range c.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
