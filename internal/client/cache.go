package client

import (
	"strings"
	"sync"

	"taskboard/internal/model"
)

// Query keys.
const (
	KeyTasks       = "tasks"
	KeyStats       = "stats"
	KeyPreferences = "preferences"
	KeyUser        = "user"

	taskKeyPrefix = "task:"
)

// TaskKey is the cache key of a single task.
func TaskKey(id string) string {
	return taskKeyPrefix + id
}

// Cache holds the last server response per query key. Stored values are
// never mutated in place; writers swap in fresh copies.
//
// Every Invalidate bumps a generation counter so that a fetch started
// before the invalidation cannot store its now-stale result. Each key also
// carries its own version, bumped on every write or drop of that key.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]interface{}
	versions   map[string]uint64
	generation uint64
}

func NewCache() *Cache {
	return &Cache{
		entries:  make(map[string]interface{}),
		versions: make(map[string]uint64),
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Generation returns the current invalidation generation.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Set stores v unconditionally.
func (c *Cache) Set(key string, v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, v)
}

// SetIfCurrent stores v only if no invalidation happened since gen.
func (c *Cache) SetIfCurrent(key string, v interface{}, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return false
	}
	c.store(key, v)
	return true
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.drop(k)
	}
	c.generation++
}

// InvalidateTasks drops the task list, the statistics and every single-task
// entry.
func (c *Cache) InvalidateTasks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop(KeyTasks)
	c.drop(KeyStats)
	for k := range c.entries {
		if strings.HasPrefix(k, taskKeyPrefix) {
			c.drop(k)
		}
	}
	c.generation++
}

// store and drop must be called with mu held.
func (c *Cache) store(key string, v interface{}) {
	c.entries[key] = v
	c.versions[key]++
}

func (c *Cache) drop(key string) {
	delete(c.entries, key)
	c.versions[key]++
}

// patchTask applies fn to copies of every cached view of task id and swaps
// them in. The returned restore func puts the previous entry back for each
// key that still holds the patched value. A key written or dropped by
// anyone else in the meantime is dropped instead, so the next read
// refetches server truth.
func (c *Cache) patchTask(id string, fn func(*model.Task)) (restore func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	type snapshot struct {
		key     string
		prev    interface{}
		version uint64
	}
	var patched []snapshot

	if list, ok := c.entries[KeyTasks].([]model.Task); ok {
		next := make([]model.Task, len(list))
		copy(next, list)
		for i := range next {
			if next[i].ID == id {
				fn(&next[i])
			}
		}
		c.store(KeyTasks, next)
		patched = append(patched, snapshot{KeyTasks, list, c.versions[KeyTasks]})
	}
	if one, ok := c.entries[TaskKey(id)].(model.Task); ok {
		prev := one
		fn(&one)
		c.store(TaskKey(id), one)
		patched = append(patched, snapshot{TaskKey(id), prev, c.versions[TaskKey(id)]})
	}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, p := range patched {
			if c.versions[p.key] == p.version {
				c.store(p.key, p.prev)
			} else {
				c.drop(p.key)
			}
		}
	}
}
