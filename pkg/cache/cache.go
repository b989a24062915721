// Package cache provides an LRU cache of rendered graphs keyed by input
// content hash, with msgpack disk persistence. Batch runs use it to skip
// re-serializing listings that have not changed between invocations.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Rendered is a serialized reconstruction result for one input document.
type Rendered struct {
	Format   string   `msgpack:"format"`
	Output   []byte   `msgpack:"output"`
	Warnings []string `msgpack:"warnings,omitempty"`
}

// Entry pairs a cache key with its rendered result and access metadata.
type Entry struct {
	Key        string    `msgpack:"key"`
	Value      Rendered  `msgpack:"value"`
	AccessedAt time.Time `msgpack:"accessed_at"`
	CreatedAt  time.Time `msgpack:"created_at"`
}

// Key derives the cache key for an input document: the hex SHA-256 of its
// raw bytes plus the requested output format.
func Key(input []byte, format string) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:]) + ":" + format
}

// Options configures the render cache.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int
}

// RenderCache is an in-memory LRU cache of rendered graphs with optional
// disk persistence.
type RenderCache struct {
	mu      sync.RWMutex
	items   map[string]*list.Element // value: *Entry
	lru     *list.List               // most recent at front
	maxSize int
}

// New creates an empty render cache.
func New(opts Options) *RenderCache {
	return &RenderCache{
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: opts.MaxSize,
	}
}

// Get retrieves a rendered result by key.
func (c *RenderCache) Get(key string) (Rendered, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.items[key]
	if !found {
		return Rendered{}, false
	}
	entry := el.Value.(*Entry)
	entry.AccessedAt = time.Now()
	c.lru.MoveToFront(el)
	return entry.Value, true
}

// Set stores a rendered result, evicting the least recently used entries
// once the cache is over capacity.
func (c *RenderCache) Set(key string, value Rendered) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if el, exists := c.items[key]; exists {
		entry := el.Value.(*Entry)
		entry.Value = value
		entry.AccessedAt = now
		c.lru.MoveToFront(el)
		return
	}

	el := c.lru.PushFront(&Entry{Key: key, Value: value, AccessedAt: now, CreatedAt: now})
	c.items[key] = el

	for c.maxSize > 0 && c.lru.Len() > c.maxSize {
		back := c.lru.Back()
		if back == nil {
			break
		}
		c.lru.Remove(back)
		delete(c.items, back.Value.(*Entry).Key)
	}
}

// Delete removes a key from the cache.
func (c *RenderCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.items[key]
	if !found {
		return
	}
	c.lru.Remove(el)
	delete(c.items, key)
}

// Len returns the number of entries in the cache.
func (c *RenderCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Save persists the cache to a writer using msgpack, most recently used
// first so Load preserves the eviction order.
func (c *RenderCache) Save(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		entries = append(entries, *el.Value.(*Entry))
	}

	if err := msgpack.NewEncoder(w).Encode(entries); err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	return nil
}

// Load restores the cache from a reader, replacing current contents.
func (c *RenderCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element, len(entries))
	c.lru = list.New()
	for i := range entries {
		entry := entries[i]
		el := c.lru.PushBack(&entry)
		c.items[entry.Key] = el
	}

	for c.maxSize > 0 && c.lru.Len() > c.maxSize {
		back := c.lru.Back()
		c.lru.Remove(back)
		delete(c.items, back.Value.(*Entry).Key)
	}
	return nil
}

// SaveFile persists the cache to path, creating parent directories.
func (c *RenderCache) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file %s: %w", path, err)
	}
	defer f.Close()
	return c.Save(f)
}

// LoadFile restores the cache from path. A missing file leaves the cache
// empty and is not an error.
func (c *RenderCache) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening cache file %s: %w", path, err)
	}
	defer f.Close()
	return c.Load(f)
}
