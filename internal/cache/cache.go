package cache

import (
	"strings"
	"sync"
	"time"
)

// MemoryConfig bounds a MemoryStore. Zero values disable the bound.
type MemoryConfig struct {
	MaxBytes int           // sum of key and payload sizes
	MaxAge   time.Duration // entries older than this are swept by the janitor
	Sweep    time.Duration // janitor interval, default one minute
}

// MemoryStore is an in-memory Store with an optional byte quota
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]Entry
	used   int
	cfg    MemoryConfig
	now    func() time.Time
	stopCh chan struct{}
	once   sync.Once
}

// NewMemory creates an in-memory store and starts its janitor when MaxAge is set
func NewMemory(cfg MemoryConfig) *MemoryStore {
	if cfg.Sweep <= 0 {
		cfg.Sweep = time.Minute
	}
	c := &MemoryStore{
		items:  make(map[string]Entry),
		cfg:    cfg,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
	if cfg.MaxAge > 0 {
		go c.cleanup()
	}
	return c
}

func entrySize(key string, e Entry) int {
	return len(key) + len(e.Data)
}

func (c *MemoryStore) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	return e, ok
}

func (c *MemoryStore) Set(key string, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	used := c.used
	if old, ok := c.items[key]; ok {
		used -= entrySize(key, old)
	}
	used += entrySize(key, e)
	if c.cfg.MaxBytes > 0 && used > c.cfg.MaxBytes {
		return ErrQuotaExceeded
	}

	c.items[key] = Entry{Data: append([]byte(nil), e.Data...), Timestamp: e.Timestamp}
	c.used = used
	return nil
}

func (c *MemoryStore) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(key)
}

func (c *MemoryStore) DeleteByPrefix(prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.deleteLocked(key)
		}
	}
	return nil
}

func (c *MemoryStore) deleteLocked(key string) {
	if e, ok := c.items[key]; ok {
		c.used -= entrySize(key, e)
		delete(c.items, key)
	}
}

// Len returns the number of stored entries.
func (c *MemoryStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Used returns the bytes counted against MaxBytes.
func (c *MemoryStore) Used() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.used
}

// Stop ends the janitor goroutine. It is safe to call more than once.
func (c *MemoryStore) Stop() {
	c.once.Do(func() { close(c.stopCh) })
}

func (c *MemoryStore) cleanup() {
	ticker := time.NewTicker(c.cfg.Sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *MemoryStore) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.items {
		if e.Age(now) > c.cfg.MaxAge {
			c.deleteLocked(key)
		}
	}
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)
