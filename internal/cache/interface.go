package cache

import (
	"errors"
	"time"
)

// ErrQuotaExceeded is returned by Set when the backend has no room for the entry.
var ErrQuotaExceeded = errors.New("cache quota exceeded")

// Entry is one cached payload and the time it was written. Freshness is decided by
// the reader, so the same entry can serve callers with different TTLs.
type Entry struct {
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Age reports how old the entry is relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// Store defines the interface for cache backends
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry) error
	Delete(key string)
	DeleteByPrefix(prefix string) error
}
