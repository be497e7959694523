package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/johnrirwin/newsfeed/internal/models"
)

// KeyPrefix namespaces every feed entry in the cache store.
const KeyPrefix = "feed-cache:"

// Fetcher returns the normalized items of one feed. Fetch never fails: any
// problem with the feed yields an empty slice.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, ttl time.Duration) []models.FeedItem
	SourceInfo(feedURL, category string) models.SourceInfo
}

type FetcherConfig struct {
	Timeout      time.Duration
	MaxItems     int // zero keeps every item
	UserAgent    string
	MaxBodyBytes int64
	// RelayURL is a CORS-style relay the target URL is appended to. Empty fetches directly.
	RelayURL string
}

func DefaultConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:      20 * time.Second,
		MaxItems:     0,
		UserAgent:    "NewsFeedAggregator/1.0",
		MaxBodyBytes: 10 << 20,
	}
}

// FetchError describes a failed network fetch: a transport error, a timeout
// or a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CacheKey derives the store key for a feed URL.
func CacheKey(feedURL string) string {
	return KeyPrefix + hashURL(feedURL)
}

func hashURL(feedURL string) string {
	sum := sha256.Sum256([]byte(feedURL))
	return hex.EncodeToString(sum[:])[:16]
}

// RelayURL builds the URL actually requested for target. The target is query-escaped
// and appended after "?", or directly when base already carries a query.
func RelayURL(base, target string) string {
	if base == "" {
		return target
	}
	if strings.Contains(base, "?") {
		return base + url.QueryEscape(target)
	}
	return base + "?" + url.QueryEscape(target)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Host)
}
