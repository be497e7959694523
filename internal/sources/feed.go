package sources

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/johnrirwin/newsfeed/internal/cache"
	"github.com/johnrirwin/newsfeed/internal/feeds"
	"github.com/johnrirwin/newsfeed/internal/logging"
	"github.com/johnrirwin/newsfeed/internal/models"
	"github.com/johnrirwin/newsfeed/internal/ratelimit"
)

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var errBodyTooLarge = errors.New("response body exceeds size limit")

// FeedFetcher fetches feeds through the cache, the rate limiter and the relay,
// and normalizes them.
type FeedFetcher struct {
	client  HTTPDoer
	store   cache.Store
	limiter *ratelimit.Limiter
	parser  *feeds.Parser
	logger  *logging.Logger
	config  FetcherConfig
	now     func() time.Time
}

// NewFeedFetcher wires a fetcher. store and limiter may be nil to disable caching
// or politeness delays.
func NewFeedFetcher(client HTTPDoer, store cache.Store, limiter *ratelimit.Limiter, logger *logging.Logger, config FetcherConfig) *FeedFetcher {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &FeedFetcher{
		client:  client,
		store:   store,
		limiter: limiter,
		parser:  feeds.NewParser(),
		logger:  logger,
		config:  config,
		now:     time.Now,
	}
}

// SourceInfo describes a configured feed for the catalog endpoint.
func (f *FeedFetcher) SourceInfo(feedURL, category string) models.SourceInfo {
	name := feeds.ExtractDomain(feedURL)
	if name == "" {
		name = feedURL
	}
	return models.SourceInfo{
		ID:       hashURL(feedURL),
		Name:     name,
		URL:      feedURL,
		Category: category,
	}
}

// Fetch returns the items of feedURL, serving them from the cache when the stored
// copy is younger than ttl.
func (f *FeedFetcher) Fetch(ctx context.Context, feedURL string, ttl time.Duration) []models.FeedItem {
	key := CacheKey(feedURL)
	log := f.logger.With(logging.WithField("feed", feedURL))

	if items, ok := f.cached(key, ttl); ok {
		log.Debug("Serving feed from cache", logging.WithField("count", len(items)))
		return items
	}

	raw, err := f.download(ctx, feedURL)
	if err != nil {
		log.Warn("Failed to fetch feed", logging.WithField("error", err.Error()))
		return []models.FeedItem{}
	}

	items, err := f.parser.Parse(raw, feedURL)
	if err != nil {
		log.Warn("Failed to parse feed", logging.WithField("error", err.Error()))
		return []models.FeedItem{}
	}
	if f.config.MaxItems > 0 && len(items) > f.config.MaxItems {
		items = items[:f.config.MaxItems]
	}

	f.save(log, key, items)
	log.Debug("Fetched feed", logging.WithField("count", len(items)))
	return items
}

func (f *FeedFetcher) cached(key string, ttl time.Duration) ([]models.FeedItem, bool) {
	if f.store == nil {
		return nil, false
	}

	entry, ok := f.store.Get(key)
	if !ok {
		return nil, false
	}
	if entry.Age(f.now()) >= ttl {
		f.store.Delete(key)
		return nil, false
	}

	var items []models.FeedItem
	if err := json.Unmarshal(entry.Data, &items); err != nil || items == nil {
		return nil, false
	}
	return items, true
}

// save writes items to the store. A failed write clears every feed entry and
// retries once; a second failure is only logged.
func (f *FeedFetcher) save(log *logging.Logger, key string, items []models.FeedItem) {
	if f.store == nil {
		return
	}

	data, err := json.Marshal(items)
	if err != nil {
		log.Error("Failed to encode feed items", logging.WithField("error", err.Error()))
		return
	}
	entry := cache.Entry{Data: data, Timestamp: f.now()}

	err = f.store.Set(key, entry)
	if err == nil {
		return
	}

	log.Warn("Cache write failed, clearing feed entries", logging.WithFields(map[string]interface{}{
		"error":     err.Error(),
		"quota_hit": errors.Is(err, cache.ErrQuotaExceeded),
	}))
	if err := f.store.DeleteByPrefix(KeyPrefix); err != nil {
		log.Warn("Failed to clear feed entries", logging.WithField("error", err.Error()))
	}
	if err := f.store.Set(key, entry); err != nil {
		log.Warn("Cache write failed after clearing", logging.WithField("error", err.Error()))
	}
}

func (f *FeedFetcher) download(ctx context.Context, feedURL string) ([]byte, error) {
	// The politeness wait counts against the fetch timeout.
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, hostOf(feedURL)); err != nil {
			return nil, &FetchError{URL: feedURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, RelayURL(f.config.RelayURL, feedURL), nil)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	if int64(len(body)) > f.config.MaxBodyBytes {
		return nil, &FetchError{URL: feedURL, Err: errBodyTooLarge}
	}
	return body, nil
}

// Ensure FeedFetcher implements Fetcher interface
var _ Fetcher = (*FeedFetcher)(nil)
