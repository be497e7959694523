// Package aggregator fans out feed fetches and merges the results into one
// deduplicated, newest-first, retention-filtered list per category.
package aggregator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnrirwin/newsfeed/internal/logging"
	"github.com/johnrirwin/newsfeed/internal/models"
	"github.com/johnrirwin/newsfeed/internal/sources"
)

const (
	DefaultRetention = 60 * 24 * time.Hour
	DefaultTTL       = time.Hour
)

type Options struct {
	// TTL is handed to every fetch as the cache freshness bound.
	TTL       time.Duration
	Retention time.Duration
}

type Aggregator struct {
	fetcher   sources.Fetcher
	catalog   *sources.FeedsConfig
	logger    *logging.Logger
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time

	mu        sync.RWMutex
	results   map[string]models.CategoryResponse
	headlines *models.CategoryResponse
}

func New(fetcher sources.Fetcher, catalog *sources.FeedsConfig, logger *logging.Logger, opts Options) *Aggregator {
	if catalog == nil {
		catalog = sources.DefaultFeedsConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}

	return &Aggregator{
		fetcher:   fetcher,
		catalog:   catalog,
		logger:    logger,
		ttl:       opts.TTL,
		retention: opts.Retention,
		now:       time.Now,
		results:   make(map[string]models.CategoryResponse),
	}
}

type fetchResult struct {
	idx   int
	items []models.FeedItem
}

// Aggregate fetches every URL concurrently and waits for all of them. Items are
// flattened in URL order, deduplicated by link (first wins), sorted newest first
// and filtered to the retention window. A failing feed only contributes nothing.
func (a *Aggregator) Aggregate(ctx context.Context, feedURLs []string, category string) []models.FeedItem {
	log := a.logger.With(logging.WithFields(map[string]interface{}{
		"run":      uuid.NewString(),
		"category": category,
	}))

	var wg sync.WaitGroup
	results := make(chan fetchResult, len(feedURLs))

	for i, u := range feedURLs {
		wg.Add(1)
		go func(idx int, feedURL string) {
			defer wg.Done()
			results <- fetchResult{idx: idx, items: a.fetcher.Fetch(ctx, feedURL, a.ttl)}
		}(i, u)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	perFeed := make([][]models.FeedItem, len(feedURLs))
	for result := range results {
		perFeed[result.idx] = result.items
		log.Debug("Fetched items from source", logging.WithFields(map[string]interface{}{
			"feed":  feedURLs[result.idx],
			"count": len(result.items),
		}))
	}

	var all []models.FeedItem
	for _, items := range perFeed {
		all = append(all, items...)
	}

	deduped := deduplicate(all)
	sortByDate(deduped)
	kept := a.withinRetention(deduped)

	log.Info("Aggregation complete", logging.WithFields(map[string]interface{}{
		"feeds":       len(feedURLs),
		"fetched":     len(all),
		"total_items": len(kept),
	}))
	return kept
}

// Headlines runs the pipeline on the single headlines source, stamps its label as
// source and author, and keeps the newest Limit items.
func (a *Aggregator) Headlines(ctx context.Context) []models.FeedItem {
	src := a.headlinesSource()

	items := a.Aggregate(ctx, []string{src.URL}, models.HeadlinesSlug)
	if len(items) > src.Limit {
		items = items[:src.Limit]
	}
	for i := range items {
		items[i].Source = src.Label
		items[i].Author = src.Label
	}
	return items
}

// Merge unions fresh and previous by dedup key with the fresh copy winning, then
// sorts and applies retention. It lets a snapshot keep items that dropped off a
// feed but are still inside the window.
func (a *Aggregator) Merge(fresh, previous []models.FeedItem) []models.FeedItem {
	seen := make(map[string]bool, len(fresh)+len(previous))
	merged := make([]models.FeedItem, 0, len(fresh)+len(previous))

	for _, group := range [][]models.FeedItem{fresh, previous} {
		for _, item := range group {
			key := item.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, item)
		}
	}

	sortByDate(merged)
	return a.withinRetention(merged)
}

// Refresh aggregates every configured category plus the headlines and replaces
// the in-memory result set served by Items.
func (a *Aggregator) Refresh(ctx context.Context) error {
	fresh := make(map[string]models.CategoryResponse, len(a.catalog.Categories))

	for _, cat := range a.catalog.Categories {
		if err := ctx.Err(); err != nil {
			return err
		}
		items := a.Aggregate(ctx, cat.Feeds, cat.Name)
		fresh[categoryKey(cat.Name)] = a.response(cat.Name, items)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	headlines := a.response(a.headlinesSource().Label, a.Headlines(ctx))

	a.mu.Lock()
	a.results = fresh
	a.headlines = &headlines
	a.mu.Unlock()

	a.logger.Info("Refresh complete", logging.WithField("categories", len(a.catalog.Categories)))
	return nil
}

// Items returns the latest refreshed result for a category.
func (a *Aggregator) Items(category string) (models.CategoryResponse, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	resp, ok := a.results[categoryKey(category)]
	return resp, ok
}

// LatestHeadlines returns the headlines from the last refresh.
func (a *Aggregator) LatestHeadlines() (models.CategoryResponse, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.headlines == nil {
		return models.CategoryResponse{}, false
	}
	return *a.headlines, true
}

func (a *Aggregator) Categories() []models.Category {
	return a.catalog.Categories
}

// GetSources lists every configured feed with its category.
func (a *Aggregator) GetSources() []models.SourceInfo {
	infos := make([]models.SourceInfo, 0)
	for _, cat := range a.catalog.Categories {
		for _, u := range cat.Feeds {
			infos = append(infos, a.fetcher.SourceInfo(u, cat.Name))
		}
	}
	return infos
}

func (a *Aggregator) headlinesSource() models.HeadlinesSource {
	src := models.HeadlinesSource{
		URL:   sources.DefaultHeadlinesURL,
		Label: sources.DefaultHeadlinesLabel,
		Limit: sources.DefaultHeadlinesLimit,
	}
	if h := a.catalog.Headlines; h != nil {
		if h.URL != "" {
			src.URL = h.URL
		}
		if h.Label != "" {
			src.Label = h.Label
		}
		if h.Limit > 0 {
			src.Limit = h.Limit
		}
	}
	return src
}

func (a *Aggregator) response(category string, items []models.FeedItem) models.CategoryResponse {
	return models.CategoryResponse{
		Category:  category,
		Items:     items,
		Total:     len(items),
		FetchedAt: a.now().UTC(),
	}
}

// withinRetention keeps items published strictly after now - retention.
func (a *Aggregator) withinRetention(items []models.FeedItem) []models.FeedItem {
	cutoff := a.now().Add(-a.retention)

	kept := make([]models.FeedItem, 0, len(items))
	for _, item := range items {
		if item.Published.After(cutoff) {
			kept = append(kept, item)
		}
	}
	return kept
}

func deduplicate(items []models.FeedItem) []models.FeedItem {
	seen := make(map[string]bool, len(items))
	result := make([]models.FeedItem, 0, len(items))

	for _, item := range items {
		if seen[item.Link] {
			continue
		}
		seen[item.Link] = true
		result = append(result, item)
	}

	return result
}

// sortByDate orders newest first, keeping input order for equal times and
// putting zero times last.
func sortByDate(items []models.FeedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].Published, items[j].Published
		if ti.IsZero() != tj.IsZero() {
			return tj.IsZero()
		}
		return ti.After(tj)
	})
}

func categoryKey(name string) string {
	return models.CategorySlug(name)
}
