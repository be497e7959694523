package aggregator

import (
	"strings"
	"time"

	"github.com/johnrirwin/newsfeed/internal/models"
)

// Filter applies params to an already ordered item list and paginates it. It
// returns the page and the number of matches before pagination.
func Filter(items []models.FeedItem, params models.FilterParams) ([]models.FeedItem, int) {
	var fromTime, toTime time.Time
	if t, ok := models.ParseDateFilter(params.FromDate); ok {
		fromTime = t
	}
	if t, ok := models.ParseDateFilter(params.ToDate); ok {
		toTime = t.Add(24*time.Hour - time.Nanosecond) // End of day
	}
	search := strings.ToLower(strings.TrimSpace(params.Query))

	filtered := make([]models.FeedItem, 0, len(items))
	for _, item := range items {
		if params.Source != "" && !strings.EqualFold(item.Source, params.Source) {
			continue
		}
		if params.Tag != "" && !containsTag(item.Tags, params.Tag) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Summary), search) &&
			!strings.Contains(strings.ToLower(item.Source), search) {
			continue
		}
		if !fromTime.IsZero() && item.Published.Before(fromTime) {
			continue
		}
		if !toTime.IsZero() && item.Published.After(toTime) {
			continue
		}
		filtered = append(filtered, item)
	}

	total := len(filtered)
	if params.Limit > 0 {
		offset := params.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(filtered) {
			return []models.FeedItem{}, total
		}
		end := offset + params.Limit
		if end > len(filtered) {
			end = len(filtered)
		}
		filtered = filtered[offset:end]
	}
	return filtered, total
}

func containsTag(tags []string, target string) bool {
	target = strings.ToLower(strings.TrimSpace(target))
	for _, tag := range tags {
		if strings.ToLower(tag) == target {
			return true
		}
	}
	return false
}
