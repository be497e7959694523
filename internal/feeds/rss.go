package feeds

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed/rss"
	"golang.org/x/text/unicode/norm"

	"github.com/johnrirwin/newsfeed/internal/models"
)

// normalizeRSS maps every <item> of an RSS 2.0 (or RDF) document to a FeedItem,
// keeping document order. A document without a channel yields no items.
func normalizeRSS(doc *rss.Feed, feedURL string, now time.Time) []models.FeedItem {
	items := make([]models.FeedItem, 0, len(doc.Items))
	source := firstNonEmpty(doc.Title, ExtractDomain(feedURL))

	for _, it := range doc.Items {
		if it == nil {
			continue
		}

		var creator, dcDate string
		if dc := it.DublinCoreExt; dc != nil {
			creator = firstOf(dc.Creator)
			dcDate = firstOf(dc.Date)
		}

		guid := ""
		if it.GUID != nil {
			guid = it.GUID.Value
		}

		link := firstNonEmpty(it.Link, feedURL)
		items = append(items, models.FeedItem{
			ID:        firstNonEmpty(guid, link),
			Title:     firstNonEmpty(it.Title, models.DefaultTitle),
			Link:      link,
			Summary:   firstNonEmpty(it.Description, it.Content),
			Author:    firstNonEmpty(it.Author, creator, source),
			Source:    source,
			Published: ParseDate(firstNonEmpty(it.PubDate, dcDate), now),
			Image:     rssImage(it),
			Tags:      rssTags(it.Categories),
		})
	}
	return items
}

func rssTags(categories []*rss.Category) []string {
	tags := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == nil {
			continue
		}
		if tag := normalizeTag(c.Value); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func normalizeTag(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// firstNonEmpty returns the first value that is not blank, trimmed.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstOf(values []string) string {
	return firstNonEmpty(values...)
}
