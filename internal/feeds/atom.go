package feeds

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed/atom"

	"github.com/johnrirwin/newsfeed/internal/models"
)

// normalizeAtom maps every <entry> of an Atom document to a FeedItem, keeping
// document order.
func normalizeAtom(doc *atom.Feed, feedURL string, now time.Time) []models.FeedItem {
	items := make([]models.FeedItem, 0, len(doc.Entries))
	source := firstNonEmpty(doc.Title, ExtractDomain(feedURL))

	for _, entry := range doc.Entries {
		if entry == nil {
			continue
		}

		content := ""
		if entry.Content != nil {
			content = entry.Content.Value
		}

		link := atomLink(entry.Links, feedURL)
		items = append(items, models.FeedItem{
			ID:        firstNonEmpty(entry.ID, link),
			Title:     firstNonEmpty(entry.Title, models.DefaultTitle),
			Link:      link,
			Summary:   firstNonEmpty(content, entry.Summary),
			Author:    firstNonEmpty(atomAuthor(entry.Authors), source),
			Source:    source,
			Published: ParseDate(firstNonEmpty(entry.Published, entry.Updated), now),
			Image:     atomImage(entry),
			Tags:      atomTags(entry.Categories),
		})
	}
	return items
}

// atomLink prefers rel="alternate", then a link without rel (alternate by default),
// then any link with an href.
func atomLink(links []*atom.Link, feedURL string) string {
	var implicit, other string
	for _, l := range links {
		if l == nil {
			continue
		}
		href := strings.TrimSpace(l.Href)
		if href == "" {
			continue
		}
		rel := strings.ToLower(strings.TrimSpace(l.Rel))
		switch {
		case rel == "alternate":
			return href
		case rel == "" && implicit == "":
			implicit = href
		case other == "":
			other = href
		}
	}
	return firstNonEmpty(implicit, other, feedURL)
}

func atomAuthor(people []*atom.Person) string {
	for _, p := range people {
		if p == nil {
			continue
		}
		if name := strings.TrimSpace(p.Name); name != "" {
			return name
		}
	}
	return ""
}

func atomTags(categories []*atom.Category) []string {
	tags := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == nil {
			continue
		}
		if tag := normalizeTag(c.Term); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
