package models

import (
	"strings"
	"time"
	"unicode"
)

// Defaults applied by the normalizers when a feed omits a field.
const (
	DefaultTitle = "Untitled"
)

// HeadlinesSlug is reserved for the headlines list and cannot name a category.
const HeadlinesSlug = "headlines"

// FeedItem is the canonical, format-independent shape of one feed entry.
// Every field is populated; Image is empty when the item has no picture.
type FeedItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"`
	Author    string    `json:"author"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
	Image     string    `json:"image,omitempty"`
	Tags      []string  `json:"tags"`
}

// HasImage reports whether a representative image was found.
func (i FeedItem) HasImage() bool {
	return i.Image != ""
}

// DedupKey is the identity used when merging snapshots: the explicit id, else the link.
func (i FeedItem) DedupKey() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Link
}

type Category struct {
	Name  string   `json:"name" yaml:"name"`
	Feeds []string `json:"feeds" yaml:"feeds"`
}

// HeadlinesSource is the single well-known feed shown apart from the categories.
type HeadlinesSource struct {
	URL   string `json:"url" yaml:"url"`
	Label string `json:"label" yaml:"label"`
	Limit int    `json:"limit" yaml:"limit"`
}

type SourceInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

type CategoryResponse struct {
	Category  string     `json:"category"`
	Items     []FeedItem `json:"items"`
	Total     int        `json:"total"`
	FetchedAt time.Time  `json:"fetchedAt"`
}

// FilterParams narrows a category's items for the read API.
type FilterParams struct {
	Source   string `json:"source,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Query    string `json:"query,omitempty"`
	FromDate string `json:"fromDate,omitempty"`
	ToDate   string `json:"toDate,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// CategorySlug is the storage key of a category name: lowercase letters and
// digits, other runs collapsed to a single dash. Two categories with the same
// slug would share a snapshot file and database rows.
func CategorySlug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
