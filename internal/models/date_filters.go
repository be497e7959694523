package models

import (
	"strings"
	"time"
)

var dateFilterLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
}

// ParseDateFilter parses the from/to values of the items endpoint. Values
// without a zone are taken as UTC.
func ParseDateFilter(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range dateFilterLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
