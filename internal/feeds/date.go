package feeds

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate turns a feed date (RFC 822, RFC 3339, ISO 8601 and friends) into a UTC instant.
// It never fails: missing, unparseable or out-of-range input yields now.
func ParseDate(raw string, now time.Time) (t time.Time) {
	fallback := now.UTC()

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	// dateparse has panicked on pathological input in the past.
	defer func() {
		if recover() != nil {
			t = fallback
		}
	}()

	parsed, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil || parsed.IsZero() || parsed.Year() < 1 || parsed.Year() > 9999 {
		return fallback
	}
	return parsed.UTC()
}

// FormatISO renders t the way items are serialized.
func FormatISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
