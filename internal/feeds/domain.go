package feeds

import (
	"net/url"
	"strings"
)

// ExtractDomain returns the host of rawURL without a leading "www.", or "" if rawURL
// has no host.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
