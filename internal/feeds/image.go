package feeds

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
)

var imgSrcPattern = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"'>]+)["']`)

// rssImage picks a representative image: media:content tagged as an image, other
// non-video media:content, media:thumbnail, an image enclosure, then the first <img>
// in the description or encoded content.
func rssImage(item *rss.Item) string {
	media := item.Extensions["media"]

	contents := mediaElements(media, "content")
	for _, c := range contents {
		if isImageMedia(c) {
			if u := strings.TrimSpace(c.Attrs["url"]); u != "" {
				return u
			}
		}
	}
	for _, c := range contents {
		if isPlayableMedia(c) {
			continue
		}
		if u := strings.TrimSpace(c.Attrs["url"]); u != "" {
			return u
		}
	}

	for _, th := range mediaElements(media, "thumbnail") {
		if u := strings.TrimSpace(th.Attrs["url"]); u != "" {
			return u
		}
	}

	enclosures := item.Enclosures
	if len(enclosures) == 0 && item.Enclosure != nil {
		enclosures = []*rss.Enclosure{item.Enclosure}
	}
	for _, enc := range enclosures {
		if enc == nil || !hasImageType(enc.Type) {
			continue
		}
		if u := strings.TrimSpace(enc.URL); u != "" {
			return u
		}
	}

	for _, fragment := range []string{item.Description, item.Content} {
		if src := firstImageInHTML(fragment); src != "" {
			return src
		}
	}
	return ""
}

// atomImage picks an image enclosure link, then the first <img> in content or summary.
func atomImage(entry *atom.Entry) string {
	for _, l := range entry.Links {
		if l == nil || !strings.EqualFold(l.Rel, "enclosure") || !hasImageType(l.Type) {
			continue
		}
		if href := strings.TrimSpace(l.Href); href != "" {
			return href
		}
	}

	content := ""
	if entry.Content != nil {
		content = entry.Content.Value
	}
	for _, fragment := range []string{content, entry.Summary} {
		if src := firstImageInHTML(fragment); src != "" {
			return src
		}
	}
	return ""
}

// mediaElements collects media:<name> elements at item level, inside media:group,
// and nested under media:content.
func mediaElements(media map[string][]ext.Extension, name string) []ext.Extension {
	if media == nil {
		return nil
	}

	out := append([]ext.Extension(nil), media[name]...)
	for _, g := range media["group"] {
		out = append(out, g.Children[name]...)
		if name != "content" {
			for _, c := range g.Children["content"] {
				out = append(out, c.Children[name]...)
			}
		}
	}
	if name != "content" {
		for _, c := range media["content"] {
			out = append(out, c.Children[name]...)
		}
	}
	return out
}

func isImageMedia(e ext.Extension) bool {
	return strings.EqualFold(e.Attrs["medium"], "image") || hasImageType(e.Attrs["type"])
}

func isPlayableMedia(e ext.Extension) bool {
	medium := strings.ToLower(e.Attrs["medium"])
	mimeType := strings.ToLower(e.Attrs["type"])
	return medium == "video" || medium == "audio" ||
		strings.HasPrefix(mimeType, "video") || strings.HasPrefix(mimeType, "audio")
}

func hasImageType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "image")
}

// firstImageInHTML returns the src of the first <img> in an HTML fragment.
func firstImageInHTML(fragment string) string {
	if !strings.Contains(strings.ToLower(fragment), "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err == nil {
		src := ""
		doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("src")
			src = strings.TrimSpace(v)
			return src == ""
		})
		if src != "" {
			return src
		}
	}

	if m := imgSrcPattern.FindStringSubmatch(fragment); len(m) > 1 {
		return m[1]
	}
	return ""
}
