package feeds

import (
	"testing"

	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
)

func mediaExt(name string, attrs map[string]string) ext.Extension {
	return ext.Extension{Name: name, Attrs: attrs}
}

func TestRSSImage_Precedence(t *testing.T) {
	tests := []struct {
		name string
		item *rss.Item
		want string
	}{
		{
			name: "thumbnail beats sniffed img",
			item: &rss.Item{
				Description: `<p><img src="https://x/sniffed.png"></p>`,
				Extensions: ext.Extensions{"media": {
					"thumbnail": {mediaExt("thumbnail", map[string]string{"url": "https://x/thumb.jpg"})},
				}},
			},
			want: "https://x/thumb.jpg",
		},
		{
			name: "image media content beats thumbnail",
			item: &rss.Item{
				Extensions: ext.Extensions{"media": {
					"content":   {mediaExt("content", map[string]string{"url": "https://x/content.jpg", "medium": "image"})},
					"thumbnail": {mediaExt("thumbnail", map[string]string{"url": "https://x/thumb.jpg"})},
				}},
			},
			want: "https://x/content.jpg",
		},
		{
			name: "typed media content counts as image",
			item: &rss.Item{
				Extensions: ext.Extensions{"media": {
					"content": {
						mediaExt("content", map[string]string{"url": "https://x/movie.mp4", "type": "video/mp4"}),
						mediaExt("content", map[string]string{"url": "https://x/pic.webp", "type": "image/webp"}),
					},
				}},
			},
			want: "https://x/pic.webp",
		},
		{
			name: "video media content skipped for thumbnail",
			item: &rss.Item{
				Extensions: ext.Extensions{"media": {
					"content":   {mediaExt("content", map[string]string{"url": "https://x/movie.mp4", "medium": "video"})},
					"thumbnail": {mediaExt("thumbnail", map[string]string{"url": "https://x/thumb.jpg"})},
				}},
			},
			want: "https://x/thumb.jpg",
		},
		{
			name: "untagged media content",
			item: &rss.Item{
				Extensions: ext.Extensions{"media": {
					"content": {mediaExt("content", map[string]string{"url": "https://x/untagged.jpg"})},
				}},
			},
			want: "https://x/untagged.jpg",
		},
		{
			name: "media group",
			item: &rss.Item{
				Extensions: ext.Extensions{"media": {
					"group": {{Name: "group", Children: map[string][]ext.Extension{
						"content": {mediaExt("content", map[string]string{"url": "https://x/group.jpg", "medium": "image"})},
					}}},
				}},
			},
			want: "https://x/group.jpg",
		},
		{
			name: "image enclosure",
			item: &rss.Item{
				Enclosures: []*rss.Enclosure{
					{URL: "https://x/a.mp3", Type: "audio/mpeg"},
					{URL: "https://x/e.png", Type: "image/png"},
				},
				Description: `<img src="https://x/sniffed.png">`,
			},
			want: "https://x/e.png",
		},
		{
			name: "single enclosure field",
			item: &rss.Item{Enclosure: &rss.Enclosure{URL: "https://x/one.gif", Type: "Image/GIF"}},
			want: "https://x/one.gif",
		},
		{
			name: "sniffed from content when description has none",
			item: &rss.Item{
				Description: "plain text",
				Content:     `<div><IMG class="a" SRC='https://x/content.png'></div>`,
			},
			want: "https://x/content.png",
		},
		{
			name: "nothing",
			item: &rss.Item{Description: "no images here"},
			want: "",
		},
		{
			name: "malformed markup",
			item: &rss.Item{Description: `<img src=>< <p`},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rssImage(tt.item); got != tt.want {
				t.Errorf("rssImage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAtomImage(t *testing.T) {
	tests := []struct {
		name  string
		entry *atom.Entry
		want  string
	}{
		{
			name: "enclosure link",
			entry: &atom.Entry{
				Links: []*atom.Link{
					{Rel: "alternate", Href: "https://x/page"},
					{Rel: "enclosure", Type: "image/jpeg", Href: "https://x/enc.jpg"},
				},
				Content: &atom.Content{Value: `<img src="https://x/inline.png">`},
			},
			want: "https://x/enc.jpg",
		},
		{
			name: "non-image enclosure ignored",
			entry: &atom.Entry{
				Links:   []*atom.Link{{Rel: "enclosure", Type: "audio/mpeg", Href: "https://x/a.mp3"}},
				Content: &atom.Content{Value: `<img src="https://x/inline.png">`},
			},
			want: "https://x/inline.png",
		},
		{
			name:  "summary fallback",
			entry: &atom.Entry{Summary: `<p><img src="https://x/summary.png"></p>`},
			want:  "https://x/summary.png",
		},
		{
			name:  "none",
			entry: &atom.Entry{Summary: "text"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := atomImage(tt.entry); got != tt.want {
				t.Errorf("atomImage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstImageInHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`<img src="https://x/a.png">`, "https://x/a.png"},
		{`<img src="">` + `<img src="https://x/b.png">`, "https://x/b.png"},
		{`<img src="https://x/c.png?a=1&amp;b=2">`, "https://x/c.png?a=1&b=2"},
		{`<p>no image</p>`, ""},
		{``, ""},
	}

	for _, tt := range tests {
		if got := firstImageInHTML(tt.in); got != tt.want {
			t.Errorf("firstImageInHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
