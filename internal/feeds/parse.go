// Package feeds turns raw RSS 2.0 and Atom documents into models.FeedItem values.
package feeds

import (
	"bytes"
	"time"

	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"

	"github.com/johnrirwin/newsfeed/internal/models"
)

// Parser detects the format of a document and runs the matching normalizer.
// It is safe for concurrent use.
type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// Parse returns the normalized items of one feed document. The only errors are
// *ParseError and *UnknownFormatError. A recognised document with no channel or
// entries yields an empty slice and no error.
func (p *Parser) Parse(raw []byte, feedURL string) ([]models.FeedItem, error) {
	doc, err := sniff(raw)
	if err != nil {
		return nil, err
	}

	now := p.now()
	switch doc.format {
	case FormatAtom:
		feed, err := (&atom.Parser{}).Parse(bytes.NewReader(raw))
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		return normalizeAtom(feed, feedURL, now), nil
	default:
		if doc.root == "channel" {
			raw = wrapChannel(raw, doc.rootOffset)
		}
		feed, err := (&rss.Parser{}).Parse(bytes.NewReader(raw))
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		return normalizeRSS(feed, feedURL, now), nil
	}
}
