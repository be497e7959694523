package feeds

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatRSS
	FormatAtom
)

func (f Format) String() string {
	switch f {
	case FormatRSS:
		return "rss"
	case FormatAtom:
		return "atom"
	default:
		return "unknown"
	}
}

// DetectFormat checks that raw is well-formed XML and classifies it by its root
// element: <feed> is Atom; <rss>, <rdf:RDF> and a bare <channel> are RSS.
// HTML named entities are accepted, structural errors are not.
func DetectFormat(raw []byte) (Format, error) {
	doc, err := sniff(raw)
	if err != nil {
		return FormatUnknown, err
	}
	return doc.format, nil
}

type sniffed struct {
	format Format
	root   string
	// rootOffset is the byte offset of the root start tag.
	rootOffset int64
}

func sniff(raw []byte) (sniffed, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return sniffed{}, &ParseError{Err: errors.New("empty document")}
	}

	d := xml.NewDecoder(bytes.NewReader(raw))
	d.Strict = true
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel

	var doc sniffed
	for {
		offset := d.InputOffset()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sniffed{}, &ParseError{Err: err}
		}

		if start, ok := tok.(xml.StartElement); ok && doc.root == "" {
			doc.root = strings.ToLower(start.Name.Local)
			doc.rootOffset = offset
		}
	}

	switch doc.root {
	case "":
		return sniffed{}, &ParseError{Err: errors.New("no root element")}
	case "feed":
		doc.format = FormatAtom
	case "rss", "rdf", "channel":
		doc.format = FormatRSS
	default:
		return sniffed{}, &UnknownFormatError{Root: doc.root}
	}
	return doc, nil
}

// wrapChannel encloses a root-level <channel> in an <rss> element so the RSS
// parser accepts it. Anything before the root (declaration, comments) stays first.
func wrapChannel(raw []byte, rootOffset int64) []byte {
	if rootOffset < 0 || rootOffset > int64(len(raw)) {
		rootOffset = 0
	}
	out := make([]byte, 0, len(raw)+len(rssOpen)+len(rssClose))
	out = append(out, raw[:rootOffset]...)
	out = append(out, rssOpen...)
	out = append(out, raw[rootOffset:]...)
	return append(out, rssClose...)
}

const (
	rssOpen  = `<rss version="2.0">`
	rssClose = `</rss>`
)
