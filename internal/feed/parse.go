package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// Entry is one parsed feed item.
type Entry struct {
	Title       string
	GUID        string
	Link        string
	Description string
	Published   *time.Time
}

// Feed is a parsed feed, items newest first as stored.
type Feed struct {
	Title string
	Items []Entry
}

// Parse reads RSS or Atom bytes. Descriptions come back as trimmed plain text,
// so the single-space placeholder reads as "".
func Parse(data []byte) (*Feed, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Feed{}, nil
	}
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	out := &Feed{Title: parsed.Title, Items: make([]Entry, 0, len(parsed.Items))}
	for _, it := range parsed.Items {
		if it == nil {
			continue
		}
		out.Items = append(out.Items, Entry{
			Title:       strings.TrimSpace(it.Title),
			GUID:        strings.TrimSpace(it.GUID),
			Link:        strings.TrimSpace(it.Link),
			Description: plainText(it.Description),
			Published:   it.PublishedParsed,
		})
	}
	return out, nil
}

// plainText strips markup the way feed readers render a description.
func plainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
