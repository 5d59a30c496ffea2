package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mikequentel/isyndicate/internal/model"
)

// DefaultMaxItems caps a feed when the store is not configured otherwise.
const DefaultMaxItems = 100

// Store reads feeds from files or URLs and writes mutated feeds to a file or
// back to the caller. It holds no state between calls.
type Store struct {
	Client   *http.Client
	MaxItems int
	Channel  Channel
	Now      func() time.Time
}

// Read loads and parses source. A missing source reads as an empty feed.
func (s *Store) Read(ctx context.Context, source string) (*Feed, error) {
	data, err := Load(ctx, s.Client, source)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// AddItem prepends an item to the feed at from and enforces the item cap.
// When to is set the feed is written there and nil is returned; otherwise
// the feed bytes are returned.
func (s *Store) AddItem(ctx context.Context, from, to string, els []model.Element) ([]byte, error) {
	doc, err := s.open(ctx, from)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := doc.Prepend(els, now); err != nil {
		return nil, err
	}
	doc.Trim(s.maxItems())
	doc.Stamp(now)
	return s.finish(doc, to)
}

// AddElement rewrites the feed at from without adding content, which still
// enforces the item cap.
func (s *Store) AddElement(ctx context.Context, from, to string) ([]byte, error) {
	doc, err := s.open(ctx, from)
	if err != nil {
		return nil, err
	}
	doc.Trim(s.maxItems())
	return s.finish(doc, to)
}

func (s *Store) open(ctx context.Context, from string) (*Document, error) {
	data, err := Load(ctx, s.Client, from)
	if err != nil {
		return nil, err
	}
	return Decode(data, s.Channel)
}

func (s *Store) finish(doc *Document, to string) ([]byte, error) {
	out, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	if to == "" {
		return out, nil
	}
	if err := writeAtomic(to, out); err != nil {
		return nil, fmt.Errorf("write feed %s: %w", to, err)
	}
	return nil, nil
}

func (s *Store) maxItems() int {
	if s.MaxItems > 0 {
		return s.MaxItems
	}
	return DefaultMaxItems
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
