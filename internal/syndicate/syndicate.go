// Package syndicate decides which image to post next and appends its item to
// a feed. Every call reads the feed and metadata afresh; nothing is cached
// between calls, and callers must not run two calls against one destination
// at the same time.
package syndicate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikequentel/isyndicate/internal/metadata"
	"github.com/mikequentel/isyndicate/internal/metrics"
	"github.com/mikequentel/isyndicate/internal/model"
	"github.com/mikequentel/isyndicate/internal/tags"
)

// FeedStore reads and mutates feeds. AddItem and AddElement return the feed
// bytes when to is empty, and nil after writing to to.
type FeedStore interface {
	FeedReader
	AddItem(ctx context.Context, from, to string, els []model.Element) ([]byte, error)
	AddElement(ctx context.Context, from, to string) ([]byte, error)
}

// Options are the per-call inputs shared by the add operations.
type Options struct {
	From     string // feed holding prior posts; file path or URL
	To       string // file to write; empty returns the feed bytes
	ImageDir string // local directory with images and their metadata
	Suffix   string // eg ".jpg"; when empty the suffix comes from ImageDir metadata
	MaxID    int    // explicit upper bound; 0 defers to metadata
	Tags     *model.TagSettings
}

// Syndicator wires the feed store and metadata to the selection policies.
type Syndicator struct {
	Feed     FeedStore
	Metadata MetadataSource
	Random   Random
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	NewGUID  func() string
}

// New returns a Syndicator with a no-op logger and no metrics.
func New(store FeedStore, meta MetadataSource) *Syndicator {
	return &Syndicator{Feed: store, Metadata: meta, Log: zap.NewNop(), NewGUID: newGUID}
}

// AddImage appends an item for imageURL to the feed.
func (s *Syndicator) AddImage(ctx context.Context, imageURL string, opts Options) ([]byte, error) {
	out, err := s.addImage(ctx, imageURL, 0, "url", opts)
	if err != nil {
		s.Metrics.RecordFailure("url")
	}
	return out, err
}

// AddImageSeq appends the image after the newest one in the feed. Past the
// max id nothing is added: a file destination is left untouched, otherwise
// the source feed comes back with its item cap applied.
func (s *Syndicator) AddImageSeq(ctx context.Context, baseURL string, opts Options) ([]byte, error) {
	out, err := s.addNext(ctx, Sequential{}, baseURL, opts)
	if err != nil {
		s.Metrics.RecordFailure(Sequential{}.Name())
	}
	return out, err
}

// AddImageRandom appends a randomly chosen image, avoiding the newest one.
func (s *Syndicator) AddImageRandom(ctx context.Context, baseURL string, opts Options) ([]byte, error) {
	out, err := s.addNext(ctx, s.Random, baseURL, opts)
	if err != nil {
		s.Metrics.RecordFailure(s.Random.Name())
	}
	return out, err
}

func (s *Syndicator) addNext(ctx context.Context, p Policy, baseURL string, opts Options) ([]byte, error) {
	fnum, fnumErr := s.fnum(opts)

	var b Bounds
	b.Max, b.HasMax = ResolveMax(opts.MaxID, fnum, s.Metadata, opts.ImageDir)

	last, hasLast, err := LastID(ctx, s.Feed, opts.From)
	if err != nil {
		return nil, err
	}
	b.Last, b.HasLast = last, hasLast

	id, exhausted, err := p.Next(b)
	if err != nil {
		return nil, err
	}
	if exhausted {
		s.Metrics.RecordExhausted()
		s.logger().Info("sequence exhausted",
			zap.Int("last", int(b.Last)), zap.Int("max", b.Max), zap.String("to", opts.To))
		if opts.To != "" {
			return nil, nil
		}
		return s.Feed.AddElement(ctx, opts.From, "")
	}

	imageURL, err := resolveImageURL(baseURL, id, opts.Suffix, fnum, fnumErr)
	if err != nil {
		return nil, err
	}
	return s.addImage(ctx, imageURL, id, p.Name(), opts)
}

// fnum reads the image directory's ordering once per call, and only when the
// max id or the suffix still has to come from it.
func (s *Syndicator) fnum(opts Options) (*metadata.Fnum, error) {
	if opts.ImageDir == "" || s.Metadata == nil || (opts.MaxID > 0 && opts.Suffix != "") {
		return nil, nil
	}
	return s.Metadata.Fnum(opts.ImageDir)
}

func resolveImageURL(baseURL string, id model.ImageID, suffix string, fnum *metadata.Fnum, fnumErr error) (string, error) {
	var order []string
	if suffix == "" {
		switch {
		case fnumErr != nil && !errors.Is(fnumErr, metadata.ErrNotFound):
			return "", fmt.Errorf("%w: %v", model.ErrSuffixUnresolved, fnumErr)
		case fnum != nil:
			order = fnum.Order
		}
	}
	return ResolveURL(baseURL, id, suffix, order)
}

func (s *Syndicator) addImage(ctx context.Context, imageURL string, id model.ImageID, policy string, opts Options) ([]byte, error) {
	raw, err := s.imageTags(imageURL, opts.ImageDir)
	if err != nil {
		return nil, err
	}
	item := Assemble(imageURL, tags.Compose(raw, opts.Tags), s.guid())

	out, err := s.Feed.AddItem(ctx, opts.From, opts.To, item.Elements())
	if err != nil {
		return nil, err
	}
	s.Metrics.RecordItemAdded(policy)
	s.logger().Info("item added",
		zap.String("policy", policy),
		zap.Int("id", int(id)),
		zap.String("link", item.Link),
		zap.String("guid", item.GUID),
		zap.Int("tags", len(raw)),
		zap.String("to", opts.To))
	return out, nil
}

// imageTags reads the tag sidecar of the image behind imageURL in dir.
// No dir or no sidecar means no tags.
func (s *Syndicator) imageTags(imageURL, dir string) ([]string, error) {
	if dir == "" || s.Metadata == nil {
		return nil, nil
	}
	path := filepath.Join(dir, fileName(imageURL))
	raw, err := s.Metadata.ImageTags(path)
	if errors.Is(err, metadata.ErrNotFound) {
		s.logger().Debug("no tag metadata", zap.String("image", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tags for %s: %w", path, err)
	}
	return raw, nil
}

func (s *Syndicator) guid() string {
	if s.NewGUID != nil {
		return s.NewGUID()
	}
	return newGUID()
}

func (s *Syndicator) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
