package syndicate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mikequentel/isyndicate/internal/feed"
	"github.com/mikequentel/isyndicate/internal/model"
)

// FeedReader reads a feed source. A missing source reads as an empty feed.
type FeedReader interface {
	Read(ctx context.Context, source string) (*feed.Feed, error)
}

// LastID returns the id of the newest item in the feed at source. ok is false
// when there is no source or the feed has no items yet.
func LastID(ctx context.Context, r FeedReader, source string) (id model.ImageID, ok bool, err error) {
	if source == "" {
		return 0, false, nil
	}
	f, err := r.Read(ctx, source)
	if err != nil {
		return 0, false, err
	}
	if f == nil || len(f.Items) == 0 {
		return 0, false, nil
	}
	title := f.Items[0].Title
	n, err := strconv.Atoi(title)
	if err != nil || n < 0 {
		return 0, false, fmt.Errorf("%w: newest item title %q in %s is not an image id", model.ErrInvalidFeedState, title, source)
	}
	return model.ImageID(n), true, nil
}
