package model

import "errors"

// Error kinds surfaced by feed selection and composition. Callers match them
// with errors.Is; every return site wraps them with context.
var (
	// ErrFeedUnavailable: the feed source answered with a non-2xx status.
	ErrFeedUnavailable = errors.New("feed unavailable")
	// ErrInvalidFeedState: the newest item's title is not an image id.
	ErrInvalidFeedState = errors.New("invalid feed state")
	// ErrSuffixUnresolved: no suffix given and no metadata entry matches the id.
	ErrSuffixUnresolved = errors.New("unable to determine image suffix")
	// ErrMaxIDRequired: random selection needs an upper bound.
	ErrMaxIDRequired = errors.New("max id required")
	// ErrInvalidTagTarget: tags may not be written into guid, link or pubDate.
	ErrInvalidTagTarget = errors.New("invalid tag target")
)
