package syndicate

import (
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/mikequentel/isyndicate/internal/model"
	"github.com/mikequentel/isyndicate/internal/tags"
)

// Assemble builds the feed item for imageURL. The title is the image's file
// stem unless the tags target it; the guid is new on every call.
func Assemble(imageURL string, t tags.Result, guid string) model.FeedItem {
	item := model.FeedItem{
		Title:       stem(imageURL),
		GUID:        guid,
		Link:        imageURL,
		Description: " ",
	}
	tags.Place(&item, t)
	return item
}

func newGUID() string { return uuid.NewString() }

// fileName is the last path segment of imageURL, eg: "https://x/a/12.jpg?v=2" -> "12.jpg".
func fileName(imageURL string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil {
		p = u.Path
	}
	return path.Base(p)
}

func stem(imageURL string) string {
	name := fileName(imageURL)
	return strings.TrimSuffix(name, path.Ext(name))
}
