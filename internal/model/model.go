package model

// ImageID identifies an image within a numbered sequence. Valid ids start at 1;
// zero stands for "no id" wherever an id is optional.
type ImageID int

// Element is one child element of a feed item, eg: <title>1</title>.
type Element struct {
	Name  string
	Value string
}

// FeedItem is one entry queued for the feed. GUID is always freshly generated,
// so posting the same image twice yields two distinct entries.
type FeedItem struct {
	Title       string
	GUID        string
	Link        string
	Description string
	Extra       *Element // custom tag target, if any
}

// Elements returns the item's elements in the order they are written to the feed.
func (it FeedItem) Elements() []Element {
	els := []Element{
		{Name: "title", Value: it.Title},
		{Name: "guid", Value: it.GUID},
		{Name: "link", Value: it.Link},
		{Name: "description", Value: it.Description},
	}
	if it.Extra != nil {
		els = append(els, *it.Extra)
	}
	return els
}

// TagSettings bounds how much tag text is composed for an item and where it goes.
// A zero limit means unlimited.
type TagSettings struct {
	CaptionLimit int
	TagLimit     int
	Target       Target
}

// --- X v1.1 media/upload (simple upload) ---

type MediaUploadResp struct {
	MediaID       int64  `json:"media_id"`
	MediaIDString string `json:"media_id_string"`
}
