// Package tags builds the hashtag text posted alongside an image.
package tags

import (
	"strings"
	"unicode/utf8"

	"github.com/mikequentel/isyndicate/internal/model"
)

// Result is the composed tag text and the element it belongs in.
type Result struct {
	Field model.Target
	Value string
}

// Compose joins the image's plain tags as "#tag #tag ..." within the caption and
// tag-count limits of s. Namespaced tags (those containing ':') are skipped.
// A nil s means no limits and the description target.
func Compose(raw []string, s *model.TagSettings) Result {
	var set model.TagSettings
	if s != nil {
		set = *s
	}

	var (
		b     strings.Builder
		count int
	)
	for _, tag := range raw {
		if strings.Contains(tag, ":") {
			continue
		}
		next := "#" + tag
		if b.Len() > 0 {
			next = " " + next
		}
		// never truncate mid-tag: stop before the tag that would overflow
		if set.CaptionLimit > 0 && runeLen(b.String())+runeLen(next) > set.CaptionLimit {
			break
		}
		b.WriteString(next)
		count++
		if set.TagLimit > 0 && count >= set.TagLimit {
			break
		}
	}

	value := b.String()
	if value == "" {
		// feeds commonly reject empty text nodes
		value = " "
	}
	return Result{Field: set.Target, Value: value}
}

// Place writes r into item: title and description are overwritten, any other
// target is appended as an extra element.
func Place(item *model.FeedItem, r Result) {
	switch {
	case r.Field.IsTitle():
		item.Title = r.Value
	case r.Field.IsDescription():
		item.Description = r.Value
	default:
		item.Extra = &model.Element{Name: r.Field.Name(), Value: r.Value}
	}
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
