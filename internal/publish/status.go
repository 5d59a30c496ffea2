package publish

import (
	"strings"
	"unicode/utf8"
)

// MaxStatusLen is X's post length limit in runes.
const MaxStatusLen = 280

// FormatStatus builds the post text for a feed item: the tag text when there
// is any, otherwise the title. Over-long text is cut at a word and ellipsized.
func FormatStatus(title, description string) string {
	text := strings.TrimSpace(description)
	if text == "" {
		text = strings.TrimSpace(title)
	}
	if runeLen(text) <= MaxStatusLen {
		return text
	}
	const ellipsis = "…"
	cut := truncateRunes(text, MaxStatusLen-runeLen(ellipsis))
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + ellipsis
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
