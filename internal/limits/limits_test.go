package limits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikequentel/isyndicate/internal/model"
)

func TestDefault(t *testing.T) {
	p := Default()
	assert.Equal(t, []string{"instagram", "mastodon", "pinterest", "tumblr", "twitter"}, p.Names())

	ig, ok := p.Lookup("Instagram")
	require.True(t, ok)
	assert.Equal(t, 2200, ig.CaptionLimit)
	assert.Equal(t, 30, ig.TagLimit)
	assert.True(t, ig.Target.IsDescription())

	tw, ok := p.Lookup("twitter")
	require.True(t, ok)
	assert.Equal(t, model.TagSettings{CaptionLimit: 280}, tw)

	tb, ok := p.Lookup("tumblr")
	require.True(t, ok)
	assert.True(t, tb.Target.IsTitle())

	_, ok = p.Lookup("myspace")
	assert.False(t, ok)
}

func TestLoad_CustomTarget(t *testing.T) {
	p, err := Load(strings.NewReader("blog:\n  tag_limit: 5\n  target: category\n"))
	require.NoError(t, err)
	s, ok := p.Lookup("blog")
	require.True(t, ok)
	assert.Equal(t, 5, s.TagLimit)
	assert.Equal(t, "category", s.Target.Name())
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"guid target", "x:\n  target: guid\n"},
		{"link target", "x:\n  target: link\n"},
		{"negative", "x:\n  tag_limit: -1\n"},
		{"not a map", "- a\n- b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	p, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, p)
}
