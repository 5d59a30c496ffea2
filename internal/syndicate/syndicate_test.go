package syndicate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikequentel/isyndicate/internal/feed"
	"github.com/mikequentel/isyndicate/internal/limits"
	"github.com/mikequentel/isyndicate/internal/metadata"
	"github.com/mikequentel/isyndicate/internal/metrics"
	"github.com/mikequentel/isyndicate/internal/model"
	"github.com/mikequentel/isyndicate/internal/tags"
)

func newSyndicator() *Syndicator {
	s := New(&feed.Store{}, metadata.Files{})
	s.Random = Random{Rand: rand.New(rand.NewPCG(11, 12))}
	s.Metrics = metrics.New()
	return s
}

func parse(t *testing.T, b []byte) []feed.Entry {
	t.Helper()
	f, err := feed.Parse(b)
	require.NoError(t, err)
	return f.Items
}

func readFile(t *testing.T, path string) []feed.Entry {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return parse(t, b)
}

// feedWithLast writes a feed whose newest item is titled last.
func feedWithLast(t *testing.T, dir string, last ...string) string {
	t.Helper()
	path := filepath.Join(dir, "from.xml")
	s := newSyndicator()
	for _, l := range last {
		_, err := s.AddImage(context.Background(), "/"+l+".jpg", Options{From: path, To: path})
		require.NoError(t, err)
	}
	return path
}

// imageDirWithTags creates 1.jpg tagged test0..test49 plus two namespaced tags.
func imageDirWithTags(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	img := filepath.Join(dir, "1.jpg")
	require.NoError(t, os.WriteFile(img, nil, 0o644))
	raw := make([]string, 0, 52)
	for n := 0; n < 50; n++ {
		raw = append(raw, fmt.Sprintf("test%d", n))
	}
	raw = append(raw, "meta:tagged", "source:pinterest")
	require.NoError(t, metadata.WriteImage(img, raw))
	return dir
}

func hashed(n int) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts = append(parts, fmt.Sprintf("#test%d", i))
	}
	return strings.Join(parts, " ")
}

// ===================== AddImage =====================

func TestAddImage_Minimal(t *testing.T) {
	out, err := newSyndicator().AddImage(context.Background(), "/1.jpg", Options{})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 1)
	it := items[0]
	assert.Equal(t, "1", it.Title)
	assert.NotEmpty(t, it.GUID)
	assert.Equal(t, "/1.jpg", it.Link)
	assert.NotNil(t, it.Published)
	assert.Equal(t, "", it.Description)
}

func TestAddImage_Existing(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "from")
	to := filepath.Join(dir, "to")
	s := newSyndicator()
	ctx := context.Background()

	first, err := s.AddImage(ctx, "/0.jpg", Options{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(from, first, 0o644))

	out, err := s.AddImage(ctx, "/1.jpg", Options{From: from, To: to})
	require.NoError(t, err)
	assert.Nil(t, out)

	items := readFile(t, to)
	require.Len(t, items, 2)
	assert.Equal(t, "/0.jpg", items[1].Link)
	assert.Equal(t, "1", items[0].Title)
	assert.Equal(t, "/1.jpg", items[0].Link)
	assert.Equal(t, "", items[0].Description)
}

func TestAddImage_FreshGUIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.xml")
	s := newSyndicator()
	for i := 0; i < 2; i++ {
		_, err := s.AddImage(context.Background(), "/1.jpg", Options{From: path, To: path})
		require.NoError(t, err)
	}
	items := readFile(t, path)
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].GUID, items[1].GUID)
	assert.Equal(t, items[0].Link, items[1].Link)
}

func TestAddImage_Tags(t *testing.T) {
	instagram, ok := limits.Default().Lookup("instagram")
	require.True(t, ok)

	tests := []struct {
		name     string
		settings *model.TagSettings
		want     string
	}{
		{"no limit", nil, hashed(50)},
		{"preset", &instagram, hashed(30)},
		{"custom limit", &model.TagSettings{TagLimit: 10}, hashed(10)},
		{"caption limit", &model.TagSettings{CaptionLimit: len(hashed(4)) + 3}, hashed(4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := imageDirWithTags(t)
			out, err := newSyndicator().AddImage(context.Background(), "/1.jpg",
				Options{ImageDir: dir, Tags: tt.settings})
			require.NoError(t, err)
			items := parse(t, out)
			require.Len(t, items, 1)
			assert.Equal(t, "1", items[0].Title)
			assert.Equal(t, "/1.jpg", items[0].Link)
			assert.Equal(t, tt.want, items[0].Description)
		})
	}
}

func TestAddImage_TagsIntoTitle(t *testing.T) {
	dir := imageDirWithTags(t)
	out, err := newSyndicator().AddImage(context.Background(), "https://x/img/1.jpg",
		Options{ImageDir: dir, Tags: &model.TagSettings{TagLimit: 2, Target: model.TargetTitle}})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "#test0 #test1", items[0].Title)
	assert.Equal(t, "", items[0].Description)
}

func TestAddImage_TagsIntoCustomElement(t *testing.T) {
	target, err := model.ParseTarget("category")
	require.NoError(t, err)
	dir := imageDirWithTags(t)
	out, err := newSyndicator().AddImage(context.Background(), "/1.jpg",
		Options{ImageDir: dir, Tags: &model.TagSettings{TagLimit: 1, Target: target}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<category>#test0</category>")
	items := parse(t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].Title)
	assert.Equal(t, "", items[0].Description)
}

func TestAddImage_NoSidecar(t *testing.T) {
	out, err := newSyndicator().AddImage(context.Background(), "/2.jpg", Options{ImageDir: t.TempDir()})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "", items[0].Description)
}

func TestAddImage_FeedUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(&feed.Store{Client: srv.Client()}, metadata.Files{})
	_, err := s.AddImage(context.Background(), "/1.jpg", Options{From: srv.URL + "/feed.xml"})
	assert.ErrorIs(t, err, model.ErrFeedUnavailable)

	_, err = s.AddImageSeq(context.Background(), "/", Options{From: srv.URL + "/feed.xml", Suffix: ".jpg"})
	assert.ErrorIs(t, err, model.ErrFeedUnavailable)
}

// ===================== AddImageSeq =====================

func TestAddImageSeq_NewFeed(t *testing.T) {
	out, err := newSyndicator().AddImageSeq(context.Background(), "https://x/", Options{Suffix: ".jpg"})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].Title)
	assert.Equal(t, "https://x/1.jpg", items[0].Link)
}

func TestAddImageSeq_Monotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.xml")
	s := newSyndicator()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.AddImageSeq(ctx, "https://x/", Options{From: path, To: path, Suffix: ".jpg"})
		require.NoError(t, err)
	}
	items := readFile(t, path)
	got := make([]string, 0, len(items))
	for _, it := range items {
		got = append(got, it.Title)
	}
	if diff := cmp.Diff([]string{"3", "2", "1"}, got); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "https://x/3.jpg", items[0].Link)
}

func TestAddImageSeq_ImageDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, metadata.WriteFnum(dir, &metadata.Fnum{Order: []string{"1.png", "2.jpg", "3.gif"}}))
	from := feedWithLast(t, t.TempDir(), "1")

	out, err := newSyndicator().AddImageSeq(context.Background(), "https://x/", Options{From: from, ImageDir: dir})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].Title)
	assert.Equal(t, "https://x/2.jpg", items[0].Link)
}

// countingFiles counts reads of the ordering file.
type countingFiles struct {
	metadata.Files
	fnumReads int
}

func (c *countingFiles) Fnum(dir string) (*metadata.Fnum, error) {
	c.fnumReads++
	return c.Files.Fnum(dir)
}

func TestAddImageSeq_ReadsOrderingOnce(t *testing.T) {
	dir := t.TempDir()
	top := 3
	require.NoError(t, metadata.WriteFnum(dir, &metadata.Fnum{Order: []string{"1.png", "2.jpg", "3.gif"}, Max: &top}))

	for _, policy := range []string{"seq", "random"} {
		t.Run(policy, func(t *testing.T) {
			files := &countingFiles{}
			s := newSyndicator()
			s.Metadata = files
			add := s.AddImageSeq
			if policy == "random" {
				add = s.AddImageRandom
			}
			out, err := add(context.Background(), "https://x/", Options{ImageDir: dir})
			require.NoError(t, err)
			require.Len(t, parse(t, out), 1)
			assert.Equal(t, 1, files.fnumReads)
		})
	}
}

func TestAddImageSeq_SuffixBeatsImageDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, metadata.WriteFnum(dir, &metadata.Fnum{Order: []string{"1.png"}}))
	out, err := newSyndicator().AddImageSeq(context.Background(), "/", Options{ImageDir: dir, Suffix: ".webp"})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "/1.webp", items[0].Link)
}

func TestAddImageSeq_NoSuffix(t *testing.T) {
	_, err := newSyndicator().AddImageSeq(context.Background(), "/", Options{})
	assert.ErrorIs(t, err, model.ErrSuffixUnresolved)

	_, err = newSyndicator().AddImageSeq(context.Background(), "/", Options{ImageDir: t.TempDir()})
	assert.ErrorIs(t, err, model.ErrSuffixUnresolved)
}

func TestAddImageSeq_InvalidFeedState(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "from.xml")
	_, err := newSyndicator().AddImage(context.Background(), "/sunset.jpg", Options{To: from})
	require.NoError(t, err)

	_, err = newSyndicator().AddImageSeq(context.Background(), "/", Options{From: from, Suffix: ".jpg"})
	assert.ErrorIs(t, err, model.ErrInvalidFeedState)
}

func TestAddImageSeq_OverMaxExplicit_File(t *testing.T) {
	dir := t.TempDir()
	from := feedWithLast(t, dir, "4", "5")
	to := filepath.Join(dir, "to.xml")

	out, err := newSyndicator().AddImageSeq(context.Background(), "/", Options{From: from, To: to, Suffix: ".jpg", MaxID: 5})
	require.NoError(t, err)
	assert.Nil(t, out)
	_, statErr := os.Stat(to)
	assert.True(t, os.IsNotExist(statErr), "destination must be untouched")
}

func TestAddImageSeq_OverMaxExplicit_Feed(t *testing.T) {
	dir := t.TempDir()
	from := feedWithLast(t, dir, "3", "4", "5")

	s := newSyndicator()
	s.Feed = &feed.Store{MaxItems: 2}
	out, err := s.AddImageSeq(context.Background(), "/", Options{From: from, Suffix: ".jpg", MaxID: 5})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 2, "no new item, cap still enforced")
	assert.Equal(t, "5", items[0].Title)
	assert.Equal(t, "4", items[1].Title)
}

func TestAddImageSeq_OverMaxFnum(t *testing.T) {
	imgDir := t.TempDir()
	top := 3
	require.NoError(t, metadata.WriteFnum(imgDir, &metadata.Fnum{Order: []string{"1.jpg", "2.jpg", "3.jpg"}, Max: &top}))
	dir := t.TempDir()
	from := feedWithLast(t, dir, "3")
	to := filepath.Join(dir, "to.xml")

	out, err := newSyndicator().AddImageSeq(context.Background(), "/", Options{From: from, To: to, ImageDir: imgDir})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.NoFileExists(t, to)
}

func TestAddImageSeq_OverMaxMarker(t *testing.T) {
	imgDir := t.TempDir()
	require.NoError(t, metadata.WriteMaxMarker(imgDir, &metadata.MaxMarker{Value: 2}))
	from := feedWithLast(t, t.TempDir(), "2")

	out, err := newSyndicator().AddImageSeq(context.Background(), "/", Options{From: from, ImageDir: imgDir, Suffix: ".jpg"})
	require.NoError(t, err)
	assert.Len(t, parse(t, out), 1)
}

func TestAddImageSeq_TagSettings(t *testing.T) {
	dir := imageDirWithTags(t)
	out, err := newSyndicator().AddImageSeq(context.Background(), "/", Options{ImageDir: dir, Suffix: ".jpg",
		Tags: &model.TagSettings{TagLimit: 3}})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 1)
	assert.Equal(t, "/1.jpg", items[0].Link)
	assert.Equal(t, hashed(3), items[0].Description)
}

// ===================== AddImageRandom =====================

func TestAddImageRandom_WithMax(t *testing.T) {
	from := feedWithLast(t, t.TempDir(), "2")
	s := newSyndicator()
	for i := 0; i < 20; i++ {
		out, err := s.AddImageRandom(context.Background(), "/", Options{From: from, Suffix: ".jpg", MaxID: 3})
		require.NoError(t, err)
		items := parse(t, out)
		require.Len(t, items, 2)
		assert.NotEqual(t, "2", items[0].Title)
		assert.Contains(t, []string{"1", "3"}, items[0].Title)
	}
}

func TestAddImageRandom_WithDir(t *testing.T) {
	dir := t.TempDir()
	top := 2
	require.NoError(t, metadata.WriteFnum(dir, &metadata.Fnum{Order: []string{"1.png", "2.gif"}, Max: &top}))
	from := feedWithLast(t, t.TempDir(), "1")

	out, err := newSyndicator().AddImageRandom(context.Background(), "https://x/", Options{From: from, ImageDir: dir})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].Title)
	assert.Equal(t, "https://x/2.gif", items[0].Link)
}

func TestAddImageRandom_NoMax(t *testing.T) {
	_, err := newSyndicator().AddImageRandom(context.Background(), "/", Options{Suffix: ".jpg"})
	assert.ErrorIs(t, err, model.ErrMaxIDRequired)

	_, err = newSyndicator().AddImageRandom(context.Background(), "/", Options{Suffix: ".jpg", ImageDir: t.TempDir()})
	assert.ErrorIs(t, err, model.ErrMaxIDRequired)
}

func TestAddImageRandom_NewFeed(t *testing.T) {
	out, err := newSyndicator().AddImageRandom(context.Background(), "/", Options{Suffix: ".jpg", MaxID: 10})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 1)
	assert.Regexp(t, `^/([1-9]|10)\.jpg$`, items[0].Link)
}

func TestAddImageRandom_MaxOne(t *testing.T) {
	from := feedWithLast(t, t.TempDir(), "1")
	out, err := newSyndicator().AddImageRandom(context.Background(), "/", Options{From: from, Suffix: ".jpg", MaxID: 1})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].Title)
	assert.Equal(t, "/1.jpg", items[0].Link)
}

func TestAddImageRandom_TagSettings(t *testing.T) {
	dir := imageDirWithTags(t)
	out, err := newSyndicator().AddImageRandom(context.Background(), "/", Options{ImageDir: dir, Suffix: ".jpg", MaxID: 1,
		Tags: &model.TagSettings{TagLimit: 5}})
	require.NoError(t, err)
	items := parse(t, out)
	require.Len(t, items, 1)
	assert.Equal(t, hashed(5), items[0].Description)
}

// ===================== Assemble =====================

func TestAssemble(t *testing.T) {
	got := Assemble("https://x/a/12.jpg?v=2", tags.Result{Value: "#a"}, "g")
	want := model.FeedItem{Title: "12", GUID: "g", Link: "https://x/a/12.jpg?v=2", Description: "#a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Assemble mismatch (-want +got):\n%s", diff)
	}
}

func TestAssemble_Stem(t *testing.T) {
	for in, want := range map[string]string{
		"/1.jpg":                 "1",
		"https://x/7.tar.gz":     "7.tar",
		"https://x/dir/":         "dir",
		"relative/name.jpeg?x=1": "name",
	} {
		assert.Equal(t, want, Assemble(in, tags.Result{Value: " "}, "g").Title, in)
	}
}
