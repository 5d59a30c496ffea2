package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mikequentel/isyndicate/internal/model"
)

// Channel holds the metadata written when a feed is created from scratch.
type Channel struct {
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
}

// node is one child of <channel>, kept as the bytes it was read from.
// name is the raw name: Space holds the prefix ("atom"), not a namespace URL.
type node struct {
	name xml.Name
	raw  []byte
}

func (n node) is(local string) bool { return n.name.Space == "" && n.name.Local == local }

// Document is an RSS 2.0 feed being mutated: items newest first. Everything
// outside the channel children (declaration, <rss> attributes and namespace
// declarations) and every child it does not rewrite is written back unchanged.
type Document struct {
	head  []byte // up to and including the <channel> start tag
	nodes []node
	tail  []byte // from </channel> to the end
}

// NewDocument starts an empty feed.
func NewDocument(ch Channel) *Document {
	d := &Document{
		head: []byte(xml.Header + `<rss version="2.0">` + "\n  <channel>"),
		tail: []byte("\n  </channel>\n</rss>\n"),
	}
	for _, el := range []model.Element{
		{Name: "title", Value: ch.Title},
		{Name: "link", Value: ch.Link},
		{Name: "description", Value: ch.Description},
	} {
		var b bytes.Buffer
		writeElement(&b, el.Name, el.Value, "")
		d.nodes = append(d.nodes, node{name: xml.Name{Local: el.Name}, raw: b.Bytes()})
	}
	return d
}

// Decode reads an existing RSS 2.0 feed; empty data starts a new one from ch.
func Decode(data []byte, ch Channel) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(ch), nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = xml.HTMLEntity
	// bytes are copied through untouched, so any declared charset will do
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	var (
		doc       Document
		depth     int
		inChannel bool
		cur       node
		start     int64
	)
	for {
		off := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode rss: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case depth == 0 && t.Name.Local != "rss":
				return nil, fmt.Errorf("decode rss: root element <%s> is not rss", t.Name.Local)
			case depth == 1 && t.Name.Local == "channel":
				doc.head = data[:dec.InputOffset()]
				inChannel = true
			case depth == 2 && inChannel:
				cur, start = node{name: t.Name}, off
			}
			depth++
		case xml.EndElement:
			depth--
			switch {
			case depth == 2 && inChannel:
				cur.raw = data[start:dec.InputOffset()]
				doc.nodes = append(doc.nodes, cur)
			case depth == 1 && inChannel:
				doc.tail = append([]byte("\n  "), data[off:]...)
				return &doc, nil
			}
		}
	}
	return nil, errors.New("decode rss: no channel element")
}

// Len is the number of items in the feed.
func (d *Document) Len() int {
	n := 0
	for _, nd := range d.nodes {
		if nd.is("item") {
			n++
		}
	}
	return n
}

// Prepend adds a new item built from els at the head of the feed.
func (d *Document) Prepend(els []model.Element, published time.Time) error {
	var b bytes.Buffer
	b.WriteString("<item>")
	for _, el := range els {
		attrs := ""
		if el.Name == "guid" {
			attrs = ` isPermaLink="false"`
		}
		b.WriteString("\n      ")
		if err := writeElement(&b, el.Name, el.Value, attrs); err != nil {
			return err
		}
	}
	fmt.Fprintf(&b, "\n      <pubDate>%s</pubDate>\n    </item>", published.Format(time.RFC1123Z))
	d.insertBeforeItems(node{name: xml.Name{Local: "item"}, raw: b.Bytes()})
	return nil
}

// Trim drops the oldest items beyond n. n <= 0 keeps everything.
func (d *Document) Trim(n int) {
	if n <= 0 {
		return
	}
	kept := d.nodes[:0]
	seen := 0
	for _, nd := range d.nodes {
		if nd.is("item") {
			seen++
			if seen > n {
				continue
			}
		}
		kept = append(kept, nd)
	}
	d.nodes = kept
}

// Stamp sets the channel's lastBuildDate.
func (d *Document) Stamp(now time.Time) {
	raw := []byte("<lastBuildDate>" + now.Format(time.RFC1123Z) + "</lastBuildDate>")
	for i, nd := range d.nodes {
		if nd.is("lastBuildDate") {
			d.nodes[i].raw = raw
			return
		}
	}
	d.insertBeforeItems(node{name: xml.Name{Local: "lastBuildDate"}, raw: raw})
}

// Encode renders the feed.
func (d *Document) Encode() ([]byte, error) {
	var b bytes.Buffer
	b.Write(d.head)
	for _, nd := range d.nodes {
		b.WriteString("\n    ")
		b.Write(nd.raw)
	}
	b.Write(d.tail)
	return b.Bytes(), nil
}

func (d *Document) insertBeforeItems(n node) {
	i := len(d.nodes)
	for j, nd := range d.nodes {
		if nd.is("item") {
			i = j
			break
		}
	}
	d.nodes = append(d.nodes[:i], append([]node{n}, d.nodes[i:]...)...)
}

func writeElement(b *bytes.Buffer, name, value, attrs string) error {
	b.WriteString("<" + name + attrs + ">")
	if err := xml.EscapeText(b, []byte(value)); err != nil {
		return fmt.Errorf("escape %s: %w", name, err)
	}
	b.WriteString("</" + name + ">")
	return nil
}
