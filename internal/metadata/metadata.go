// Package metadata reads and writes the files that describe an image
// directory: the ordered list of numbered images, an optional max marker,
// and a tag sidecar next to each image.
//
//	images/
//	├── fnum.json      {"order": ["1.jpg", "2.png"], "max": 2}
//	├── fnum.max       {"value": 2}
//	├── 1.jpg
//	└── 1.jpg.imeta    {"$version": "1.0", "tags": ["cat", "source:pinterest"]}
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	FnumFile     = "fnum.json"
	MaxFile      = "fnum.max"
	SidecarExt   = ".imeta"
	imetaVersion = "1.0"
)

// ErrNotFound marks a metadata file that does not exist. It is not fatal:
// callers fall back to an explicit suffix or an unbounded sequence.
var ErrNotFound = errors.New("metadata not found")

// Fnum is the ordered list of image filenames keyed by their leading number.
type Fnum struct {
	Order []string `json:"order"`
	Max   *int     `json:"max,omitempty"`
}

// MaxMarker records the highest image id on its own.
type MaxMarker struct {
	Value int `json:"value"`
}

// Image is the tag sidecar of one image.
type Image struct {
	Version string   `json:"$version"`
	Tags    []string `json:"tags"`
}

// Files reads metadata from the local filesystem.
type Files struct{}

func (Files) Fnum(dir string) (*Fnum, error) {
	var f Fnum
	if err := readJSON(filepath.Join(dir, FnumFile), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (Files) MaxMarker(dir string) (*MaxMarker, error) {
	var m MaxMarker
	if err := readJSON(filepath.Join(dir, MaxFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ImageTags returns the raw tag list stored beside imagePath.
func (Files) ImageTags(imagePath string) ([]string, error) {
	var img Image
	if err := readJSON(imagePath+SidecarExt, &img); err != nil {
		return nil, err
	}
	return img.Tags, nil
}

func WriteFnum(dir string, f *Fnum) error {
	return writeJSON(filepath.Join(dir, FnumFile), f)
}

func WriteMaxMarker(dir string, m *MaxMarker) error {
	return writeJSON(filepath.Join(dir, MaxFile), m)
}

// WriteImage stores tags beside imagePath.
func WriteImage(imagePath string, tags []string) error {
	return writeJSON(imagePath+SidecarExt, &Image{Version: imetaVersion, Tags: tags})
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
