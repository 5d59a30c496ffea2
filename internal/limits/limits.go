// Package limits turns the per-platform limits table into named tag presets.
package limits

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mikequentel/isyndicate/internal/model"
)

//go:embed platforms.yaml
var platformsYAML []byte

// Limit is one row of the limits table.
type Limit struct {
	CaptionLimit int          `yaml:"caption_limit"`
	TagLimit     int          `yaml:"tag_limit"`
	Target       model.Target `yaml:"target"`
}

// Presets maps a lower-case platform name to its tag settings.
type Presets map[string]model.TagSettings

// Load parses a limits table.
func Load(r io.Reader) (Presets, error) {
	var table map[string]Limit
	if err := yaml.NewDecoder(r).Decode(&table); err != nil && err != io.EOF {
		return nil, fmt.Errorf("limits: decode table: %w", err)
	}
	p := make(Presets, len(table))
	for name, l := range table {
		if l.CaptionLimit < 0 || l.TagLimit < 0 {
			return nil, fmt.Errorf("limits: %s: negative limit", name)
		}
		p[strings.ToLower(strings.TrimSpace(name))] = model.TagSettings{
			CaptionLimit: l.CaptionLimit,
			TagLimit:     l.TagLimit,
			Target:       l.Target,
		}
	}
	return p, nil
}

var (
	defaultOnce    sync.Once
	defaultPresets Presets
	defaultErr     error
)

// Default returns the presets built from the embedded table.
func Default() Presets {
	defaultOnce.Do(func() {
		defaultPresets, defaultErr = Load(bytes.NewReader(platformsYAML))
	})
	if defaultErr != nil {
		panic(defaultErr) // embedded table is part of the build
	}
	return defaultPresets
}

// Lookup finds a preset by platform name, ignoring case.
func (p Presets) Lookup(name string) (model.TagSettings, bool) {
	s, ok := p[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names lists the platforms in sorted order.
func (p Presets) Names() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
