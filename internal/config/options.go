// Package config gathers command options from flags and an optional YAML file.
// Flags given on the command line win over the file; the file wins over defaults.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mikequentel/isyndicate/internal/feed"
	"github.com/mikequentel/isyndicate/internal/limits"
	"github.com/mikequentel/isyndicate/internal/model"
)

const (
	DefaultLogLevel = "info"
	DefaultHistory  = "./isyndicate.sqlite"
)

// Options holds every setting the commands understand.
type Options struct {
	ConfigPath string

	//
	// Feed.
	//
	From     string       // feed with prior posts: file path or URL
	To       string       // destination file; empty prints the feed
	MaxItems int          // item cap enforced on every write
	Channel  feed.Channel // metadata of newly created feeds
	//
	// Images.
	//
	ImageDir string
	BaseURL  string
	Suffix   string
	MaxID    int
	//
	// Tags.
	//
	Preset       string // platform name from the limits table
	CaptionLimit int
	TagLimit     int
	Target       model.Target
	//
	// Poster.
	//
	History string // sqlite ledger path
	DryRun  bool
	//
	// Diagnostics.
	//
	LogLevel        string
	LogDev          bool
	MetricsTextfile string

	fs        *pflag.FlagSet
	targetSet bool // tag target came from the config file
}

// NewOptions returns Options initialized with default values.
func NewOptions() *Options {
	return &Options{
		MaxItems: feed.DefaultMaxItems,
		Channel:  feed.Channel{Title: "isyndicate"},
		History:  DefaultHistory,
		LogLevel: DefaultLogLevel,
	}
}

// AddFlags binds the options shared by every command.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.fs = fs
	fs.StringVarP(&o.ConfigPath, "config", "c", o.ConfigPath, "YAML config file.")
	fs.StringVar(&o.From, "from", o.From, "Feed holding prior posts (file path or URL).")
	fs.StringVar(&o.ImageDir, "image-dir", o.ImageDir, "Directory with the images and their metadata.")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug, info, warn or error.")
	fs.BoolVar(&o.LogDev, "log-dev", o.LogDev, "Human-readable console logs.")
	fs.StringVar(&o.MetricsTextfile, "metrics-textfile", o.MetricsTextfile, "Write prometheus counters to this file on exit.")
}

// AddFeedFlags binds the options of the feed-writing commands.
func (o *Options) AddFeedFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.To, "to", o.To, "Write the feed to this file instead of stdout.")
	fs.IntVar(&o.MaxItems, "max-items", o.MaxItems, "Keep at most this many items in the feed.")
	fs.StringVar(&o.Suffix, "suffix", o.Suffix, `Image suffix appended to the id, eg ".jpg".`)
	fs.IntVar(&o.MaxID, "max-id", o.MaxID, "Highest image id; 0 reads it from the image metadata.")
	fs.StringVar(&o.Preset, "preset", o.Preset, "Tag preset: one of the platforms in the limits table.")
	fs.IntVar(&o.CaptionLimit, "caption-limit", o.CaptionLimit, "Maximum tag text length; 0 is unlimited.")
	fs.IntVar(&o.TagLimit, "tag-limit", o.TagLimit, "Maximum number of tags; 0 is unlimited.")
	fs.Var(&o.Target, "tag-target", "Item element receiving the tags: title, description or a custom name.")
}

// AddPosterFlags binds the options of the X poster.
func (o *Options) AddPosterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.History, "history", o.History, "sqlite ledger of published items.")
	fs.BoolVar(&o.DryRun, "dry-run", o.DryRun, "Print the post instead of sending it.")
}

// Complete overlays the config file, if any, beneath the flags that were set.
func (o *Options) Complete() error {
	if o.ConfigPath == "" {
		return nil
	}
	b, err := os.ReadFile(o.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", o.ConfigPath, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("config: parse %s: %w", o.ConfigPath, err)
	}
	o.apply(&f)
	return nil
}

// Validate checks the Options for invalid values.
func (o *Options) Validate() error {
	for _, c := range []struct {
		name string
		v    int
	}{
		{"max-items", o.MaxItems},
		{"max-id", o.MaxID},
		{"caption-limit", o.CaptionLimit},
		{"tag-limit", o.TagLimit},
	} {
		if c.v < 0 {
			return fmt.Errorf("invalid value %d for flag %q: must be >= 0", c.v, c.name)
		}
	}
	if o.Preset != "" {
		if _, ok := limits.Default().Lookup(o.Preset); !ok {
			return fmt.Errorf("unknown preset %q: want one of %v", o.Preset, limits.Default().Names())
		}
	}
	return nil
}

// TagSettings resolves the preset and explicit limits. It returns nil when no
// tag option was given, which composes every tag into the description.
func (o *Options) TagSettings() *model.TagSettings {
	var s model.TagSettings
	set := false
	if o.Preset != "" {
		if p, ok := limits.Default().Lookup(o.Preset); ok {
			s, set = p, true
		}
	}
	if o.CaptionLimit > 0 {
		s.CaptionLimit, set = o.CaptionLimit, true
	}
	if o.TagLimit > 0 {
		s.TagLimit, set = o.TagLimit, true
	}
	if o.changed("tag-target") || o.targetSet || !o.Target.IsDescription() {
		s.Target, set = o.Target, true
	}
	if !set {
		return nil
	}
	return &s
}

func (o *Options) changed(name string) bool {
	return o.fs != nil && o.fs.Changed(name)
}
