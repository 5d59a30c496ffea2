package config

import (
	"github.com/mikequentel/isyndicate/internal/feed"
	"github.com/mikequentel/isyndicate/internal/model"
)

// File models the YAML config file.
//
//	feed:
//	  from: feed.xml
//	  to: feed.xml
//	  max_items: 50
//	  channel: {title: cats, link: "https://x/"}
//	images:
//	  dir: ./images
//	  base_url: https://x/
//	  suffix: .jpg
//	tags:
//	  preset: instagram
//	log:
//	  level: debug
type File struct {
	Feed struct {
		From     string       `yaml:"from"`
		To       string       `yaml:"to"`
		MaxItems int          `yaml:"max_items"`
		Channel  feed.Channel `yaml:"channel"`
	} `yaml:"feed"`
	Images struct {
		Dir     string `yaml:"dir"`
		BaseURL string `yaml:"base_url"`
		Suffix  string `yaml:"suffix"`
		MaxID   int    `yaml:"max_id"`
	} `yaml:"images"`
	Tags struct {
		Preset       string        `yaml:"preset"`
		CaptionLimit int           `yaml:"caption_limit"`
		TagLimit     int           `yaml:"tag_limit"`
		Target       *model.Target `yaml:"target"`
	} `yaml:"tags"`
	Poster struct {
		History string `yaml:"history"`
		DryRun  bool   `yaml:"dry_run"`
	} `yaml:"poster"`
	Log struct {
		Level string `yaml:"level"`
		Dev   bool   `yaml:"dev"`
	} `yaml:"log"`
	MetricsTextfile string `yaml:"metrics_textfile"`
}

func (o *Options) apply(f *File) {
	str := func(flag string, dst *string, v string) {
		if v != "" && !o.changed(flag) {
			*dst = v
		}
	}
	num := func(flag string, dst *int, v int) {
		if v != 0 && !o.changed(flag) {
			*dst = v
		}
	}
	boolean := func(flag string, dst *bool, v bool) {
		if v && !o.changed(flag) {
			*dst = v
		}
	}

	str("from", &o.From, f.Feed.From)
	str("to", &o.To, f.Feed.To)
	num("max-items", &o.MaxItems, f.Feed.MaxItems)
	if f.Feed.Channel != (feed.Channel{}) {
		o.Channel = f.Feed.Channel
	}

	str("image-dir", &o.ImageDir, f.Images.Dir)
	str("base-url", &o.BaseURL, f.Images.BaseURL)
	str("suffix", &o.Suffix, f.Images.Suffix)
	num("max-id", &o.MaxID, f.Images.MaxID)

	str("preset", &o.Preset, f.Tags.Preset)
	num("caption-limit", &o.CaptionLimit, f.Tags.CaptionLimit)
	num("tag-limit", &o.TagLimit, f.Tags.TagLimit)
	if f.Tags.Target != nil && !o.changed("tag-target") {
		o.Target, o.targetSet = *f.Tags.Target, true
	}

	str("history", &o.History, f.Poster.History)
	boolean("dry-run", &o.DryRun, f.Poster.DryRun)

	str("log-level", &o.LogLevel, f.Log.Level)
	boolean("log-dev", &o.LogDev, f.Log.Dev)
	str("metrics-textfile", &o.MetricsTextfile, f.MetricsTextfile)
}
