// Command isyndicate appends the next image of a numbered set to an RSS feed.
//
//	isyndicate add    <image-url>  [flags]
//	isyndicate seq    [base-url]   [flags]
//	isyndicate random [base-url]   [flags]
//
// Without --to the resulting feed is written to stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mikequentel/isyndicate/internal/config"
	"github.com/mikequentel/isyndicate/internal/feed"
	"github.com/mikequentel/isyndicate/internal/logging"
	"github.com/mikequentel/isyndicate/internal/metadata"
	"github.com/mikequentel/isyndicate/internal/metrics"
	"github.com/mikequentel/isyndicate/internal/syndicate"
)

const usage = `usage: isyndicate <add|seq|random> [url] [flags]`

var errUsage = errors.New(usage)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "isyndicate:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd := args[0]
	switch cmd {
	case "add", "seq", "random":
	case "-h", "--help", "help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}

	opts := config.NewOptions()
	fs := pflag.NewFlagSet("isyndicate "+cmd, pflag.ContinueOnError)
	opts.AddFlags(fs)
	opts.AddFeedFlags(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if err := opts.Complete(); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	log, err := logging.New(opts.LogLevel, opts.LogDev)
	if err != nil {
		return err
	}
	defer log.Sync()

	m := metrics.New()
	defer func() {
		if err := m.WriteTextfile(opts.MetricsTextfile); err != nil {
			log.Warn("write metrics", zap.Error(err))
		}
	}()

	s := syndicate.New(&feed.Store{MaxItems: opts.MaxItems, Channel: opts.Channel}, metadata.Files{})
	s.Log = log
	s.Metrics = m

	so := syndicate.Options{
		From:     opts.From,
		To:       opts.To,
		ImageDir: opts.ImageDir,
		Suffix:   opts.Suffix,
		MaxID:    opts.MaxID,
		Tags:     opts.TagSettings(),
	}

	url := opts.BaseURL
	if fs.NArg() > 0 {
		url = fs.Arg(0)
	}
	if cmd == "add" && url == "" {
		return errUsage
	}

	var out []byte
	switch cmd {
	case "add":
		out, err = s.AddImage(ctx, url, so)
	case "seq":
		out, err = s.AddImageSeq(ctx, url, so)
	case "random":
		out, err = s.AddImageRandom(ctx, url, so)
	}
	if err != nil {
		log.Error("add image failed", zap.String("cmd", cmd), zap.Error(err))
		return err
	}
	if out != nil {
		if _, err := stdout.Write(out); err != nil {
			return err
		}
	}
	return nil
}
