// Command poster publishes the newest item of an isyndicate feed to X,
// uploading the image behind the item link when it exists under --image-dir.
// Items already in the history ledger are skipped.
//
// Credentials come from X_CONSUMER_KEY, X_CONSUMER_SECRET, X_ACCESS_TOKEN and
// X_ACCESS_SECRET. DRY_RUN=1 (or --dry-run) prints the post without any
// network call and needs no credentials.
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mikequentel/isyndicate/internal/config"
	"github.com/mikequentel/isyndicate/internal/feed"
	"github.com/mikequentel/isyndicate/internal/history"
	"github.com/mikequentel/isyndicate/internal/logging"
	"github.com/mikequentel/isyndicate/internal/metrics"
	"github.com/mikequentel/isyndicate/internal/publish"
)

// newHTTPClient builds the signed client; tests point it at a local server.
var newHTTPClient = publish.NewHTTPClient

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "poster:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts := config.NewOptions()
	fs := pflag.NewFlagSet("poster", pflag.ContinueOnError)
	opts.AddFlags(fs)
	opts.AddPosterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := opts.Complete(); err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if envOr("DRY_RUN", "0") == "1" {
		opts.DryRun = true
	}

	creds := publish.Credentials{
		ConsumerKey:    os.Getenv("X_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("X_CONSUMER_SECRET"),
		AccessToken:    os.Getenv("X_ACCESS_TOKEN"),
		AccessSecret:   os.Getenv("X_ACCESS_SECRET"),
	}
	// credentials are only needed once something is sent
	if missing := creds.Missing(); !opts.DryRun && len(missing) > 0 {
		return fmt.Errorf("missing required env var: %s", missing[0])
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

	if err := post(ctx, opts, creds, log, m, stdout); err != nil {
		m.RecordFailure("publish")
		log.Error("publish failed", zap.Error(err))
		return err
	}
	return nil
}

func post(ctx context.Context, opts *config.Options, creds publish.Credentials, log *zap.Logger, m *metrics.Metrics, stdout io.Writer) error {
	store := &feed.Store{}
	f, err := store.Read(ctx, opts.From)
	if err != nil {
		return err
	}
	if len(f.Items) == 0 {
		log.Info("feed has no items", zap.String("from", opts.From))
		return nil
	}
	item := f.Items[0]
	key := item.GUID
	if key == "" {
		key = item.Link
	}

	ledger, err := history.Open(ctx, opts.History)
	if err != nil {
		return err
	}
	defer ledger.Close()

	done, err := ledger.IsPublished(ctx, key)
	if err != nil {
		return err
	}
	if done {
		log.Info("newest item already published", zap.String("guid", key))
		return nil
	}

	status := publish.FormatStatus(item.Title, item.Description)
	image := imagePath(opts.ImageDir, item.Link)
	if image != "" {
		if err := ensureFile(image); err != nil {
			return fmt.Errorf("image unreadable: %s (%w)", image, err)
		}
	}

	if opts.DryRun {
		fmt.Fprintln(stdout, "DRY RUN ✅ (no network calls)")
		fmt.Fprintf(stdout, "Will post:\n---\n%s\n---\n", status)
		if image != "" {
			fmt.Fprintf(stdout, "Image: %s\n", image)
		}
		return nil
	}

	p := publish.New(newHTTPClient(ctx, creds))
	var media []int64
	if image != "" {
		id, err := p.UploadMedia(ctx, image)
		if err != nil {
			return err
		}
		media = []int64{id}
	}
	postID, err := p.Post(status, media)
	if err != nil {
		return err
	}
	m.RecordPublished()
	log.Info("posted", zap.String("post_id", postID), zap.String("guid", key), zap.String("link", item.Link))

	return ledger.MarkPublished(ctx, history.Post{
		GUID:    key,
		Title:   item.Title,
		Link:    item.Link,
		XPostID: postID,
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// imagePath maps an item link to the local image of the same name in dir.
// It returns "" when there is no such file.
func imagePath(dir, link string) string {
	if dir == "" || link == "" {
		return ""
	}
	name := link
	if u, err := url.Parse(link); err == nil {
		name = u.Path
	}
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	p := filepath.Join(dir, name)
	if !existsFile(p) {
		return ""
	}
	return p
}

func existsFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

func ensureFile(p string) error {
	fi, err := os.Stat(p)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", p)
	}
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	// basic read to ensure permissions
	_, _ = f.Read(make([]byte, 1))
	return nil
}
