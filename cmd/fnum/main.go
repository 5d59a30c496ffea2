// Command fnum indexes a directory of numbered images ("1.jpg", "2.png", ...)
// and writes the fnum.json the syndicator reads suffixes and the max id from.
// With --marker it also writes fnum.max.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/mikequentel/isyndicate/internal/logging"
	"github.com/mikequentel/isyndicate/internal/metadata"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "fnum:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		dir      string
		marker   bool
		list     bool
		logLevel string
	)
	fs := pflag.NewFlagSet("fnum", pflag.ContinueOnError)
	fs.StringVarP(&dir, "dir", "d", ".", "Directory holding the numbered images.")
	fs.BoolVar(&marker, "marker", false, "Also write "+metadata.MaxFile+".")
	fs.BoolVar(&list, "print", false, "Print the ordered file names instead of writing anything.")
	fs.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log, err := logging.New(logLevel, false)
	if err != nil {
		return err
	}
	defer log.Sync()

	f, err := metadata.Scan(dir)
	if err != nil {
		return err
	}
	if list {
		for _, name := range f.Order {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	if err := metadata.WriteFnum(dir, f); err != nil {
		return err
	}
	top := 0
	if f.Max != nil {
		top = *f.Max
	}
	if marker && f.Max != nil {
		if err := metadata.WriteMaxMarker(dir, &metadata.MaxMarker{Value: top}); err != nil {
			return err
		}
	}
	log.Info("indexed images", zap.String("dir", dir), zap.Int("count", len(f.Order)), zap.Int("max", top))
	return nil
}
