package metadata

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var reNumbered = regexp.MustCompile(`^(\d+)\.[^.]+$`)

// Scan lists the numbered images in dir ("12.jpg", "13.png", ...) ordered by id.
// Sidecars and other files are ignored.
func Scan(dir string) (*Fnum, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	type numbered struct {
		id   int
		name string
	}
	var found []numbered
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasSuffix(e.Name(), SidecarExt) {
			continue
		}
		m := reNumbered.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || id < 1 {
			continue
		}
		found = append(found, numbered{id: id, name: e.Name()})
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].id != found[j].id {
			return found[i].id < found[j].id
		}
		return found[i].name < found[j].name
	})

	f := &Fnum{Order: make([]string, 0, len(found))}
	for _, n := range found {
		f.Order = append(f.Order, n.name)
	}
	if len(found) > 0 {
		top := found[len(found)-1].id
		f.Max = &top
	}
	return f, nil
}
