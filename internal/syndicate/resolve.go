package syndicate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mikequentel/isyndicate/internal/metadata"
	"github.com/mikequentel/isyndicate/internal/model"
)

// MetadataSource is the image directory's metadata.
type MetadataSource interface {
	Fnum(dir string) (*metadata.Fnum, error)
	MaxMarker(dir string) (*metadata.MaxMarker, error)
	ImageTags(imagePath string) ([]string, error)
}

// ResolveMax picks the upper bound on image ids: explicit if positive, else the
// declared max of fnum, else dir's max marker. ok is false when none is
// available; unreadable metadata counts as unavailable.
func ResolveMax(explicit int, fnum *metadata.Fnum, meta MetadataSource, dir string) (bound int, ok bool) {
	if explicit > 0 {
		return explicit, true
	}
	if fnum != nil && fnum.Max != nil && *fnum.Max > 0 {
		return *fnum.Max, true
	}
	if meta == nil || dir == "" {
		return 0, false
	}
	if m, err := meta.MaxMarker(dir); err == nil && m.Value > 0 {
		return m.Value, true
	}
	return 0, false
}

// ResolveURL builds the URL of image id. With a suffix the URL is base+id+suffix;
// otherwise the first filename in order starting with "<id>." is appended to base.
func ResolveURL(base string, id model.ImageID, suffix string, order []string) (string, error) {
	if suffix != "" {
		return base + strconv.Itoa(int(id)) + suffix, nil
	}
	prefix := strconv.Itoa(int(id)) + "."
	for _, name := range order {
		if strings.HasPrefix(name, prefix) {
			return base + name, nil
		}
	}
	return "", fmt.Errorf("%w: no suffix given and no image named %s* in metadata", model.ErrSuffixUnresolved, prefix)
}
