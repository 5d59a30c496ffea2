package syndicate

import (
	"fmt"
	"math/rand/v2"

	"github.com/mikequentel/isyndicate/internal/model"
)

// Bounds is what a policy chooses from: the last posted id and the max id,
// each of which may be absent.
type Bounds struct {
	Last    model.ImageID
	HasLast bool
	Max     int
	HasMax  bool
}

// Policy picks the next image id. exhausted reports that nothing is left to post.
type Policy interface {
	Name() string
	Next(b Bounds) (id model.ImageID, exhausted bool, err error)
}

// Sequential posts images in order, starting at 1.
type Sequential struct{}

func (Sequential) Name() string { return "seq" }

func (Sequential) Next(b Bounds) (model.ImageID, bool, error) {
	next := model.ImageID(1)
	if b.HasLast {
		next = b.Last + 1
	}
	if b.HasMax && int(next) >= b.Max {
		return 0, true, nil
	}
	return next, false, nil
}

// Random draws uniformly from [1, max], stepping back once to avoid reposting
// the last id. With max 1 the only image repeats.
type Random struct {
	Rand *rand.Rand
}

func (Random) Name() string { return "random" }

func (r Random) Next(b Bounds) (model.ImageID, bool, error) {
	if !b.HasMax || b.Max < 1 {
		return 0, false, fmt.Errorf("%w: random selection needs an upper bound", model.ErrMaxIDRequired)
	}
	id := model.ImageID(r.intN(b.Max) + 1)
	if b.HasLast && id == b.Last {
		id--
	}
	if id == 0 {
		id = model.ImageID(b.Max)
	}
	return id, false, nil
}

func (r Random) intN(n int) int {
	if r.Rand == nil {
		return rand.IntN(n)
	}
	return r.Rand.IntN(n)
}
