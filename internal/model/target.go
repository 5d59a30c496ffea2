package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Target names the item element that receives composed tag text. The zero
// value targets the description. guid, link and pubDate are written by the
// feed itself and cannot be targeted; ParseTarget is the only way to build a custom target.
type Target struct {
	name string
}

var (
	TargetTitle       = Target{name: "title"}
	TargetDescription = Target{name: "description"}
)

var reElementName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ParseTarget maps an element name to a Target.
func ParseTarget(name string) (Target, error) {
	n := strings.TrimSpace(name)
	switch strings.ToLower(n) {
	case "", "description":
		return TargetDescription, nil
	case "title":
		return TargetTitle, nil
	case "guid", "link", "pubdate":
		return Target{}, fmt.Errorf("%w: %q is a structural element", ErrInvalidTagTarget, n)
	}
	if !reElementName.MatchString(n) {
		return Target{}, fmt.Errorf("%w: %q is not an element name", ErrInvalidTagTarget, n)
	}
	return Target{name: n}, nil
}

// Name returns the element name the target writes to.
func (t Target) Name() string {
	if t.name == "" {
		return TargetDescription.name
	}
	return t.name
}

func (t Target) IsTitle() bool       { return t.Name() == TargetTitle.name }
func (t Target) IsDescription() bool { return t.Name() == TargetDescription.name }

// IsCustom reports whether the target is an extra element appended to the item.
func (t Target) IsCustom() bool { return !t.IsTitle() && !t.IsDescription() }

func (t Target) String() string { return t.Name() }

// Set and Type let a Target be bound directly as a command-line flag.
func (t *Target) Set(s string) error {
	v, err := ParseTarget(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t *Target) Type() string { return "element" }

func (t Target) MarshalText() ([]byte, error) { return []byte(t.Name()), nil }

func (t *Target) UnmarshalText(b []byte) error { return t.Set(string(b)) }
