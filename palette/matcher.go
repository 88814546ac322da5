package palette

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Ivans-11/Minecraftify/model"
)

// TranslucentAlpha is the alpha below which a color is matched against the
// translucent category.
const TranslucentAlpha = 200

// ErrNoCategory is returned by Strategy and NewMatcher when the selection
// enables no category at all.
var ErrNoCategory = errors.New("no block category selected")

// Selection says which categories a conversion may use.
type Selection struct {
	Wool       bool `yaml:"wool"`
	Concrete   bool `yaml:"concrete"`
	Terracotta bool `yaml:"terracotta"`
	Glass      bool `yaml:"glass"`
}

// AllCategories enables every category.
var AllCategories = Selection{Wool: true, Concrete: true, Terracotta: true, Glass: true}

// Has reports whether c is selected.
func (s Selection) Has(c Category) bool {
	switch c {
	case Wool:
		return s.Wool
	case Concrete:
		return s.Concrete
	case Terracotta:
		return s.Terracotta
	case Glass:
		return s.Glass
	}
	return false
}

// Set turns category c on or off.
func (s *Selection) Set(c Category, on bool) {
	switch c {
	case Wool:
		s.Wool = on
	case Concrete:
		s.Concrete = on
	case Terracotta:
		s.Terracotta = on
	case Glass:
		s.Glass = on
	}
}

// Opaque reports whether any opaque category is selected.
func (s Selection) Opaque() bool { return s.Wool || s.Concrete || s.Terracotta }

func (s Selection) String() string {
	var names []string
	for _, c := range Categories {
		if s.Has(c) {
			names = append(names, c.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// Strategy is the matching rule implied by a Selection.
type Strategy uint8

const (
	// WithGlass splits on alpha: translucent colors match glass, the rest
	// match the opaque categories.
	WithGlass Strategy = iota + 1
	// WithoutGlass matches every color against the opaque categories.
	WithoutGlass
	// GlassOnly matches every color against glass.
	GlassOnly
)

func (s Strategy) String() string {
	switch s {
	case WithGlass:
		return "with-glass"
	case WithoutGlass:
		return "without-glass"
	case GlassOnly:
		return "glass-only"
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// Strategy derives the matching rule. With no opaque category selected every
// color matches the translucent category regardless of alpha. An empty
// selection is ErrNoCategory.
func (s Selection) Strategy() (Strategy, error) {
	switch {
	case s.Opaque() && s.Glass:
		return WithGlass, nil
	case s.Opaque():
		return WithoutGlass, nil
	case s.Glass:
		return GlassOnly, nil
	}
	return 0, ErrNoCategory
}

// Matcher resolves colors to block identifiers. It is immutable and safe for
// concurrent use.
type Matcher struct {
	strategy Strategy
	opaque   []Entry
	glass    []Entry
}

// NewMatcher prepares a matcher for the selection.
func NewMatcher(sel Selection) (*Matcher, error) {
	st, err := sel.Strategy()
	if err != nil {
		return nil, err
	}
	m := &Matcher{strategy: st, glass: Entries(Glass)}
	for _, c := range []Category{Wool, Concrete, Terracotta} {
		if sel.Has(c) {
			m.opaque = append(m.opaque, Entries(c)...)
		}
	}
	return m, nil
}

// Strategy returns the rule this matcher applies.
func (m *Matcher) Strategy() Strategy { return m.strategy }

// Match returns the identifier of the closest block for c.
func (m *Matcher) Match(c model.Color) string {
	return m.MatchEntry(c).ID
}

// MatchEntry is Match returning the full palette entry.
func (m *Matcher) MatchEntry(c model.Color) Entry {
	switch m.strategy {
	case GlassOnly:
		return closest(c, m.glass)
	case WithGlass:
		if c.A < TranslucentAlpha {
			return closest(c, m.glass)
		}
	}
	return closest(c, m.opaque)
}

// Match is a one-shot form of NewMatcher(sel).Match(c).
func Match(c model.Color, sel Selection) (string, error) {
	m, err := NewMatcher(sel)
	if err != nil {
		return "", err
	}
	return m.Match(c), nil
}

// closest scans entries in order and keeps the first entry at the minimum
// squared RGB distance, so ties go to the earlier entry.
func closest(c model.Color, entries []Entry) Entry {
	best := -1
	bestDist := 0
	for i, e := range entries {
		d := Distance2(c, e.RGB)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return entries[best]
}

// Distance2 is the squared euclidean RGB distance; alpha is ignored.
func Distance2(c model.Color, rgb [3]uint8) int {
	dr := int(c.R) - int(rgb[0])
	dg := int(c.G) - int(rgb[1])
	db := int(c.B) - int(rgb[2])
	return dr*dr + dg*dg + db*db
}
