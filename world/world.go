// Package world describes the narrow write surface a conversion needs from a
// block world store. Concrete stores live in the subpackages.
package world

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrOutOfBounds  = errors.New("coordinate outside the world")
	ErrUnknownBlock = errors.New("unknown block")
	ErrNotWorld     = errors.New("not a world")
	ErrClosed       = errors.New("world is closed")
)

// Dimension names a partition of a world.
type Dimension string

const (
	Overworld Dimension = "overworld"
	Nether    Dimension = "nether"
	End       Dimension = "end"
)

// DefaultDimensions is what a freshly created world contains.
var DefaultDimensions = []Dimension{Overworld, Nether, End}

const (
	Java    = "java"
	Bedrock = "bedrock"
)

// GameVersion selects the block encoding a store should write.
type GameVersion struct {
	Edition             string
	Major, Minor, Patch uint32
}

// DefaultVersion is java 1.20.1.
var DefaultVersion = GameVersion{Edition: Java, Major: 1, Minor: 20, Patch: 1}

func (v GameVersion) String() string {
	return fmt.Sprintf("%s %d.%d.%d", v.Edition, v.Major, v.Minor, v.Patch)
}

// Number formats only the numeric part, e.g. "1.20.1".
func (v GameVersion) Number() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less orders versions of the same edition.
func (v GameVersion) Less(o GameVersion) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// ParseGameVersion reads "edition major.minor.patch" as produced by String.
func ParseGameVersion(s string) (GameVersion, error) {
	edition, num, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return GameVersion{}, fmt.Errorf("game version %q: want \"edition x.y.z\"", s)
	}
	parts := strings.Split(num, ".")
	if len(parts) != 3 {
		return GameVersion{}, fmt.Errorf("game version %q: want \"edition x.y.z\"", s)
	}
	var n [3]uint32
	for i, p := range parts {
		u, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return GameVersion{}, fmt.Errorf("game version %q: %w", s, err)
		}
		n[i] = uint32(u)
	}
	v := GameVersion{Edition: edition, Major: n[0], Minor: n[1], Patch: n[2]}
	if err := v.Validate(); err != nil {
		return GameVersion{}, err
	}
	return v, nil
}

// Validate checks the edition name.
func (v GameVersion) Validate() error {
	if v.Edition != Java && v.Edition != Bedrock {
		return fmt.Errorf("unknown edition %q", v.Edition)
	}
	return nil
}

// Bounds is an inclusive coordinate box.
type Bounds struct {
	Min, Max [3]int
}

// Contains reports whether (x, y, z) lies inside b.
func (b Bounds) Contains(x, y, z int) bool {
	return x >= b.Min[0] && x <= b.Max[0] &&
		y >= b.Min[1] && y <= b.Max[1] &&
		z >= b.Min[2] && z <= b.Max[2]
}

const horizontalLimit = 30_000_000

// Bounds returns the buildable box of the version. Worlds got their deeper
// floor and taller ceiling in 1.18.
func (v GameVersion) Bounds() Bounds {
	minY, maxY := 0, 255
	if !v.Less(GameVersion{Major: 1, Minor: 18}) {
		minY, maxY = -64, 319
	}
	return Bounds{
		Min: [3]int{-horizontalLimit, minY, -horizontalLimit},
		Max: [3]int{horizontalLimit - 1, maxY, horizontalLimit - 1},
	}
}

// Placement is one block write.
type Placement struct {
	X, Y, Z   int
	Dimension Dimension
	Version   GameVersion
	Block     string
}

func (p Placement) String() string {
	return fmt.Sprintf("%s@(%d,%d,%d)/%s", p.Block, p.X, p.Y, p.Z, p.Dimension)
}

// Sink is an open world. Writes made through SetBlock become durable only
// after Persist; Close releases the store and drops anything not persisted.
// A Sink is used from a single goroutine.
type Sink interface {
	Dimensions() []Dimension
	SetBlock(x, y, z int, dim Dimension, ver GameVersion, block string) error
	Persist() error
	Close() error
}

// Opener opens the world stored at path.
type Opener func(path string) (Sink, error)

// Place is SetBlock for a Placement.
func Place(s Sink, p Placement) error {
	return s.SetBlock(p.X, p.Y, p.Z, p.Dimension, p.Version, p.Block)
}

// CheckPlacement validates what every store rejects: coordinates outside
// the version's bounds and empty block identifiers.
func CheckPlacement(x, y, z int, ver GameVersion, block string) error {
	if block == "" {
		return fmt.Errorf("%w: empty identifier", ErrUnknownBlock)
	}
	if b := ver.Bounds(); !b.Contains(x, y, z) {
		return fmt.Errorf("%w: (%d,%d,%d) for %s", ErrOutOfBounds, x, y, z, ver)
	}
	return nil
}

// HasDimension reports whether dims contains d.
func HasDimension(dims []Dimension, d Dimension) bool {
	for _, x := range dims {
		if x == d {
			return true
		}
	}
	return false
}
