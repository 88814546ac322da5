// Package chunkstore keeps a world on disk as a level.yaml manifest and one
// file per 16x16x16 chunk:
//
//	<world>/level.yaml
//	<world>/<dimension>/<cx>.<cy>.<cz>.mchk
//
// Chunk files use the chunk package codec with palette indices into the
// manifest's block list.
package chunkstore

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/world"
)

const (
	// BPP is fixed so every chunk of a world can share one pack header.
	BPP       = 7
	maxBlocks = 1<<BPP - 1
	chunkExt  = ".mchk"
)

type chunkKey struct {
	dim world.Dimension
	c   chunk.Coord
}

type cached struct {
	grid   *chunk.Grid
	digest uint64 // of the bytes on disk, 0 when there is no file
	dirty  bool
}

// Store implements world.Sink. Writes stay in memory until Persist.
type Store struct {
	dir      string
	manifest Manifest
	values   map[string]uint8
	chunks   map[chunkKey]*cached
	// manifestDirty is set when the palette or version changed.
	manifestDirty bool
	closed        bool
}

// Create initialises an empty world in dir, which must not already hold one.
func Create(dir string, ver world.GameVersion) (*Store, error) {
	return CreateWithManifest(dir, NewManifest(ver))
}

// CreateWithManifest initialises a world from an existing manifest.
func CreateWithManifest(dir string, m Manifest) (*Store, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, manifestName)); err == nil {
		return nil, fmt.Errorf("%s already holds a world", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := writeManifest(dir, m); err != nil {
		return nil, err
	}
	return newStore(dir, m), nil
}

// Open opens the world in dir.
func Open(dir string) (*Store, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", world.ErrNotWorld, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", world.ErrNotWorld, dir)
	}
	m, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}
	return newStore(dir, m), nil
}

// OpenOrCreate opens dir, creating a world for ver when none exists yet.
func OpenOrCreate(dir string, ver world.GameVersion) (*Store, error) {
	s, err := Open(dir)
	if err == nil || !errors.Is(err, world.ErrNotWorld) {
		return s, err
	}
	if _, statErr := os.Stat(filepath.Join(dir, manifestName)); statErr == nil {
		// a manifest exists but is broken; do not overwrite it
		return nil, err
	}
	return Create(dir, ver)
}

// Opener adapts Open to world.Opener.
func Opener(path string) (world.Sink, error) {
	return Open(path)
}

// CreatingOpener returns a world.Opener that creates missing worlds.
func CreatingOpener(ver world.GameVersion) world.Opener {
	return func(path string) (world.Sink, error) {
		return OpenOrCreate(path, ver)
	}
}

func newStore(dir string, m Manifest) *Store {
	s := &Store{
		dir:      dir,
		manifest: m,
		values:   make(map[string]uint8, len(m.Blocks)),
		chunks:   make(map[chunkKey]*cached),
	}
	for i, b := range m.Blocks {
		s.values[b] = uint8(i + 1)
	}
	return s
}

func (s *Store) Dir() string { return s.dir }

// Manifest returns a copy of the in-memory manifest.
func (s *Store) Manifest() Manifest {
	m := s.manifest
	m.Dimensions = append([]world.Dimension(nil), m.Dimensions...)
	m.Blocks = append([]string(nil), m.Blocks...)
	return m
}

func (s *Store) Dimensions() []world.Dimension {
	return append([]world.Dimension(nil), s.manifest.Dimensions...)
}

func (s *Store) SetBlock(x, y, z int, dim world.Dimension, ver world.GameVersion, block string) error {
	if s.closed {
		return world.ErrClosed
	}
	if !world.HasDimension(s.manifest.Dimensions, dim) {
		return fmt.Errorf("%w: unknown dimension %q", world.ErrOutOfBounds, dim)
	}
	if err := world.CheckPlacement(x, y, z, ver, block); err != nil {
		return err
	}
	v, err := s.value(block)
	if err != nil {
		return err
	}
	c, lx, ly, lz := chunk.Split(x, y, z)
	e, err := s.load(chunkKey{dim, c})
	if err != nil {
		return err
	}
	if e.grid.At(lx, ly, lz) != v {
		e.grid.Set(lx, ly, lz, v)
		e.dirty = true
	}
	if vs := ver.String(); vs != s.manifest.Version {
		s.manifest.Version = vs
		s.manifestDirty = true
	}
	return nil
}

// value maps a block to its palette value, growing the world palette for
// registry blocks it does not list yet.
func (s *Store) value(block string) (uint8, error) {
	if v, ok := s.values[block]; ok {
		return v, nil
	}
	if _, ok := palette.Lookup(block); !ok {
		return 0, fmt.Errorf("%w: %s", world.ErrUnknownBlock, block)
	}
	if len(s.manifest.Blocks) >= maxBlocks {
		return 0, fmt.Errorf("%w: world palette is full (%d blocks)", world.ErrUnknownBlock, maxBlocks)
	}
	s.manifest.Blocks = append(s.manifest.Blocks, block)
	s.manifest.Generation++
	s.manifestDirty = true
	v := uint8(len(s.manifest.Blocks))
	s.values[block] = v
	return v, nil
}

func (s *Store) chunkPath(k chunkKey) string {
	name := fmt.Sprintf("%d.%d.%d%s", k.c.X, k.c.Y, k.c.Z, chunkExt)
	return filepath.Join(s.dir, string(k.dim), name)
}

func (s *Store) load(k chunkKey) (*cached, error) {
	if e, ok := s.chunks[k]; ok {
		return e, nil
	}
	e := &cached{}
	data, err := os.ReadFile(s.chunkPath(k))
	switch {
	case err == nil:
		g, _, err := chunk.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.chunkPath(k), err)
		}
		e.grid = g
		e.digest = xxhash.Sum64(data)
	case errors.Is(err, fs.ErrNotExist):
		e.grid = new(chunk.Grid)
	default:
		return nil, err
	}
	s.chunks[k] = e
	return e, nil
}

// Persist writes the manifest, when it changed, and then every changed chunk.
func (s *Store) Persist() error {
	if s.closed {
		return world.ErrClosed
	}
	keys := make([]chunkKey, 0, len(s.chunks))
	for k, e := range s.chunks {
		if e.dirty {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	// the manifest goes first so no chunk ever refers to a palette entry
	// that is not on disk
	if s.manifestDirty {
		if err := writeManifest(s.dir, s.manifest); err != nil {
			return err
		}
		s.manifestDirty = false
	}
	for _, k := range keys {
		if err := s.writeChunk(k, s.chunks[k]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeChunk(k chunkKey, e *cached) error {
	path := s.chunkPath(k)
	if e.grid.Empty() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		e.digest = 0
		e.dirty = false
		return nil
	}
	data, err := chunk.Marshal(e.grid, BPP, s.manifest.Generation)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	d := xxhash.Sum64(data)
	if d != e.digest {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := writeFileAtomic(path, data); err != nil {
			return err
		}
		e.digest = d
	}
	e.dirty = false
	return nil
}

// Close releases the store. Writes since the last Persist are dropped.
func (s *Store) Close() error {
	s.closed = true
	s.chunks = nil
	return nil
}

// Block returns the block at a coordinate, including unpersisted writes.
func (s *Store) Block(dim world.Dimension, x, y, z int) (string, bool, error) {
	if s.closed {
		return "", false, world.ErrClosed
	}
	c, lx, ly, lz := chunk.Split(x, y, z)
	e, err := s.load(chunkKey{dim, c})
	if err != nil {
		return "", false, err
	}
	v := e.grid.At(lx, ly, lz)
	if v == 0 {
		return "", false, nil
	}
	return s.BlockName(v)
}

// BlockName resolves a chunk value against the world palette.
func (s *Store) BlockName(v uint8) (string, bool, error) {
	if v == 0 {
		return "", false, nil
	}
	if int(v) > len(s.manifest.Blocks) {
		return "", false, fmt.Errorf("%w: value %d outside a palette of %d", world.ErrUnknownBlock, v, len(s.manifest.Blocks))
	}
	return s.manifest.Blocks[v-1], true, nil
}

// Chunks lists the chunks of dim that exist on disk, in Morton order.
func (s *Store) Chunks(dim world.Dimension) ([]chunk.Coord, error) {
	if s.closed {
		return nil, world.ErrClosed
	}
	entries, err := os.ReadDir(filepath.Join(s.dir, string(dim)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []chunk.Coord
	for _, de := range entries {
		c, ok := parseChunkName(de.Name())
		if !ok || de.IsDir() {
			continue
		}
		out = append(out, c)
	}
	chunk.SortCoords(out)
	return out, nil
}

// Grid returns the chunk at c, including unpersisted writes.
func (s *Store) Grid(dim world.Dimension, c chunk.Coord) (*chunk.Grid, error) {
	if s.closed {
		return nil, world.ErrClosed
	}
	e, err := s.load(chunkKey{dim, c})
	if err != nil {
		return nil, err
	}
	g := *e.grid
	return &g, nil
}

// PutGrid replaces a whole chunk. Values must index the world palette.
func (s *Store) PutGrid(dim world.Dimension, c chunk.Coord, g *chunk.Grid) error {
	if s.closed {
		return world.ErrClosed
	}
	if !world.HasDimension(s.manifest.Dimensions, dim) {
		return fmt.Errorf("%w: unknown dimension %q", world.ErrOutOfBounds, dim)
	}
	if int(g.MaxIndex()) > len(s.manifest.Blocks) {
		return fmt.Errorf("%w: chunk uses value %d, palette has %d", world.ErrUnknownBlock, g.MaxIndex(), len(s.manifest.Blocks))
	}
	e, err := s.load(chunkKey{dim, c})
	if err != nil {
		return err
	}
	*e.grid = *g
	e.dirty = true
	return nil
}

func parseChunkName(name string) (chunk.Coord, bool) {
	base, ok := strings.CutSuffix(name, chunkExt)
	if !ok {
		return chunk.Coord{}, false
	}
	parts := strings.Split(base, ".")
	if len(parts) != 3 {
		return chunk.Coord{}, false
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return chunk.Coord{}, false
		}
		v[i] = n
	}
	return chunk.Coord{X: v[0], Y: v[1], Z: v[2]}, true
}

func sortKeys(keys []chunkKey) {
	slices.SortFunc(keys, func(a, b chunkKey) int {
		if c := cmp.Compare(a.dim, b.dim); c != 0 {
			return c
		}
		return cmp.Compare(a.c.Key(), b.c.Key())
	})
}
