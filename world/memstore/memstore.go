// Package memstore is an in-memory world. It keeps every placement in write
// order and is used by tests and by the byte-level api.
package memstore

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/world"
)

type key struct {
	dim     world.Dimension
	x, y, z int
}

// Store implements world.Sink.
type Store struct {
	mu     sync.Mutex
	dims   []world.Dimension
	log    []world.Placement
	cur    map[key]string
	marks  []int
	closed bool

	// Strict rejects identifiers that are not in the palette registry.
	Strict bool
	// FailAfter makes the n-th SetBlock (1-based) and every later one fail.
	FailAfter int
	// Closes counts Close calls.
	Closes int
}

// New returns an empty store with the default dimensions.
func New() *Store {
	return &Store{dims: slices.Clone(world.DefaultDimensions), cur: make(map[key]string)}
}

// Opener returns a world.Opener that always hands back s.
func (s *Store) Opener() world.Opener {
	return func(string) (world.Sink, error) { return s, nil }
}

func (s *Store) Dimensions() []world.Dimension {
	return slices.Clone(s.dims)
}

func (s *Store) SetBlock(x, y, z int, dim world.Dimension, ver world.GameVersion, block string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return world.ErrClosed
	}
	if s.FailAfter > 0 && len(s.log)+1 >= s.FailAfter {
		return fmt.Errorf("memstore: injected failure at write %d", len(s.log)+1)
	}
	if err := world.CheckPlacement(x, y, z, ver, block); err != nil {
		return err
	}
	if s.Strict {
		if _, ok := palette.Lookup(block); !ok {
			return fmt.Errorf("%w: %s", world.ErrUnknownBlock, block)
		}
	}
	s.log = append(s.log, world.Placement{X: x, Y: y, Z: z, Dimension: dim, Version: ver, Block: block})
	s.cur[key{dim, x, y, z}] = block
	return nil
}

func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return world.ErrClosed
	}
	s.marks = append(s.marks, len(s.log))
	return nil
}

// Close marks the store closed. The recorded placements stay readable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closes++
	s.closed = true
	return nil
}

// Placements returns every write in order.
func (s *Store) Placements() []world.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.log)
}

// Persisted returns the writes covered by the last Persist.
func (s *Store) Persisted() []world.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.marks) == 0 {
		return nil
	}
	return slices.Clone(s.log[:s.marks[len(s.marks)-1]])
}

// Persists returns the write count at each Persist call.
func (s *Store) Persists() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.marks)
}

// Block returns the current block at a coordinate.
func (s *Store) Block(dim world.Dimension, x, y, z int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.cur[key{dim, x, y, z}]
	return b, ok
}

// Closed reports whether Close has been called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
