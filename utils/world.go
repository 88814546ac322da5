package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/world"
	"github.com/Ivans-11/Minecraftify/world/chunkstore"
	"github.com/Ivans-11/Minecraftify/world/sqlitestore"
)

// World store kinds accepted by -store.
const (
	StoreChunk  = "chunk"
	StoreSQLite = "sqlite"
)

var (
	packMagic   = []byte("MCHKPACK")
	sqliteMagic = []byte("SQLite format 3\x00")
)

// opener returns the world.Opener for a store kind. Chunk worlds are only
// created when create is set; SQLite files are always created on demand.
func opener(kind string, create bool, ver world.GameVersion) (world.Opener, error) {
	switch kind {
	case "", StoreChunk:
		if create {
			return chunkstore.CreatingOpener(ver), nil
		}
		return chunkstore.Opener, nil
	case StoreSQLite:
		return sqlitestore.Opener, nil
	}
	return nil, fmt.Errorf("unknown store %q (want %s or %s)", kind, StoreChunk, StoreSQLite)
}

// LoadRegion reads a chunk world directory, a SQLite world or a chunk pack.
func LoadRegion(path string) (*chunkstore.Region, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDir() {
		s, err := chunkstore.Open(path)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Region()
	}
	head, err := readHead(path, len(sqliteMagic))
	if err != nil {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(head, packMagic):
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return chunkstore.UnpackRegion(data)
	case bytes.HasPrefix(head, sqliteMagic):
		return sqliteRegion(path)
	}
	return nil, fmt.Errorf("%s: %w: not a world directory, SQLite world or chunk pack", path, world.ErrNotWorld)
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	k, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:k], nil
}

func sqliteRegion(path string) (*chunkstore.Region, error) {
	s, err := sqlitestore.Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	r := chunkstore.NewRegion(world.DefaultVersion)
	if v, err := s.Version(); err != nil {
		return nil, err
	} else if v != "" {
		r.Version = v
	}
	for _, dim := range s.Dimensions() {
		err := s.Blocks(dim, func(x, y, z int, block string) error {
			return r.Set(dim, x, y, z, block)
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dim, err)
		}
	}
	return r, nil
}

// writeRegion stores a region as a new world of the given kind.
func writeRegion(r *chunkstore.Region, path, kind string) error {
	switch kind {
	case "", StoreChunk:
		return r.WriteWorld(path)
	case StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", kind, StoreChunk, StoreSQLite)
	}
	ver, err := world.ParseGameVersion(r.Version)
	if err != nil {
		return err
	}
	s, err := sqlitestore.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, id := range r.IDs() {
		g := r.Chunks[id]
		ox, oy, oz := id.Coord.Origin()
		for y := 0; y < chunk.Size; y++ {
			for x := 0; x < chunk.Size; x++ {
				for z := 0; z < chunk.Size; z++ {
					v := g.At(x, y, z)
					if v == 0 {
						continue
					}
					if err := s.SetBlock(ox+x, oy+y, oz+z, id.Dim, ver, r.Blocks[v-1]); err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
				}
			}
		}
	}
	return s.Persist()
}
