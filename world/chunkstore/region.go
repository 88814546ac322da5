package chunkstore

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/world"
)

// glassAlpha is the preview opacity of translucent blocks.
const glassAlpha = 128

// ChunkID names a chunk of a dimension.
type ChunkID struct {
	Dim   world.Dimension
	Coord chunk.Coord
}

// String returns "<dimension>/<x>.<y>.<z>", the pack entry name.
func (id ChunkID) String() string {
	return fmt.Sprintf("%s/%d.%d.%d", id.Dim, id.Coord.X, id.Coord.Y, id.Coord.Z)
}

// ParseChunkID reverses ChunkID.String.
func ParseChunkID(s string) (ChunkID, error) {
	dim, rest, ok := strings.Cut(s, "/")
	if !ok || dim == "" {
		return ChunkID{}, fmt.Errorf("chunk name %q: want <dimension>/<x>.<y>.<z>", s)
	}
	c, ok := parseChunkName(rest + chunkExt)
	if !ok {
		return ChunkID{}, fmt.Errorf("chunk name %q: want <dimension>/<x>.<y>.<z>", s)
	}
	return ChunkID{Dim: world.Dimension(dim), Coord: c}, nil
}

func compareIDs(a, b ChunkID) int {
	if c := cmp.Compare(a.Dim, b.Dim); c != 0 {
		return c
	}
	return cmp.Compare(a.Coord.Key(), b.Coord.Key())
}

// Region is a set of chunks that share one block palette. It is how worlds
// travel as packs and how they are previewed.
type Region struct {
	Version string
	Blocks  []string
	Chunks  map[ChunkID]*chunk.Grid

	values map[string]uint8
}

type regionMeta struct {
	Version string   `yaml:"version"`
	Blocks  []string `yaml:"blocks"`
}

// NewRegion returns an empty region for ver.
func NewRegion(ver world.GameVersion) *Region {
	return &Region{Version: ver.String(), Chunks: make(map[ChunkID]*chunk.Grid)}
}

// RegionFromPlacements replays placements in order; later ones win.
func RegionFromPlacements(ver world.GameVersion, ps []world.Placement) (*Region, error) {
	r := NewRegion(ver)
	for _, p := range ps {
		if err := r.Set(p.Dimension, p.X, p.Y, p.Z, p.Block); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Set places block, adding it to the region palette when needed.
func (r *Region) Set(dim world.Dimension, x, y, z int, block string) error {
	v, err := r.value(block)
	if err != nil {
		return err
	}
	c, lx, ly, lz := chunk.Split(x, y, z)
	id := ChunkID{dim, c}
	g, ok := r.Chunks[id]
	if !ok {
		g = new(chunk.Grid)
		r.Chunks[id] = g
	}
	g.Set(lx, ly, lz, v)
	return nil
}

func (r *Region) value(block string) (uint8, error) {
	if r.values == nil {
		r.values = make(map[string]uint8, len(r.Blocks))
		for i, b := range r.Blocks {
			r.values[b] = uint8(i + 1)
		}
	}
	if v, ok := r.values[block]; ok {
		return v, nil
	}
	if _, ok := palette.Lookup(block); !ok {
		return 0, fmt.Errorf("%w: %s", world.ErrUnknownBlock, block)
	}
	if len(r.Blocks) >= maxBlocks {
		return 0, fmt.Errorf("%w: region palette is full (%d blocks)", world.ErrUnknownBlock, maxBlocks)
	}
	r.Blocks = append(r.Blocks, block)
	v := uint8(len(r.Blocks))
	r.values[block] = v
	return v, nil
}

// IDs returns the chunk ids sorted by dimension, then Morton key.
func (r *Region) IDs() []ChunkID {
	ids := make([]ChunkID, 0, len(r.Chunks))
	for id := range r.Chunks {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareIDs)
	return ids
}

// BlockCount counts non-air cells.
func (r *Region) BlockCount() int {
	n := 0
	for _, g := range r.Chunks {
		n += g.Count()
	}
	return n
}

// Pack encodes the region as a chunk pack. Empty chunks are skipped.
func (r *Region) Pack(layout chunk.PackLayout, comp chunk.PackCompression) ([]byte, error) {
	meta, err := yaml.Marshal(regionMeta{Version: r.Version, Blocks: r.Blocks})
	if err != nil {
		return nil, err
	}
	p := chunk.Pack{Header: chunk.PackHeader{BPP: BPP}, Meta: meta}
	for _, id := range r.IDs() {
		g := r.Chunks[id]
		if g.Empty() {
			continue
		}
		data, err := chunk.Marshal(g, BPP, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		if err := p.Add(id.String(), data); err != nil {
			return nil, err
		}
	}
	return p.Marshal(layout, comp)
}

// UnpackRegion decodes a pack written by Region.Pack.
func UnpackRegion(data []byte) (*Region, error) {
	p, _, err := chunk.UnmarshalPack(data)
	if err != nil {
		return nil, err
	}
	var meta regionMeta
	if err := yaml.Unmarshal(p.Meta, &meta); err != nil {
		return nil, fmt.Errorf("%w: pack palette: %w", chunk.ErrFormat, err)
	}
	r := &Region{Version: meta.Version, Blocks: meta.Blocks, Chunks: make(map[ChunkID]*chunk.Grid, len(p.Entries))}
	for i, e := range p.Entries {
		id, err := ParseChunkID(e.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", chunk.ErrFormat, err)
		}
		g, err := p.Grid(i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		if int(g.MaxIndex()) > len(r.Blocks) {
			return nil, fmt.Errorf("%w: %s uses value %d, palette has %d", chunk.ErrFormat, e.Name, g.MaxIndex(), len(r.Blocks))
		}
		r.Chunks[id] = g
	}
	return r, nil
}

// Region reads every persisted chunk of the world.
func (s *Store) Region() (*Region, error) {
	if s.closed {
		return nil, world.ErrClosed
	}
	m := s.Manifest()
	r := &Region{Version: m.Version, Blocks: m.Blocks, Chunks: make(map[ChunkID]*chunk.Grid)}
	for _, dim := range m.Dimensions {
		cs, err := s.Chunks(dim)
		if err != nil {
			return nil, err
		}
		for _, c := range cs {
			g, err := s.Grid(dim, c)
			if err != nil {
				return nil, err
			}
			r.Chunks[ChunkID{dim, c}] = g
		}
	}
	return r, nil
}

// WriteWorld creates a world in dir holding the region.
func (r *Region) WriteWorld(dir string) error {
	m := Manifest{
		Format:     formatV1,
		Version:    r.Version,
		Dimensions: slices.Clone(world.DefaultDimensions),
		Blocks:     slices.Clone(r.Blocks),
	}
	for _, id := range r.IDs() {
		if !world.HasDimension(m.Dimensions, id.Dim) {
			m.Dimensions = append(m.Dimensions, id.Dim)
		}
	}
	s, err := CreateWithManifest(dir, m)
	if err != nil {
		return err
	}
	defer s.Close()
	for _, id := range r.IDs() {
		if err := s.PutGrid(id.Dim, id.Coord, r.Chunks[id]); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return s.Persist()
}

// Meshes builds a greedy preview mesh per chunk of dim, or of every
// dimension when dim is empty. Vertices are in world block units and take
// the reference color of their block.
func (r *Region) Meshes(dim world.Dimension) ([]*model.Mesh, error) {
	colors := make([]model.Color, len(r.Blocks)+1)
	for i, b := range r.Blocks {
		e, ok := palette.Lookup(b)
		if !ok {
			return nil, fmt.Errorf("%w: %s", world.ErrUnknownBlock, b)
		}
		c := model.RGBA(e.RGB[0], e.RGB[1], e.RGB[2], 255)
		if e.Category.Translucent() {
			c.A = glassAlpha
		}
		colors[i+1] = c
	}
	var out []*model.Mesh
	for _, id := range r.IDs() {
		if dim != "" && id.Dim != dim {
			continue
		}
		gm := chunk.GreedyMesh(r.Chunks[id])
		if len(gm.Indices) == 0 {
			continue
		}
		ox, oy, oz := id.Coord.Origin()
		m := &model.Mesh{
			Name:     id.String(),
			Vertices: make([]mgl64.Vec3, len(gm.Vertices)),
			Colors:   make([]model.Color, len(gm.Vertices)),
			Faces:    make([][3]uint32, 0, len(gm.Indices)/3),
		}
		for i, v := range gm.Vertices {
			m.Vertices[i] = mgl64.Vec3{
				float64(ox) + float64(v.Position[0]),
				float64(oy) + float64(v.Position[1]),
				float64(oz) + float64(v.Position[2]),
			}
			m.Colors[i] = colors[v.Value]
		}
		for i := 0; i+2 < len(gm.Indices); i += 3 {
			m.Faces = append(m.Faces, [3]uint32{gm.Indices[i], gm.Indices[i+1], gm.Indices[i+2]})
		}
		out = append(out, m)
	}
	return out, nil
}
