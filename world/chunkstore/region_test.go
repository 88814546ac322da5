package chunkstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/world"
)

func sampleRegion(t *testing.T) *Region {
	t.Helper()
	ps := []world.Placement{
		{X: 0, Y: -60, Z: 0, Dimension: world.Overworld, Block: "minecraft:red_wool"},
		{X: 1, Y: -60, Z: 0, Dimension: world.Overworld, Block: "minecraft:red_wool"},
		{X: 17, Y: -60, Z: 0, Dimension: world.Overworld, Block: "minecraft:white_stained_glass"},
		{X: 0, Y: -60, Z: 0, Dimension: world.Overworld, Block: "minecraft:black_concrete"},
		{X: 3, Y: 70, Z: 3, Dimension: world.Nether, Block: "minecraft:white_terracotta"},
	}
	r, err := RegionFromPlacements(world.DefaultVersion, ps)
	require.NoError(t, err)
	return r
}

func TestChunkIDRoundTrip(t *testing.T) {
	id := ChunkID{Dim: world.Nether, Coord: chunk.Coord{X: -1, Y: 4, Z: 12}}
	assert.Equal(t, "nether/-1.4.12", id.String())
	got, err := ParseChunkID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, bad := range []string{"", "nether", "/1.2.3", "nether/1.2", "nether/a.b.c"} {
		_, err := ParseChunkID(bad)
		assert.Error(t, err, bad)
	}
}

func TestRegionFromPlacements(t *testing.T) {
	r := sampleRegion(t)
	assert.Equal(t, 4, r.BlockCount(), "the overwritten cell counts once")
	assert.Equal(t, []string{"minecraft:red_wool", "minecraft:white_stained_glass", "minecraft:black_concrete", "minecraft:white_terracotta"}, r.Blocks)
	assert.Len(t, r.IDs(), 3)
	assert.Equal(t, world.Nether, r.IDs()[0].Dim)

	g := r.Chunks[ChunkID{world.Overworld, chunk.Coord{X: 0, Y: -4, Z: 0}}]
	require.NotNil(t, g)
	assert.Equal(t, uint8(3), g.At(0, 4, 0))

	err := r.Set(world.Overworld, 0, 0, 0, "minecraft:stone")
	assert.ErrorIs(t, err, world.ErrUnknownBlock)
}

func TestRegionPackRoundTrip(t *testing.T) {
	r := sampleRegion(t)
	data, err := r.Pack(chunk.LayoutCDC, chunk.PackCompZstd)
	require.NoError(t, err)

	got, err := UnpackRegion(data)
	require.NoError(t, err)
	assert.Equal(t, r.Version, got.Version)
	assert.Equal(t, r.Blocks, got.Blocks)
	require.Len(t, got.Chunks, len(r.Chunks))
	for id, g := range r.Chunks {
		assert.Equal(t, *g, *got.Chunks[id], id.String())
	}

	_, err = UnpackRegion([]byte("garbage"))
	assert.ErrorIs(t, err, chunk.ErrFormat)
}

func TestRegionWorldRoundTrip(t *testing.T) {
	r := sampleRegion(t)
	dir := filepath.Join(t.TempDir(), "w")
	require.NoError(t, r.WriteWorld(dir))

	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()
	b, ok, err := s.Block(world.Overworld, 17, -60, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "minecraft:white_stained_glass", b)

	back, err := s.Region()
	require.NoError(t, err)
	assert.Equal(t, r.Blocks, back.Blocks)
	assert.Equal(t, r.BlockCount(), back.BlockCount())

	assert.Error(t, r.WriteWorld(dir), "refuses to overwrite")
}

func TestRegionMeshes(t *testing.T) {
	r := sampleRegion(t)
	all, err := r.Meshes("")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	nether, err := r.Meshes(world.Nether)
	require.NoError(t, err)
	require.Len(t, nether, 1)
	m := nether[0]
	assert.Equal(t, "nether/0.4.0", m.Name)
	assert.Len(t, m.Faces, 12)
	lo, hi := m.Bounds()
	assert.Equal(t, [3]float64{3, 70, 3}, [3]float64(lo))
	assert.Equal(t, [3]float64{4, 71, 4}, [3]float64(hi))
	for _, c := range m.Colors {
		assert.Equal(t, uint8(255), c.A)
	}

	over, err := r.Meshes(world.Overworld)
	require.NoError(t, err)
	translucent := false
	for _, m := range over {
		for _, c := range m.Colors {
			translucent = translucent || c.A == glassAlpha
		}
	}
	assert.True(t, translucent, "glass previews translucent")
}
