package api

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivans-11/Minecraftify/chunk"
	"github.com/Ivans-11/Minecraftify/convert"
	"github.com/Ivans-11/Minecraftify/logging"
	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/world"
)

func cubeGLB(t *testing.T, c model.Color) []byte {
	t.Helper()
	m := &model.Mesh{Name: "cube"}
	for i := 0; i < 8; i++ {
		m.Vertices = append(m.Vertices, mgl64.Vec3{float64(i & 1), float64(i >> 1 & 1), float64(i >> 2 & 1)})
		m.Colors = append(m.Colors, c)
	}
	for _, q := range [][4]uint32{{0, 2, 3, 1}, {4, 5, 7, 6}, {0, 1, 5, 4}, {2, 6, 7, 3}, {0, 4, 6, 2}, {1, 3, 7, 5}} {
		m.Faces = append(m.Faces, [3]uint32{q[0], q[1], q[2]}, [3]uint32{q[0], q[2], q[3]})
	}
	glb, err := model.EncodeGLB([]*model.Mesh{m}, "test")
	require.NoError(t, err)
	return glb
}

func options() convert.Options {
	o := convert.DefaultOptions()
	o.Logger = logging.Discard()
	return o
}

func TestConvertGLB(t *testing.T) {
	pack, rep, err := ConvertGLB(context.Background(), cubeGLB(t, model.RGBA(255, 0, 0, 255)), options())
	require.NoError(t, err)
	assert.Equal(t, 8, rep.Placed())

	info, err := InspectPack(pack)
	require.NoError(t, err)
	assert.Equal(t, chunk.PackCompZstd, info.Compression)
	assert.Equal(t, world.DefaultVersion.String(), info.Version)
	assert.Equal(t, map[string]int{"minecraft:orange_concrete": 8}, info.Counts)
	assert.Equal(t, []world.Dimension{world.Overworld}, info.Dimensions())
	assert.Equal(t, 1, info.Chunks[world.Overworld])
}

func TestConvertGLBErrors(t *testing.T) {
	_, _, err := ConvertGLB(context.Background(), []byte("not a glb"), options())
	assert.ErrorIs(t, err, convert.ErrLoad)

	opts := options()
	opts.Pitch = 0
	_, _, err = ConvertGLB(context.Background(), cubeGLB(t, model.DefaultColor), opts)
	assert.ErrorIs(t, err, convert.ErrConfiguration)
}

func TestPackToGLB(t *testing.T) {
	pack, _, err := ConvertGLB(context.Background(), cubeGLB(t, model.RGBA(255, 0, 0, 100)), options())
	require.NoError(t, err)

	glb, err := PackToGLB(pack, "")
	require.NoError(t, err)
	g, err := model.DecodeGLTF(glb)
	require.NoError(t, err)
	m, ok := g.(*model.Mesh)
	require.True(t, ok, "got %T", g)
	assert.Len(t, m.Faces, 12, "a 2x2x2 block of one kind meshes to six quads")
	lo, hi := m.Bounds()
	assert.Equal(t, mgl64.Vec3{0, -60, 0}, lo)
	assert.Equal(t, mgl64.Vec3{2, -58, 2}, hi)
	assert.Less(t, m.Colors[0].A, uint8(255))

	glb, err = PackToGLB(pack, world.Nether)
	require.NoError(t, err)
	g, err = model.DecodeGLTF(glb)
	require.NoError(t, err)
	meshes, _ := model.Meshes(g)
	assert.Empty(t, meshes)
}

func TestRepack(t *testing.T) {
	pack, _, err := ConvertGLB(context.Background(), cubeGLB(t, model.DefaultColor), options())
	require.NoError(t, err)
	for _, comp := range []chunk.PackCompression{chunk.PackCompNone, chunk.PackCompZlib} {
		out, err := Repack(pack, chunk.LayoutCDC, comp)
		require.NoError(t, err)
		a, err := InspectPack(pack)
		require.NoError(t, err)
		b, err := InspectPack(out)
		require.NoError(t, err)
		assert.Equal(t, comp, b.Compression)
		assert.Equal(t, a.Counts, b.Counts)
	}
}
