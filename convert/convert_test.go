package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivans-11/Minecraftify/logging"
	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/transform"
	"github.com/Ivans-11/Minecraftify/world"
	"github.com/Ivans-11/Minecraftify/world/memstore"
)

func unitBox(name string, c model.Color) *model.Mesh {
	m := &model.Mesh{Name: name}
	for i := 0; i < 8; i++ {
		m.Vertices = append(m.Vertices, mgl64.Vec3{float64(i & 1), float64(i >> 1 & 1), float64(i >> 2 & 1)})
		m.Colors = append(m.Colors, c)
	}
	quads := [][4]uint32{
		{0, 2, 3, 1}, {4, 5, 7, 6},
		{0, 1, 5, 4}, {2, 6, 7, 3},
		{0, 4, 6, 2}, {1, 3, 7, 5},
	}
	for _, q := range quads {
		m.Faces = append(m.Faces, [3]uint32{q[0], q[1], q[2]}, [3]uint32{q[0], q[2], q[3]})
	}
	return m
}

// dot is a degenerate mesh whose only voxel point is p.
func dot(p mgl64.Vec3, c model.Color) *model.Mesh {
	return &model.Mesh{
		Name:     "dot",
		Vertices: []mgl64.Vec3{p, p, p},
		Colors:   []model.Color{c, c, c},
		Faces:    [][3]uint32{{0, 1, 2}},
	}
}

func testOptions() Options {
	o := DefaultOptions()
	o.Start = mgl64.Vec3{}
	o.Logger = logging.Discard()
	return o
}

type countingSource struct {
	g     model.Geometry
	loads int
}

func (s *countingSource) Load(ctx context.Context) (model.Geometry, error) {
	s.loads++
	return s.g, ctx.Err()
}

func blockSet(ps []world.Placement) map[string]int {
	out := make(map[string]int)
	for _, p := range ps {
		out[p.Block]++
	}
	return out
}

func TestOpaqueRedCube(t *testing.T) {
	store := memstore.New()
	rep, err := Convert(context.Background(), model.Loaded{Geometry: unitBox("cube", model.RGBA(255, 0, 0, 255))}, store.Opener(), "w", testOptions())
	require.NoError(t, err)

	ps := store.Persisted()
	require.Len(t, ps, 8)
	assert.Equal(t, map[string]int{"minecraft:orange_concrete": 8}, blockSet(ps))
	seen := make(map[[3]int]bool)
	for _, p := range ps {
		assert.Equal(t, world.Overworld, p.Dimension)
		assert.Equal(t, world.DefaultVersion, p.Version)
		seen[[3]int{p.X, p.Y, p.Z}] = true
	}
	assert.Len(t, seen, 8)
	assert.True(t, seen[[3]int{1, 1, 1}])
	assert.Equal(t, []int{8}, store.Persists())
	assert.Equal(t, 1, store.Closes)

	require.Len(t, rep.Meshes, 1)
	assert.Equal(t, 8, rep.Meshes[0].Points)
	assert.Equal(t, 8, rep.Placed())
	assert.True(t, rep.Meshes[0].Persisted)
	assert.Equal(t, palette.WithGlass, rep.Strategy)
	assert.Equal(t, world.Overworld, rep.Dimension)
}

func TestTranslucentRedCube(t *testing.T) {
	store := memstore.New()
	_, err := Convert(context.Background(), model.Loaded{Geometry: unitBox("cube", model.RGBA(255, 0, 0, 100))}, store.Opener(), "w", testOptions())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"minecraft:red_stained_glass": 8}, blockSet(store.Persisted()))
}

func TestRotatedPoint(t *testing.T) {
	store := memstore.New()
	opts := testOptions()
	opts.Rotation = transform.Rotation{Y: 90}
	_, err := ConvertGeometry(context.Background(), dot(mgl64.Vec3{1, 0, 0}, model.RGBA(255, 255, 255, 255)), store.Opener(), "w", opts)
	require.NoError(t, err)
	ps := store.Persisted()
	require.Len(t, ps, 1)
	assert.Equal(t, [3]int{0, 0, -1}, [3]int{ps[0].X, ps[0].Y, ps[0].Z})
}

func TestDefaultStartOffsetsY(t *testing.T) {
	store := memstore.New()
	opts := DefaultOptions()
	opts.Logger = logging.Discard()
	_, err := ConvertGeometry(context.Background(), dot(mgl64.Vec3{}, model.DefaultColor), store.Opener(), "w", opts)
	require.NoError(t, err)
	ps := store.Persisted()
	require.Len(t, ps, 1)
	assert.Equal(t, -60, ps[0].Y)
	assert.Equal(t, "minecraft:cyan_terracotta", ps[0].Block)
}

func TestOutputOrderIsStable(t *testing.T) {
	run := func(workers, batch int) []world.Placement {
		store := memstore.New()
		opts := testOptions()
		opts.Workers = workers
		opts.BatchSize = batch
		opts.QueueSize = 1
		opts.Pitch = 0.25
		scene := model.Scene{unitBox("a", model.RGBA(0, 0, 255, 255)), unitBox("b", model.RGBA(20, 200, 20, 150))}
		_, err := ConvertGeometry(context.Background(), scene, store.Opener(), "w", opts)
		require.NoError(t, err)
		return store.Placements()
	}
	want := run(1, 1<<20)
	require.NotEmpty(t, want)
	assert.Equal(t, want, run(8, 1))
	assert.Equal(t, want, run(3, 7))
}

func TestScenePersistsPerMesh(t *testing.T) {
	store := memstore.New()
	scene := model.Scene{
		unitBox("a", model.RGBA(255, 0, 0, 255)),
		{Name: "empty"},
		unitBox("b", model.RGBA(0, 0, 255, 255)),
	}
	rep, err := ConvertGeometry(context.Background(), scene, store.Opener(), "w", testOptions())
	require.NoError(t, err)
	assert.Equal(t, []int{8, 8, 16}, store.Persists())
	require.Len(t, rep.Meshes, 3)
	assert.Equal(t, 0, rep.Meshes[1].Points)
	assert.Equal(t, 3, rep.PersistedMeshes())
}

func TestInvalidPitchRejectedBeforeLoad(t *testing.T) {
	for _, pitch := range []float64{0, -1} {
		src := &countingSource{g: unitBox("cube", model.DefaultColor)}
		store := memstore.New()
		opts := testOptions()
		opts.Pitch = pitch
		_, err := Convert(context.Background(), src, store.Opener(), "w", opts)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Zero(t, src.loads)
		assert.Zero(t, store.Closes)
	}
}

func TestNoCategoriesRejectedBeforeLoad(t *testing.T) {
	src := &countingSource{g: unitBox("cube", model.DefaultColor)}
	opts := testOptions()
	opts.Selection = palette.Selection{}
	_, err := Convert(context.Background(), src, memstore.New().Opener(), "w", opts)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, src.loads)
}

func TestUnsupportedGeometryRejectedBeforeOpen(t *testing.T) {
	opened := false
	open := func(string) (world.Sink, error) {
		opened = true
		return memstore.New(), nil
	}
	cloud := &model.PointCloud{Vertices: []mgl64.Vec3{{0, 0, 0}}}
	_, err := Convert(context.Background(), model.Loaded{Geometry: cloud}, open, "w", testOptions())
	assert.ErrorIs(t, err, ErrUnsupportedMesh)

	broken := &model.Mesh{Vertices: []mgl64.Vec3{{0, 0, 0}}, Faces: [][3]uint32{{0, 1, 2}}}
	_, err = Convert(context.Background(), model.Loaded{Geometry: broken}, open, "w", testOptions())
	assert.ErrorIs(t, err, ErrUnsupportedMesh)

	_, err = Convert(context.Background(), model.FileSource{Path: "model.stl"}, open, "w", testOptions())
	assert.ErrorIs(t, err, ErrUnsupportedMesh)
	assert.False(t, opened)
}

func TestLoadFailure(t *testing.T) {
	_, err := Convert(context.Background(), model.FileSource{Path: filepath.Join(t.TempDir(), "missing.obj")}, memstore.New().Opener(), "w", testOptions())
	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromOBJFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.obj")
	obj := "v 0 0 0 1 0 0\nv 1 0 0 1 0 0\nv 0 1 0 1 0 0\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(path, []byte(obj), 0o644))
	store := memstore.New()
	_, err := Convert(context.Background(), model.FileSource{Path: path}, store.Opener(), "w", testOptions())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"minecraft:orange_concrete": 3}, blockSet(store.Persisted()))
}

func TestOpenFailure(t *testing.T) {
	cause := errors.New("locked by another process")
	open := func(string) (world.Sink, error) { return nil, cause }
	_, err := Convert(context.Background(), model.Loaded{Geometry: unitBox("cube", model.DefaultColor)}, open, "w", testOptions())
	assert.ErrorIs(t, err, ErrWorldOpen)
	assert.ErrorIs(t, err, cause)
}

func TestUnknownDimension(t *testing.T) {
	store := memstore.New()
	opts := testOptions()
	opts.Dimension = "aether"
	_, err := ConvertGeometry(context.Background(), unitBox("cube", model.DefaultColor), store.Opener(), "w", opts)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 1, store.Closes)
}

func TestWriteFailureStillCloses(t *testing.T) {
	store := memstore.New()
	store.FailAfter = 3
	rep, err := ConvertGeometry(context.Background(), unitBox("cube", model.DefaultColor), store.Opener(), "w", testOptions())
	assert.ErrorIs(t, err, ErrWrite)
	assert.Equal(t, 1, store.Closes)
	assert.Empty(t, store.Persists())
	require.Len(t, rep.Meshes, 1)
	assert.Equal(t, 2, rep.Meshes[0].Placed)
	assert.False(t, rep.Meshes[0].Persisted)
	assert.ErrorIs(t, rep.Meshes[0].Err, ErrWrite)
}

func TestFailureKeepsEarlierMeshes(t *testing.T) {
	store := memstore.New()
	store.FailAfter = 10
	scene := model.Scene{unitBox("a", model.DefaultColor), unitBox("b", model.DefaultColor), unitBox("c", model.DefaultColor)}
	rep, err := ConvertGeometry(context.Background(), scene, store.Opener(), "w", testOptions())
	assert.ErrorIs(t, err, ErrWrite)
	assert.Len(t, store.Persisted(), 8)
	assert.Len(t, rep.Meshes, 2, "the third mesh is never started")
	assert.Equal(t, 1, store.Closes)
}

func TestOutOfBoundsIsWriteError(t *testing.T) {
	store := memstore.New()
	opts := testOptions()
	opts.Start = mgl64.Vec3{0, -200, 0}
	_, err := ConvertGeometry(context.Background(), unitBox("cube", model.DefaultColor), store.Opener(), "w", opts)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, world.ErrOutOfBounds)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := memstore.New()
	opts := testOptions()
	opts.BatchSize = 1
	opts.Workers = 2
	opts.Progress = func(stage, stages, step, steps int) {
		if step > 0 {
			cancel()
		}
	}
	rep, err := ConvertGeometry(ctx, unitBox("cube", model.DefaultColor), store.Opener(), "w", opts)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.Persists())
	assert.Equal(t, 1, store.Closes)
	require.Len(t, rep.Meshes, 1)
	assert.Less(t, rep.Meshes[0].Placed, 8)
}

func TestCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &countingSource{g: unitBox("cube", model.DefaultColor)}
	store := memstore.New()
	_, err := Convert(ctx, src, store.Opener(), "w", testOptions())
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Zero(t, src.loads)
	assert.Zero(t, store.Closes)
}

func TestProgressIsMonotonic(t *testing.T) {
	var seen []float64
	opts := testOptions()
	opts.BatchSize = 3
	opts.Progress = func(stage, stages, step, steps int) {
		seen = append(seen, Percent(stage, stages, step, steps))
	}
	scene := model.Scene{unitBox("a", model.DefaultColor), unitBox("b", model.DefaultColor)}
	_, err := ConvertGeometry(context.Background(), scene, memstore.New().Opener(), "w", opts)
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 100.0, seen[len(seen)-1])
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(0, 2, 0, 10))
	assert.Equal(t, 25.0, Percent(0, 2, 5, 10))
	assert.Equal(t, 50.0, Percent(1, 2, 0, 0))
	assert.Equal(t, 100.0, Percent(1, 2, 10, 10))
	assert.Equal(t, 100.0, Percent(0, 0, 0, 0))
}
