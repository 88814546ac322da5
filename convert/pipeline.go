// Package convert turns triangle meshes into Minecraft block placements.
//
// A conversion validates its options, loads the model, opens the world and
// then handles each mesh in order: colors are resolved, the surface is
// voxelized, every voxel point takes the color of the nearest mesh vertex,
// the color is matched to a block and the point is rotated, scaled and
// offset into world coordinates. Matching runs on a bounded worker pool;
// a single writer applies the results in voxel order and persists the world
// once per mesh. The world is closed on every path once it was opened.
package convert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/errgroup"

	"github.com/Ivans-11/Minecraftify/colorindex"
	"github.com/Ivans-11/Minecraftify/logging"
	"github.com/Ivans-11/Minecraftify/model"
	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/transform"
	"github.com/Ivans-11/Minecraftify/world"
)

// Convert loads the model from src and writes it into the world that open
// returns for path.
func Convert(ctx context.Context, src model.Source, open world.Opener, path string, opts Options) (Report, error) {
	if err := opts.Validate(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, canceled(err)
	}
	lg := opts.logger()
	began := time.Now()
	g, err := src.Load(logging.WithContext(ctx, lg))
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return Report{}, canceled(err)
	case errors.Is(err, model.ErrUnknownModel):
		return Report{}, fmt.Errorf("%w: %w", ErrUnsupportedMesh, err)
	default:
		return Report{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	lg.Info("model loaded", "kind", kindOf(g), "elapsed", time.Since(began))
	return ConvertGeometry(ctx, g, open, path, opts)
}

// ConvertGeometry is Convert for geometry that is already in memory. Mesh
// colors are resolved in place.
func ConvertGeometry(ctx context.Context, g model.Geometry, open world.Opener, path string, opts Options) (rep Report, err error) {
	if err := opts.Validate(); err != nil {
		return rep, err
	}
	lg := opts.logger()

	meshes, ok := model.Meshes(g)
	if !ok {
		return rep, fmt.Errorf("%w: %s geometry has no surface to voxelize", ErrUnsupportedMesh, kindOf(g))
	}
	for i, m := range meshes {
		if m == nil {
			return rep, fmt.Errorf("%w: mesh %d is nil", ErrUnsupportedMesh, i)
		}
		if err := m.Validate(); err != nil && !errors.Is(err, model.ErrEmptyMesh) {
			return rep, fmt.Errorf("%w: %w", ErrUnsupportedMesh, err)
		}
	}
	matcher, err := palette.NewMatcher(opts.Selection)
	if err != nil {
		return rep, configErrorf("%v", err)
	}
	rep.Strategy = matcher.Strategy()
	if err := ctx.Err(); err != nil {
		return rep, canceled(err)
	}

	sink, err := open(path)
	if err != nil {
		return rep, fmt.Errorf("%w: %s: %w", ErrWorldOpen, path, err)
	}
	lg.Info("world opened", "path", path)
	defer func() {
		if cerr := sink.Close(); cerr != nil {
			lg.Error("closing world", "path", path, "err", cerr)
			if err == nil {
				err = fmt.Errorf("%w: close %s: %w", ErrWrite, path, cerr)
			}
			return
		}
		lg.Debug("world closed", "path", path)
	}()

	dim, err := pickDimension(sink.Dimensions(), opts.Dimension)
	if err != nil {
		return rep, err
	}
	rep.Dimension = dim

	c := &converter{
		opts:    opts,
		sink:    sink,
		matcher: matcher,
		tr:      transform.New(opts.Rotation, opts.Pitch, opts.Start),
		dim:     dim,
		lg:      lg,
	}
	lg.Info("converting",
		"meshes", len(meshes),
		"dimension", dim,
		"version", opts.Version,
		"strategy", rep.Strategy,
		"categories", opts.Selection,
		"pitch", opts.Pitch,
		"rotation", opts.Rotation,
		"start", fmt.Sprintf("(%g,%g,%g)", opts.Start[0], opts.Start[1], opts.Start[2]),
	)
	for i, m := range meshes {
		if err := ctx.Err(); err != nil {
			return rep, canceled(err)
		}
		mr, err := c.convertMesh(ctx, i, len(meshes), m)
		rep.Meshes = append(rep.Meshes, mr)
		if err != nil {
			lg.Error("mesh failed", "mesh", mr.Name, "err", err)
			return rep, err
		}
	}
	lg.Info("conversion finished", "meshes", len(rep.Meshes), "placed", rep.Placed())
	return rep, nil
}

func kindOf(g model.Geometry) string {
	if g == nil {
		return "empty"
	}
	return g.Kind()
}

func pickDimension(dims []world.Dimension, want world.Dimension) (world.Dimension, error) {
	if len(dims) == 0 {
		return "", fmt.Errorf("%w: world lists no dimensions", ErrWorldOpen)
	}
	if want == "" {
		return dims[0], nil
	}
	if !world.HasDimension(dims, want) {
		return "", configErrorf("world has no dimension %q (has %v)", want, dims)
	}
	return want, nil
}

type converter struct {
	opts    Options
	sink    world.Sink
	matcher *palette.Matcher
	tr      transform.Transformer
	dim     world.Dimension
	lg      *log.Logger
}

func (c *converter) convertMesh(ctx context.Context, stage, stages int, m *model.Mesh) (mr MeshReport, err error) {
	began := time.Now()
	mr.Name = m.Name
	mr.Blocks = make(map[string]int)
	defer func() {
		mr.Elapsed = time.Since(began)
		mr.Err = err
	}()
	lg := c.lg.With("mesh", m.Name)

	var points []mgl64.Vec3
	if len(m.Vertices) == 0 {
		lg.Warn("mesh has no vertices")
	} else {
		m.ResolveColors()
		vz := model.Voxelizer{Pitch: c.opts.Pitch, Fill: c.opts.Fill}
		points, err = vz.Voxelize(m)
		if err != nil {
			return mr, fmt.Errorf("%w: %s: %w", ErrUnsupportedMesh, m.Name, err)
		}
	}
	mr.Points = len(points)
	lg.Debug("voxelized", "points", len(points), "elapsed", time.Since(began))
	c.opts.progress(stage, stages, 0, len(points))

	if len(points) > 0 {
		idx, err := colorindex.FromMesh(m)
		if err != nil {
			return mr, fmt.Errorf("%w: %s: %w", ErrUnsupportedMesh, m.Name, err)
		}
		if err := c.write(ctx, stage, stages, idx, points, &mr); err != nil {
			return mr, err
		}
	}

	if err := c.sink.Persist(); err != nil {
		return mr, fmt.Errorf("%w: persist after mesh %q: %w", ErrWrite, m.Name, err)
	}
	mr.Persisted = true
	lg.Info("mesh written", "points", mr.Points, "placed", mr.Placed, "elapsed", time.Since(began))
	return mr, nil
}

// write matches points in batches on the worker pool and applies the
// results through the sink in point order. Batches are handed to the writer
// as futures on a bounded channel, so at most QueueSize batches are computed
// ahead of it.
func (c *converter) write(ctx context.Context, stage, stages int, idx *colorindex.Index, points []mgl64.Vec3, mr *MeshReport) error {
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, gctx := errgroup.WithContext(wctx)
	eg.SetLimit(c.opts.workers())
	size := c.opts.batchSize()
	futures := make(chan chan []world.Placement, c.opts.queueSize())

	go func() {
		defer close(futures)
		for lo := 0; lo < len(points); lo += size {
			if gctx.Err() != nil {
				return
			}
			batch := points[lo:min(lo+size, len(points))]
			fut := make(chan []world.Placement, 1)
			select {
			case futures <- fut:
			case <-gctx.Done():
				return
			}
			eg.Go(func() error {
				out, err := c.match(gctx, idx, batch)
				if err != nil {
					return err
				}
				fut <- out
				return nil
			})
		}
	}()

	var werr error
	written := 0
loop:
	for fut := range futures {
		var out []world.Placement
		select {
		case out = <-fut:
		case <-gctx.Done():
			break loop
		}
		for _, pl := range out {
			if err := ctx.Err(); err != nil {
				werr = canceled(err)
				break loop
			}
			if err := world.Place(c.sink, pl); err != nil {
				werr = fmt.Errorf("%w: mesh %q at %s: %w", ErrWrite, mr.Name, pl, err)
				break loop
			}
			mr.Placed++
			mr.Blocks[pl.Block]++
		}
		written += len(out)
		c.opts.progress(stage, stages, written, len(points))
	}

	// stop the dispatcher and wait until every worker it started is gone
	cancel()
	for range futures {
	}
	_ = eg.Wait()

	if werr == nil && written < len(points) {
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		werr = canceled(cause)
	}
	return werr
}

// match resolves a batch of voxel points into placements.
func (c *converter) match(ctx context.Context, idx *colorindex.Index, points []mgl64.Vec3) ([]world.Placement, error) {
	out := make([]world.Placement, len(points))
	for i, p := range points {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		xyz := c.tr.Apply(p)
		out[i] = world.Placement{
			X:         xyz[0],
			Y:         xyz[1],
			Z:         xyz[2],
			Dimension: c.dim,
			Version:   c.opts.Version,
			Block:     c.matcher.Match(idx.Nearest(p)),
		}
	}
	return out, nil
}
