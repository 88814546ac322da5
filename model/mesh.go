// Package model holds the triangle meshes a conversion consumes: loading them
// from model files, resolving their per-vertex colors and sampling them onto
// a cubic lattice.
package model

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl64"
)

// Errors reported while loading or sampling meshes.
var (
	// ErrInvalidPitch rejects a lattice pitch that is not a finite positive number.
	ErrInvalidPitch = errors.New("pitch must be a positive number")
	// ErrEmptyMesh is returned by Validate for a mesh without vertices.
	ErrEmptyMesh = errors.New("mesh has no vertices")
	// ErrUnknownModel is returned by FileSource for an unrecognized extension.
	ErrUnknownModel = errors.New("unknown model format")
)

// Geometry is anything a Source can produce. Only *Mesh and Scene can be
// converted; other implementations are reported as unsupported.
type Geometry interface {
	Kind() string
}

// Source loads geometry on demand.
type Source interface {
	Load(ctx context.Context) (Geometry, error)
}

// Mesh is a triangle mesh with a color per vertex. Colors may be absent until
// ResolveColors has run, in which case UVs/Texture/BaseColor describe the
// surface appearance instead.
type Mesh struct {
	Name     string
	Vertices []mgl64.Vec3
	Colors   []Color
	Faces    [][3]uint32

	UVs       [][2]float32
	Texture   image.Image
	BaseColor *Color
}

func (m *Mesh) Kind() string { return "mesh" }

// Scene is an ordered collection of meshes loaded from one file.
type Scene []*Mesh

func (s Scene) Kind() string { return "scene" }

// PointCloud is geometry without faces. It loads fine but cannot be voxelized
// as a surface.
type PointCloud struct {
	Name     string
	Vertices []mgl64.Vec3
	Colors   []Color
}

func (p *PointCloud) Kind() string { return "pointcloud" }

// HasColors reports whether every vertex carries a color.
func (m *Mesh) HasColors() bool {
	return len(m.Vertices) > 0 && len(m.Colors) == len(m.Vertices)
}

// Bounds returns the axis aligned bounding box of the vertices.
func (m *Mesh) Bounds() (lo, hi mgl64.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v[i])
			hi[i] = max(hi[i], v[i])
		}
	}
	return lo, hi
}

// Validate checks the structural invariants of the mesh.
func (m *Mesh) Validate() error {
	if len(m.Vertices) == 0 {
		return ErrEmptyMesh
	}
	if len(m.Colors) != 0 && len(m.Colors) != len(m.Vertices) {
		return fmt.Errorf("mesh %q: %d colors for %d vertices", m.Name, len(m.Colors), len(m.Vertices))
	}
	if len(m.UVs) != 0 && len(m.UVs) != len(m.Vertices) {
		return fmt.Errorf("mesh %q: %d uvs for %d vertices", m.Name, len(m.UVs), len(m.Vertices))
	}
	n := uint32(len(m.Vertices))
	for i, f := range m.Faces {
		if f[0] >= n || f[1] >= n || f[2] >= n {
			return fmt.Errorf("mesh %q: face %d references a missing vertex", m.Name, i)
		}
	}
	return nil
}

// Meshes flattens a geometry into the meshes a conversion processes.
// ok is false for geometry that is neither a mesh nor a scene.
func Meshes(g Geometry) (meshes []*Mesh, ok bool) {
	switch v := g.(type) {
	case *Mesh:
		if v == nil {
			return nil, false
		}
		return []*Mesh{v}, true
	case Scene:
		return []*Mesh(v), true
	default:
		return nil, false
	}
}
