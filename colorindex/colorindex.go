// Package colorindex answers "what color is the mesh closest to this point"
// with a k-d tree over the mesh vertices.
package colorindex

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/Ivans-11/Minecraftify/model"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// ErrNoVertices is returned by New for an empty vertex list.
var ErrNoVertices = errors.New("color index needs at least one vertex")

// Index is immutable once built and safe for concurrent lookups.
type Index struct {
	tree   *kdtree.Tree
	colors []model.Color
}

// New indexes vertices; colors[i] belongs to vertices[i].
func New(vertices []mgl64.Vec3, colors []model.Color) (*Index, error) {
	if len(vertices) == 0 {
		return nil, ErrNoVertices
	}
	if len(colors) != len(vertices) {
		return nil, fmt.Errorf("color index: %d colors for %d vertices", len(colors), len(vertices))
	}
	pts := make(vertexList, len(vertices))
	for i, v := range vertices {
		pts[i] = vertex{pos: v, id: i}
	}
	return &Index{
		tree:   kdtree.New(pts, false),
		colors: append([]model.Color(nil), colors...),
	}, nil
}

// FromMesh indexes a mesh whose colors have been resolved.
func FromMesh(m *model.Mesh) (*Index, error) {
	return New(m.Vertices, m.Colors)
}

// Nearest returns the color of the vertex closest to p.
func (x *Index) Nearest(p mgl64.Vec3) model.Color {
	return x.colors[x.NearestVertex(p)]
}

// NearestVertex returns the position in the input slice of the vertex
// closest to p.
func (x *Index) NearestVertex(p mgl64.Vec3) int {
	c, _ := x.tree.Nearest(vertex{pos: p, id: -1})
	return c.(vertex).id
}

// Len is the number of indexed vertices.
func (x *Index) Len() int { return x.tree.Len() }

type vertex struct {
	pos mgl64.Vec3
	id  int
}

func (v vertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return v.pos[d] - c.(vertex).pos[d]
}

func (v vertex) Dims() int { return 3 }

// Distance is squared euclidean, as kdtree expects.
func (v vertex) Distance(c kdtree.Comparable) float64 {
	d := v.pos.Sub(c.(vertex).pos)
	return d.Dot(d)
}

type vertexList []vertex

func (l vertexList) Index(i int) kdtree.Comparable         { return l[i] }
func (l vertexList) Len() int                              { return len(l) }
func (l vertexList) Slice(start, end int) kdtree.Interface { return l[start:end] }

// Pivot sorts on the plane with the input position as a tie breaker so the
// tree shape depends only on the input, never on a random pivot.
func (l vertexList) Pivot(d kdtree.Dim) int {
	slices.SortFunc(l, func(a, b vertex) int {
		if c := cmp.Compare(a.pos[d], b.pos[d]); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	return len(l) / 2
}
