package model

import (
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// maxSteps is the most half-pitch steps a triangle edge may span before
	// the triangle is bisected instead of sampled directly.
	maxSteps = 64
	// maxFillCells bounds the lattice volume the interior fill will walk.
	maxFillCells = 1 << 26
)

// Cell is an integer lattice coordinate; the cell's sample point is Cell*pitch.
type Cell [3]int

// Voxelizer samples a mesh surface onto a cubic lattice of edge Pitch whose
// origin is the mesh's local origin.
type Voxelizer struct {
	Pitch float64
	// Fill also emits cells enclosed by the surface.
	Fill bool
}

// Voxelize returns one point per occupied lattice cell, ordered by cell
// (x, then y, then z ascending).
func (m *Mesh) Voxelize(pitch float64) ([]mgl64.Vec3, error) {
	return Voxelizer{Pitch: pitch}.Voxelize(m)
}

// CheckPitch reports whether pitch can size a lattice.
func CheckPitch(pitch float64) error {
	if !(pitch > 0) || math.IsInf(pitch, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidPitch, pitch)
	}
	return nil
}

func (vz Voxelizer) Voxelize(m *Mesh) ([]mgl64.Vec3, error) {
	cells, err := vz.Cells(m)
	if err != nil {
		return nil, err
	}
	points := make([]mgl64.Vec3, len(cells))
	for i, c := range cells {
		points[i] = mgl64.Vec3{float64(c[0]) * vz.Pitch, float64(c[1]) * vz.Pitch, float64(c[2]) * vz.Pitch}
	}
	return points, nil
}

// Cells returns the sorted occupied lattice cells.
func (vz Voxelizer) Cells(m *Mesh) ([]Cell, error) {
	if err := CheckPitch(vz.Pitch); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	occupied := make(map[Cell]struct{}, len(m.Vertices))
	for _, v := range m.Vertices {
		occupied[vz.cell(v)] = struct{}{}
	}
	for i, f := range m.Faces {
		tri := triangle{m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]}
		if err := vz.sample(tri, occupied); err != nil {
			return nil, fmt.Errorf("mesh %q: face %d: %w", m.Name, i, err)
		}
	}
	if vz.Fill {
		if err := fillInterior(occupied); err != nil {
			return nil, err
		}
	}
	cells := make([]Cell, 0, len(occupied))
	for c := range occupied {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, compareCells)
	return cells, nil
}

type triangle [3]mgl64.Vec3

// sample marks every cell the triangle passes through. Triangles whose
// longest edge spans more than maxSteps half-pitch steps are split at the
// midpoint of that edge until each piece can be sampled on a grid finer
// than half a pitch.
func (vz Voxelizer) sample(tri triangle, occupied map[Cell]struct{}) error {
	for _, v := range tri {
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("non-finite vertex %v", v)
			}
		}
	}
	half := vz.Pitch / 2
	work := []triangle{tri}
	for len(work) > 0 {
		t := work[len(work)-1]
		work = work[:len(work)-1]

		longest, edge := 0, -1.0
		for k := 0; k < 3; k++ {
			if l := t[(k+1)%3].Sub(t[k]).Len(); l > edge {
				longest, edge = k, l
			}
		}
		n := int(math.Ceil(edge / half))
		if n > maxSteps {
			a, b, c := t[longest], t[(longest+1)%3], t[(longest+2)%3]
			mid := a.Add(b).Mul(0.5)
			work = append(work, triangle{a, mid, c}, triangle{mid, b, c})
			continue
		}
		if n < 1 {
			n = 1
		}
		a := t[0]
		ab, ac := t[1].Sub(a), t[2].Sub(a)
		inv := 1 / float64(n)
		for i := 0; i <= n; i++ {
			for j := 0; i+j <= n; j++ {
				p := a.Add(ab.Mul(float64(i) * inv)).Add(ac.Mul(float64(j) * inv))
				occupied[vz.cell(p)] = struct{}{}
			}
		}
	}
	return nil
}

func (vz Voxelizer) cell(v mgl64.Vec3) Cell {
	return Cell{
		int(math.Round(v[0] / vz.Pitch)),
		int(math.Round(v[1] / vz.Pitch)),
		int(math.Round(v[2] / vz.Pitch)),
	}
}

func compareCells(a, b Cell) int {
	for i := 0; i < 3; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// fillInterior marks every cell that cannot be reached from outside the
// bounding box without crossing an occupied cell.
func fillInterior(occupied map[Cell]struct{}) error {
	if len(occupied) == 0 {
		return nil
	}
	var lo, hi Cell
	first := true
	for c := range occupied {
		if first {
			lo, hi = c, c
			first = false
			continue
		}
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], c[i])
			hi[i] = max(hi[i], c[i])
		}
	}
	// one cell of padding so the outside is connected
	for i := 0; i < 3; i++ {
		lo[i]--
		hi[i]++
	}
	dx, dy, dz := hi[0]-lo[0]+1, hi[1]-lo[1]+1, hi[2]-lo[2]+1
	if dx*dy*dz > maxFillCells {
		return fmt.Errorf("fill: lattice of %dx%dx%d cells is too large", dx, dy, dz)
	}
	index := func(c Cell) int { return (c[0]-lo[0])*dy*dz + (c[1]-lo[1])*dz + (c[2] - lo[2]) }
	outside := make([]bool, dx*dy*dz)
	queue := []Cell{lo}
	outside[index(lo)] = true
	steps := [6]Cell{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, s := range steps {
			n := Cell{c[0] + s[0], c[1] + s[1], c[2] + s[2]}
			if n[0] < lo[0] || n[1] < lo[1] || n[2] < lo[2] || n[0] > hi[0] || n[1] > hi[1] || n[2] > hi[2] {
				continue
			}
			i := index(n)
			if outside[i] {
				continue
			}
			if _, ok := occupied[n]; ok {
				continue
			}
			outside[i] = true
			queue = append(queue, n)
		}
	}
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				c := Cell{x, y, z}
				if !outside[index(c)] {
					occupied[c] = struct{}{}
				}
			}
		}
	}
	return nil
}
