package convert

import (
	"time"

	"github.com/Ivans-11/Minecraftify/palette"
	"github.com/Ivans-11/Minecraftify/world"
)

// MeshReport is the outcome of one mesh.
type MeshReport struct {
	Name string
	// Points is the number of voxel points the mesh produced.
	Points int
	// Placed counts successful SetBlock calls.
	Placed    int
	Persisted bool
	// Blocks counts placements per block identifier.
	Blocks  map[string]int
	Elapsed time.Duration
	Err     error
}

// Report summarises a conversion. Meshes holds one entry per mesh that was
// started, in scene order.
type Report struct {
	Dimension world.Dimension
	Strategy  palette.Strategy
	Meshes    []MeshReport
}

// Placed sums placements over all meshes.
func (r Report) Placed() int {
	n := 0
	for _, m := range r.Meshes {
		n += m.Placed
	}
	return n
}

// PersistedMeshes counts meshes whose writes reached the world.
func (r Report) PersistedMeshes() int {
	n := 0
	for _, m := range r.Meshes {
		if m.Persisted {
			n++
		}
	}
	return n
}

// Blocks merges the per-mesh block counts.
func (r Report) Blocks() map[string]int {
	out := make(map[string]int)
	for _, m := range r.Meshes {
		for b, n := range m.Blocks {
			out[b] += n
		}
	}
	return out
}
