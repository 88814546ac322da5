package chunk

// Vertex is a mesh corner in chunk-local units carrying the palette index
// of the face it belongs to.
type Vertex struct {
	Position [3]float32
	Value    uint8
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

type dirSpec struct {
	normal [3]float32
	u, v   int
	du, dv [3]int
}

var directions = []dirSpec{
	{[3]float32{1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{-1, 0, 0}, 1, 2, [3]int{0, 1, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, -1, 0}, 0, 2, [3]int{1, 0, 0}, [3]int{0, 0, 1}},
	{[3]float32{0, 0, 1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
	{[3]float32{0, 0, -1}, 0, 1, [3]int{1, 0, 0}, [3]int{0, 1, 0}},
}

// cell reads by (x, y, z) and treats everything outside as air.
func cell(g *Grid, x, y, z int) uint8 {
	if x < 0 || x >= Size || y < 0 || y >= Size || z < 0 || z >= Size {
		return 0
	}
	return g[y][x][z]
}

func (m *Mesh) addQuad(dir dirSpec, start [3]int, w, h int, value uint8, perp int) {
	base := [3]float32{}
	base[perp] = float32(start[0])
	if dir.normal[perp] > 0 {
		base[perp]++
	}
	base[dir.u] = float32(start[1])
	base[dir.v] = float32(start[2])

	offset := func(a, b int) [3]float32 {
		return [3]float32{
			base[0] + float32(dir.du[0]*a+dir.dv[0]*b),
			base[1] + float32(dir.du[1]*a+dir.dv[1]*b),
			base[2] + float32(dir.du[2]*a+dir.dv[2]*b),
		}
	}
	verts := [4]Vertex{
		{Position: base, Value: value},
		{Position: offset(h, 0), Value: value},
		{Position: offset(h, w), Value: value},
		{Position: offset(0, w), Value: value},
	}
	if (dir.normal[perp] < 0) != (perp == 1) {
		verts[1], verts[3] = verts[3], verts[1]
	}

	first := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, verts[:]...)
	m.Indices = append(m.Indices, first, first+1, first+2, first, first+2, first+3)
}

// GreedyMesh merges coplanar faces of equal value into rectangles and
// returns only faces that border air.
func GreedyMesh(g *Grid) *Mesh {
	mesh := &Mesh{}
	for _, dir := range directions {
		perp := 3 - dir.u - dir.v
		for p := 0; p < Size; p++ {
			var mask [Size][Size]uint8
			var visited [Size][Size]bool

			for u := 0; u < Size; u++ {
				for v := 0; v < Size; v++ {
					var pos [3]int
					pos[dir.u], pos[dir.v], pos[perp] = u, v, p
					value := cell(g, pos[0], pos[1], pos[2])
					if value == 0 {
						continue
					}
					adj := pos
					if dir.normal[perp] < 0 {
						adj[perp] = p - 1
					} else {
						adj[perp] = p + 1
					}
					if cell(g, adj[0], adj[1], adj[2]) == 0 {
						mask[u][v] = value
					}
				}
			}

			for u := 0; u < Size; u++ {
				for v := 0; v < Size; {
					if mask[u][v] == 0 || visited[u][v] {
						v++
						continue
					}
					value := mask[u][v]
					width := 1
					for w := v + 1; w < Size && mask[u][w] == value && !visited[u][w]; w++ {
						width++
					}
					height := 1
				grow:
					for h := u + 1; h < Size; h++ {
						for w := v; w < v+width; w++ {
							if mask[h][w] != value || visited[h][w] {
								break grow
							}
						}
						height++
					}
					for hu := u; hu < u+height; hu++ {
						for hv := v; hv < v+width; hv++ {
							visited[hu][hv] = true
						}
					}
					mesh.addQuad(dir, [3]int{p, u, v}, width, height, value, perp)
					v += width
				}
			}
		}
	}
	return mesh
}

// Quads returns the number of rectangles in the mesh.
func (m *Mesh) Quads() int { return len(m.Indices) / 6 }
