// Package chunk stores a 16x16x16 section of a world as palette indices and
// serialises it compactly. Index 0 is air.
package chunk

const Size = 16

// Volume is the number of cells in one chunk.
const Volume = Size * Size * Size

// Grid is indexed [y][x][z].
type Grid [Size][Size][Size]uint8

func (g *Grid) At(x, y, z int) uint8 { return g[y][x][z] }

func (g *Grid) Set(x, y, z int, v uint8) { g[y][x][z] = v }

// Count returns the number of non-air cells.
func (g *Grid) Count() int {
	n := 0
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			for z := 0; z < Size; z++ {
				if g[y][x][z] != 0 {
					n++
				}
			}
		}
	}
	return n
}

// Empty reports whether every cell is air.
func (g *Grid) Empty() bool { return g.Count() == 0 }

// MaxIndex returns the largest palette index used.
func (g *Grid) MaxIndex() uint8 {
	var m uint8
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			for z := 0; z < Size; z++ {
				m = max(m, g[y][x][z])
			}
		}
	}
	return m
}

// Coord identifies a chunk by its position in chunk units.
type Coord struct {
	X, Y, Z int
}

// Split maps a world coordinate to its chunk and the offset inside it.
func Split(x, y, z int) (c Coord, lx, ly, lz int) {
	c.X, lx = floorDiv(x)
	c.Y, ly = floorDiv(y)
	c.Z, lz = floorDiv(z)
	return
}

// Origin is the world coordinate of the chunk's (0,0,0) cell.
func (c Coord) Origin() (x, y, z int) {
	return c.X * Size, c.Y * Size, c.Z * Size
}

func floorDiv(v int) (q, r int) {
	q = v / Size
	r = v % Size
	if r < 0 {
		q--
		r += Size
	}
	return q, r
}
