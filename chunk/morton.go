package chunk

import "slices"

func expand3(v uint32) uint32 {
	v = (v | (v << 16)) & 0x030000FF
	v = (v | (v << 8)) & 0x0300F00F
	v = (v | (v << 4)) & 0x030C30C3
	v = (v | (v << 2)) & 0x09249249
	return v
}

func morton3D(x, y, z uint32) uint32 {
	return expand3(x) | (expand3(y) << 1) | (expand3(z) << 2)
}

// mortonOrder[rank] is the linear index (x + z*Size + y*Size*Size) of the
// cell visited at that rank.
var mortonOrder = buildMortonOrder()

func buildMortonOrder() []int {
	order := make([]int, Volume)
	for i := range order {
		order[i] = i
	}
	key := func(lin int) uint32 {
		x, z, y := lin%Size, (lin/Size)%Size, lin/(Size*Size)
		return morton3D(uint32(x), uint32(y), uint32(z))
	}
	slices.SortFunc(order, func(a, b int) int { return int(key(a)) - int(key(b)) })
	return order
}

// flatten lists the grid cells in Morton order so that neighbours end up
// close together in the stream.
func flatten(g *Grid) []uint8 {
	stream := make([]uint8, Volume)
	for rank, lin := range mortonOrder {
		x, z, y := lin%Size, (lin/Size)%Size, lin/(Size*Size)
		stream[rank] = g[y][x][z]
	}
	return stream
}

func applyOrder(g *Grid, stream []uint8) {
	for rank, lin := range mortonOrder {
		x, z, y := lin%Size, (lin/Size)%Size, lin/(Size*Size)
		g[y][x][z] = stream[rank]
	}
}

// Morton3D64 interleaves three 21-bit values.
func Morton3D64(x, y, z uint32) uint64 {
	return part1By2(uint64(x)) |
		(part1By2(uint64(y)) << 1) |
		(part1By2(uint64(z)) << 2)
}

func MortonDecode3D64(index uint64) (x, y, z uint32) {
	x = uint32(compact1By2(index))
	y = uint32(compact1By2(index >> 1))
	z = uint32(compact1By2(index >> 2))
	return
}

func part1By2(x uint64) uint64 {
	x &= 0x1fffff
	x = (x | (x << 32)) & 0x1f00000000ffff
	x = (x | (x << 16)) & 0x1f0000ff0000ff
	x = (x | (x << 8)) & 0x100f00f00f00f00f
	x = (x | (x << 4)) & 0x10c30c30c30c30c3
	x = (x | (x << 2)) & 0x1249249249249249
	return x
}

func compact1By2(x uint64) uint64 {
	x &= 0x1249249249249249
	x = (x ^ (x >> 2)) & 0x10c30c30c30c30c3
	x = (x ^ (x >> 4)) & 0x100f00f00f00f00f
	x = (x ^ (x >> 8)) & 0x1f0000ff0000ff
	x = (x ^ (x >> 16)) & 0x1f00000000ffff
	x = (x ^ (x >> 32)) & 0x1fffff
	return x
}

// coordBias moves signed chunk coordinates into the 21-bit unsigned range
// Morton3D64 accepts.
const coordBias = 1 << 20

// Key orders chunks along a Z-order curve so that nearby chunks sort
// together in packs and on disk.
func (c Coord) Key() uint64 {
	return Morton3D64(uint32(c.X+coordBias), uint32(c.Y+coordBias), uint32(c.Z+coordBias))
}

// CoordFromKey inverts Key.
func CoordFromKey(k uint64) Coord {
	x, y, z := MortonDecode3D64(k)
	return Coord{int(x) - coordBias, int(y) - coordBias, int(z) - coordBias}
}

// SortCoords sorts chunk coordinates by Key.
func SortCoords(cs []Coord) {
	slices.SortFunc(cs, func(a, b Coord) int {
		ka, kb := a.Key(), b.Key()
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
}
