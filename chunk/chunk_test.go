package chunk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomGrid(seed int64, fill float64, maxValue int) *Grid {
	rng := rand.New(rand.NewSource(seed))
	g := new(Grid)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			for z := 0; z < Size; z++ {
				if rng.Float64() < fill {
					g.Set(x, y, z, uint8(1+rng.Intn(maxValue)))
				}
			}
		}
	}
	return g
}

func TestMortonOrderIsPermutation(t *testing.T) {
	seen := make([]bool, Volume)
	for _, lin := range mortonOrder {
		require.False(t, seen[lin])
		seen[lin] = true
	}
	g := randomGrid(1, 0.5, 60)
	var back Grid
	applyOrder(&back, flatten(g))
	assert.Equal(t, *g, back)
}

func TestMarshalRoundTrip(t *testing.T) {
	cases := map[string]*Grid{
		"empty":  new(Grid),
		"sparse": randomGrid(2, 0.01, 64),
		"half":   randomGrid(3, 0.5, 64),
		"full":   randomGrid(4, 1, 3),
	}
	single := new(Grid)
	single.Set(15, 0, 7, 42)
	cases["single"] = single

	for name, g := range cases {
		data, err := Marshal(g, 7, 3)
		require.NoError(t, err, name)
		got, h, err := Unmarshal(data)
		require.NoError(t, err, name)
		assert.Equal(t, *g, *got, name)
		assert.Equal(t, uint8(7), h.BPP, name)
		assert.Equal(t, uint16(3), h.Generation, name)
	}
	assert.Equal(t, uint8(42), single.At(15, 0, 7))
	assert.Equal(t, 1, single.Count())
}

func TestEveryEncodingDecodes(t *testing.T) {
	g := randomGrid(5, 0.2, 100)
	for _, enc := range []Encoding{Dense, Sparse, Bitmap} {
		var payload []byte
		switch enc {
		case Dense:
			payload = encodeDense(g, 7)
		case Sparse:
			payload = encodeSparse(g, 7)
		case Bitmap:
			payload = encodeBitmap(g, 7)
		}
		got, err := decodePayload(enc, 7, payload)
		require.NoError(t, err, enc.String())
		assert.Equal(t, *g, *got, enc.String())

		z, err := compress(payload)
		require.NoError(t, err)
		got, err = decodePayload(enc|Compressed, 7, z)
		require.NoError(t, err, enc.String())
		assert.Equal(t, *g, *got, enc.String())
	}
	assert.Equal(t, "bitmap+zstd", (Bitmap | Compressed).String())
}

func TestMarshalRejectsNarrowBPP(t *testing.T) {
	g := new(Grid)
	g.Set(0, 0, 0, 200)
	_, err := Marshal(g, 7, 0)
	assert.Error(t, err)
	assert.Equal(t, uint8(7), BPPFor(64))
	assert.Equal(t, uint8(1), BPPFor(0))
}

func TestParseHeaderRejects(t *testing.T) {
	data, err := Marshal(randomGrid(6, 0.1, 10), 7, 0)
	require.NoError(t, err)

	_, _, err = ParseHeader(data[:10])
	assert.ErrorIs(t, err, ErrFormat)
	_, _, err = ParseHeader(append([]byte("XXXX"), data[4:]...))
	assert.ErrorIs(t, err, ErrFormat)
	_, _, err = ParseHeader(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSplit(t *testing.T) {
	cases := []struct {
		x, y, z    int
		c          Coord
		lx, ly, lz int
	}{
		{0, 0, 0, Coord{0, 0, 0}, 0, 0, 0},
		{15, 16, 17, Coord{0, 1, 1}, 15, 0, 1},
		{-1, -16, -17, Coord{-1, -1, -2}, 15, 0, 15},
		{-60, 319, 33, Coord{-4, 19, 2}, 4, 15, 1},
	}
	for _, tc := range cases {
		c, lx, ly, lz := Split(tc.x, tc.y, tc.z)
		assert.Equal(t, tc.c, c)
		assert.Equal(t, [3]int{tc.lx, tc.ly, tc.lz}, [3]int{lx, ly, lz})
		ox, oy, oz := c.Origin()
		assert.Equal(t, [3]int{tc.x, tc.y, tc.z}, [3]int{ox + lx, oy + ly, oz + lz})
	}
}

func TestCoordKey(t *testing.T) {
	for _, c := range []Coord{{0, 0, 0}, {-1, -4, 7}, {1000, -1000, 3}} {
		assert.Equal(t, c, CoordFromKey(c.Key()))
	}
	cs := []Coord{{1, 1, 1}, {0, 0, 0}, {-1, 0, 0}, {1, 0, 0}}
	SortCoords(cs)
	assert.Equal(t, Coord{-1, 0, 0}, cs[0])
	assert.Equal(t, Coord{1, 1, 1}, cs[3])
}

func TestPackRoundTrip(t *testing.T) {
	var p Pack
	p.Meta = []byte("palette")
	grids := []*Grid{randomGrid(7, 0.3, 60), randomGrid(8, 0.05, 60), randomGrid(7, 0.3, 60)}
	for i, g := range grids {
		data, err := Marshal(g, 7, 2)
		require.NoError(t, err)
		require.NoError(t, p.Add(string(rune('a'+i)), data))
	}

	for _, layout := range []PackLayout{LayoutRaw, LayoutCDC} {
		for _, comp := range []PackCompression{PackCompNone, PackCompZlib, PackCompZstd} {
			data, err := p.Marshal(layout, comp)
			require.NoError(t, err)

			got, gotComp, err := UnmarshalPack(data)
			require.NoError(t, err, "%d/%s", layout, comp)
			assert.Equal(t, comp, gotComp)
			assert.Equal(t, p.Header, got.Header)
			assert.Equal(t, p.Meta, got.Meta)
			require.Len(t, got.Entries, 3)
			for i, g := range grids {
				assert.Equal(t, p.Entries[i].Name, got.Entries[i].Name)
				dg, err := got.Grid(i)
				require.NoError(t, err)
				assert.Equal(t, *g, *dg)

				back, _, err := Unmarshal(got.Chunk(i))
				require.NoError(t, err)
				assert.Equal(t, *g, *back)
			}
		}
	}
}

func TestPackAddRejectsMixedHeaders(t *testing.T) {
	var p Pack
	a, err := Marshal(randomGrid(9, 0.1, 10), 7, 1)
	require.NoError(t, err)
	b, err := Marshal(randomGrid(9, 0.1, 10), 7, 2)
	require.NoError(t, err)
	require.NoError(t, p.Add("a", a))
	assert.Error(t, p.Add("b", b))
	assert.Error(t, p.Add("c", []byte("junk")))

	_, _, err = UnmarshalPack([]byte("nope"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestCDCDedupes(t *testing.T) {
	payload := make([]byte, 20000)
	rng := rand.New(rand.NewSource(10))
	rng.Read(payload)
	entries := []PackEntry{{Name: "a", Payload: payload}, {Name: "b", Payload: payload}}
	blocks, seqs := buildCDCIndex(entries, cdcTarget, cdcMin, cdcMax)
	assert.Equal(t, seqs[0], seqs[1])
	total := 0
	for _, b := range blocks {
		total += len(b)
	}
	assert.Equal(t, len(payload), total)
}

func TestGreedyMesh(t *testing.T) {
	g := new(Grid)
	assert.Empty(t, GreedyMesh(g).Indices)

	g.Set(0, 0, 0, 1)
	m := GreedyMesh(g)
	assert.Equal(t, 6, m.Quads())
	assert.Len(t, m.Vertices, 24)

	// a 2x1x1 bar of one value still has six faces
	g.Set(1, 0, 0, 1)
	assert.Equal(t, 6, GreedyMesh(g).Quads())

	// different values cannot merge
	g.Set(1, 0, 0, 2)
	m = GreedyMesh(g)
	assert.Equal(t, 10, m.Quads())
	for _, v := range m.Vertices {
		assert.Contains(t, []uint8{1, 2}, v.Value)
	}
}
