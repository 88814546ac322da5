package palette

import (
	"strings"
	"testing"

	"github.com/Ivans-11/Minecraftify/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	all := All()
	require.Len(t, all, 64)
	for i, e := range all {
		idx, ok := Index(e.ID)
		require.True(t, ok, e.ID)
		assert.Equal(t, i, idx)
		assert.True(t, strings.HasSuffix(e.ID, "_"+e.Category.String()) || e.Category == Glass, e.ID)
	}
	for _, c := range Categories {
		assert.Len(t, Entries(c), 16, c.String())
	}
	e, ok := Lookup("minecraft:red_stained_glass")
	require.True(t, ok)
	assert.Equal(t, Glass, e.Category)
	assert.True(t, e.Category.Translucent())

	_, ok = Lookup("minecraft:stone")
	assert.False(t, ok)

	c, err := ParseCategory("Terracotta")
	require.NoError(t, err)
	assert.Equal(t, Terracotta, c)
	_, err = ParseCategory("planks")
	assert.Error(t, err)
}

func TestSelectionStrategy(t *testing.T) {
	cases := []struct {
		sel  Selection
		want Strategy
	}{
		{AllCategories, WithGlass},
		{Selection{Wool: true}, WithoutGlass},
		{Selection{Concrete: true, Terracotta: true}, WithoutGlass},
		{Selection{Glass: true}, GlassOnly},
		{Selection{Terracotta: true, Glass: true}, WithGlass},
	}
	for _, tc := range cases {
		got, err := tc.sel.Strategy()
		require.NoError(t, err, tc.sel.String())
		assert.Equal(t, tc.want, got, tc.sel.String())
	}

	_, err := Selection{}.Strategy()
	assert.ErrorIs(t, err, ErrNoCategory)
	_, err = NewMatcher(Selection{})
	assert.ErrorIs(t, err, ErrNoCategory)
	assert.Equal(t, "none", Selection{}.String())
	assert.Equal(t, "wool+glass", Selection{Wool: true, Glass: true}.String())
}

func TestMatchNearest(t *testing.T) {
	m, err := NewMatcher(AllCategories)
	require.NoError(t, err)

	assert.Equal(t, "minecraft:orange_concrete", m.Match(model.RGBA(255, 0, 0, 255)))
	assert.Equal(t, "minecraft:black_concrete", m.Match(model.RGBA(0, 0, 0, 255)))
	assert.Equal(t, "minecraft:cyan_terracotta", m.Match(model.DefaultColor))

	woolOnly, err := NewMatcher(Selection{Wool: true})
	require.NoError(t, err)
	assert.Equal(t, "minecraft:red_wool", woolOnly.Match(model.RGBA(255, 0, 0, 255)))
}

func TestMatchAlphaBoundary(t *testing.T) {
	m, err := NewMatcher(AllCategories)
	require.NoError(t, err)

	for _, rgb := range [][3]uint8{{255, 0, 0}, {0, 0, 255}, {102, 102, 102}, {240, 240, 240}} {
		below := m.MatchEntry(model.RGBA(rgb[0], rgb[1], rgb[2], TranslucentAlpha-1))
		assert.Equal(t, Glass, below.Category, "%v alpha 199", rgb)

		at := m.MatchEntry(model.RGBA(rgb[0], rgb[1], rgb[2], TranslucentAlpha))
		assert.NotEqual(t, Glass, at.Category, "%v alpha 200", rgb)
	}
	assert.Equal(t, "minecraft:red_stained_glass", m.Match(model.RGBA(255, 0, 0, 50)))
}

func TestMatchWithoutGlassIgnoresAlpha(t *testing.T) {
	m, err := NewMatcher(Selection{Wool: true, Concrete: true, Terracotta: true})
	require.NoError(t, err)
	assert.Equal(t, m.Match(model.RGBA(255, 0, 0, 255)), m.Match(model.RGBA(255, 0, 0, 0)))
}

func TestMatchNoOpaqueFallback(t *testing.T) {
	for _, sel := range []Selection{{Glass: true}} {
		m, err := NewMatcher(sel)
		require.NoError(t, err)
		for _, a := range []uint8{0, 50, 199, 200, 255} {
			e := m.MatchEntry(model.RGBA(30, 200, 10, a))
			assert.Equal(t, Glass, e.Category, "alpha %d", a)
		}
	}
	id, err := Match(model.RGBA(255, 255, 255, 255), Selection{Glass: true})
	require.NoError(t, err)
	assert.Equal(t, "minecraft:white_stained_glass", id)
}

func TestMatchTieBreak(t *testing.T) {
	// equidistant from black_wool and green_concrete
	c := model.RGBA(0, 96, 0, 255)
	black, _ := Lookup("minecraft:black_wool")
	green, _ := Lookup("minecraft:green_concrete")
	require.Equal(t, Distance2(c, black.RGB), Distance2(c, green.RGB))

	id, err := Match(c, Selection{Wool: true, Concrete: true})
	require.NoError(t, err)
	assert.Equal(t, black.ID, id)

	id, err = Match(c, Selection{Concrete: true})
	require.NoError(t, err)
	assert.Equal(t, green.ID, id)

	entries := []Entry{
		{ID: "a", RGB: [3]uint8{10, 0, 0}},
		{ID: "b", RGB: [3]uint8{0, 10, 0}},
		{ID: "c", RGB: [3]uint8{0, 0, 10}},
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, "a", closest(model.RGBA(0, 0, 0, 255), entries).ID)
		assert.Equal(t, "b", closest(model.RGBA(0, 0, 0, 255), entries[1:]).ID)
	}
}
