package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivans-11/Minecraftify/world"
)

func TestStore(t *testing.T) {
	s := New()
	sink, err := s.Opener()("ignored")
	require.NoError(t, err)
	v := world.DefaultVersion

	require.NoError(t, sink.SetBlock(0, 0, 0, world.Overworld, v, "minecraft:red_wool"))
	require.NoError(t, sink.Persist())
	require.NoError(t, sink.SetBlock(1, 0, 0, world.Overworld, v, "minecraft:blue_wool"))

	assert.Len(t, s.Placements(), 2)
	assert.Len(t, s.Persisted(), 1)
	assert.Equal(t, []int{1}, s.Persists())
	b, ok := s.Block(world.Overworld, 1, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, "minecraft:blue_wool", b)

	require.NoError(t, sink.Close())
	assert.True(t, s.Closed())
	assert.Equal(t, 1, s.Closes)
	assert.ErrorIs(t, sink.SetBlock(0, 0, 0, world.Overworld, v, "minecraft:red_wool"), world.ErrClosed)
}

func TestStoreFailures(t *testing.T) {
	s := New()
	s.Strict = true
	v := world.DefaultVersion
	assert.ErrorIs(t, s.SetBlock(0, 0, 0, world.Overworld, v, "minecraft:stone"), world.ErrUnknownBlock)
	assert.ErrorIs(t, s.SetBlock(0, 400, 0, world.Overworld, v, "minecraft:red_wool"), world.ErrOutOfBounds)

	s = New()
	s.FailAfter = 2
	require.NoError(t, s.SetBlock(0, 0, 0, world.Overworld, v, "minecraft:red_wool"))
	assert.Error(t, s.SetBlock(1, 0, 0, world.Overworld, v, "minecraft:red_wool"))
	assert.Error(t, s.SetBlock(2, 0, 0, world.Overworld, v, "minecraft:red_wool"))
	assert.Len(t, s.Placements(), 1)
}
