package sqlitestore

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ivans-11/Minecraftify/world"
)

func TestPersistAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.db")

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, world.DefaultDimensions, s.Dimensions())

	v := world.DefaultVersion
	require.NoError(t, s.SetBlock(1, -60, 2, world.Overworld, v, "minecraft:red_wool"))
	require.NoError(t, s.SetBlock(1, -60, 2, world.Overworld, v, "minecraft:blue_wool"))
	require.NoError(t, s.SetBlock(0, 0, 0, world.Nether, v, "minecraft:white_concrete"))

	n, err := s.Count(world.Overworld)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "nothing visible before persist")

	require.NoError(t, s.Persist())
	first := s.Session()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.NotEqual(t, first, s.Session())

	b, ok, err := s.Block(world.Overworld, 1, -60, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "minecraft:blue_wool", b)

	var got []string
	require.NoError(t, s.Blocks(world.Nether, func(x, y, z int, block string) error {
		got = append(got, block)
		return nil
	}))
	assert.Equal(t, []string{"minecraft:white_concrete"}, got)

	ver, err := s.Version()
	require.NoError(t, err)
	assert.Equal(t, v.String(), ver)
}

func TestCloseDropsPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetBlock(0, 0, 0, world.Overworld, world.DefaultVersion, "minecraft:red_wool"))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.SetBlock(0, 0, 0, world.Overworld, world.DefaultVersion, "minecraft:red_wool"), world.ErrClosed)
	assert.ErrorIs(t, s.Persist(), world.ErrClosed)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	var n, sessions int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM blocks`).Scan(&n))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&sessions))
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, sessions)
}

func TestSetBlockValidates(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	defer s.Close()

	old := world.GameVersion{Edition: world.Java, Major: 1, Minor: 16, Patch: 5}
	assert.ErrorIs(t, s.SetBlock(0, -1, 0, world.Overworld, old, "minecraft:red_wool"), world.ErrOutOfBounds)
	assert.NoError(t, s.SetBlock(0, -1, 0, world.Overworld, world.DefaultVersion, "minecraft:red_wool"))
	assert.ErrorIs(t, s.SetBlock(0, 0, 0, "aether", world.DefaultVersion, "minecraft:red_wool"), world.ErrOutOfBounds)
	assert.ErrorIs(t, s.SetBlock(0, 0, 0, world.Overworld, world.DefaultVersion, ""), world.ErrUnknownBlock)
	assert.ErrorIs(t, s.SetBlock(0, 0, 0, world.Overworld, world.DefaultVersion, "minecraft:diamond_block"), world.ErrUnknownBlock)
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite database, just some bytes that go on for a while......................................"), 0o644))
	_, err := Open(path)
	assert.ErrorIs(t, err, world.ErrNotWorld)
}
