package overlay

import (
	"image"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/bodgit/overlay/bitmap"
	"github.com/bodgit/overlay/coords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTilePath(t *testing.T) {
	tables := []struct {
		file string
		x, y int
		ok   bool
	}{
		{filepath.Join("tiles", "12", "34.png"), 12, 34, true},
		{filepath.Join("tiles", "12", "34.jpg"), 0, 0, false},
		{filepath.Join("tiles", "x", "34.png"), 0, 0, false},
		{filepath.Join("tiles", "12", "y.png"), 0, 0, false},
	}

	for _, table := range tables {
		x, y, ok := parseTilePath(table.file)
		assert.Equal(t, table.ok, ok, table.file)
		assert.Equal(t, table.x, x, table.file)
		assert.Equal(t, table.y, y, table.file)
	}
}

func writeTile(t *testing.T, base string, x, y int, m image.Image) {
	t.Helper()
	dir := filepath.Join(base, strconv.Itoa(x))
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, strconv.Itoa(y)+".png"), encode(t, m), 0644))
}

func TestScan(t *testing.T) {
	base := t.TempDir()
	in, out := filepath.Join(base, "in"), filepath.Join(base, "out")

	s := newStore(t, nil)
	create(t, s, solid(2, 1, white), coords.Point{TileX: 1, TileY: 2})

	live := image.NewNRGBA(image.Rect(0, 0, coords.TileSize, coords.TileSize))
	live.SetNRGBA(0, 0, white)

	writeTile(t, in, 1, 2, live)
	writeTile(t, in, 3, 3, live)
	require.NoError(t, ioutil.WriteFile(filepath.Join(in, "notes.txt"), []byte("hello"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(in, ".hidden", "1"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(in, ".hidden", "1", "2.png"), []byte("garbage"), 0644))

	require.NoError(t, s.Scan(in, out))

	b, err := ioutil.ReadFile(filepath.Join(out, "1", "2.png"))
	require.NoError(t, err)
	m, err := bitmap.DecodeBytes(b)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, coords.TileSize, coords.TileSize), m.Rect)

	_, err = os.Stat(filepath.Join(out, "3", "3.png"))
	assert.True(t, os.IsNotExist(err))

	p := s.Progress()
	assert.Equal(t, 2, p.Required)
	assert.Equal(t, 1, p.Painted)

	// A broken tile is skipped rather than failing the scan
	require.NoError(t, ioutil.WriteFile(filepath.Join(in, "1", "2.png"), []byte("garbage"), 0644))
	require.NoError(t, s.Scan(in, ""))
}
