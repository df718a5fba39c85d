package symdb

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remora-dev/remora/internal/pdbtest"
)

func writeTestPDB(t *testing.T, symbols []pdbtest.Symbol) string {
	t.Helper()

	img := pdbtest.Image([]pdbtest.Section{
		{Name: ".text", VirtualAddress: 0x1000},
		{Name: ".data", VirtualAddress: 0x5000},
	}, symbols)

	path := filepath.Join(t.TempDir(), "module.pdb")
	require.NoError(t, os.WriteFile(path, img, 0o644))
	return path
}

func TestResolve(t *testing.T) {
	path := writeTestPDB(t, []pdbtest.Symbol{
		{Name: "?hello@@YAXXZ", Section: 1, Offset: 0x234, Flags: pdbtest.FlagFunction},
	})

	db, err := Load(path, "game.exe", WithBaseAddress(0x140000000))
	require.NoError(t, err)
	require.Equal(t, 1, db.Len())

	addr, ok := db.Resolve("?hello@@YAXXZ")
	require.True(t, ok)
	assert.Equal(t, uint64(0x140001234), addr)
}

func TestResolveMiss(t *testing.T) {
	path := writeTestPDB(t, []pdbtest.Symbol{
		{Name: "?hello@@YAXXZ", Section: 1, Offset: 0x234, Flags: pdbtest.FlagFunction},
	})

	db, err := Load(path, "game.exe", WithBaseAddress(0x140000000))
	require.NoError(t, err)

	addr, ok := db.Resolve("?goodbye@@YAXXZ")
	assert.False(t, ok)
	assert.Zero(t, addr)
}

func TestLoadSkipsNonFunctions(t *testing.T) {
	path := writeTestPDB(t, []pdbtest.Symbol{
		{Name: "?hello@@YAXXZ", Section: 1, Offset: 0x234, Flags: pdbtest.FlagFunction},
		{Name: "?gcounter@@3HA", Section: 2, Offset: 0x10},
	})

	db, err := Load(path, "game.exe", WithBaseAddress(0x140000000))
	require.NoError(t, err)
	assert.Equal(t, 1, db.Len())

	_, ok := db.Resolve("?gcounter@@3HA")
	assert.False(t, ok)
}

func TestLoadSkipsUnmappableSymbols(t *testing.T) {
	path := writeTestPDB(t, []pdbtest.Symbol{
		{Name: "?ghost@@YAXXZ", Section: 9, Offset: 0x10, Flags: pdbtest.FlagFunction},
		{Name: "?hello@@YAXXZ", Section: 1, Offset: 0x234, Flags: pdbtest.FlagFunction},
	})

	var logBuf bytes.Buffer
	logger := zerolog.New(&logBuf)

	db, err := Load(path, "game.exe", WithBaseAddress(0x140000000), WithLogger(logger))
	require.NoError(t, err)

	// The unmappable symbol is dropped, not recorded at the base address.
	require.Equal(t, 1, db.Len())
	_, ok := db.Resolve("?ghost@@YAXXZ")
	assert.False(t, ok)

	assert.Contains(t, logBuf.String(), "?ghost@@YAXXZ")
	assert.Contains(t, logBuf.String(), "skipping")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.pdb"), "game.exe", WithBaseAddress(1))
	assert.Error(t, err)
}
