//go:build linux

package modbase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapsFixture = `55d0a1e00000-55d0a1e25000 r--p 00000000 103:02 920512  /usr/bin/game
55d0a1e25000-55d0a1f80000 r-xp 00025000 103:02 920512  /usr/bin/game
7f31c0000000-7f31c0100000 r-xp 00000000 103:02 388211  /usr/lib/libengine.so
7ffd52a00000-7ffd52a21000 rw-p 00000000 00:00 0  [stack]
`

func TestScanMaps(t *testing.T) {
	addr, err := scanMaps(strings.NewReader(mapsFixture), "libengine.so")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7f31c0000000), addr)
}

func TestScanMapsFirstMappingWins(t *testing.T) {
	addr, err := scanMaps(strings.NewReader(mapsFixture), "game")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x55d0a1e00000), addr)
}

func TestScanMapsNotFound(t *testing.T) {
	_, err := scanMaps(strings.NewReader(mapsFixture), "missing.so")
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestBaseAddressOfSelf(t *testing.T) {
	addr, err := BaseAddress("")
	require.NoError(t, err)
	assert.NotZero(t, addr)
}
