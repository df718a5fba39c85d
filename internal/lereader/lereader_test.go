package lereader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	r := New([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		'h', 'i', 0x00,
		0xAA, 0xBB,
	})

	u8, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)

	u16, err := r.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), u16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07060504), u32)

	s, err := r.ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	assert.Equal(t, 10, r.Offset())
	assert.Equal(t, 2, r.Remaining())

	b, err := r.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB}, b)
	assert.Equal(t, 0, r.Remaining())
}

func TestReaderNegativeI32(t *testing.T) {
	r := New([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	v, err := r.ReadI32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)
}

func TestReaderShortData(t *testing.T) {
	r := New([]byte{0x01})

	_, err := r.ReadU32()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)

	// A failed read leaves the position untouched.
	assert.Equal(t, 0, r.Offset())

	assert.ErrorIs(t, r.Skip(2), ErrUnexpectedEOF)

	_, err = r.ReadCString()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestReaderSkip(t *testing.T) {
	r := New([]byte{1, 2, 3, 4})
	require.NoError(t, r.Skip(3))

	v, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(4), v)
}
