package deflate

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadBitsSplit(t *testing.T) {
	assert := require.New(t)

	data := make([]byte, 64)
	rng := rand.New(rand.NewSource(5)) //nolint:gosec
	rng.Read(data)

	for split := uint(0); split <= 20; split++ {
		whole := NewBitReader(bytes.NewReader(data))
		parts := NewBitReader(bytes.NewReader(data))

		for i := 0; i < 20; i++ {
			w, err := whole.ReadBits(20, false)
			assert.NoError(err)
			lo, err := parts.ReadBits(split, false)
			assert.NoError(err)
			hi, err := parts.ReadBits(20-split, false)
			assert.NoError(err)
			assert.Equal(w, lo|hi<<split, "split %d, read %d", split, i)
		}
		assert.Equal(whole.Offset(), parts.Offset())
	}
}

func TestReadBitsOrder(t *testing.T) {
	assert := require.New(t)

	// 0xb4 = 1011 0100, served from the least significant bit up
	br := NewBitReader(bytes.NewReader([]byte{0xb4, 0x01}))
	var bits []uint
	for i := 0; i < 8; i++ {
		b, err := br.ReadBit()
		assert.NoError(err)
		bits = append(bits, b)
	}
	assert.Equal([]uint{0, 0, 1, 0, 1, 1, 0, 1}, bits)

	v, err := br.ReadBits(8, false)
	assert.NoError(err)
	assert.EqualValues(1, v)
}

func TestReadBitsKeep(t *testing.T) {
	assert := require.New(t)

	br := NewBitReader(bytes.NewReader([]byte{0xff, 0x0f}))
	v1, err := br.ReadBits(12, true)
	assert.NoError(err)
	v2, err := br.ReadBits(12, true)
	assert.NoError(err)
	assert.Equal(v1, v2)
	assert.EqualValues(0xfff, v1)
	assert.EqualValues(0, br.Offset())
	assert.EqualValues(16, br.Buffered())

	v3, err := br.ReadBits(16, false)
	assert.NoError(err)
	assert.EqualValues(0x0fff, v3)
	assert.EqualValues(16, br.Offset())
}

func TestReadBitsEOF(t *testing.T) {
	assert := require.New(t)

	br := NewBitReader(bytes.NewReader([]byte{0xaa}))
	_, err := br.ReadBits(9, false)
	assert.ErrorIs(err, ErrUnexpectedEOF)

	br = NewBitReader(bytes.NewReader(nil))
	_, err = br.ReadBit()
	assert.ErrorIs(err, ErrUnexpectedEOF)

	_, err = br.ReadBits(33, false)
	assert.Error(err)
}

func TestAlign(t *testing.T) {
	assert := require.New(t)

	br := NewBitReader(bytes.NewReader([]byte{0x07, 0x42, 0x43}))
	_, err := br.ReadBits(3, false)
	assert.NoError(err)
	br.Align()
	assert.EqualValues(8, br.Offset())

	v, err := br.ReadBits(8, false)
	assert.NoError(err)
	assert.EqualValues(0x42, v)

	// aligned already: nothing to drop
	br.Align()
	assert.EqualValues(16, br.Offset())
}
