package gunzip

import (
	"bytes"
	"hash/crc32"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/consensys/gunzip/internal/gztest"
)

func TestHeaderFields(t *testing.T) {
	assert := require.New(t)

	h := gztest.Header{
		ModTime: 1700000000,
		Extra:   []byte{'A', 'P', 2, 0, 0xca, 0xfe},
		Name:    "opticks.txt",
		Comment: "café au lait",
		HCRC:    true,
		OS:      3,
	}
	gz := gztest.Gzip(h, []byte("some text"), 0)

	r := bytes.NewReader(gz)
	var hdr Header
	n, err := hdr.ReadFrom(r)
	assert.NoError(err)

	headerLen := 10 + 2 + len(h.Extra) + len(h.Name) + 1 + len([]rune(h.Comment)) + 1 + 2
	assert.EqualValues(headerLen, n)
	assert.Equal(len(gz)-headerLen, r.Len(), "reader left on the first DEFLATE byte")

	assert.Equal(h.ModTime, hdr.MTime)
	assert.Equal(time.Unix(1700000000, 0), hdr.ModTime())
	assert.Equal(byte(3), hdr.OS)
	assert.Equal(h.Extra, hdr.Extra)
	assert.Equal(h.Name, hdr.Name)
	assert.Equal(h.Comment, hdr.Comment)
	assert.True(hdr.HasHCRC())
	assert.Equal(uint16(crc32.ChecksumIEEE(gz[:headerLen-2])), hdr.HCRC)
	assert.False(hdr.IsText())
}

func TestHeaderMinimal(t *testing.T) {
	assert := require.New(t)

	gz := gztest.Gzip(gztest.Header{}, nil, 0)
	var hdr Header
	n, err := hdr.ReadFrom(bytes.NewReader(gz))
	assert.NoError(err)
	assert.EqualValues(10, n)

	assert.False(hdr.HasName() || hdr.HasComment() || hdr.HasExtra() || hdr.HasHCRC())
	assert.Nil(hdr.Extra)
	assert.Empty(hdr.Name)
	assert.True(hdr.ModTime().IsZero())
}

// countingReader counts the bytes handed out.
type countingReader struct {
	data []byte
	n    int
}

func (c *countingReader) ReadByte() (byte, error) {
	if c.n == len(c.data) {
		return 0, io.EOF
	}
	c.n++
	return c.data[c.n-1], nil
}

func (c *countingReader) Read(p []byte) (int, error) {
	if c.n == len(c.data) {
		return 0, io.EOF
	}
	n := copy(p, c.data[c.n:])
	c.n += n
	return n, nil
}

func TestHeaderRejection(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read int
	}{
		{"bad ID1", []byte{0x50, 0x4b, 0x03, 0x04, 0, 0, 0, 0, 0, 0}, 1},
		{"bad ID2", []byte{0x1f, 0x9d, 0x08, 0, 0, 0, 0, 0, 0, 0}, 2},
		{"bad CM", []byte{0x1f, 0x8b, 0x07, 0, 0, 0, 0, 0, 0, 0}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := require.New(t)

			cr := &countingReader{data: tt.data}
			var hdr Header
			n, err := hdr.ReadFrom(cr)
			assert.ErrorIs(err, ErrInvalidMagicOrMethod)
			assert.Equal(tt.read, cr.n)
			assert.EqualValues(tt.read, n)
		})
	}
}

func TestHeaderTruncated(t *testing.T) {
	gz := gztest.Gzip(gztest.Header{Name: "a.txt", Comment: "c"}, []byte("x"), 0)

	// every proper prefix of the header
	for i := 0; i < 10+6+2; i++ {
		var hdr Header
		_, err := hdr.ReadFrom(bytes.NewReader(gz[:i]))
		require.ErrorIs(t, err, ErrUnexpectedEOF, "prefix of %d bytes", i)
	}
}
