package fourcc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodes(t *testing.T) {
	assert.Equal(t, NV12, New('N', 'V', '1', '2'))
	assert.Equal(t, I420, New('I', '4', '2', '0'))
	assert.Equal(t, "YUY2", YUY2.String())
	assert.Equal(t, "0x00000001", Code(1).String())

	f, ok := Lookup(RGBA)
	require.True(t, ok)
	assert.Equal(t, uint32(32), f.BitsPerPixel)
	assert.Equal(t, uint32(0xff000000), f.AlphaMask)
	_, ok = Lookup(Code(0))
	assert.False(t, ok)
}

func TestLayout(t *testing.T) {
	l, err := NewLayout(NV12, 640, 480)
	require.NoError(t, err)
	assert.Equal(t, 2, l.NumPlanes)
	assert.Equal(t, [3]int{640, 640, 0}, l.Pitches)
	assert.Equal(t, [3]int{0, 640 * 480, 0}, l.Offsets)
	assert.Equal(t, 640*480*3/2, l.DataSize)

	l, err = NewLayout(YV12, 33, 17)
	require.NoError(t, err)
	assert.Equal(t, 34, l.Width)
	assert.Equal(t, 18, l.Height)
	assert.Equal(t, [3]int{34, 17, 17}, l.Pitches)
	assert.Equal(t, 34*18+2*17*9, l.DataSize)

	l, err = NewLayout(YUY2, 16, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Height)
	assert.Equal(t, 32*3, l.DataSize)

	l, err = NewLayout(AI44, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, 48, l.PaletteSize())
	assert.Equal(t, [4]byte{'Y', 'U', 'V', 0}, l.ComponentOrder)

	_, err = NewLayout(Code(0), 8, 8)
	assert.Error(t, err)
	_, err = NewLayout(NV12, 0, 8)
	assert.Error(t, err)
}

func fill(n int, start byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = start + byte(i)
	}
	return b
}

func TestCopyNV12ToI420AndBack(t *testing.T) {
	nv, _ := NewLayout(NV12, 4, 2)
	i420, _ := NewLayout(I420, 4, 2)
	src := fill(nv.DataSize, 0)

	dst := make([]byte, i420.DataSize)
	require.NoError(t, Copy(dst, i420, 0, 0, src, nv, 0, 0, 4, 2))
	// Y plane unchanged, then U samples, then V samples.
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 9, 11}, dst)

	back := make([]byte, nv.DataSize)
	require.NoError(t, Copy(back, nv, 0, 0, dst, i420, 0, 0, 4, 2))
	assert.Equal(t, src, back)
}

func TestCopyYV12SwapsChroma(t *testing.T) {
	i420, _ := NewLayout(I420, 2, 2)
	yv12, _ := NewLayout(YV12, 2, 2)
	src := []byte{1, 2, 3, 4, 'u', 'v'}
	dst := make([]byte, yv12.DataSize)
	require.NoError(t, Copy(dst, yv12, 0, 0, src, i420, 0, 0, 2, 2))
	assert.Equal(t, []byte{1, 2, 3, 4, 'v', 'u'}, dst)
}

func TestCopyRegion(t *testing.T) {
	l, _ := NewLayout(AYUV, 4, 4)
	src := fill(l.DataSize, 0)
	small, _ := NewLayout(AYUV, 2, 2)
	dst := make([]byte, small.DataSize)
	require.NoError(t, Copy(dst, small, 0, 0, src, l, 1, 1, 2, 2))
	assert.Equal(t, src[20:28], dst[0:8])
	assert.Equal(t, src[36:44], dst[8:16])
}

func TestCopyUnsupported(t *testing.T) {
	a, _ := NewLayout(YUY2, 4, 4)
	b, _ := NewLayout(NV12, 4, 4)
	assert.Equal(t, ErrConversion, Copy(make([]byte, a.DataSize), a, 0, 0, make([]byte, b.DataSize), b, 0, 0, 4, 4))
	assert.False(t, CanCopy(RGBA, NV12))
	assert.True(t, CanCopy(YV12, IYUV))
}
