package h264

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNALUHeader(t *testing.T) {
	n := NALU{0x65, 0x88}
	assert.Equal(t, byte(TypeIDR), n.Type())
	assert.Equal(t, byte(3), n.NRI())
	assert.Equal(t, byte(0), n.ForbiddenBit())
	assert.True(t, n.IsVCL())
	assert.True(t, n.IsReference())
	assert.False(t, NALU{0x67}.IsVCL())
}

func TestScanner(t *testing.T) {
	stream := []byte{
		0, 0, 0, 1, 0x67, 1, 2,
		0, 0, 1, 0x68, 3,
		0, 0, 0, 1, 0x65, 4, 5, 6,
	}
	s := NewScanner(bytes.NewReader(stream))

	var units []NALU
	for {
		n, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		units = append(units, append(NALU(nil), n...))
	}
	assert.Equal(t, []NALU{{0x67, 1, 2}, {0x68, 3}, {0x65, 4, 5, 6}}, units)
}

func TestParseSliceHeader(t *testing.T) {
	// first_mb_in_slice=0 (1), slice_type=7 (0001000), pps_id=0 (1)
	// bits: 1 0001000 1 -> 1000 1000 1000 0000
	h, err := ParseSliceHeader(NALU{0x65, 0x88, 0x80})
	require.NoError(t, err)
	assert.Equal(t, uint(0), h.FirstMbInSlice)
	assert.Equal(t, uint(SliceI), h.SliceType)
	assert.Equal(t, uint(0), h.PPSID)

	// first_mb_in_slice=3 (00100), slice_type=0 (1), pps_id=0 (1)
	// bits: 00100 1 1 0 -> 0010 0110
	h, err = ParseSliceHeader(NALU{0x41, 0x26})
	require.NoError(t, err)
	assert.Equal(t, uint(3), h.FirstMbInSlice)
	assert.Equal(t, uint(SliceP), h.SliceType)

	_, err = ParseSliceHeader(NALU{0x67, 0x80})
	assert.Error(t, err)
	_, err = ParseSliceHeader(NALU{0x65, 0x00})
	assert.Error(t, err)
}

func TestRBSP(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 1, 0, 0, 0}, RBSP([]byte{0, 0, 3, 1, 0, 0, 3, 0}))
}
