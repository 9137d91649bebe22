package h264

import (
	errors "golang.org/x/xerrors"
)

// Slice types, modulo 5.
const (
	SliceP  = 0
	SliceB  = 1
	SliceI  = 2
	SliceSP = 3
	SliceSI = 4
)

var errShortHeader = errors.New("truncated slice header")

// SliceHeader holds the leading slice header fields, which do not depend on
// any parameter set.
type SliceHeader struct {
	FirstMbInSlice uint
	SliceType      uint
	PPSID          uint
}

// ParseSliceHeader parses the start of a VCL NAL unit, including its one
// byte NAL header.
func ParseSliceHeader(nalu NALU) (h SliceHeader, err error) {
	if len(nalu) < 2 || !nalu.IsVCL() {
		return h, errors.Errorf("not a slice NAL unit")
	}
	r := newBitReader(RBSP(nalu[1:]))
	if h.FirstMbInSlice, err = r.readUE(); err != nil {
		return
	}
	if h.SliceType, err = r.readUE(); err != nil {
		return
	}
	h.SliceType %= 5
	h.PPSID, err = r.readUE()
	return
}

// RBSP removes emulation prevention bytes (0x000003).
func RBSP(b []byte) []byte {
	out := make([]byte, 0, len(b))
	zeros := 0
	for _, c := range b {
		if zeros >= 2 && c == 3 {
			zeros = 0
			continue
		}
		if c == 0 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, c)
	}
	return out
}

type bitReader struct {
	buf []byte
	pos uint
}

func newBitReader(buf []byte) *bitReader {
	return &bitReader{buf: buf}
}

func (r *bitReader) readBit() (uint, error) {
	if r.pos >= uint(len(r.buf))*8 {
		return 0, errShortHeader
	}
	bit := uint(r.buf[r.pos/8]>>(7-r.pos%8)) & 1
	r.pos++
	return bit, nil
}

// readUE reads an unsigned Exp-Golomb code.
func (r *bitReader) readUE() (uint, error) {
	zeros := 0
	for {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > 31 {
			return 0, errors.New("exp-golomb code too long")
		}
	}
	v := uint(0)
	for i := 0; i < zeros; i++ {
		b, err := r.readBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | b
	}
	return 1<<uint(zeros) - 1 + v, nil
}
