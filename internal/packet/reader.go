package packet

import (
	"fmt"
)

// Reader decodes little-endian fields from a parameter buffer.
type Reader struct {
	buffer []byte
	offset int
}

func NewReader(buffer []byte) *Reader {
	return &Reader{buffer, 0}
}

func (r *Reader) ReadUint8() uint8 {
	v := r.buffer[r.offset]
	r.offset++
	return v
}

func (r *Reader) ReadInt8() int8 {
	return int8(r.ReadUint8())
}

func (r *Reader) ReadUint16() uint16 {
	v := hostOrder.Uint16(r.buffer[r.offset:])
	r.offset += 2
	return v
}

func (r *Reader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}

func (r *Reader) ReadUint32() uint32 {
	v := hostOrder.Uint32(r.buffer[r.offset:])
	r.offset += 4
	return v
}

func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

func (r *Reader) ReadSlice(n int) []byte {
	v := r.buffer[r.offset : r.offset+n]
	r.offset += n
	return v
}

func (r *Reader) Skip(n int) {
	r.offset += n
}

// Discard bytes up to the next multiple of width, e.g. Align(4) skips ahead
// until the next aligned 4-byte boundary.
func (r *Reader) Align(width int) {
	r.offset = width * ((r.offset + width - 1) / width)
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.offset
}

// Return the number of bytes left in the buffer.
func (r *Reader) Remaining() int {
	return len(r.buffer) - r.offset
}

func (r *Reader) CheckRemaining(needed int) error {
	if r.Remaining() < needed {
		return fmt.Errorf("%d bytes remaining, %d needed", r.Remaining(), needed)
	}
	return nil
}
