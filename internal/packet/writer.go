// Package packet reads and writes the fixed binary layouts exchanged with
// accelerator drivers. Parameter buffers use the host layout of the original
// C structures, which this package fixes as little-endian.
package packet

import (
	"encoding/binary"
	"fmt"
)

var hostOrder = binary.LittleEndian

// Writer encodes little-endian fields into a preallocated buffer. Writes past
// the end of the buffer panic; use CheckCapacity for untrusted sizes.
type Writer struct {
	buffer []byte
	offset int
}

func NewWriter(buffer []byte) *Writer {
	return &Writer{buffer, 0}
}

func NewWriterSize(n int) *Writer {
	return NewWriter(make([]byte, n))
}

func (w *Writer) WriteUint8(v uint8) {
	w.buffer[w.offset] = v
	w.offset++
}

func (w *Writer) WriteInt8(v int8) {
	w.WriteUint8(uint8(v))
}

func (w *Writer) WriteUint16(v uint16) {
	hostOrder.PutUint16(w.buffer[w.offset:], v)
	w.offset += 2
}

func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

func (w *Writer) WriteUint32(v uint32) {
	hostOrder.PutUint32(w.buffer[w.offset:], v)
	w.offset += 4
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// Write the given bytes, if there is enough room.
func (w *Writer) WriteSlice(p []byte) error {
	if err := w.CheckCapacity(len(p)); err != nil {
		return err
	}
	w.offset += copy(w.buffer[w.offset:], p)
	return nil
}

func (w *Writer) ZeroPad(n int) {
	for i := 0; i < n; i++ {
		w.WriteUint8(0)
	}
}

// Pad with zeros up to the next multiple of width, e.g. Align(4) adds zero
// bytes until the next 4-byte boundary.
func (w *Writer) Align(width int) {
	boundary := width * ((w.offset + width - 1) / width)
	for w.offset < boundary {
		w.buffer[w.offset] = 0
		w.offset++
	}
}

// Seek moves the write position to an absolute offset.
func (w *Writer) Seek(offset int) {
	w.offset = offset
}

// Return the number of bytes written so far.
func (w *Writer) Length() int {
	return w.offset
}

// Return the number of bytes that the underlying buffer can hold.
func (w *Writer) Capacity() int {
	return len(w.buffer)
}

// CheckCapacity verifies that needed more bytes fit after the current offset.
func (w *Writer) CheckCapacity(needed int) error {
	if avail := len(w.buffer) - w.offset; avail < needed {
		return fmt.Errorf("%d bytes available, %d needed", avail, needed)
	}
	return nil
}

// Return a slice of the bytes written so far.
func (w *Writer) Bytes() []byte {
	return w.buffer[0:w.offset]
}

// Buffer returns the whole underlying buffer regardless of the write offset.
func (w *Writer) Buffer() []byte {
	return w.buffer
}

func (w *Writer) Reset() {
	w.offset = 0
}
