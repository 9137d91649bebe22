package params

import (
	"github.com/lanikai/alohava/internal/packet"
	errors "golang.org/x/xerrors"
)

// SliceBase is the codec-independent head of every slice parameter element.
type SliceBase struct {
	DataSize   uint32 // bytes of slice data in the paired data buffer
	DataOffset uint32 // offset of the first byte of slice data
	DataFlag   uint32 // continuation flag
}

// SliceBaseSize is the packed size of SliceBase.
const SliceBaseSize = 12

var errShortSlice = errors.New("slice parameter element shorter than slice base")

func (b *SliceBase) write(w *packet.Writer) {
	w.WriteUint32(b.DataSize)
	w.WriteUint32(b.DataOffset)
	w.WriteUint32(b.DataFlag)
}

func (b *SliceBase) read(r *packet.Reader) {
	b.DataSize = r.ReadUint32()
	b.DataOffset = r.ReadUint32()
	b.DataFlag = r.ReadUint32()
}

// Marshal packs a slice parameter element carrying only the base, as used by
// codecs without per-slice parameters.
func (b SliceBase) Marshal() []byte {
	w := packet.NewWriterSize(SliceBaseSize)
	b.write(w)
	return w.Bytes()
}

// ParseSliceBase decodes the base of one slice parameter element.
func ParseSliceBase(elem []byte) (SliceBase, error) {
	var b SliceBase
	if len(elem) < SliceBaseSize {
		return b, errShortSlice
	}
	b.read(packet.NewReader(elem))
	return b, nil
}

// Select returns the bytes of data this slice refers to.
func (b SliceBase) Select(data []byte) ([]byte, error) {
	end := uint64(b.DataOffset) + uint64(b.DataSize)
	if end > uint64(len(data)) {
		return nil, errors.Errorf("slice data [%d, %d) exceeds buffer of %d bytes", b.DataOffset, end, len(data))
	}
	return data[b.DataOffset:end], nil
}

// Elements splits a multi-element parameter buffer into n elements of size
// bytes each.
func Elements(buf []byte, size, n int) [][]byte {
	elems := make([][]byte, 0, n)
	for i := 0; i < n && (i+1)*size <= len(buf); i++ {
		elems = append(elems, buf[i*size:(i+1)*size])
	}
	return elems
}
