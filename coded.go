package alohava

// CodedBufferSegment is one piece of encoder output. Segments form a singly
// linked chain terminated by a nil Next.
type CodedBufferSegment struct {
	Size      uint32
	BitOffset uint32 // offset of the first valid bit in Buf
	Buf       []byte
	Next      *CodedBufferSegment
}

// Len returns the number of segments in the chain.
func (s *CodedBufferSegment) Len() int {
	n := 0
	for ; s != nil; s = s.Next {
		n++
	}
	return n
}

// Bytes concatenates the payload of every segment in the chain.
func (s *CodedBufferSegment) Bytes() []byte {
	var out []byte
	for ; s != nil; s = s.Next {
		out = append(out, s.Buf[:s.Size]...)
	}
	return out
}

// buildChain copies driver output into dst and links the segments. Output
// beyond the capacity of dst is dropped; truncated reports whether that
// happened.
func buildChain(dst []byte, segs []CodedSegment) (head *CodedBufferSegment, truncated bool) {
	var tail *CodedBufferSegment
	offset := 0
	for _, seg := range segs {
		n := copy(dst[offset:], seg.Data)
		if n < len(seg.Data) {
			truncated = true
		}
		s := &CodedBufferSegment{
			Size:      uint32(n),
			BitOffset: seg.BitOffset,
			Buf:       dst[offset : offset+n],
		}
		offset += n
		if tail == nil {
			head = s
		} else {
			tail.Next = s
		}
		tail = s
	}
	if head == nil {
		head = &CodedBufferSegment{Buf: dst[:0]}
	}
	return
}
