// Package h264 provides the small amount of H.264 bitstream handling needed
// to feed slices to an accelerator: NAL unit headers, Annex B splitting and
// the leading fields of a slice header.
package h264

// NAL unit types.
const (
	TypeSlice = 1
	TypeIDR   = 5
	TypeSEI   = 6
	TypeSPS   = 7
	TypePPS   = 8
	TypeAUD   = 9
)

type NALU []byte

func (nalu NALU) ForbiddenBit() byte {
	return nalu[0] & 0x80 >> 7
}

func (nalu NALU) NRI() byte {
	return nalu[0] & 0x60 >> 5
}

func (nalu NALU) Type() byte {
	return nalu[0] & 0x1f
}

// IsVCL reports whether the unit carries coded slice data.
func (nalu NALU) IsVCL() bool {
	t := nalu.Type()
	return t >= TypeSlice && t <= TypeIDR
}

// IsReference reports whether the picture is used for reference.
func (nalu NALU) IsReference() bool {
	return nalu.NRI() != 0
}
