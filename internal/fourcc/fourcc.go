// Package fourcc describes the FourCC-tagged pixel formats exchanged between
// clients and accelerator drivers: the format descriptors, the plane layout
// of an image of a given size, and plane copies between layouts.
package fourcc

import (
	"fmt"
)

// Code is a four character code packed little-endian into 32 bits.
type Code uint32

func New(a, b, c, d byte) Code {
	return Code(a) | Code(b)<<8 | Code(c)<<16 | Code(d)<<24
}

const (
	NV12 Code = 0x3231564E
	NV11 Code = 0x3131564E
	YV12 Code = 0x32315659
	I420 Code = 0x30323449
	IYUV Code = 0x56555949
	P208 Code = 0x38303250
	YUY2 Code = 0x32595559
	UYVY Code = 0x59565955
	AYUV Code = 0x56555941
	RGBA Code = 0x41424752
	AI44 Code = 0x34344149
)

func (c Code) String() string {
	b := []byte{byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)}
	for _, ch := range b {
		if ch < 0x20 || ch > 0x7e {
			return fmt.Sprintf("0x%08x", uint32(c))
		}
	}
	return string(b)
}

// Byte order of multi-byte pixel components.
const (
	LSBFirst = 1
	MSBFirst = 2
)

// Format is the client-visible descriptor of a pixel format. The masks are
// only meaningful for RGB formats.
type Format struct {
	FourCC       Code
	ByteOrder    uint32
	BitsPerPixel uint32
	Depth        uint32
	RedMask      uint32
	GreenMask    uint32
	BlueMask     uint32
	AlphaMask    uint32
}

// plane describes one plane: hsub x vsub pixels share a unit of size bytes.
type plane struct {
	hsub, vsub int
	size       int
}

type info struct {
	format Format
	align  int // width and height are rounded up to a multiple of align
	planes []plane
	// Paletted formats.
	paletteEntries int
	entryBytes     int
	componentOrder string
}

var (
	luma    = plane{1, 1, 1}
	chroma  = plane{2, 2, 1}
	uv420   = plane{2, 2, 2}
	uv422   = plane{2, 1, 2}
	uv411   = plane{4, 1, 2}
	packed2 = plane{2, 1, 4}
	packed4 = plane{1, 1, 4}
)

var table = map[Code]info{
	NV12: {Format{FourCC: NV12, ByteOrder: LSBFirst, BitsPerPixel: 12}, 2, []plane{luma, uv420}, 0, 0, ""},
	NV11: {Format{FourCC: NV11, ByteOrder: LSBFirst, BitsPerPixel: 12}, 4, []plane{luma, uv411}, 0, 0, ""},
	YV12: {Format{FourCC: YV12, ByteOrder: LSBFirst, BitsPerPixel: 12}, 2, []plane{luma, chroma, chroma}, 0, 0, ""},
	I420: {Format{FourCC: I420, ByteOrder: LSBFirst, BitsPerPixel: 12}, 2, []plane{luma, chroma, chroma}, 0, 0, ""},
	IYUV: {Format{FourCC: IYUV, ByteOrder: LSBFirst, BitsPerPixel: 12}, 2, []plane{luma, chroma, chroma}, 0, 0, ""},
	P208: {Format{FourCC: P208, ByteOrder: LSBFirst, BitsPerPixel: 16}, 2, []plane{luma, uv422}, 0, 0, ""},
	YUY2: {Format{FourCC: YUY2, ByteOrder: LSBFirst, BitsPerPixel: 16}, 2, []plane{packed2}, 0, 0, ""},
	UYVY: {Format{FourCC: UYVY, ByteOrder: LSBFirst, BitsPerPixel: 16}, 2, []plane{packed2}, 0, 0, ""},
	AYUV: {Format{FourCC: AYUV, ByteOrder: LSBFirst, BitsPerPixel: 32}, 1, []plane{packed4}, 0, 0, ""},
	RGBA: {Format{
		FourCC: RGBA, ByteOrder: LSBFirst, BitsPerPixel: 32, Depth: 32,
		RedMask: 0x000000ff, GreenMask: 0x0000ff00, BlueMask: 0x00ff0000, AlphaMask: 0xff000000,
	}, 1, []plane{packed4}, 0, 0, ""},
	AI44: {Format{FourCC: AI44, ByteOrder: LSBFirst, BitsPerPixel: 8, Depth: 4}, 1, []plane{luma}, 16, 3, "YUV"},
}

// Lookup returns the descriptor for a supported FourCC.
func Lookup(c Code) (Format, bool) {
	in, ok := table[c]
	return in.format, ok
}

// Supported reports whether c has a known layout.
func Supported(c Code) bool {
	_, ok := table[c]
	return ok
}
