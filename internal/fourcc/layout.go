package fourcc

import (
	errors "golang.org/x/xerrors"
)

const MaxPlanes = 3

// Layout is the memory layout of an image of one format and size: planes are
// stored back to back in a single data store.
type Layout struct {
	FourCC    Code
	Width     int
	Height    int
	NumPlanes int
	Pitches   [MaxPlanes]int
	Offsets   [MaxPlanes]int
	DataSize  int

	PaletteEntries int
	EntryBytes     int
	ComponentOrder [4]byte

	planes []plane
}

// NewLayout computes the layout of a width x height image. Width and height
// may be enlarged to satisfy the format's subsampling.
func NewLayout(c Code, width, height int) (Layout, error) {
	in, ok := table[c]
	if !ok {
		return Layout{}, errors.Errorf("unsupported fourcc %s", c)
	}
	if width <= 0 || height <= 0 {
		return Layout{}, errors.Errorf("invalid size %dx%d", width, height)
	}
	l := Layout{
		FourCC:         c,
		Width:          roundUp(width, in.align),
		Height:         roundUp(height, in.align),
		NumPlanes:      len(in.planes),
		PaletteEntries: in.paletteEntries,
		EntryBytes:     in.entryBytes,
		planes:         in.planes,
	}
	copy(l.ComponentOrder[:], in.componentOrder)
	if c == NV11 || c == YUY2 || c == UYVY || c == P208 {
		// Horizontal subsampling only.
		l.Height = height
	}
	offset := 0
	for i, p := range in.planes {
		l.Offsets[i] = offset
		l.Pitches[i] = l.Width / p.hsub * p.size
		offset += l.Pitches[i] * (l.Height / p.vsub)
	}
	l.DataSize = offset
	return l, nil
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}

// PaletteSize is the number of bytes SetPalette expects.
func (l Layout) PaletteSize() int {
	return l.PaletteEntries * l.EntryBytes
}

// Contains reports whether the rectangle lies inside the image.
func (l Layout) Contains(x, y, w, h int) bool {
	return x >= 0 && y >= 0 && w > 0 && h > 0 && x+w <= l.Width && y+h <= l.Height
}

// planeRegion returns the byte range of each row of plane i covered by the
// pixel rectangle.
func (l Layout) planeRegion(i, x, y, w, h int) (start, rowBytes, rows int) {
	p := l.planes[i]
	x0, x1 := x/p.hsub, (x+w+p.hsub-1)/p.hsub
	y0, y1 := y/p.vsub, (y+h+p.vsub-1)/p.vsub
	start = l.Offsets[i] + y0*l.Pitches[i] + x0*p.size
	return start, (x1 - x0) * p.size, y1 - y0
}

func copyPlane(dst []byte, dl Layout, di, dx, dy int, src []byte, sl Layout, si, sx, sy, w, h int) {
	d, n, rows := dl.planeRegion(di, dx, dy, w, h)
	s, _, _ := sl.planeRegion(si, sx, sy, w, h)
	for r := 0; r < rows; r++ {
		copy(dst[d:d+n], src[s:s+n])
		d += dl.Pitches[di]
		s += sl.Pitches[si]
	}
}
