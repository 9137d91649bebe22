package fourcc

import (
	errors "golang.org/x/xerrors"
)

// ErrConversion is returned by Copy for format pairs it cannot repack.
var ErrConversion = errors.New("fourcc: unsupported conversion")

// chromaPlanes returns the plane indices of U and V for planar 4:2:0 formats.
func chromaPlanes(c Code) (u, v int, ok bool) {
	switch c {
	case I420, IYUV:
		return 1, 2, true
	case YV12:
		return 2, 1, true
	}
	return 0, 0, false
}

// CanCopy reports whether Copy supports the given source and destination
// formats.
func CanCopy(dst, src Code) bool {
	if dst == src {
		return true
	}
	if dst == NV12 {
		_, _, ok := chromaPlanes(src)
		return ok
	}
	if src == NV12 {
		_, _, ok := chromaPlanes(dst)
		return ok
	}
	_, _, dok := chromaPlanes(dst)
	_, _, sok := chromaPlanes(src)
	return dok && sok
}

// Copy copies a w x h pixel region from src at (sx, sy) to dst at (dx, dy).
// Identical layouts are copied plane by plane; NV12 and the planar 4:2:0
// formats are repacked. Offsets and sizes on subsampled formats are rounded
// to whole chroma units.
func Copy(dst []byte, dl Layout, dx, dy int, src []byte, sl Layout, sx, sy, w, h int) error {
	if !CanCopy(dl.FourCC, sl.FourCC) {
		return ErrConversion
	}
	if dl.FourCC == sl.FourCC {
		for i := 0; i < dl.NumPlanes; i++ {
			copyPlane(dst, dl, i, dx, dy, src, sl, i, sx, sy, w, h)
		}
		return nil
	}

	copyPlane(dst, dl, 0, dx, dy, src, sl, 0, sx, sy, w, h)
	switch {
	case sl.FourCC == NV12:
		u, v, _ := chromaPlanes(dl.FourCC)
		s, n, rows := sl.planeRegion(1, sx, sy, w, h)
		du, _, _ := dl.planeRegion(u, dx, dy, w, h)
		dv, _, _ := dl.planeRegion(v, dx, dy, w, h)
		for r := 0; r < rows; r++ {
			for i := 0; i < n/2; i++ {
				dst[du+i] = src[s+2*i]
				dst[dv+i] = src[s+2*i+1]
			}
			s += sl.Pitches[1]
			du += dl.Pitches[u]
			dv += dl.Pitches[v]
		}
	case dl.FourCC == NV12:
		u, v, _ := chromaPlanes(sl.FourCC)
		d, n, rows := dl.planeRegion(1, dx, dy, w, h)
		su, _, _ := sl.planeRegion(u, sx, sy, w, h)
		sv, _, _ := sl.planeRegion(v, sx, sy, w, h)
		for r := 0; r < rows; r++ {
			for i := 0; i < n/2; i++ {
				dst[d+2*i] = src[su+i]
				dst[d+2*i+1] = src[sv+i]
			}
			d += dl.Pitches[1]
			su += sl.Pitches[u]
			sv += sl.Pitches[v]
		}
	default:
		// Planar to planar with the chroma planes swapped.
		du, dv, _ := chromaPlanes(dl.FourCC)
		su, sv, _ := chromaPlanes(sl.FourCC)
		copyPlane(dst, dl, du, dx, dy, src, sl, su, sx, sy, w, h)
		copyPlane(dst, dl, dv, dx, dy, src, sl, sv, sx, sy, w, h)
	}
	return nil
}
