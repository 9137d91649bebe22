package alohava

import (
	"github.com/lanikai/alohava/internal/fourcc"
	"github.com/pkg/errors"
)

// imageObject is a client-visible pixel store. Its pixels live in an image
// buffer owned by the image.
type imageObject struct {
	id     ImageID
	format ImageFormat
	layout fourcc.Layout
	buf    *bufferObject

	// Surface whose storage buf aliases, or InvalidID.
	derivedFrom SurfaceID

	palette []byte

	// Number of subpictures displaying this image.
	subpictures int
}

func (img *imageObject) info() Image {
	l := img.layout
	return Image{
		ID:                img.id,
		Format:            img.format,
		Buf:               img.buf.id,
		Width:             l.Width,
		Height:            l.Height,
		DataSize:          l.DataSize,
		NumPlanes:         l.NumPlanes,
		Pitches:           l.Pitches,
		Offsets:           l.Offsets,
		NumPaletteEntries: l.PaletteEntries,
		EntryBytes:        l.EntryBytes,
		ComponentOrder:    l.ComponentOrder,
	}
}

func (d *Display) image(id ImageID) (*imageObject, error) {
	if img, ok := d.images.Get(uint32(id)); ok {
		return img, nil
	}
	return nil, errors.Wrapf(ErrInvalidImage, "%v", id)
}

// QueryImageFormats copies the driver's image formats into dst, which must
// hold MaxNumImageFormats entries.
func (d *Display) QueryImageFormats(dst []ImageFormat) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return 0, err
	}
	formats := d.drv.ImageFormats()
	if len(dst) < len(formats) {
		return 0, errors.Wrapf(ErrMaxNumExceeded, "%d image formats, room for %d", len(formats), len(dst))
	}
	return copy(dst, formats), nil
}

func (d *Display) imageFormat(c fourcc.Code) (ImageFormat, bool) {
	for _, f := range d.drv.ImageFormats() {
		if f.FourCC == c {
			return f, true
		}
	}
	for _, f := range d.drv.SubpictureFormats() {
		if f.Format.FourCC == c {
			return f.Format, true
		}
	}
	return ImageFormat{}, false
}

// CreateImage allocates an image and its image buffer. The format is one of
// the image or subpicture formats of the driver. The returned Image
// describes the plane layout; its pixels are accessed by mapping Image.Buf.
func (d *Display) CreateImage(format ImageFormat, width, height int) (Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return Image{ID: ImageID(InvalidID)}, err
	}
	f, ok := d.imageFormat(format.FourCC)
	if !ok {
		return Image{ID: ImageID(InvalidID)}, errors.Wrapf(ErrInvalidImageFormat, "%v", format.FourCC)
	}
	if width <= 0 || height <= 0 {
		return Image{ID: ImageID(InvalidID)}, errors.Wrapf(ErrInvalidParameter, "image size %dx%d", width, height)
	}
	layout, err := fourcc.NewLayout(f.FourCC, width, height)
	if err != nil {
		return Image{ID: ImageID(InvalidID)}, errors.Wrapf(ErrInvalidImageFormat, "%v", err)
	}

	b, err := d.newBuffer(ContextID(InvalidID), ImageBufferType, layout.DataSize, 1, nil)
	if err != nil {
		return Image{ID: ImageID(InvalidID)}, err
	}
	b.protect()
	img, err := d.insertImage(f, layout, b, SurfaceID(InvalidID))
	if err != nil {
		d.destroyBuffer(b)
		return Image{ID: ImageID(InvalidID)}, err
	}
	log.Debug("Created %v: %v %dx%d, %d bytes", img.id, f.FourCC, layout.Width, layout.Height, layout.DataSize)
	return img.info(), nil
}

func (d *Display) insertImage(f ImageFormat, layout fourcc.Layout, b *bufferObject, from SurfaceID) (*imageObject, error) {
	img := &imageObject{
		format:      f,
		layout:      layout,
		buf:         b,
		derivedFrom: from,
	}
	if n := layout.PaletteSize(); n > 0 {
		img.palette = make([]byte, n)
	}
	id, ok := d.images.Insert(img)
	if !ok {
		return nil, errors.Wrap(ErrAllocationFailed, "image table full")
	}
	img.id = ImageID(id)
	b.image = img.id
	return img, nil
}

// DestroyImage releases an image and its buffer. Destroying a derived image
// makes its surface available to GetImage and PutImage again.
func (d *Display) DestroyImage(id ImageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	img, err := d.image(id)
	if err != nil {
		return err
	}
	if img.subpictures > 0 {
		return errors.Wrapf(ErrOperationFailed, "%v is used by %d subpictures", id, img.subpictures)
	}
	if s, ok := d.surfaces.Get(uint32(img.derivedFrom)); ok && s.derived == id {
		s.derived = ImageID(InvalidID)
	}
	d.images.Remove(uint32(id))
	d.destroyBuffer(img.buf)
	log.Debug("Destroyed %v", id)
	return nil
}

// SetImagePalette sets the palette of a paletted image. The palette holds
// NumPaletteEntries entries of EntryBytes bytes each.
func (d *Display) SetImagePalette(id ImageID, palette []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	img, err := d.image(id)
	if err != nil {
		return err
	}
	if img.palette == nil {
		return errors.Wrapf(ErrOperationFailed, "%v image %v has no palette", img.format.FourCC, id)
	}
	if len(palette) < len(img.palette) {
		return errors.Wrapf(ErrInvalidParameter, "%d byte palette, need %d", len(palette), len(img.palette))
	}
	copy(img.palette, palette)
	return nil
}

// GetImage copies a width x height region of a surface at (x, y) into the
// top left corner of an image.
func (d *Display) GetImage(surface SurfaceID, x, y, width, height int, image ImageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	s, img, err := d.transferPair(surface, image)
	if err != nil {
		return err
	}
	if s.status == SurfaceRendering {
		return errors.Wrapf(ErrSurfaceBusy, "%v is %v", surface, s.status)
	}
	if !s.layout.Contains(x, y, width, height) || !img.layout.Contains(0, 0, width, height) {
		return errors.Wrapf(ErrInvalidParameter, "%dx%d+%d+%d from %v into %v", width, height, x, y, surface, image)
	}

	if werr := img.buf.write(func(p []byte) {
		err = fourcc.Copy(p, img.layout, 0, 0, s.block.Bytes(), s.layout, x, y, width, height)
	}); werr != nil {
		return errors.Wrapf(ErrOperationFailed, "%v: %v", image, werr)
	}
	if err != nil {
		return errors.Wrapf(ErrInvalidImageFormat, "%v to %v: %v", s.layout.FourCC, img.layout.FourCC, err)
	}
	return nil
}

// PutImage copies the src region of an image to the dst region of a surface.
// Scaling is not supported, so both regions must have the same size. An
// empty src selects the whole image and an empty dst a region of the size of
// src at the origin.
func (d *Display) PutImage(surface SurfaceID, image ImageID, src, dst Rectangle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	s, img, err := d.transferPair(surface, image)
	if err != nil {
		return err
	}
	if s.status.busy() {
		return errors.Wrapf(ErrSurfaceBusy, "%v is %v", surface, s.status)
	}
	if src.empty() {
		src = Rectangle{Width: uint16(img.layout.Width), Height: uint16(img.layout.Height)}
	}
	if dst.empty() {
		dst = Rectangle{Width: src.Width, Height: src.Height}
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return errors.Wrapf(ErrResolutionNotSupported, "scaling %v to %v", src, dst)
	}
	if !src.within(img.layout) || !dst.within(s.layout) {
		return errors.Wrapf(ErrInvalidParameter, "%v of %v to %v of %v", src, image, dst, surface)
	}

	err = fourcc.Copy(s.block.Bytes(), s.layout, int(dst.X), int(dst.Y),
		img.buf.bytes(), img.layout, int(src.X), int(src.Y), int(src.Width), int(src.Height))
	if err != nil {
		return errors.Wrapf(ErrInvalidImageFormat, "%v to %v: %v", img.layout.FourCC, s.layout.FourCC, err)
	}
	return nil
}

// transferPair resolves the operands of GetImage and PutImage. A surface
// with a live derived image is busy for copies in either direction.
func (d *Display) transferPair(surface SurfaceID, image ImageID) (*surfaceObject, *imageObject, error) {
	s, err := d.surface(surface)
	if err != nil {
		return nil, nil, err
	}
	img, err := d.image(image)
	if err != nil {
		return nil, nil, err
	}
	if s.derived != ImageID(InvalidID) {
		return nil, nil, errors.Wrapf(ErrSurfaceBusy, "%v has derived %v", surface, s.derived)
	}
	return s, img, nil
}

// DeriveImage exposes the storage of a surface as an image without copying.
// It fails with ErrOperationFailed when the driver cannot share the surface
// layout, in which case the caller falls back to CreateImage and GetImage.
func (d *Display) DeriveImage(surface SurfaceID) (Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return Image{ID: ImageID(InvalidID)}, err
	}
	s, err := d.surface(surface)
	if err != nil {
		return Image{ID: ImageID(InvalidID)}, err
	}
	if s.derived != ImageID(InvalidID) {
		return Image{ID: ImageID(InvalidID)}, errors.Wrapf(ErrSurfaceBusy, "%v already has derived %v", surface, s.derived)
	}
	if s.status == SurfaceRendering {
		return Image{ID: ImageID(InvalidID)}, errors.Wrapf(ErrSurfaceBusy, "%v is %v", surface, s.status)
	}
	f, ok := fourcc.Lookup(s.layout.FourCC)
	if !ok || !d.drv.CanDerive(s.layout.FourCC) {
		return Image{ID: ImageID(InvalidID)}, errors.Wrapf(ErrOperationFailed, "%v storage cannot be derived", s.layout.FourCC)
	}

	b, err := d.newBuffer(ContextID(InvalidID), ImageBufferType, s.layout.DataSize, 1, s.block)
	if err != nil {
		return Image{ID: ImageID(InvalidID)}, err
	}
	img, err := d.insertImage(f, s.layout, b, surface)
	if err != nil {
		d.destroyBuffer(b)
		return Image{ID: ImageID(InvalidID)}, err
	}
	s.derived = img.id
	log.Debug("Derived %v from %v", img.id, surface)
	return img.info(), nil
}
