package alohava

import (
	"sort"

	"github.com/pkg/errors"
)

type subpictureObject struct {
	id          SubpictureID
	image       *imageObject
	chromaKey   ChromaKey
	globalAlpha float32
}

// association places a subpicture region onto a surface region.
type association struct {
	src, dst Rectangle
	flags    uint32
}

func (d *Display) subpicture(id SubpictureID) (*subpictureObject, error) {
	if sp, ok := d.subpictures.Get(uint32(id)); ok {
		return sp, nil
	}
	return nil, errors.Wrapf(ErrInvalidSubpicture, "%v", id)
}

// subpictureFlags returns the capability flags of a subpicture image format.
func (d *Display) subpictureFlags(img *imageObject) (uint32, bool) {
	for _, f := range d.drv.SubpictureFormats() {
		if f.Format.FourCC == img.format.FourCC {
			return f.Flags, true
		}
	}
	return 0, false
}

// QuerySubpictureFormats copies the subpicture formats into formats and their
// capability flags into flags. Both must hold MaxNumSubpictureFormats
// entries.
func (d *Display) QuerySubpictureFormats(formats []ImageFormat, flags []uint32) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return 0, err
	}
	sf := d.drv.SubpictureFormats()
	if len(formats) < len(sf) || len(flags) < len(sf) {
		return 0, errors.Wrapf(ErrMaxNumExceeded, "%d subpicture formats", len(sf))
	}
	for i, f := range sf {
		formats[i] = f.Format
		flags[i] = f.Flags
	}
	return len(sf), nil
}

// CreateSubpicture creates a subpicture displaying an image. The image must
// have a subpicture format.
func (d *Display) CreateSubpicture(image ImageID) (SubpictureID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return SubpictureID(InvalidID), err
	}
	img, err := d.subpictureImage(image)
	if err != nil {
		return SubpictureID(InvalidID), err
	}
	sp := &subpictureObject{image: img, globalAlpha: 1}
	id, ok := d.subpictures.Insert(sp)
	if !ok {
		return SubpictureID(InvalidID), errors.Wrap(ErrAllocationFailed, "subpicture table full")
	}
	sp.id = SubpictureID(id)
	img.subpictures++
	log.Debug("Created %v on %v", sp.id, image)
	return sp.id, nil
}

func (d *Display) subpictureImage(id ImageID) (*imageObject, error) {
	img, err := d.image(id)
	if err != nil {
		return nil, err
	}
	if _, ok := d.subpictureFlags(img); !ok {
		return nil, errors.Wrapf(ErrInvalidImageFormat, "%v is not a subpicture format", img.format.FourCC)
	}
	return img, nil
}

// DestroySubpicture releases a subpicture and removes it from every surface
// it is associated with.
func (d *Display) DestroySubpicture(id SubpictureID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	sp, err := d.subpicture(id)
	if err != nil {
		return err
	}
	d.surfaces.Each(func(_ uint32, s *surfaceObject) bool {
		delete(s.associations, id)
		return true
	})
	sp.image.subpictures--
	d.subpictures.Remove(uint32(id))
	log.Debug("Destroyed %v", id)
	return nil
}

// SetSubpictureImage replaces the image a subpicture displays. Existing
// associations must remain valid for the new image: their source regions
// have to fit it and their flags have to be supported by its format.
func (d *Display) SetSubpictureImage(id SubpictureID, image ImageID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	sp, err := d.subpicture(id)
	if err != nil {
		return err
	}
	img, err := d.subpictureImage(image)
	if err != nil {
		return err
	}
	supported, _ := d.subpictureFlags(img)
	d.surfaces.Each(func(_ uint32, s *surfaceObject) bool {
		a, ok := s.associations[id]
		switch {
		case !ok:
		case a.flags&^supported != 0:
			err = errors.Wrapf(ErrFlagNotSupported, "%v associated with flags %#x on %v", id, a.flags, s.id)
		case !a.src.within(img.layout):
			err = errors.Wrapf(ErrInvalidParameter, "%v associated with source %v outside %v", id, a.src, image)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	sp.image.subpictures--
	img.subpictures++
	sp.image = img
	return nil
}

// SetSubpictureChromakey sets the key used when a subpicture is associated
// with SubpictureChromaKeying. Pixels whose masked value lies within
// [min, max] are transparent.
func (d *Display) SetSubpictureChromakey(id SubpictureID, min, max, mask uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	sp, err := d.subpicture(id)
	if err != nil {
		return err
	}
	sp.chromaKey = ChromaKey{Min: min, Max: max, Mask: mask}
	return nil
}

// SetSubpictureGlobalAlpha sets the opacity used with SubpictureGlobalAlpha.
func (d *Display) SetSubpictureGlobalAlpha(id SubpictureID, alpha float32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	sp, err := d.subpicture(id)
	if err != nil {
		return err
	}
	if !(alpha >= 0 && alpha <= 1) {
		return errors.Wrapf(ErrInvalidParameter, "global alpha %v", alpha)
	}
	sp.globalAlpha = alpha
	return nil
}

// AssociateSubpicture places the src region of a subpicture at the dst region
// of each target. Associating again replaces the previous placement. An
// empty src selects the whole subpicture image and an empty dst the whole
// target.
func (d *Display) AssociateSubpicture(id SubpictureID, targets []SurfaceID, src, dst Rectangle, flags uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	sp, err := d.subpicture(id)
	if err != nil {
		return err
	}
	supported, _ := d.subpictureFlags(sp.image)
	if flags&^supported != 0 {
		return errors.Wrapf(ErrFlagNotSupported, "flags %#x on %v subpicture", flags, sp.image.format.FourCC)
	}
	if src.empty() {
		src = Rectangle{Width: uint16(sp.image.layout.Width), Height: uint16(sp.image.layout.Height)}
	}
	if !src.within(sp.image.layout) {
		return errors.Wrapf(ErrInvalidParameter, "source %v outside %v", src, sp.image.id)
	}

	batch, err := d.surfaceBatch(targets)
	if err != nil {
		return err
	}
	for _, s := range batch {
		r := dst
		if r.empty() {
			r = Rectangle{Width: uint16(s.layout.Width), Height: uint16(s.layout.Height)}
		}
		if !r.within(s.layout) {
			return errors.Wrapf(ErrInvalidParameter, "destination %v outside %v", r, s.id)
		}
	}
	for _, s := range batch {
		r := dst
		if r.empty() {
			r = Rectangle{Width: uint16(s.layout.Width), Height: uint16(s.layout.Height)}
		}
		s.associations[id] = association{src: src, dst: r, flags: flags}
	}
	log.Trace(3, "Associated %v with %v", id, targets)
	return nil
}

// DeassociateSubpicture removes a subpicture from each target. Targets it is
// not associated with are left alone.
func (d *Display) DeassociateSubpicture(id SubpictureID, targets []SurfaceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	if _, err := d.subpicture(id); err != nil {
		return err
	}
	batch, err := d.surfaceBatch(targets)
	if err != nil {
		return err
	}
	for _, s := range batch {
		delete(s.associations, id)
	}
	return nil
}

func (d *Display) surfaceBatch(ids []SurfaceID) ([]*surfaceObject, error) {
	batch := make([]*surfaceObject, 0, len(ids))
	for _, id := range ids {
		s, err := d.surface(id)
		if err != nil {
			return nil, err
		}
		batch = append(batch, s)
	}
	return batch, nil
}

// overlays snapshots the subpictures associated with s, ordered by ID.
func (d *Display) overlays(s *surfaceObject) []Overlay {
	if len(s.associations) == 0 {
		return nil
	}
	ids := make([]SubpictureID, 0, len(s.associations))
	for id := range s.associations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Overlay, 0, len(ids))
	for _, id := range ids {
		sp, ok := d.subpictures.Get(uint32(id))
		if !ok {
			continue
		}
		a := s.associations[id]
		out = append(out, Overlay{
			Subpicture:  id,
			Layout:      sp.image.layout,
			Pixels:      append([]byte(nil), sp.image.buf.bytes()...),
			Palette:     append([]byte(nil), sp.image.palette...),
			Src:         a.src,
			Dst:         a.dst,
			Flags:       a.flags,
			ChromaKey:   sp.chromaKey,
			GlobalAlpha: sp.globalAlpha,
		})
	}
	return out
}
