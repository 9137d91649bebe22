package alohava

import (
	"context"

	"github.com/lanikai/alohava/internal/fourcc"
	"github.com/lanikai/alohava/internal/mem"
	"github.com/pkg/errors"
)

// surfaceObject is a render target. Its size, format and storage are fixed at
// creation; status and binding change under the display lock.
type surfaceObject struct {
	id     SurfaceID
	format uint32
	layout fourcc.Layout
	block  *mem.Block

	status SurfaceStatus

	// Closed whenever status is neither Rendering nor Displaying.
	idle chan struct{}

	// Sequence number of the job or presentation in flight.
	seq uint64

	// Failure of the last job, reported once by SyncSurface.
	jobErr error

	// Owning context, or InvalidID.
	context ContextID

	// Live derived image, or InvalidID.
	derived ImageID

	associations map[SubpictureID]association
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// setBusy enters Rendering or Displaying.
func (s *surfaceObject) setBusy(status SurfaceStatus, seq uint64) {
	s.status = status
	s.seq = seq
	s.idle = make(chan struct{})
}

// setIdle leaves Rendering or Displaying and wakes SyncSurface callers.
func (s *surfaceObject) setIdle(status SurfaceStatus) {
	if s.status.busy() {
		close(s.idle)
	}
	s.status = status
}

func (s *surfaceObject) target() Target {
	return Target{ID: s.id, Layout: s.layout, Pixels: s.block.Bytes()}
}

func (s *surfaceObject) free() {
	if err := s.block.Free(); err != nil {
		log.Warn("Failed to release %v storage: %v", s.id, err)
	}
}

// storageFormat returns the pixel layout used for a render target format.
func storageFormat(rt uint32) (fourcc.Code, bool) {
	switch rt {
	case RTFormatYUV420:
		return fourcc.NV12, true
	case RTFormatYUV422:
		return fourcc.YUY2, true
	case RTFormatYUV444:
		return fourcc.AYUV, true
	}
	return 0, false
}

func (d *Display) surface(id SurfaceID) (*surfaceObject, error) {
	if s, ok := d.surfaces.Get(uint32(id)); ok {
		return s, nil
	}
	return nil, errors.Wrapf(ErrInvalidSurface, "%v", id)
}

func (d *Display) checkResolution(width, height int) error {
	if width <= 0 || height <= 0 || width > d.maxWidth || height > d.maxHeight {
		return errors.Wrapf(ErrResolutionNotSupported, "%dx%d, maximum %dx%d", width, height, d.maxWidth, d.maxHeight)
	}
	return nil
}

// CreateSurfaces allocates n surfaces of identical size and format. Creation
// is all or nothing.
func (d *Display) CreateSurfaces(width, height int, format uint32, n int) ([]SurfaceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, errors.Wrapf(ErrInvalidParameter, "%d surfaces", n)
	}
	if n > d.surfaces.Available() {
		return nil, errors.Wrapf(ErrAllocationFailed, "%d surfaces requested, %d available", n, d.surfaces.Available())
	}
	code, ok := storageFormat(format)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedRTFormat, "RT format %#x", format)
	}
	if err := d.checkResolution(width, height); err != nil {
		return nil, err
	}
	layout, err := fourcc.NewLayout(code, width, height)
	if err != nil {
		return nil, errors.Wrapf(ErrAllocationFailed, "%v", err)
	}

	created := make([]*surfaceObject, 0, n)
	rollback := func() {
		for _, s := range created {
			d.surfaces.Remove(uint32(s.id))
			s.free()
		}
	}
	for i := 0; i < n; i++ {
		block, err := mem.Alloc(layout.DataSize)
		if err != nil {
			rollback()
			return nil, errors.Wrapf(ErrAllocationFailed, "surface storage: %v", err)
		}
		s := &surfaceObject{
			format:       format,
			layout:       layout,
			block:        block,
			status:       SurfaceReady,
			idle:         closedChan,
			context:      ContextID(InvalidID),
			derived:      ImageID(InvalidID),
			associations: map[SubpictureID]association{},
		}
		id, ok := d.surfaces.Insert(s)
		if !ok {
			block.Free()
			rollback()
			return nil, errors.Wrapf(ErrAllocationFailed, "surface limit %d reached", d.cfg.MaxSurfaces)
		}
		s.id = SurfaceID(id)
		created = append(created, s)
	}

	ids := make([]SurfaceID, n)
	for i, s := range created {
		ids[i] = s.id
	}
	log.Debug("Created %d %dx%d %v surfaces: %v", n, width, height, layout.FourCC, ids)
	return ids, nil
}

// DestroySurfaces releases a batch of surfaces. Every surface is checked
// before any is released: a surface bound to a live context is invalid, and
// one with a derived image or work in flight is busy.
func (d *Display) DestroySurfaces(ids []SurfaceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}

	seen := make(map[SurfaceID]bool, len(ids))
	batch := make([]*surfaceObject, 0, len(ids))
	for _, id := range ids {
		s, err := d.surface(id)
		if err != nil {
			return err
		}
		if seen[id] {
			return errors.Wrapf(ErrInvalidParameter, "%v listed twice", id)
		}
		seen[id] = true
		if s.context != ContextID(InvalidID) {
			return errors.Wrapf(ErrInvalidSurface, "%v bound to %v", id, s.context)
		}
		if s.derived != ImageID(InvalidID) {
			return errors.Wrapf(ErrSurfaceBusy, "%v has derived %v", id, s.derived)
		}
		if s.status.busy() {
			return errors.Wrapf(ErrSurfaceBusy, "%v is %v", id, s.status)
		}
		batch = append(batch, s)
	}

	for _, s := range batch {
		d.surfaces.Remove(uint32(s.id))
		s.free()
	}
	log.Debug("Destroyed surfaces %v", ids)
	return nil
}

// QuerySurfaceStatus returns the current status without waiting.
func (d *Display) QuerySurfaceStatus(id SurfaceID) (SurfaceStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return 0, err
	}
	s, err := d.surface(id)
	if err != nil {
		return 0, err
	}
	return s.status, nil
}

// SyncSurface blocks until the surface is neither Rendering nor Displaying.
// If the last job on the surface failed, its error is returned once.
func (d *Display) SyncSurface(id SurfaceID) error {
	return d.SyncSurfaceWithContext(context.Background(), id)
}

// SyncSurfaceWithContext is SyncSurface with a cancellable wait. Cancelling
// the wait does not affect the work in flight.
func (d *Display) SyncSurfaceWithContext(ctx context.Context, id SurfaceID) error {
	for {
		d.mu.Lock()
		if err := d.check(); err != nil {
			d.mu.Unlock()
			return err
		}
		s, err := d.surface(id)
		if err != nil {
			d.mu.Unlock()
			return err
		}
		if !s.status.busy() {
			err, s.jobErr = s.jobErr, nil
			d.mu.Unlock()
			return err
		}
		idle := s.idle
		d.mu.Unlock()

		select {
		case <-idle:
		case <-d.done:
			return errors.Wrapf(ErrInvalidDisplay, "display terminated while waiting for %v", id)
		case <-ctx.Done():
			return errors.Wrapf(ErrOperationFailed, "wait for %v: %v", id, ctx.Err())
		}
	}
}

// PutSurface hands a surface to the driver for presentation. The surface is
// Displaying until the driver is done with it. An empty src selects the whole
// surface, an empty dst the same size as src.
func (d *Display) PutSurface(id SurfaceID, src, dst Rectangle) error {
	d.mu.Lock()
	if err := d.check(); err != nil {
		d.mu.Unlock()
		return err
	}
	s, err := d.surface(id)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if s.status.busy() {
		d.mu.Unlock()
		return errors.Wrapf(ErrSurfaceBusy, "%v is %v", id, s.status)
	}
	if src.empty() {
		src = Rectangle{Width: uint16(s.layout.Width), Height: uint16(s.layout.Height)}
	}
	if dst.empty() {
		dst = Rectangle{Width: src.Width, Height: src.Height}
	}
	if !src.within(s.layout) {
		d.mu.Unlock()
		return errors.Wrapf(ErrInvalidParameter, "source %v outside %v", src, id)
	}

	d.seq++
	seq := d.seq
	s.setBusy(SurfaceDisplaying, seq)
	p := &Presentation{Target: s.target(), Src: src, Dst: dst, Overlays: d.overlays(s)}
	d.mu.Unlock()

	log.Trace(5, "Presenting %v (seq %d)", id, seq)
	d.drv.Present(p, func(err error) {
		d.presented(id, seq, err)
	})
	return nil
}

func (d *Display) presented(id SurfaceID, seq uint64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != displayInitialized {
		return
	}
	s, ok := d.surfaces.Get(uint32(id))
	if !ok || s.seq != seq || s.status != SurfaceDisplaying {
		return
	}
	if err != nil {
		log.Warn("Presentation of %v failed: %v", id, err)
		s.jobErr = errors.Wrapf(ErrOperationFailed, "present %v: %v", id, err)
	}
	s.setIdle(SurfaceReady)
}
