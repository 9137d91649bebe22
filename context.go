package alohava

import (
	"github.com/pkg/errors"
)

// contextObject binds a config to a fixed set of render targets and carries
// at most one picture in progress.
type contextObject struct {
	id      ContextID
	config  *configObject
	width   int
	height  int
	flags   int
	targets []SurfaceID

	// Non-nil between BeginPicture and EndPicture.
	picture *picture
}

func (c *contextObject) hasTarget(id SurfaceID) bool {
	for _, t := range c.targets {
		if t == id {
			return true
		}
	}
	return false
}

func (d *Display) context(id ContextID) (*contextObject, error) {
	if c, ok := d.contexts.Get(uint32(id)); ok {
		return c, nil
	}
	return nil, errors.Wrapf(ErrInvalidContext, "%v", id)
}

// CreateContext creates a decode or encode pipeline. All targets are bound
// to the new context atomically; a target already bound elsewhere fails the
// whole call.
func (d *Display) CreateContext(config ConfigID, width, height, flags int, targets []SurfaceID) (ContextID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return ContextID(InvalidID), err
	}
	cfg, err := d.config(config)
	if err != nil {
		return ContextID(InvalidID), err
	}
	if width <= 0 || height <= 0 {
		return ContextID(InvalidID), errors.Wrapf(ErrInvalidParameter, "picture size %dx%d", width, height)
	}
	if err := d.checkResolution(width, height); err != nil {
		return ContextID(InvalidID), err
	}

	rt := cfg.value(AttribRTFormat)
	seen := make(map[SurfaceID]bool, len(targets))
	surfaces := make([]*surfaceObject, 0, len(targets))
	for _, id := range targets {
		s, err := d.surface(id)
		if err != nil {
			return ContextID(InvalidID), err
		}
		if seen[id] {
			return ContextID(InvalidID), errors.Wrapf(ErrInvalidParameter, "%v listed twice", id)
		}
		seen[id] = true
		if s.context != ContextID(InvalidID) {
			return ContextID(InvalidID), errors.Wrapf(ErrInvalidSurface, "%v already bound to %v", id, s.context)
		}
		if rt != AttribNotSupported && s.format&rt == 0 {
			return ContextID(InvalidID), errors.Wrapf(ErrUnsupportedRTFormat, "%v format %#x, config allows %#x", id, s.format, rt)
		}
		surfaces = append(surfaces, s)
	}

	c := &contextObject{
		config:  cfg,
		width:   width,
		height:  height,
		flags:   flags,
		targets: append([]SurfaceID(nil), targets...),
	}
	id, ok := d.contexts.Insert(c)
	if !ok {
		return ContextID(InvalidID), errors.Wrap(ErrAllocationFailed, "context table full")
	}
	c.id = ContextID(id)
	cfg.refs++
	for _, s := range surfaces {
		s.context = c.id
	}
	log.Debug("Created %v: %v, %dx%d, %d targets", c.id, cfg.id, width, height, len(targets))
	return c.id, nil
}

// DestroyContext unbinds the context's targets whatever their status. A
// picture begun but not ended is discarded; its target returns to Ready when
// the driver retires it. Work already submitted keeps running.
func (d *Display) DestroyContext(id ContextID) error {
	d.mu.Lock()
	job, err := d.destroyContext(id)
	d.mu.Unlock()
	if job != nil {
		d.submit(job)
	}
	return err
}

func (d *Display) destroyContext(id ContextID) (*Job, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	c, err := d.context(id)
	if err != nil {
		return nil, err
	}
	var job *Job
	if pic := c.picture; pic != nil {
		log.Debug("Discarding unfinished picture %d on %v", pic.seq, pic.target.id)
		job = discardJob(c, pic)
		c.picture = nil
	}
	for _, t := range c.targets {
		if s, ok := d.surfaces.Get(uint32(t)); ok && s.context == id {
			s.context = ContextID(InvalidID)
		}
	}
	c.config.refs--
	d.contexts.Remove(uint32(id))
	log.Debug("Destroyed %v", id)
	return job, nil
}
