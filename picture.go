package alohava

import (
	"github.com/lanikai/alohava/internal/params"
	"github.com/lanikai/alohava/internal/slicedata"
	"github.com/pkg/errors"
)

// picture accumulates the job for one Begin/Render/End sequence.
type picture struct {
	seq    uint64
	target *surfaceObject

	buffers []ParamBuffer
	slices  []Slice

	// Slice parameter elements waiting for their slice data buffer.
	sliceParams [][]byte
	assembler   slicedata.Assembler

	// Output buffer named by the encode picture parameters.
	coded BufferID
}

func (p *picture) clone() *picture {
	c := *p
	c.buffers = append([]ParamBuffer(nil), p.buffers...)
	c.slices = append([]Slice(nil), p.slices...)
	c.sliceParams = append([][]byte(nil), p.sliceParams...)
	c.assembler = p.assembler.Clone()
	return &c
}

// incomplete reports why the picture cannot be submitted, if it cannot.
func (p *picture) incomplete() string {
	switch {
	case len(p.sliceParams) > 0:
		return "slice parameters without slice data"
	case p.assembler.Pending():
		return "slice not terminated"
	}
	return ""
}

// BeginPicture starts a picture on a render target of the context. The
// target becomes Rendering until the driver completes the job.
func (d *Display) BeginPicture(ctx ContextID, target SurfaceID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	c, err := d.context(ctx)
	if err != nil {
		return err
	}
	s, err := d.surface(target)
	if err != nil {
		return err
	}
	if !c.hasTarget(target) {
		return errors.Wrapf(ErrInvalidSurface, "%v is not a render target of %v", target, ctx)
	}
	// Checked before the context state so that concurrent begins on one
	// target see exactly one winner.
	if s.status.busy() {
		return errors.Wrapf(ErrSurfaceBusy, "%v is %v", target, s.status)
	}
	if c.picture != nil {
		return errors.Wrapf(ErrInvalidContext, "%v already has a picture on %v", ctx, c.picture.target.id)
	}

	d.seq++
	s.setBusy(SurfaceRendering, d.seq)
	s.jobErr = nil
	c.picture = &picture{seq: d.seq, target: s, coded: BufferID(InvalidID)}
	log.Trace(5, "Begin picture %d on %v", d.seq, target)
	return nil
}

// RenderPicture hands buffers to the picture in progress. The whole batch is
// validated first; if any buffer is unusable nothing is consumed. Otherwise
// every buffer is consumed and destroyed, even when its contents are
// rejected, in which case the picture is left as it was before the call.
func (d *Display) RenderPicture(ctx ContextID, buffers []BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	c, err := d.context(ctx)
	if err != nil {
		return err
	}
	if c.picture == nil {
		return errors.Wrapf(ErrInvalidContext, "no picture begun on %v", ctx)
	}

	batch := make([]*bufferObject, 0, len(buffers))
	seen := make(map[BufferID]bool, len(buffers))
	for _, id := range buffers {
		b, err := d.buffer(id)
		if err != nil {
			return err
		}
		switch {
		case seen[id]:
			return errors.Wrapf(ErrInvalidBuffer, "%v listed twice", id)
		case b.context != ctx:
			return errors.Wrapf(ErrInvalidBuffer, "%v belongs to %v", id, b.context)
		case b.mapped:
			return errors.Wrapf(ErrInvalidBuffer, "%v is mapped", id)
		case b.typ == EncCodedBufferType || b.image != ImageID(InvalidID):
			return errors.Wrapf(ErrInvalidBuffer, "%v buffer %v cannot be rendered", b.typ, id)
		}
		seen[id] = true
		batch = append(batch, b)
	}

	next := c.picture.clone()
	var procErr error
	for _, b := range batch {
		if procErr = d.process(c, next, b); procErr != nil {
			break
		}
	}
	for _, b := range batch {
		d.destroyBuffer(b)
	}
	if procErr != nil {
		log.Warn("Rejected buffers for picture %d on %v: %v", next.seq, ctx, procErr)
		return procErr
	}
	c.picture = next
	return nil
}

// process adds the contents of one buffer to the picture.
func (d *Display) process(c *contextObject, pic *picture, b *bufferObject) error {
	data := append([]byte(nil), b.bytes()...)

	switch {
	case b.typ == SliceParameterBufferType:
		if len(pic.sliceParams) > 0 {
			return errors.Wrapf(ErrInvalidParameter, "%v: previous slice parameters have no slice data", b.id)
		}
		if b.size < params.SliceBaseSize {
			return errors.Wrapf(ErrInvalidParameter, "%v: %d byte slice parameter element", b.id, b.size)
		}
		pic.sliceParams = params.Elements(data, b.size, b.numElements)

	case b.typ.isSliceData():
		if len(pic.sliceParams) == 0 {
			return errors.Wrapf(ErrInvalidParameter, "%v: slice data without slice parameters", b.id)
		}
		for i, elem := range pic.sliceParams {
			base, err := params.ParseSliceBase(elem)
			if err != nil {
				return errors.Wrapf(ErrInvalidParameter, "%v element %d: %v", b.id, i, err)
			}
			fragment, err := base.Select(data)
			if err != nil {
				return errors.Wrapf(ErrInvalidParameter, "%v element %d: %v", b.id, i, err)
			}
			s, err := pic.assembler.Add(elem, base.DataFlag, fragment)
			if err != nil {
				return errors.Wrapf(ErrInvalidParameter, "%v element %d: %v", b.id, i, err)
			}
			if s != nil {
				pic.slices = append(pic.slices, Slice{Params: s.Params, Data: s.Data})
			}
		}
		pic.sliceParams = nil

	default:
		if b.typ == EncPictureParameterBufferType {
			id, err := params.CodedBufferOf(data)
			if err != nil {
				return errors.Wrapf(ErrInvalidParameter, "%v: %v", b.id, err)
			}
			cb, err := d.buffer(BufferID(id))
			if err != nil {
				return errors.Wrapf(ErrInvalidBuffer, "coded buffer of %v: %v", b.id, err)
			}
			if cb.typ != EncCodedBufferType || cb.context != c.id {
				return errors.Wrapf(ErrInvalidBuffer, "%v is not a coded buffer of %v", cb.id, c.id)
			}
			pic.coded = cb.id
		}
		pic.buffers = append(pic.buffers, ParamBuffer{
			Type:        b.typ,
			Size:        b.size,
			NumElements: b.numElements,
			Data:        data,
		})
	}
	return nil
}

// EndPicture submits the picture and returns without waiting. A picture with
// an unterminated slice is discarded: the call fails and the target returns
// to Ready once the driver has retired the empty job.
func (d *Display) EndPicture(ctx ContextID) error {
	d.mu.Lock()
	job, err := d.endPicture(ctx)
	d.mu.Unlock()
	if job != nil {
		d.submit(job)
	}
	return err
}

func (d *Display) submit(job *Job) {
	if job.Discard {
		log.Trace(5, "Submitting discarded picture %d on %v", job.Seq, job.Target.ID)
	} else {
		log.Trace(5, "Submitting picture %d: %v/%v on %v, %d buffers, %d slices",
			job.Seq, job.Profile, job.Entrypoint, job.Target.ID, len(job.Buffers), len(job.Slices))
	}
	d.drv.Submit(job, func(res Result) {
		d.complete(job, res)
	})
}

// discardJob retires pic through the driver so that its target leaves
// Rendering by completion like any other picture.
func discardJob(c *contextObject, pic *picture) *Job {
	return &Job{
		Seq:         pic.seq,
		Context:     c.id,
		Profile:     c.config.profile,
		Entrypoint:  c.config.entrypoint,
		Width:       c.width,
		Height:      c.height,
		Target:      pic.target.target(),
		CodedBuffer: BufferID(InvalidID),
		Discard:     true,
	}
}

func (d *Display) endPicture(ctx ContextID) (*Job, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	c, err := d.context(ctx)
	if err != nil {
		return nil, err
	}
	pic := c.picture
	if pic == nil {
		return nil, errors.Wrapf(ErrInvalidContext, "no picture begun on %v", ctx)
	}
	c.picture = nil
	s := pic.target

	discard := func(err error) (*Job, error) {
		log.Warn("Discarding picture %d on %v: %v", pic.seq, s.id, err)
		return discardJob(c, pic), err
	}
	if reason := pic.incomplete(); reason != "" {
		return discard(errors.Wrapf(ErrInvalidParameter, "%s", reason))
	}

	entrypoint := c.config.entrypoint
	if entrypoint.IsEncode() {
		if pic.coded == BufferID(InvalidID) {
			return discard(errors.Wrap(ErrInvalidParameter, "encode picture without coded buffer"))
		}
		cb, err := d.buffer(pic.coded)
		if err != nil {
			return discard(err)
		}
		if cb.mapped || cb.pending != nil {
			return discard(errors.Wrapf(ErrInvalidBuffer, "coded %v is in use", cb.id))
		}
		cb.pending = make(chan struct{})
		cb.pendingSeq = pic.seq
		cb.coded = nil
	}

	return &Job{
		Seq:         pic.seq,
		Context:     ctx,
		Profile:     c.config.profile,
		Entrypoint:  entrypoint,
		Width:       c.width,
		Height:      c.height,
		Progressive: c.flags&Progressive != 0,
		Target:      s.target(),
		Buffers:     pic.buffers,
		Slices:      pic.slices,
		CodedBuffer: pic.coded,
		Overlays:    d.overlays(s),
	}, nil
}

// complete records the result of a job. It runs on a driver goroutine.
func (d *Display) complete(job *Job, res Result) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != displayInitialized {
		return
	}

	if s, ok := d.surfaces.Get(uint32(job.Target.ID)); ok && s.seq == job.Seq && s.status == SurfaceRendering {
		// A discarded picture always ends Ready.
		status := SurfaceReady
		if res.Status == SurfaceSkipped && !job.Discard {
			status = SurfaceSkipped
		}
		if res.Err != nil && !job.Discard {
			log.Warn("Picture %d on %v failed: %v", job.Seq, s.id, res.Err)
			s.jobErr = errors.Wrapf(ErrOperationFailed, "picture %d on %v: %v", job.Seq, s.id, res.Err)
		}
		s.setIdle(status)
		log.Trace(5, "Completed picture %d on %v: %v", job.Seq, s.id, status)
	}

	if job.CodedBuffer == BufferID(InvalidID) {
		return
	}
	if b, ok := d.buffers.Get(uint32(job.CodedBuffer)); ok && b.pending != nil && b.pendingSeq == job.Seq {
		var truncated bool
		err := b.write(func(p []byte) {
			b.coded, truncated = buildChain(p[:b.size*b.numElements], res.Coded)
		})
		if err != nil {
			b.coded = &CodedBufferSegment{}
		}
		if truncated {
			log.Warn("Coded output of picture %d truncated to %d bytes", job.Seq, b.size*b.numElements)
		}
		close(b.pending)
		b.pending = nil
	}
}
