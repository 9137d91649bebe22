package alohava

import (
	"github.com/lanikai/alohava/internal/mem"
	"github.com/pkg/errors"
)

// bufferObject is a typed data store of size*numElements bytes.
type bufferObject struct {
	id          BufferID
	context     ContextID
	typ         BufferType
	size        int
	numElements int
	capacity    int // elements allocated at creation
	block       *mem.Block
	mapped      bool

	// Set for image buffers, which are owned by their image.
	image ImageID
	// Set when block is a surface's storage, shared with a derived image.
	alias bool

	// Encode output.
	coded *CodedBufferSegment
	// Non-nil while a submitted job will write into this coded buffer.
	pending    chan struct{}
	pendingSeq uint64
}

func (b *bufferObject) bytes() []byte {
	return b.block.Bytes()[:b.size*b.numElements]
}

// write modifies the data store from the runtime side. fn is not called if
// the store cannot be made writable.
func (b *bufferObject) write(fn func(p []byte)) error {
	if !b.alias && !b.mapped {
		if err := b.block.Unprotect(); err != nil {
			log.Warn("Failed to unprotect %v: %v", b.id, err)
			return err
		}
		defer b.protect()
	}
	fn(b.block.Bytes())
	return nil
}

// protect write-protects the data store while no client has it mapped.
func (b *bufferObject) protect() {
	if b.alias {
		return
	}
	if err := b.block.Protect(); err != nil {
		log.Warn("Failed to protect %v: %v", b.id, err)
	}
}

func (b *bufferObject) free() {
	if b.alias {
		return
	}
	if err := b.block.Free(); err != nil {
		log.Warn("Failed to release %v storage: %v", b.id, err)
	}
}

func (d *Display) buffer(id BufferID) (*bufferObject, error) {
	if b, ok := d.buffers.Get(uint32(id)); ok {
		return b, nil
	}
	return nil, errors.Wrapf(ErrInvalidBuffer, "%v", id)
}

// newBuffer allocates a buffer and registers it. A non-nil block is shared
// storage the buffer does not own. Called with d.mu held.
func (d *Display) newBuffer(ctx ContextID, typ BufferType, size, n int, block *mem.Block) (*bufferObject, error) {
	alias := block != nil
	if !alias {
		var err error
		if block, err = mem.Alloc(size * n); err != nil {
			return nil, errors.Wrapf(ErrAllocationFailed, "%v buffer of %d bytes: %v", typ, size*n, err)
		}
	}
	b := &bufferObject{
		context:     ctx,
		typ:         typ,
		size:        size,
		numElements: n,
		capacity:    n,
		block:       block,
		image:       ImageID(InvalidID),
		alias:       alias,
	}
	id, ok := d.buffers.Insert(b)
	if !ok {
		b.free()
		return nil, errors.Wrapf(ErrAllocationFailed, "buffer limit %d reached", d.cfg.MaxBuffers)
	}
	b.id = BufferID(id)
	return b, nil
}

// CreateBuffer creates a buffer of numElements elements of size bytes on a
// context. A non-nil data is copied in and may be reused by the caller
// immediately; otherwise the contents are undefined until mapped and written.
// Image buffers are created by CreateImage, never here.
func (d *Display) CreateBuffer(ctx ContextID, typ BufferType, size, numElements int, data []byte) (BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return BufferID(InvalidID), err
	}
	c, err := d.context(ctx)
	if err != nil {
		return BufferID(InvalidID), err
	}
	if typ == ImageBufferType || !d.supportsBufferType(c.config.entrypoint, typ) {
		return BufferID(InvalidID), errors.Wrapf(ErrUnsupportedBufferType, "%v buffer for %v", typ, c.config.entrypoint)
	}
	if size <= 0 || numElements <= 0 || size > maxBufferSize/numElements {
		return BufferID(InvalidID), errors.Wrapf(ErrInvalidParameter, "%d elements of %d bytes", numElements, size)
	}
	if data != nil && len(data) < size*numElements {
		return BufferID(InvalidID), errors.Wrapf(ErrInvalidParameter, "%d bytes of data for %d byte buffer", len(data), size*numElements)
	}

	b, err := d.newBuffer(ctx, typ, size, numElements, nil)
	if err != nil {
		return BufferID(InvalidID), err
	}
	if data != nil {
		copy(b.block.Bytes(), data[:size*numElements])
	}
	b.protect()
	log.Trace(3, "Created %v: %v, %d x %d bytes", b.id, typ, numElements, size)
	return b.id, nil
}

const maxBufferSize = 1 << 30

func (d *Display) supportsBufferType(e Entrypoint, typ BufferType) bool {
	for _, t := range d.drv.BufferTypes(e) {
		if t == typ {
			return true
		}
	}
	return false
}

// BufferSetNumElements limits the elements used from a multi-element buffer.
// n may not exceed the count the buffer was created with.
func (d *Display) BufferSetNumElements(id BufferID, n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	b, err := d.buffer(id)
	if err != nil {
		return err
	}
	if n <= 0 || n > b.capacity {
		return errors.Wrapf(ErrInvalidParameter, "%d elements, %v holds %d", n, id, b.capacity)
	}
	b.numElements = n
	return nil
}

// mapBuffer maps a buffer, first waiting for any job that will write into it.
func (d *Display) mapBuffer(id BufferID) (*bufferObject, []byte, error) {
	d.mu.Lock()
	for {
		if err := d.check(); err != nil {
			d.mu.Unlock()
			return nil, nil, err
		}
		b, err := d.buffer(id)
		if err != nil {
			d.mu.Unlock()
			return nil, nil, err
		}
		if b.pending == nil {
			break
		}
		pending := b.pending
		d.mu.Unlock()
		select {
		case <-pending:
		case <-d.done:
			return nil, nil, errors.Wrapf(ErrInvalidDisplay, "display terminated while waiting for %v", id)
		}
		d.mu.Lock()
	}
	defer d.mu.Unlock()

	b, _ := d.buffer(id)
	if b.mapped {
		return nil, nil, errors.Wrapf(ErrOperationFailed, "%v already mapped", id)
	}
	if !b.alias {
		if err := b.block.Unprotect(); err != nil {
			return nil, nil, errors.Wrapf(ErrOperationFailed, "map %v: %v", id, err)
		}
	}
	b.mapped = true
	return b, b.bytes(), nil
}

// MapBuffer returns the data store of a buffer for client access until
// UnmapBuffer. The returned slice must not be used after unmapping. Mapping a
// coded buffer that an in-flight encode job will fill waits for that job.
func (d *Display) MapBuffer(id BufferID) ([]byte, error) {
	_, p, err := d.mapBuffer(id)
	return p, err
}

// MapCodedBuffer maps a coded buffer and returns its segment chain.
func (d *Display) MapCodedBuffer(id BufferID) (*CodedBufferSegment, error) {
	d.mu.Lock()
	err := d.check()
	var b *bufferObject
	if err == nil {
		b, err = d.buffer(id)
	}
	if err == nil && b.typ != EncCodedBufferType {
		err = errors.Wrapf(ErrInvalidBuffer, "%v is a %v buffer", id, b.typ)
	}
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if b, _, err = d.mapBuffer(id); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if b.coded == nil {
		b.coded = &CodedBufferSegment{Buf: b.block.Bytes()[:0]}
	}
	return b.coded, nil
}

// UnmapBuffer ends client access. After it returns the driver may read the
// data store; writes through the old mapping are not allowed.
func (d *Display) UnmapBuffer(id BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	b, err := d.buffer(id)
	if err != nil {
		return err
	}
	if !b.mapped {
		return errors.Wrapf(ErrOperationFailed, "%v not mapped", id)
	}
	b.mapped = false
	b.protect()
	return nil
}

// DestroyBuffer releases a buffer that was not passed to RenderPicture.
// Image buffers are released with their image.
func (d *Display) DestroyBuffer(id BufferID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	b, err := d.buffer(id)
	if err != nil {
		return err
	}
	if b.image != ImageID(InvalidID) {
		return errors.Wrapf(ErrInvalidBuffer, "%v belongs to %v", id, b.image)
	}
	d.destroyBuffer(b)
	return nil
}

func (d *Display) destroyBuffer(b *bufferObject) {
	if b.pending != nil {
		close(b.pending)
		b.pending = nil
	}
	d.buffers.Remove(uint32(b.id))
	b.free()
	log.Trace(3, "Destroyed %v", b.id)
}
