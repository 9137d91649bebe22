// Package mem provides the backing storage for surfaces and buffers. On Linux
// large blocks are anonymous memory mappings, page aligned like the buffers a
// kernel driver would export, and can be write-protected while the client
// has no active mapping.
package mem

import "github.com/pkg/errors"

var (
	errInvalidSize = errors.New("mem: invalid block size")
	errFreed       = errors.New("mem: block already freed")
)

// Block is a fixed-size region of storage.
type Block struct {
	data []byte
	size int

	// Set when data is an OS mapping rather than a Go allocation.
	mapped bool

	readOnly bool
}

// Alloc returns a zeroed block of n bytes.
func Alloc(n int) (*Block, error) {
	if n <= 0 {
		return nil, errInvalidSize
	}
	if n >= mapThreshold() {
		return allocMapped(n)
	}
	return &Block{data: make([]byte, n), size: n}, nil
}

// Bytes returns the block contents. The slice stays valid until Free.
func (b *Block) Bytes() []byte {
	if b.data == nil {
		return nil
	}
	return b.data[:b.size]
}

// Len returns the usable size of the block.
func (b *Block) Len() int {
	return b.size
}

// Mapped reports whether the block is backed by an OS mapping.
func (b *Block) Mapped() bool {
	return b.mapped
}

// ReadOnly reports whether writes to the block are currently blocked.
func (b *Block) ReadOnly() bool {
	return b.readOnly
}

// Protect makes a mapped block read-only. Writes through any slice returned
// by Bytes fault until Unprotect. Heap blocks are unaffected.
func (b *Block) Protect() error {
	if b.data == nil {
		return errFreed
	}
	if b.readOnly {
		return nil
	}
	if b.mapped {
		if err := protect(b.data, false); err != nil {
			return err
		}
	}
	b.readOnly = true
	return nil
}

// Unprotect makes the block writable again.
func (b *Block) Unprotect() error {
	if b.data == nil {
		return errFreed
	}
	if !b.readOnly {
		return nil
	}
	if b.mapped {
		if err := protect(b.data, true); err != nil {
			return err
		}
	}
	b.readOnly = false
	return nil
}

// Free releases the block. Slices previously returned by Bytes must not be
// used afterwards.
func (b *Block) Free() error {
	if b.data == nil {
		return errFreed
	}
	var err error
	if b.mapped {
		err = unmap(b.data)
	}
	b.data = nil
	b.readOnly = false
	return err
}
