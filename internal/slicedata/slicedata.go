// Package slicedata reassembles slices that a client split across several
// slice data buffers.
//
// Each fragment carries one of four flags: All (the whole slice), Begin,
// Middle and End. A slice is complete after an All fragment, or after a
// Begin, any number of Middle fragments and an End.
package slicedata

import (
	errors "golang.org/x/xerrors"
)

// Continuation flags.
const (
	FlagAll    = 0x00
	FlagBegin  = 0x01
	FlagMiddle = 0x02
	FlagEnd    = 0x04
)

var (
	errUnknownFlag  = errors.New("unknown slice data flag")
	errUnterminated = errors.New("previous slice not terminated")
	errNotStarted   = errors.New("continuation without beginning")
)

// Slice is a complete slice: the parameter element of its first fragment and
// the concatenated data of all fragments.
type Slice struct {
	Params []byte
	Data   []byte
}

// Assembler accumulates fragments. The zero value is ready to use.
type Assembler struct {
	open   bool
	params []byte
	data   []byte
}

// Add feeds one fragment. It returns the completed slice when the fragment
// terminates one. On error the assembler is left unchanged.
func (a *Assembler) Add(params []byte, flag uint32, data []byte) (*Slice, error) {
	switch flag {
	case FlagAll:
		if a.open {
			return nil, errUnterminated
		}
		return &Slice{Params: params, Data: data}, nil
	case FlagBegin:
		if a.open {
			return nil, errUnterminated
		}
		a.open = true
		a.params = params
		a.data = append([]byte(nil), data...)
		return nil, nil
	case FlagMiddle, FlagEnd:
		if !a.open {
			return nil, errNotStarted
		}
		a.data = append(a.data, data...)
		if flag == FlagMiddle {
			return nil, nil
		}
		s := &Slice{Params: a.params, Data: a.data}
		a.Reset()
		return s, nil
	}
	return nil, errors.Errorf("flag 0x%x: %w", flag, errUnknownFlag)
}

// Pending reports whether a slice has begun but not ended.
func (a *Assembler) Pending() bool {
	return a.open
}

// PendingBytes returns the number of bytes accumulated for the open slice.
func (a *Assembler) PendingBytes() int {
	return len(a.data)
}

// Clone returns an independent copy of the assembler state.
func (a *Assembler) Clone() Assembler {
	c := *a
	if a.data != nil {
		c.data = append([]byte(nil), a.data...)
	}
	return c
}

func (a *Assembler) Reset() {
	a.open = false
	a.params = nil
	a.data = nil
}
