// Package params converts codec parameter structures between tagged Go
// structs and the packed binary form handed to accelerator drivers.
//
// The packed "bit-field union" words follow C bit-field allocation on a
// little-endian host: the first field occupies the least significant bits.
//
//	 31                                ...  6 5 4 3 2 1 0
//	+-----------------------------------+-+-+-+-+-+---+
//	|              unused               |f|e|d|c|b| a |
//	+-----------------------------------+-+-+-+-+-+---+
//
// Structs are never relied upon for memory layout; Pack and Unpack are the
// only place the raw bits appear.
package params

import (
	errors "golang.org/x/xerrors"
)

// packer accumulates fields from the least significant bit upwards.
type packer struct {
	value uint32
	shift uint
	err   error
}

func (p *packer) uint(v uint32, width uint, name string) {
	if v >= 1<<width && p.err == nil {
		p.err = errors.Errorf("%s: value %d does not fit in %d bits", name, v, width)
	}
	p.value |= (v & (1<<width - 1)) << p.shift
	p.shift += width
}

func (p *packer) bool(v bool) {
	if v {
		p.value |= 1 << p.shift
	}
	p.shift++
}

func (p *packer) result() (uint32, error) {
	return p.value, p.err
}

// unpacker is the inverse of packer.
type unpacker struct {
	value uint32
	shift uint
}

func (u *unpacker) uint(width uint) uint32 {
	v := (u.value >> u.shift) & (1<<width - 1)
	u.shift += width
	return v
}

func (u *unpacker) uint8(width uint) uint8 {
	return uint8(u.uint(width))
}

func (u *unpacker) bool() bool {
	return u.uint(1) == 1
}
