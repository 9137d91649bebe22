//go:build linux
// +build linux

package mem

import (
	"os"

	"golang.org/x/sys/unix"
)

var pageSize = os.Getpagesize()

// Blocks of at least one page are mapped; smaller ones come from the heap.
func mapThreshold() int {
	return pageSize
}

func allocMapped(n int) (*Block, error) {
	length := (n + pageSize - 1) / pageSize * pageSize
	data, err := unix.Mmap(
		-1,
		0,
		length,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, err
	}
	return &Block{data: data, size: n, mapped: true}, nil
}

func protect(data []byte, writable bool) error {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	return unix.Mprotect(data, prot)
}

func unmap(data []byte) error {
	return unix.Munmap(data)
}
