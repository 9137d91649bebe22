//go:build !linux
// +build !linux

package mem

import "math"

// Mappings are only used on Linux.
func mapThreshold() int {
	return math.MaxInt32
}

func allocMapped(n int) (*Block, error) {
	return &Block{data: make([]byte, n), size: n}, nil
}

func protect(data []byte, writable bool) error {
	return nil
}

func unmap(data []byte) error {
	return nil
}
