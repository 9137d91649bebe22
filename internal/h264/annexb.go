package h264

import (
	"bufio"
	"bytes"
	"io"
)

const (
	naluBufferInitialSize = 16 * 1024
	naluBufferMaximumSize = 1024 * 1024
)

var startCode = []byte{0, 0, 1}

// Scanner reads NAL units from a raw H.264 stream with Annex B start codes.
type Scanner struct {
	scanner *bufio.Scanner
}

func NewScanner(in io.Reader) *Scanner {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, naluBufferInitialSize), naluBufferMaximumSize)
	scanner.Split(SplitNALU)
	return &Scanner{scanner}
}

// Next returns the next NAL unit, or io.EOF at the end of the stream. The
// returned slice is only valid until the following call.
func (s *Scanner) Next() (NALU, error) {
	for s.scanner.Scan() {
		if nalu := s.scanner.Bytes(); len(nalu) > 0 {
			return nalu, nil
		}
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// SplitNALU is a bufio.SplitFunc that splits on Annex B start codes.
func SplitNALU(data []byte, atEOF bool) (advance int, nalu []byte, err error) {
	i := bytes.Index(data, startCode)

	switch {
	case i == -1:
		if atEOF && len(data) > 0 {
			// Trailing unit without a following start code.
			return len(data), trimZeros(data), nil
		}
		// No start code found. Wait for more data.
		advance = 0
	case i == 0:
		// 3-byte start code (0x000001) found at data[0]. Skip these 3 bytes.
		advance = 3
	case i == 1 && data[0] == 0:
		// 4-byte start code (0x00000001) found at data[0]. Skip these 4 bytes.
		advance = 4
	default:
		// Next start code found at index i.
		advance = i + 3
		if data[i-1] == 0x00 {
			// 4-byte start code
			nalu = data[0 : i-1]
		} else {
			// 3-byte start code
			nalu = data[0:i]
		}
	}
	return
}

func trimZeros(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}
