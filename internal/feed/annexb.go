package feed

import (
	"io"
	"os"

	"github.com/lanikai/alohava/internal/h264"
	"github.com/nareix/joy4/codec/h264parser"
	"github.com/pkg/errors"
)

func init() {
	Register("h264", OpenH264)
}

// annexBSource groups the NAL units of a raw H.264 elementary stream into
// access units.
type annexBSource struct {
	in      io.ReadCloser
	scanner *h264.Scanner
	info    Info

	// NAL units consumed while probing, replayed before the scanner.
	queued [][]byte

	// NAL unit read ahead of the current access unit.
	next []byte
	err  error
}

// OpenH264 opens a raw Annex B H.264 file. The stream must carry an SPS and
// a PPS before its first slice.
func OpenH264(filename string) (Source, error) {
	log.Info("Opening file %s", filename)
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	src, err := NewAnnexB(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	return src, nil
}

// NewAnnexB reads an Annex B stream from in, which is closed with the source.
func NewAnnexB(in io.ReadCloser) (Source, error) {
	s := &annexBSource{in: in, scanner: h264.NewScanner(in)}

	var leading [][]byte
	for s.info.SPS == nil || s.info.PPS == nil {
		nalu, err := s.read()
		if err != nil {
			return nil, errors.Wrap(err, "looking for parameter sets")
		}
		switch h264.NALU(nalu).Type() {
		case h264.TypeSPS:
			s.info.SPS = nalu
		case h264.TypePPS:
			s.info.PPS = nalu
		case h264.TypeSlice, h264.TypeIDR:
			return nil, errors.New("slice before parameter sets")
		}
		leading = append(leading, nalu)
	}

	sps, err := h264parser.ParseSPS(s.info.SPS)
	if err != nil {
		return nil, errors.Wrap(err, "parse SPS")
	}
	s.info.Width, s.info.Height = int(sps.Width), int(sps.Height)
	log.Info("H.264 stream: profile %d level %d, %dx%d", sps.ProfileIdc, sps.LevelIdc, sps.Width, sps.Height)

	s.queued = leading
	return s, nil
}

func (s *annexBSource) read() ([]byte, error) {
	if len(s.queued) > 0 {
		nalu := s.queued[0]
		s.queued = s.queued[1:]
		return nalu, nil
	}
	nalu, err := s.scanner.Next()
	if err != nil {
		return nil, err
	}
	// The scanner reuses its buffer.
	return append([]byte(nil), nalu...), nil
}

func (s *annexBSource) Info() Info {
	return s.info
}

// ReadAccessUnit collects NAL units up to the start of the next picture: an
// access unit delimiter, a parameter set or SEI following a slice, or a
// slice starting at macroblock zero.
func (s *annexBSource) ReadAccessUnit() (*AccessUnit, error) {
	au := &AccessUnit{}
	var haveSlice bool
	for {
		nalu := s.next
		s.next = nil
		if nalu == nil {
			if s.err != nil {
				break
			}
			var err error
			if nalu, err = s.read(); err != nil {
				s.err = err
				break
			}
		}

		n := h264.NALU(nalu)
		if haveSlice && startsPicture(n) {
			s.next = nalu
			return au, nil
		}
		switch n.Type() {
		case h264.TypeAUD:
			continue
		case h264.TypeIDR:
			au.KeyFrame = true
		}
		if n.IsVCL() {
			haveSlice = true
		}
		au.NALUs = append(au.NALUs, nalu)
	}

	if len(au.NALUs) > 0 {
		return au, nil
	}
	if s.err == io.EOF {
		return nil, io.EOF
	}
	return nil, errors.Wrap(s.err, "read NAL unit")
}

func startsPicture(n h264.NALU) bool {
	switch n.Type() {
	case h264.TypeAUD, h264.TypeSPS, h264.TypePPS, h264.TypeSEI:
		return true
	case h264.TypeSlice, h264.TypeIDR:
		hdr, err := h264.ParseSliceHeader(n)
		return err == nil && hdr.FirstMbInSlice == 0
	}
	return false
}

func (s *annexBSource) Close() error {
	return s.in.Close()
}
