package soft

import (
	va "github.com/lanikai/alohava"
	"github.com/lanikai/alohava/internal/h264"
	"github.com/lanikai/alohava/internal/params"
	"github.com/pkg/errors"
)

func (d *Driver) run(job *va.Job) va.Result {
	if job.Discard {
		return va.Result{Status: va.SurfaceReady}
	}
	if job.Entrypoint.IsEncode() {
		return d.encode(job)
	}
	return d.decode(job)
}

func isH264(p va.Profile) bool {
	return p == va.ProfileH264Baseline || p == va.ProfileH264Main || p == va.ProfileH264High
}

// decode fills the luma plane of the target with a checksum of the slice
// data, so that clients can tell which picture landed on a surface.
func (d *Driver) decode(job *va.Job) va.Result {
	if len(job.Slices) == 0 {
		return va.Result{Status: va.SurfaceReady, Err: errNoSlices}
	}
	if isH264(job.Profile) {
		if err := checkH264(job); err != nil {
			return va.Result{Status: va.SurfaceReady, Err: err}
		}
	}

	sum := Checksum(job.Slices)
	l := job.Target.Layout
	luma := job.Target.Pixels[l.Offsets[0] : l.Offsets[0]+l.Pitches[0]*l.Height]
	for i := range luma {
		luma[i] = sum
	}
	log.Trace(5, "Decoded picture %d: %d slices, checksum %#02x", job.Seq, len(job.Slices), sum)
	return va.Result{Status: va.SurfaceReady}
}

// Checksum is the byte a decode job stamps into the luma plane of its target.
func Checksum(slices []va.Slice) byte {
	var sum byte
	for _, s := range slices {
		for _, b := range s.Data {
			sum += b
		}
	}
	return sum
}

// checkH264 validates the picture parameters against the context size and
// logs the header of every slice.
func checkH264(job *va.Job) error {
	for _, b := range job.Buffers {
		if b.Type != va.PictureParameterBufferType {
			continue
		}
		var pp params.PictureParameterH264
		if err := pp.Unmarshal(b.Data); err != nil {
			return err
		}
		if pp.Width() < job.Width || pp.Height() < job.Height {
			return errors.Errorf("picture %dx%d smaller than context %dx%d", pp.Width(), pp.Height(), job.Width, job.Height)
		}
	}
	for i, s := range job.Slices {
		nalu := h264.NALU(s.Data)
		if len(nalu) == 0 || !nalu.IsVCL() {
			continue
		}
		hdr, err := h264.ParseSliceHeader(nalu)
		if err != nil {
			log.Debug("Picture %d slice %d: %v", job.Seq, i, err)
			continue
		}
		log.Trace(7, "Picture %d slice %d: first_mb %d, type %d, pps %d", job.Seq, i, hdr.FirstMbInSlice, hdr.SliceType, hdr.PPSID)
	}
	return nil
}

// encode emits the target pixels as coded output split into segments.
func (d *Driver) encode(job *va.Job) va.Result {
	for _, b := range job.Buffers {
		switch b.Type {
		case va.EncPictureParameterBufferType:
			var pp params.EncPictureParameter
			if _, err := pp.Unmarshal(b.Data); err != nil {
				return va.Result{Status: va.SurfaceReady, Err: err}
			}
			if job.Profile != va.ProfileJPEGBaseline && (int(pp.PictureWidth) != job.Width || int(pp.PictureHeight) != job.Height) {
				return va.Result{Status: va.SurfaceReady, Err: errors.Errorf("picture %dx%d does not match context %dx%d",
					pp.PictureWidth, pp.PictureHeight, job.Width, job.Height)}
			}
		case va.EncSliceParameterBufferType:
			for _, elem := range params.Elements(b.Data, b.Size, b.NumElements) {
				var sp params.EncSliceParameter
				if err := sp.Unmarshal(elem); err != nil {
					return va.Result{Status: va.SurfaceReady, Err: err}
				}
				log.Trace(7, "Picture %d slice rows %d+%d intra=%v", job.Seq, sp.StartRowNumber, sp.SliceHeight, sp.Flags.IsIntra)
			}
		}
	}

	d.mu.Lock()
	d.encoded++
	n := d.encoded
	d.mu.Unlock()
	if d.opts.SkipInterval > 0 && n%d.opts.SkipInterval == 0 {
		log.Trace(5, "Skipping picture %d", job.Seq)
		return va.Result{Status: va.SurfaceSkipped}
	}

	data := job.Target.Pixels[:job.Target.Layout.DataSize]
	var segs []va.CodedSegment
	for len(data) > 0 {
		n := d.opts.SegmentSize
		if n > len(data) {
			n = len(data)
		}
		segs = append(segs, va.CodedSegment{Data: append([]byte(nil), data[:n]...)})
		data = data[n:]
	}
	log.Trace(5, "Encoded picture %d: %d segments", job.Seq, len(segs))
	return va.Result{Status: va.SurfaceReady, Coded: segs}
}
