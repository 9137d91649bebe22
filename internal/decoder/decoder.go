// Package decoder drives an H.264 stream through the alohava runtime the way
// a media player would: it negotiates a config from the stream's SPS,
// decodes into a ring of surfaces and waits on each surface before reusing
// it.
package decoder

import (
	"context"
	"io"

	va "github.com/lanikai/alohava"
	"github.com/lanikai/alohava/internal/feed"
	"github.com/lanikai/alohava/internal/h264"
	"github.com/lanikai/alohava/internal/logging"
	"github.com/lanikai/alohava/internal/params"
	"github.com/nareix/joy4/codec/h264parser"
	"github.com/pkg/errors"
)

var log = logging.DefaultLogger.WithTag("decoder")

type Options struct {
	// Number of surfaces decoded into, round robin.
	Surfaces int

	// Slices larger than this are sent in BEGIN/MIDDLE/END fragments. Zero
	// sends every slice whole.
	MaxSliceBytes int

	// Stop after this many pictures. Zero decodes the whole stream.
	Frames int

	// Called when a picture finishes, in decode order.
	OnPicture func(Picture)
}

const defaultSurfaces = 4

// Picture is the outcome of one decoded access unit.
type Picture struct {
	Number   int
	Surface  va.SurfaceID
	KeyFrame bool
	Slices   int
	Bytes    int
	Status   va.SurfaceStatus
	Err      error
}

// Stats summarize a run.
type Stats struct {
	Pictures int
	Failed   int
	Skipped  int
	Slices   int
	Bytes    int64
}

type Decoder struct {
	display *va.Display
	src     feed.Source
	opts    Options

	profile       va.Profile
	width, height int
	sps           h264parser.SPSInfo

	config   va.ConfigID
	context  va.ContextID
	surfaces []va.SurfaceID

	// Picture last submitted to each surface, or nil.
	inFlight []*Picture

	frameNum uint16
	stats    Stats
}

// ProfileOf maps an SPS profile_idc to a runtime profile.
func ProfileOf(profileIdc uint) (va.Profile, error) {
	switch profileIdc {
	case 66:
		return va.ProfileH264Baseline, nil
	case 77:
		return va.ProfileH264Main, nil
	case 100:
		return va.ProfileH264High, nil
	}
	return 0, errors.Wrapf(va.ErrUnsupportedProfile, "H.264 profile_idc %d", profileIdc)
}

// New negotiates a VLD config for the stream and allocates the surfaces and
// context. The display must be initialized.
func New(display *va.Display, src feed.Source, opts Options) (*Decoder, error) {
	if opts.Surfaces <= 0 {
		opts.Surfaces = defaultSurfaces
	}
	info := src.Info()
	sps, err := h264parser.ParseSPS(info.SPS)
	if err != nil {
		return nil, errors.Wrap(err, "parse SPS")
	}
	profile, err := ProfileOf(sps.ProfileIdc)
	if err != nil {
		return nil, err
	}

	dec := &Decoder{
		display:  display,
		src:      src,
		opts:     opts,
		profile:  profile,
		width:    int(sps.Width),
		height:   int(sps.Height),
		sps:      sps,
		config:   va.ConfigID(va.InvalidID),
		context:  va.ContextID(va.InvalidID),
		inFlight: make([]*Picture, opts.Surfaces),
	}
	if err := dec.setup(); err != nil {
		dec.Close()
		return nil, err
	}
	log.Info("Decoding %v %dx%d into %d surfaces", profile, dec.width, dec.height, opts.Surfaces)
	return dec, nil
}

func (dec *Decoder) setup() error {
	attribs := []va.ConfigAttrib{{Type: va.AttribRTFormat}}
	if err := dec.display.GetConfigAttributes(dec.profile, va.EntrypointVLD, attribs); err != nil {
		return errors.Wrap(err, "query attributes")
	}
	if attribs[0].Value&va.RTFormatYUV420 == 0 {
		return errors.Wrapf(va.ErrUnsupportedRTFormat, "%v decodes RT formats %#x", dec.profile, attribs[0].Value)
	}

	var err error
	attribs[0].Value = va.RTFormatYUV420
	if dec.config, err = dec.display.CreateConfig(dec.profile, va.EntrypointVLD, attribs); err != nil {
		return errors.Wrap(err, "create config")
	}
	if dec.surfaces, err = dec.display.CreateSurfaces(dec.width, dec.height, va.RTFormatYUV420, dec.opts.Surfaces); err != nil {
		return errors.Wrap(err, "create surfaces")
	}
	if dec.context, err = dec.display.CreateContext(dec.config, dec.width, dec.height, va.Progressive, dec.surfaces); err != nil {
		return errors.Wrap(err, "create context")
	}
	return nil
}

// Run decodes until the source is exhausted, Options.Frames pictures have
// been submitted or ctx is cancelled. Pictures that fail to decode are
// counted; only errors from the runtime or the source stop the run.
func (dec *Decoder) Run(ctx context.Context) (Stats, error) {
	n := 0
	for dec.opts.Frames == 0 || n < dec.opts.Frames {
		if err := ctx.Err(); err != nil {
			return dec.stats, err
		}
		au, err := dec.src.ReadAccessUnit()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dec.stats, errors.Wrap(err, "read access unit")
		}
		if err := dec.decode(ctx, n, au); err != nil {
			return dec.stats, err
		}
		n++
	}

	for i := range dec.surfaces {
		if err := dec.finish(ctx, i); err != nil {
			return dec.stats, err
		}
	}
	log.Info("Decoded %d pictures, %d failed, %d skipped", dec.stats.Pictures, dec.stats.Failed, dec.stats.Skipped)
	return dec.stats, nil
}

func (dec *Decoder) decode(ctx context.Context, n int, au *feed.AccessUnit) error {
	var slices [][]byte
	for _, nalu := range au.NALUs {
		if h264.NALU(nalu).IsVCL() {
			slices = append(slices, nalu)
		}
	}
	if len(slices) == 0 {
		log.Debug("Access unit %d has no slices", n)
		return nil
	}

	i := n % len(dec.surfaces)
	if err := dec.finish(ctx, i); err != nil {
		return err
	}
	target := dec.surfaces[i]
	pic := &Picture{Number: n, Surface: target, KeyFrame: au.KeyFrame}

	if err := dec.display.BeginPicture(dec.context, target); err != nil {
		return errors.Wrapf(err, "begin picture %d", n)
	}
	if err := dec.sendPicture(target, h264.NALU(slices[0]).IsReference()); err != nil {
		return err
	}
	for _, s := range slices {
		if err := dec.sendSlice(s); err != nil {
			return errors.Wrapf(err, "picture %d", n)
		}
		pic.Slices++
		pic.Bytes += len(s)
	}
	if err := dec.display.EndPicture(dec.context); err != nil {
		return errors.Wrapf(err, "end picture %d", n)
	}

	dec.inFlight[i] = pic
	dec.frameNum++
	dec.stats.Slices += pic.Slices
	dec.stats.Bytes += int64(pic.Bytes)
	return nil
}

// finish waits for the picture decoding into surface i, if any, and
// reports it.
func (dec *Decoder) finish(ctx context.Context, i int) error {
	pic := dec.inFlight[i]
	if pic == nil {
		return nil
	}
	dec.inFlight[i] = nil

	pic.Err = dec.display.SyncSurfaceWithContext(ctx, pic.Surface)
	if pic.Err != nil && va.StatusOf(pic.Err) != va.ErrOperationFailed {
		return errors.Wrapf(pic.Err, "sync picture %d", pic.Number)
	}
	status, err := dec.display.QuerySurfaceStatus(pic.Surface)
	if err != nil {
		return err
	}
	pic.Status = status

	dec.stats.Pictures++
	switch {
	case pic.Err != nil:
		dec.stats.Failed++
		log.Warn("Picture %d failed: %v", pic.Number, pic.Err)
	case status == va.SurfaceSkipped:
		dec.stats.Skipped++
	}
	log.Trace(3, "Picture %d on %v: %v", pic.Number, pic.Surface, status)
	if dec.opts.OnPicture != nil {
		dec.opts.OnPicture(*pic)
	}
	return nil
}

// sendPicture renders the picture parameter buffer for a new picture.
func (dec *Decoder) sendPicture(target va.SurfaceID, reference bool) error {
	pp := params.PictureParameterH264{
		CurrPic: params.PictureH264{
			PictureID: uint32(target),
			FrameIdx:  uint32(dec.frameNum),
		},
		PictureWidthInMbsMinus1:  uint16(dec.sps.MbWidth - 1),
		PictureHeightInMbsMinus1: uint16((dec.height+15)/16 - 1),
		NumRefFrames:             1,
		Seq: params.SeqFields{
			ChromaFormatIDC:        1,
			FrameMbsOnlyFlag:       true,
			Direct8x8InferenceFlag: true,
		},
		Pic: params.PicFields{
			DeblockingFilterControlPresentFlag: true,
			ReferencePicFlag:                   reference,
		},
		FrameNum: dec.frameNum,
	}
	if reference {
		pp.CurrPic.Flags = params.PictureShortTermReference
	}
	for i := range pp.ReferenceFrames {
		pp.ReferenceFrames[i] = params.InvalidPicture
	}
	raw, err := pp.Marshal()
	if err != nil {
		return errors.Wrap(err, "picture parameters")
	}
	return dec.render(va.PictureParameterBufferType, len(raw), 1, raw)
}

// sendSlice renders one slice, split into fragments when it exceeds
// Options.MaxSliceBytes.
func (dec *Decoder) sendSlice(nalu []byte) error {
	hdr, err := h264.ParseSliceHeader(nalu)
	if err != nil {
		return errors.Wrap(err, "slice header")
	}
	sp := params.NewSliceParameterH264()
	sp.FirstMbInSlice = uint16(hdr.FirstMbInSlice)
	sp.SliceType = uint8(hdr.SliceType)

	chunks := fragment(nalu, dec.opts.MaxSliceBytes)
	for i, chunk := range chunks {
		sp.DataSize = uint32(len(chunk))
		sp.DataOffset = 0
		sp.DataFlag = fragmentFlag(i, len(chunks))

		spBuf, err := dec.create(va.SliceParameterBufferType, params.SliceParameterH264Size, 1, sp.Marshal())
		if err != nil {
			return err
		}
		dataBuf, err := dec.create(va.SliceDataBufferType, len(chunk), 1, chunk)
		if err != nil {
			dec.display.DestroyBuffer(spBuf)
			return err
		}
		if err := dec.submit(spBuf, dataBuf); err != nil {
			return errors.Wrap(err, "render slice")
		}
	}
	return nil
}

func fragment(b []byte, max int) [][]byte {
	if max <= 0 || len(b) <= max {
		return [][]byte{b}
	}
	var out [][]byte
	for len(b) > max {
		out = append(out, b[:max])
		b = b[max:]
	}
	return append(out, b)
}

func fragmentFlag(i, n int) uint32 {
	switch {
	case n == 1:
		return va.SliceDataFlagAll
	case i == 0:
		return va.SliceDataFlagBegin
	case i == n-1:
		return va.SliceDataFlagEnd
	}
	return va.SliceDataFlagMiddle
}

func (dec *Decoder) create(typ va.BufferType, size, n int, data []byte) (va.BufferID, error) {
	id, err := dec.display.CreateBuffer(dec.context, typ, size, n, data)
	if err != nil {
		return va.BufferID(va.InvalidID), errors.Wrapf(err, "create %v buffer", typ)
	}
	return id, nil
}

func (dec *Decoder) render(typ va.BufferType, size, n int, data []byte) error {
	id, err := dec.create(typ, size, n, data)
	if err != nil {
		return err
	}
	if err := dec.submit(id); err != nil {
		return errors.Wrapf(err, "render %v buffer", typ)
	}
	return nil
}

// submit renders a batch of buffers. The runtime consumes a batch once it
// passes validation, even if processing fails; only a batch rejected up front
// is still ours to release.
func (dec *Decoder) submit(ids ...va.BufferID) error {
	err := dec.display.RenderPicture(dec.context, ids)
	switch va.StatusOf(err) {
	case va.ErrInvalidContext, va.ErrInvalidBuffer:
		for _, id := range ids {
			dec.display.DestroyBuffer(id)
		}
	}
	return err
}

// Surfaces returns the decode targets, in ring order.
func (dec *Decoder) Surfaces() []va.SurfaceID {
	return dec.surfaces
}

// Close releases the context, surfaces and config.
func (dec *Decoder) Close() error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	// Destroying the context first retires a picture left begun by a failed
	// Decode, so that every target completes.
	if dec.context != va.ContextID(va.InvalidID) {
		keep(dec.display.DestroyContext(dec.context))
		dec.context = va.ContextID(va.InvalidID)
	}
	for _, s := range dec.surfaces {
		dec.display.SyncSurface(s)
	}
	if len(dec.surfaces) > 0 {
		keep(dec.display.DestroySurfaces(dec.surfaces))
		dec.surfaces = nil
	}
	if dec.config != va.ConfigID(va.InvalidID) {
		keep(dec.display.DestroyConfig(dec.config))
		dec.config = va.ConfigID(va.InvalidID)
	}
	return first
}
