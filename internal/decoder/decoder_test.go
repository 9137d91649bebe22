package decoder

import (
	"bytes"
	"context"
	"io"
	"testing"

	va "github.com/lanikai/alohava"
	"github.com/lanikai/alohava/drivers/soft"
	"github.com/lanikai/alohava/internal/feed"
	"github.com/lanikai/alohava/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSPS = []byte{0x67, 0x42, 0xc0, 0x1e, 0xda, 0x05, 0x07, 0xe4}
	testPPS = []byte{0x68, 0xce, 0x3c, 0x80}

	idrSlice0  = []byte{0x65, 0x88, 0xc0, 0x12, 0x34, 0x56, 0x78, 0x9a}
	idrSlice1  = []byte{0x65, 0x42, 0x30, 0x56}
	predSlice0 = []byte{0x41, 0x88, 0xc0, 0xab}
)

func testSource(t *testing.T) feed.Source {
	var b bytes.Buffer
	for _, n := range [][]byte{testSPS, testPPS, idrSlice0, idrSlice1, predSlice0} {
		b.Write([]byte{0, 0, 0, 1})
		b.Write(n)
	}
	src, err := feed.NewAnnexB(io.NopCloser(&b))
	require.NoError(t, err)
	return src
}

func newDisplay(t *testing.T) *va.Display {
	d := va.NewDisplay(soft.New(soft.Options{}), va.Config{})
	_, _, err := d.Initialize()
	require.NoError(t, err)
	t.Cleanup(func() { d.Terminate() })
	return d
}

// luma returns the first luma byte of a surface.
func luma(t *testing.T, d *va.Display, s va.SurfaceID) byte {
	img, err := d.DeriveImage(s)
	require.NoError(t, err)
	defer d.DestroyImage(img.ID)
	p, err := d.MapBuffer(img.Buf)
	require.NoError(t, err)
	defer d.UnmapBuffer(img.Buf)
	return p[img.Offsets[0]]
}

func testDecode(t *testing.T, opts Options) {
	d := newDisplay(t)
	src := testSource(t)
	defer src.Close()

	var pics []Picture
	opts.OnPicture = func(p Picture) { pics = append(pics, p) }
	dec, err := New(d, src, opts)
	require.NoError(t, err)
	defer dec.Close()

	stats, err := dec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pictures)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 3, stats.Slices)

	require.Len(t, pics, 2)
	assert.True(t, pics[0].KeyFrame)
	assert.Equal(t, 2, pics[0].Slices)
	assert.False(t, pics[1].KeyFrame)
	assert.Equal(t, va.SurfaceReady, pics[1].Status)

	want := soft.Checksum([]va.Slice{{Data: idrSlice0}, {Data: idrSlice1}})
	assert.Equal(t, want, luma(t, d, pics[0].Surface))
	want = soft.Checksum([]va.Slice{{Data: predSlice0}})
	assert.Equal(t, want, luma(t, d, pics[1].Surface))
}

func TestDecode(t *testing.T) {
	testDecode(t, Options{})
}

func TestDecodeFragmented(t *testing.T) {
	testDecode(t, Options{MaxSliceBytes: 3})
}

func TestDecodeSurfaceReuse(t *testing.T) {
	d := newDisplay(t)
	src := testSource(t)
	defer src.Close()

	var surfaces []va.SurfaceID
	dec, err := New(d, src, Options{Surfaces: 1, OnPicture: func(p Picture) {
		surfaces = append(surfaces, p.Surface)
	}})
	require.NoError(t, err)
	defer dec.Close()

	stats, err := dec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Pictures)
	require.Len(t, surfaces, 2)
	assert.Equal(t, surfaces[0], surfaces[1])
	assert.Equal(t, dec.Surfaces(), surfaces[:1])
}

func TestFrameLimit(t *testing.T) {
	d := newDisplay(t)
	src := testSource(t)
	defer src.Close()

	dec, err := New(d, src, Options{Frames: 1})
	require.NoError(t, err)
	defer dec.Close()
	stats, err := dec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pictures)
}

func TestCancelled(t *testing.T) {
	d := newDisplay(t)
	src := testSource(t)
	defer src.Close()

	dec, err := New(d, src, Options{})
	require.NoError(t, err)
	defer dec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = dec.Run(ctx)
	assert.Equal(t, context.Canceled, err)
}

func TestProfileOf(t *testing.T) {
	p, err := ProfileOf(100)
	require.NoError(t, err)
	assert.Equal(t, va.ProfileH264High, p)

	_, err = ProfileOf(88)
	assert.Equal(t, va.ErrUnsupportedProfile, va.StatusOf(err))
}

func TestFragment(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, [][]byte{b}, fragment(b, 0))
	assert.Equal(t, [][]byte{b}, fragment(b, 7))
	assert.Equal(t, [][]byte{{1, 2, 3}, {4, 5, 6}, {7}}, fragment(b, 3))

	assert.Equal(t, uint32(va.SliceDataFlagAll), fragmentFlag(0, 1))
	assert.Equal(t, uint32(va.SliceDataFlagBegin), fragmentFlag(0, 3))
	assert.Equal(t, uint32(va.SliceDataFlagMiddle), fragmentFlag(1, 3))
	assert.Equal(t, uint32(va.SliceDataFlagEnd), fragmentFlag(2, 3))
}

// bareDecoder binds a decoder to a fresh H.264 context without reading a
// stream.
func bareDecoder(t *testing.T, cfg va.Config) (*Decoder, va.SurfaceID) {
	d := va.NewDisplay(soft.New(soft.Options{}), cfg)
	_, _, err := d.Initialize()
	require.NoError(t, err)
	t.Cleanup(func() { d.Terminate() })

	config, err := d.CreateConfig(va.ProfileH264Baseline, va.EntrypointVLD, nil)
	require.NoError(t, err)
	surfaces, err := d.CreateSurfaces(64, 64, va.RTFormatYUV420, 1)
	require.NoError(t, err)
	ctx, err := d.CreateContext(config, 64, 64, va.Progressive, surfaces)
	require.NoError(t, err)
	return &Decoder{display: d, config: config, context: ctx, surfaces: surfaces}, surfaces[0]
}

func TestRejectedSliceReleasesBuffers(t *testing.T) {
	dec, _ := bareDecoder(t, va.Config{MaxBuffers: 2})

	// No picture begun: the batch is refused before anything is consumed.
	err := dec.sendSlice(idrSlice0)
	assert.Equal(t, va.ErrInvalidContext, va.StatusOf(err))

	for i := 0; i < 2; i++ {
		_, err := dec.create(va.IQMatrixBufferType, 4, 1, nil)
		require.NoError(t, err, "rejected buffers must be released")
	}
}

func TestFailedSliceLeavesOtherBuffers(t *testing.T) {
	dec, target := bareDecoder(t, va.Config{MaxBuffers: 3})
	d := dec.display

	keep, err := dec.create(va.IQMatrixBufferType, 4, 1, nil)
	require.NoError(t, err)
	require.NoError(t, d.BeginPicture(dec.context, target))

	// Slice parameters with no data make the next slice fail in processing,
	// after the runtime has taken ownership of its buffers.
	sp := params.NewSliceParameterH264()
	require.NoError(t, dec.render(va.SliceParameterBufferType, params.SliceParameterH264Size, 1, sp.Marshal()))
	err = dec.sendSlice(idrSlice0)
	assert.Equal(t, va.ErrInvalidParameter, va.StatusOf(err))

	_, err = d.MapBuffer(keep)
	require.NoError(t, err)
	require.NoError(t, d.UnmapBuffer(keep))
	for i := 0; i < 2; i++ {
		_, err := dec.create(va.IQMatrixBufferType, 4, 1, nil)
		require.NoError(t, err)
	}
}

func TestCloseWithPictureBegun(t *testing.T) {
	dec, target := bareDecoder(t, va.Config{})
	d := dec.display
	require.NoError(t, d.BeginPicture(dec.context, target))

	require.NoError(t, dec.Close())
	_, err := d.QuerySurfaceStatus(target)
	assert.Equal(t, va.ErrInvalidSurface, va.StatusOf(err))
}
