package alohava

import (
	"sync"
	"testing"
	"time"

	"github.com/lanikai/alohava/internal/params"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePicture(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 4)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[2]))
	status, err := d.QuerySurfaceStatus(s.surfaces[2])
	require.NoError(t, err)
	assert.Equal(t, SurfaceRendering, status)

	renderSlice(t, d, s.context, []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, d.EndPicture(s.context))

	job := f.nextJob(t)
	assert.Equal(t, s.context, job.Context)
	assert.Equal(t, ProfileMPEG2Simple, job.Profile)
	assert.Equal(t, EntrypointVLD, job.Entrypoint)
	assert.Equal(t, 640, job.Width)
	assert.Equal(t, 480, job.Height)
	assert.True(t, job.Progressive)
	assert.Equal(t, s.surfaces[2], job.Target.ID)
	require.Len(t, job.Slices, 1)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, job.Slices[0].Data)
	assert.Equal(t, sliceParam(4, 0, SliceDataFlagAll), job.Slices[0].Params)
	assert.Equal(t, BufferID(InvalidID), job.CodedBuffer)

	status, _ = d.QuerySurfaceStatus(s.surfaces[2])
	assert.Equal(t, SurfaceRendering, status)

	job.finish(Result{Status: SurfaceReady})
	require.NoError(t, d.SyncSurface(s.surfaces[2]))
	status, _ = d.QuerySurfaceStatus(s.surfaces[2])
	assert.Equal(t, SurfaceReady, status)

	// The context accepts the next picture.
	require.NoError(t, d.BeginPicture(s.context, s.surfaces[2]))
}

func TestBeginPictureErrors(t *testing.T) {
	d, _ := newTestDisplay(t)
	s := newDecode(t, d, 2)
	other, err := d.CreateSurfaces(640, 480, RTFormatYUV420, 1)
	require.NoError(t, err)

	requireStatus(t, ErrInvalidContext, d.BeginPicture(ContextID(InvalidID), s.surfaces[0]))
	requireStatus(t, ErrInvalidSurface, d.BeginPicture(s.context, SurfaceID(InvalidID)))
	requireStatus(t, ErrInvalidSurface, d.BeginPicture(s.context, other[0]))

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	requireStatus(t, ErrSurfaceBusy, d.BeginPicture(s.context, s.surfaces[0]))
	requireStatus(t, ErrInvalidContext, d.BeginPicture(s.context, s.surfaces[1]))
}

func TestConcurrentBeginPicture(t *testing.T) {
	d, _ := newTestDisplay(t)
	s := newDecode(t, d, 1)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = d.BeginPicture(s.context, s.surfaces[0])
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.Equal(t, ErrSurfaceBusy, StatusOf(err))
		}
	}
	assert.Equal(t, 1, winners)
}

func TestBeginPictureWhileDisplaying(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.PutSurface(s.surfaces[0], Rectangle{}, Rectangle{}))
	p := f.nextPresent(t)

	requireStatus(t, ErrSurfaceBusy, d.BeginPicture(s.context, s.surfaces[0]))
	status, err := d.QuerySurfaceStatus(s.surfaces[0])
	require.NoError(t, err)
	assert.Equal(t, SurfaceDisplaying, status)

	p.done(nil)
	require.NoError(t, d.SyncSurface(s.surfaces[0]))
	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
}

func TestRenderOutsidePicture(t *testing.T) {
	d, _ := newTestDisplay(t)
	s := newDecode(t, d, 1)

	id := createBuffer(t, d, s.context, PictureParameterBufferType, []byte{1})
	requireStatus(t, ErrInvalidContext, d.RenderPicture(s.context, []BufferID{id}))
	requireStatus(t, ErrInvalidContext, d.EndPicture(s.context))

	// The buffer was not consumed.
	require.NoError(t, d.DestroyBuffer(id))
}

func TestSliceContinuation(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	fragments := []struct {
		flag uint32
		data []byte
	}{
		{SliceDataFlagBegin, []byte{1, 2}},
		{SliceDataFlagMiddle, []byte{3}},
		{SliceDataFlagEnd, []byte{4, 5, 6}},
	}
	for _, frag := range fragments {
		ids := []BufferID{
			createBuffer(t, d, s.context, SliceParameterBufferType, sliceParam(uint32(len(frag.data)), 0, frag.flag)),
			createBuffer(t, d, s.context, SliceDataBufferType, frag.data),
		}
		require.NoError(t, d.RenderPicture(s.context, ids))
	}
	renderSlice(t, d, s.context, []byte{7})
	require.NoError(t, d.EndPicture(s.context))

	job := f.nextJob(t)
	require.Len(t, job.Slices, 2)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, job.Slices[0].Data)
	assert.Equal(t, sliceParam(2, 0, SliceDataFlagBegin), job.Slices[0].Params)
	assert.Equal(t, []byte{7}, job.Slices[1].Data)
	job.finish(Result{Status: SurfaceReady})
}

func TestMultiElementSliceParameters(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	var elems []byte
	elems = append(elems, sliceParam(2, 0, SliceDataFlagAll)...)
	elems = append(elems, sliceParam(3, 2, SliceDataFlagAll)...)
	param, err := d.CreateBuffer(s.context, SliceParameterBufferType, params.SliceBaseSize, 2, elems)
	require.NoError(t, err)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	data := createBuffer(t, d, s.context, SliceDataBufferType, []byte{1, 2, 3, 4, 5})
	require.NoError(t, d.RenderPicture(s.context, []BufferID{param, data}))
	require.NoError(t, d.EndPicture(s.context))

	job := f.nextJob(t)
	require.Len(t, job.Slices, 2)
	assert.Equal(t, []byte{1, 2}, job.Slices[0].Data)
	assert.Equal(t, []byte{3, 4, 5}, job.Slices[1].Data)
	job.finish(Result{Status: SurfaceReady})
}

func TestUnterminatedSlice(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	ids := []BufferID{
		createBuffer(t, d, s.context, SliceParameterBufferType, sliceParam(2, 0, SliceDataFlagBegin)),
		createBuffer(t, d, s.context, SliceDataBufferType, []byte{1, 2}),
	}
	require.NoError(t, d.RenderPicture(s.context, ids))

	requireStatus(t, ErrInvalidParameter, d.EndPicture(s.context))
	job := f.nextJob(t)
	assert.True(t, job.Discard)
	assert.Empty(t, job.Slices)
	status, err := d.QuerySurfaceStatus(s.surfaces[0])
	require.NoError(t, err)
	assert.Equal(t, SurfaceRendering, status, "target waits for the driver to retire the picture")

	// A discarded picture ends Ready whatever the driver reports.
	job.finish(Result{Status: SurfaceSkipped, Err: errors.New("ignored")})
	require.NoError(t, d.SyncSurface(s.surfaces[0]))
	status, err = d.QuerySurfaceStatus(s.surfaces[0])
	require.NoError(t, err)
	assert.Equal(t, SurfaceReady, status)

	// The picture was discarded.
	requireStatus(t, ErrInvalidContext, d.EndPicture(s.context))
}

func TestSliceParametersWithoutData(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	param := createBuffer(t, d, s.context, SliceParameterBufferType, sliceParam(1, 0, SliceDataFlagAll))
	require.NoError(t, d.RenderPicture(s.context, []BufferID{param}))
	requireStatus(t, ErrInvalidParameter, d.EndPicture(s.context))
	job := f.nextJob(t)
	assert.True(t, job.Discard)
	job.finish(Result{Status: SurfaceReady})
	require.NoError(t, d.SyncSurface(s.surfaces[0]))
}

func TestRenderBatchValidation(t *testing.T) {
	d, _ := newTestDisplay(t)
	s := newDecode(t, d, 1)
	other := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	good := createBuffer(t, d, s.context, PictureParameterBufferType, []byte{1})
	foreign := createBuffer(t, d, other.context, PictureParameterBufferType, []byte{2})
	mapped := createBuffer(t, d, s.context, IQMatrixBufferType, []byte{3})
	_, err := d.MapBuffer(mapped)
	require.NoError(t, err)

	for _, batch := range [][]BufferID{
		{good, BufferID(InvalidID)},
		{good, good},
		{good, foreign},
		{good, mapped},
	} {
		requireStatus(t, ErrInvalidBuffer, d.RenderPicture(s.context, batch))
	}

	// Nothing was consumed.
	for _, id := range []BufferID{good, foreign} {
		p, err := d.MapBuffer(id)
		require.NoError(t, err)
		assert.Len(t, p, 1)
		require.NoError(t, d.UnmapBuffer(id))
	}
}

func TestRenderFailureConsumesBatch(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	picParam := createBuffer(t, d, s.context, PictureParameterBufferType, []byte{1})
	orphan := createBuffer(t, d, s.context, SliceDataBufferType, []byte{2})
	requireStatus(t, ErrInvalidParameter, d.RenderPicture(s.context, []BufferID{picParam, orphan}))

	requireStatus(t, ErrInvalidBuffer, d.DestroyBuffer(picParam))
	requireStatus(t, ErrInvalidBuffer, d.DestroyBuffer(orphan))

	// The picture is as it was before the failed call.
	renderSlice(t, d, s.context, []byte{3})
	require.NoError(t, d.EndPicture(s.context))
	job := f.nextJob(t)
	assert.Len(t, job.Buffers, 1)
	assert.Len(t, job.Slices, 1)
	job.finish(Result{Status: SurfaceReady})
}

func TestShortSliceParameterElement(t *testing.T) {
	d, _ := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	short := createBuffer(t, d, s.context, SliceParameterBufferType, []byte{1, 2, 3, 4})
	requireStatus(t, ErrInvalidParameter, d.RenderPicture(s.context, []BufferID{short}))

	// Slice data past the end of its buffer.
	ids := []BufferID{
		createBuffer(t, d, s.context, SliceParameterBufferType, sliceParam(8, 0, SliceDataFlagAll)),
		createBuffer(t, d, s.context, SliceDataBufferType, []byte{1, 2}),
	}
	requireStatus(t, ErrInvalidParameter, d.RenderPicture(s.context, ids))
}

func TestSkippedPicture(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	renderSlice(t, d, s.context, []byte{1})
	require.NoError(t, d.EndPicture(s.context))
	f.nextJob(t).finish(Result{Status: SurfaceSkipped})

	require.NoError(t, d.SyncSurface(s.surfaces[0]))
	status, err := d.QuerySurfaceStatus(s.surfaces[0])
	require.NoError(t, err)
	assert.Equal(t, SurfaceSkipped, status)

	// A skipped surface may be reused.
	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
}

func TestFailedPicture(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	renderSlice(t, d, s.context, []byte{1})
	require.NoError(t, d.EndPicture(s.context))
	f.nextJob(t).finish(Result{Err: errors.New("corrupt slice")})

	err := d.SyncSurface(s.surfaces[0])
	requireStatus(t, ErrOperationFailed, err)
	assert.Contains(t, err.Error(), "corrupt slice")
	assert.NoError(t, d.SyncSurface(s.surfaces[0]))

	status, _ := d.QuerySurfaceStatus(s.surfaces[0])
	assert.Equal(t, SurfaceReady, status)
}

func TestStaleCompletionIgnored(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newDecode(t, d, 1)

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	renderSlice(t, d, s.context, []byte{1})
	require.NoError(t, d.EndPicture(s.context))
	first := f.nextJob(t)
	first.finish(Result{Status: SurfaceReady})

	require.NoError(t, d.BeginPicture(s.context, s.surfaces[0]))
	first.finish(Result{Status: SurfaceReady})

	status, err := d.QuerySurfaceStatus(s.surfaces[0])
	require.NoError(t, err)
	assert.Equal(t, SurfaceRendering, status)
}

type encodeSetup struct {
	config  ConfigID
	surface SurfaceID
	context ContextID
}

func newEncode(t *testing.T, d *Display) encodeSetup {
	t.Helper()
	var s encodeSetup
	var err error
	s.config, err = d.CreateConfig(ProfileH264Main, EntrypointEncSlice, []ConfigAttrib{{AttribRateControl, RCVBR}})
	require.NoError(t, err)
	surfaces, err := d.CreateSurfaces(640, 480, RTFormatYUV420, 1)
	require.NoError(t, err)
	s.surface = surfaces[0]
	s.context, err = d.CreateContext(s.config, 640, 480, Progressive, surfaces)
	require.NoError(t, err)
	return s
}

func renderEncode(t *testing.T, d *Display, s encodeSetup, coded BufferID) {
	t.Helper()
	pp := params.EncPictureParameter{
		ReferencePicture:     uint32(s.surface),
		ReconstructedPicture: uint32(s.surface),
		CodedBuf:             uint32(coded),
		PictureWidth:         640,
		PictureHeight:        480,
	}
	sp := params.EncSliceParameter{SliceHeight: 30, Flags: params.EncSliceFlags{IsIntra: true}}
	spData, err := sp.Marshal()
	require.NoError(t, err)

	require.NoError(t, d.BeginPicture(s.context, s.surface))
	ids := []BufferID{
		createBuffer(t, d, s.context, EncPictureParameterBufferType, pp.Marshal(true)),
		createBuffer(t, d, s.context, EncSliceParameterBufferType, spData),
	}
	require.NoError(t, d.RenderPicture(s.context, ids))
	require.NoError(t, d.EndPicture(s.context))
}

func TestEncodePicture(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newEncode(t, d)

	coded, err := d.CreateBuffer(s.context, EncCodedBufferType, 64, 1, nil)
	require.NoError(t, err)
	renderEncode(t, d, s, coded)

	job := f.nextJob(t)
	assert.Equal(t, coded, job.CodedBuffer)
	assert.Equal(t, EntrypointEncSlice, job.Entrypoint)
	require.Len(t, job.Buffers, 2)
	assert.Empty(t, job.Slices)

	type mapped struct {
		seg *CodedBufferSegment
		err error
	}
	result := make(chan mapped, 1)
	go func() {
		seg, err := d.MapCodedBuffer(coded)
		result <- mapped{seg, err}
	}()
	select {
	case <-result:
		t.Fatal("MapCodedBuffer returned before the job finished")
	case <-time.After(20 * time.Millisecond):
	}

	job.finish(Result{Status: SurfaceReady, Coded: []CodedSegment{
		{Data: []byte("head")},
		{BitOffset: 3, Data: []byte("tail")},
	}})

	var m mapped
	select {
	case m = <-result:
	case <-time.After(time.Second):
		t.Fatal("MapCodedBuffer still blocked")
	}
	require.NoError(t, m.err)
	assert.Equal(t, 2, m.seg.Len())
	assert.Equal(t, []byte("headtail"), m.seg.Bytes())
	assert.Equal(t, uint32(3), m.seg.Next.BitOffset)
	require.NoError(t, d.UnmapBuffer(coded))
	require.NoError(t, d.SyncSurface(s.surface))
}

func TestEncodeOutputTruncated(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newEncode(t, d)

	coded, err := d.CreateBuffer(s.context, EncCodedBufferType, 6, 1, nil)
	require.NoError(t, err)
	renderEncode(t, d, s, coded)
	f.nextJob(t).finish(Result{Coded: []CodedSegment{{Data: []byte("0123")}, {Data: []byte("4567")}}})

	seg, err := d.MapCodedBuffer(coded)
	require.NoError(t, err)
	assert.Equal(t, []byte("012345"), seg.Bytes())
}

func TestEncodeCodedBufferErrors(t *testing.T) {
	d, f := newTestDisplay(t)
	s := newEncode(t, d)

	// Picture parameters naming something other than a coded buffer.
	param := createBuffer(t, d, s.context, EncSequenceParameterBufferType, []byte{0})
	require.NoError(t, d.BeginPicture(s.context, s.surface))
	pp := params.EncPictureParameter{CodedBuf: uint32(param)}
	ids := []BufferID{createBuffer(t, d, s.context, EncPictureParameterBufferType, pp.Marshal(false))}
	requireStatus(t, ErrInvalidBuffer, d.RenderPicture(s.context, ids))

	// A coded buffer cannot be rendered.
	coded, err := d.CreateBuffer(s.context, EncCodedBufferType, 16, 1, nil)
	require.NoError(t, err)
	requireStatus(t, ErrInvalidBuffer, d.RenderPicture(s.context, []BufferID{coded}))

	// No coded buffer at all.
	requireStatus(t, ErrInvalidParameter, d.EndPicture(s.context))
	job := f.nextJob(t)
	assert.True(t, job.Discard)
	assert.Equal(t, BufferID(InvalidID), job.CodedBuffer)
	job.finish(Result{Status: SurfaceReady})
	require.NoError(t, d.SyncSurface(s.surface))
	status, err := d.QuerySurfaceStatus(s.surface)
	require.NoError(t, err)
	assert.Equal(t, SurfaceReady, status)
}
