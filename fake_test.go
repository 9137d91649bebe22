package alohava

import (
	"sync"
	"testing"
	"time"

	"github.com/lanikai/alohava/internal/fourcc"
	"github.com/lanikai/alohava/internal/packet"
	"github.com/stretchr/testify/require"
)

// fakeDriver completes work only when a test says so.
type fakeDriver struct {
	jobs     chan *fakeJob
	presents chan *fakePresent

	derive bool

	mu     sync.Mutex
	opened bool
	closed bool
}

type fakeJob struct {
	*Job
	done func(Result)
}

func (j *fakeJob) finish(res Result) {
	j.done(res)
}

type fakePresent struct {
	*Presentation
	done func(error)
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		jobs:     make(chan *fakeJob, 64),
		presents: make(chan *fakePresent, 64),
		derive:   true,
	}
}

func (f *fakeDriver) Name() string { return "fake" }

func (f *fakeDriver) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = true
	return nil
}

func (f *fakeDriver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeDriver) Profiles() []Profile {
	return []Profile{ProfileMPEG2Simple, ProfileH264Main}
}

func (f *fakeDriver) Entrypoints(p Profile) []Entrypoint {
	switch p {
	case ProfileMPEG2Simple:
		return []Entrypoint{EntrypointVLD}
	case ProfileH264Main:
		return []Entrypoint{EntrypointVLD, EntrypointEncSlice}
	}
	return nil
}

func (f *fakeDriver) Attributes(p Profile, e Entrypoint) []AttribCap {
	caps := []AttribCap{{Type: AttribRTFormat, Supported: RTFormatYUV420 | RTFormatYUV422, Default: RTFormatYUV420}}
	if e.IsEncode() {
		caps = append(caps, AttribCap{Type: AttribRateControl, Supported: RCCBR | RCVBR, Default: RCCBR})
	}
	return caps
}

func (f *fakeDriver) BufferTypes(e Entrypoint) []BufferType {
	if e.IsEncode() {
		return []BufferType{EncCodedBufferType, EncSequenceParameterBufferType, EncPictureParameterBufferType, EncSliceParameterBufferType}
	}
	return []BufferType{PictureParameterBufferType, IQMatrixBufferType, SliceParameterBufferType, SliceDataBufferType}
}

func (f *fakeDriver) ImageFormats() []ImageFormat {
	var out []ImageFormat
	for _, c := range []fourcc.Code{fourcc.NV12, fourcc.I420, fourcc.YV12, fourcc.YUY2} {
		format, _ := fourcc.Lookup(c)
		out = append(out, format)
	}
	return out
}

func (f *fakeDriver) SubpictureFormats() []SubpictureFormat {
	ai44, _ := fourcc.Lookup(fourcc.AI44)
	return []SubpictureFormat{{Format: ai44, Flags: SubpictureGlobalAlpha}}
}

func (f *fakeDriver) MaxResolution() (int, int) { return 1920, 1088 }

func (f *fakeDriver) CanDerive(c fourcc.Code) bool {
	return f.derive && c == fourcc.NV12
}

func (f *fakeDriver) Submit(job *Job, done func(Result)) {
	f.jobs <- &fakeJob{job, done}
}

func (f *fakeDriver) Present(p *Presentation, done func(error)) {
	f.presents <- &fakePresent{p, done}
}

func (f *fakeDriver) nextJob(t *testing.T) *fakeJob {
	t.Helper()
	select {
	case j := <-f.jobs:
		return j
	case <-time.After(time.Second):
		t.Fatal("no job submitted")
	}
	return nil
}

func (f *fakeDriver) nextPresent(t *testing.T) *fakePresent {
	t.Helper()
	select {
	case p := <-f.presents:
		return p
	case <-time.After(time.Second):
		t.Fatal("no presentation")
	}
	return nil
}

func newTestDisplay(t *testing.T) (*Display, *fakeDriver) {
	return newTestDisplayConfig(t, Config{})
}

func newTestDisplayConfig(t *testing.T, cfg Config) (*Display, *fakeDriver) {
	f := newFakeDriver()
	d := NewDisplay(f, cfg)
	major, minor, err := d.Initialize()
	require.NoError(t, err)
	require.Equal(t, VersionMajor, major)
	require.Equal(t, VersionMinor, minor)
	t.Cleanup(func() { d.Terminate() })
	return d, f
}

// decodeSetup is a 640x480 MPEG-2 decode context with n targets.
type decodeSetup struct {
	config   ConfigID
	surfaces []SurfaceID
	context  ContextID
}

func newDecode(t *testing.T, d *Display, n int) decodeSetup {
	t.Helper()
	var s decodeSetup
	var err error
	s.config, err = d.CreateConfig(ProfileMPEG2Simple, EntrypointVLD, nil)
	require.NoError(t, err)
	s.surfaces, err = d.CreateSurfaces(640, 480, RTFormatYUV420, n)
	require.NoError(t, err)
	s.context, err = d.CreateContext(s.config, 640, 480, Progressive, s.surfaces)
	require.NoError(t, err)
	return s
}

// sliceParam packs one slice parameter element holding only the base.
func sliceParam(size, offset, flag uint32) []byte {
	w := packet.NewWriterSize(12)
	w.WriteUint32(size)
	w.WriteUint32(offset)
	w.WriteUint32(flag)
	return w.Bytes()
}

func createBuffer(t *testing.T, d *Display, ctx ContextID, typ BufferType, data []byte) BufferID {
	t.Helper()
	id, err := d.CreateBuffer(ctx, typ, len(data), 1, data)
	require.NoError(t, err)
	return id
}

// renderSlice renders a picture parameter buffer and one whole slice.
func renderSlice(t *testing.T, d *Display, ctx ContextID, data []byte) {
	t.Helper()
	ids := []BufferID{
		createBuffer(t, d, ctx, PictureParameterBufferType, []byte{1, 2, 3, 4}),
		createBuffer(t, d, ctx, SliceParameterBufferType, sliceParam(uint32(len(data)), 0, SliceDataFlagAll)),
		createBuffer(t, d, ctx, SliceDataBufferType, data),
	}
	require.NoError(t, d.RenderPicture(ctx, ids))
}

func requireStatus(t *testing.T, want Status, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, StatusOf(err), "%v", err)
}
