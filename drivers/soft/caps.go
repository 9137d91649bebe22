package soft

import (
	va "github.com/lanikai/alohava"
	"github.com/lanikai/alohava/internal/fourcc"
)

// entry is one supported (profile, entrypoint) pair.
type entry struct {
	profile    va.Profile
	entrypoint va.Entrypoint
	rtFormats  uint32
}

var table = []entry{
	{va.ProfileMPEG2Simple, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileMPEG2Simple, va.EntrypointMoComp, va.RTFormatYUV420},
	{va.ProfileMPEG2Main, va.EntrypointVLD, va.RTFormatYUV420 | va.RTFormatYUV422},
	{va.ProfileMPEG2Main, va.EntrypointMoComp, va.RTFormatYUV420},
	{va.ProfileMPEG4Simple, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileMPEG4Simple, va.EntrypointEncSlice, va.RTFormatYUV420},
	{va.ProfileMPEG4AdvancedSimple, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileMPEG4Main, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileH264Baseline, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileH264Baseline, va.EntrypointEncSlice, va.RTFormatYUV420},
	{va.ProfileH264Main, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileH264High, va.EntrypointVLD, va.RTFormatYUV420 | va.RTFormatYUV422 | va.RTFormatYUV444},
	{va.ProfileVC1Simple, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileVC1Main, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileVC1Advanced, va.EntrypointVLD, va.RTFormatYUV420},
	{va.ProfileH263Baseline, va.EntrypointEncSlice, va.RTFormatYUV420},
	{va.ProfileJPEGBaseline, va.EntrypointEncPicture, va.RTFormatYUV420 | va.RTFormatYUV444},
}

func lookup(p va.Profile, e va.Entrypoint) (entry, bool) {
	for _, en := range table {
		if en.profile == p && en.entrypoint == e {
			return en, true
		}
	}
	return entry{}, false
}

func (d *Driver) Profiles() []va.Profile {
	var out []va.Profile
	for _, en := range table {
		if len(out) == 0 || out[len(out)-1] != en.profile {
			out = append(out, en.profile)
		}
	}
	return out
}

func (d *Driver) Entrypoints(p va.Profile) []va.Entrypoint {
	var out []va.Entrypoint
	for _, en := range table {
		if en.profile == p {
			out = append(out, en.entrypoint)
		}
	}
	return out
}

func (d *Driver) Attributes(p va.Profile, e va.Entrypoint) []va.AttribCap {
	en, ok := lookup(p, e)
	if !ok {
		return nil
	}
	caps := []va.AttribCap{
		{Type: va.AttribRTFormat, Supported: en.rtFormats, Default: va.RTFormatYUV420},
	}
	if e.IsEncode() {
		caps = append(caps, va.AttribCap{
			Type:      va.AttribRateControl,
			Supported: va.RCNone | va.RCCBR | va.RCVBR,
			Default:   va.RCCBR,
		})
	}
	return caps
}

var (
	vldBuffers = []va.BufferType{
		va.PictureParameterBufferType,
		va.IQMatrixBufferType,
		va.BitPlaneBufferType,
		va.SliceGroupMapBufferType,
		va.SliceParameterBufferType,
		va.SliceDataBufferType,
		va.ProtectedSliceDataBufferType,
		va.QMatrixBufferType,
	}
	mocompBuffers = []va.BufferType{
		va.PictureParameterBufferType,
		va.MacroblockParameterBufferType,
		va.ResidualDataBufferType,
		va.DeblockingParameterBufferType,
		va.SliceParameterBufferType,
		va.SliceDataBufferType,
	}
	encodeBuffers = []va.BufferType{
		va.EncCodedBufferType,
		va.EncSequenceParameterBufferType,
		va.EncPictureParameterBufferType,
		va.EncSliceParameterBufferType,
		va.EncH264VUIBufferType,
		va.EncH264SEIBufferType,
	}
)

func (d *Driver) BufferTypes(e va.Entrypoint) []va.BufferType {
	switch {
	case e == va.EntrypointVLD:
		return vldBuffers
	case e == va.EntrypointMoComp:
		return mocompBuffers
	case e.IsEncode():
		return encodeBuffers
	}
	return nil
}

var imageCodes = []fourcc.Code{
	fourcc.NV12, fourcc.YV12, fourcc.I420, fourcc.IYUV, fourcc.NV11,
	fourcc.P208, fourcc.YUY2, fourcc.UYVY, fourcc.AYUV, fourcc.RGBA,
}

func (d *Driver) ImageFormats() []va.ImageFormat {
	out := make([]va.ImageFormat, 0, len(imageCodes))
	for _, c := range imageCodes {
		if f, ok := fourcc.Lookup(c); ok {
			out = append(out, f)
		}
	}
	return out
}

func (d *Driver) SubpictureFormats() []va.SubpictureFormat {
	ai44, _ := fourcc.Lookup(fourcc.AI44)
	rgba, _ := fourcc.Lookup(fourcc.RGBA)
	return []va.SubpictureFormat{
		{Format: ai44, Flags: va.SubpictureGlobalAlpha},
		{Format: rgba, Flags: va.SubpictureChromaKeying | va.SubpictureGlobalAlpha},
	}
}

func (d *Driver) MaxResolution() (int, int) {
	return d.opts.MaxWidth, d.opts.MaxHeight
}

// CanDerive reports whether surfaces stored as c can be mapped directly.
func (d *Driver) CanDerive(c fourcc.Code) bool {
	if d.opts.DisableDerive {
		return false
	}
	return c == fourcc.NV12 || c == fourcc.YUY2
}
