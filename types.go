package alohava

import (
	"fmt"

	"github.com/lanikai/alohava/internal/fourcc"
	"github.com/lanikai/alohava/internal/slicedata"
)

// Profile is a codec and profile combination.
type Profile int32

const (
	ProfileMPEG2Simple         Profile = 0
	ProfileMPEG2Main           Profile = 1
	ProfileMPEG4Simple         Profile = 2
	ProfileMPEG4AdvancedSimple Profile = 3
	ProfileMPEG4Main           Profile = 4
	ProfileH264Baseline        Profile = 5
	ProfileH264Main            Profile = 6
	ProfileH264High            Profile = 7
	ProfileVC1Simple           Profile = 8
	ProfileVC1Main             Profile = 9
	ProfileVC1Advanced         Profile = 10
	ProfileH263Baseline        Profile = 11
	ProfileJPEGBaseline        Profile = 12
)

var profileNames = []string{
	"MPEG2Simple", "MPEG2Main",
	"MPEG4Simple", "MPEG4AdvancedSimple", "MPEG4Main",
	"H264Baseline", "H264Main", "H264High",
	"VC1Simple", "VC1Main", "VC1Advanced",
	"H263Baseline", "JPEGBaseline",
}

func (p Profile) String() string {
	if p >= 0 && int(p) < len(profileNames) {
		return profileNames[p]
	}
	return fmt.Sprintf("Profile(%d)", int32(p))
}

// Entrypoint is a processing stage a driver performs for a profile.
type Entrypoint int32

const (
	EntrypointVLD        Entrypoint = 1
	EntrypointIZZ        Entrypoint = 2
	EntrypointIDCT       Entrypoint = 3
	EntrypointMoComp     Entrypoint = 4
	EntrypointDeblocking Entrypoint = 5
	EntrypointEncSlice   Entrypoint = 6
	EntrypointEncPicture Entrypoint = 7
)

var entrypointNames = []string{"", "VLD", "IZZ", "IDCT", "MoComp", "Deblocking", "EncSlice", "EncPicture"}

func (e Entrypoint) String() string {
	if e > 0 && int(e) < len(entrypointNames) {
		return entrypointNames[e]
	}
	return fmt.Sprintf("Entrypoint(%d)", int32(e))
}

// IsEncode reports whether the entrypoint produces a coded bitstream.
func (e Entrypoint) IsEncode() bool {
	return e == EntrypointEncSlice || e == EntrypointEncPicture
}

type ConfigAttribType int32

const (
	AttribRTFormat        ConfigAttribType = 0
	AttribSpatialResidual ConfigAttribType = 1
	AttribSpatialClipping ConfigAttribType = 2
	AttribIntraResidual   ConfigAttribType = 3
	AttribEncryption      ConfigAttribType = 4
	AttribRateControl     ConfigAttribType = 5
)

var attribNames = []string{"RTFormat", "SpatialResidual", "SpatialClipping", "IntraResidual", "Encryption", "RateControl"}

func (t ConfigAttribType) String() string {
	if t >= 0 && int(t) < len(attribNames) {
		return attribNames[t]
	}
	return fmt.Sprintf("Attrib(%d)", int32(t))
}

// ConfigAttrib is one configuration attribute. Value holds OR'd flags.
type ConfigAttrib struct {
	Type  ConfigAttribType
	Value uint32
}

// AttribNotSupported is the value of an attribute that does not apply to a
// profile and entrypoint pair.
const AttribNotSupported = 0x80000000

// Render target formats (AttribRTFormat values).
const (
	RTFormatYUV420    = 0x00000001
	RTFormatYUV422    = 0x00000002
	RTFormatYUV444    = 0x00000004
	RTFormatProtected = 0x80000000
)

// Rate control modes (AttribRateControl values).
const (
	RCNone = 0x00000001
	RCCBR  = 0x00000002
	RCVBR  = 0x00000004
)

// Context creation flags.
const Progressive = 0x1

type BufferType int32

const (
	PictureParameterBufferType     BufferType = 0
	IQMatrixBufferType             BufferType = 1
	BitPlaneBufferType             BufferType = 2
	SliceGroupMapBufferType        BufferType = 3
	SliceParameterBufferType       BufferType = 4
	SliceDataBufferType            BufferType = 5
	MacroblockParameterBufferType  BufferType = 6
	ResidualDataBufferType         BufferType = 7
	DeblockingParameterBufferType  BufferType = 8
	ImageBufferType                BufferType = 9
	ProtectedSliceDataBufferType   BufferType = 10
	QMatrixBufferType              BufferType = 11
	EncCodedBufferType             BufferType = 21
	EncSequenceParameterBufferType BufferType = 22
	EncPictureParameterBufferType  BufferType = 23
	EncSliceParameterBufferType    BufferType = 24
	EncH264VUIBufferType           BufferType = 25
	EncH264SEIBufferType           BufferType = 26
)

var bufferTypeNames = map[BufferType]string{
	PictureParameterBufferType:     "PictureParameter",
	IQMatrixBufferType:             "IQMatrix",
	BitPlaneBufferType:             "BitPlane",
	SliceGroupMapBufferType:        "SliceGroupMap",
	SliceParameterBufferType:       "SliceParameter",
	SliceDataBufferType:            "SliceData",
	MacroblockParameterBufferType:  "MacroblockParameter",
	ResidualDataBufferType:         "ResidualData",
	DeblockingParameterBufferType:  "DeblockingParameter",
	ImageBufferType:                "Image",
	ProtectedSliceDataBufferType:   "ProtectedSliceData",
	QMatrixBufferType:              "QMatrix",
	EncCodedBufferType:             "EncCoded",
	EncSequenceParameterBufferType: "EncSequenceParameter",
	EncPictureParameterBufferType:  "EncPictureParameter",
	EncSliceParameterBufferType:    "EncSliceParameter",
	EncH264VUIBufferType:           "EncH264VUI",
	EncH264SEIBufferType:           "EncH264SEI",
}

func (t BufferType) String() string {
	if s, ok := bufferTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("BufferType(%d)", int32(t))
}

func (t BufferType) isSliceData() bool {
	return t == SliceDataBufferType || t == ProtectedSliceDataBufferType
}

// Slice data continuation flags.
const (
	SliceDataFlagAll    = slicedata.FlagAll
	SliceDataFlagBegin  = slicedata.FlagBegin
	SliceDataFlagMiddle = slicedata.FlagMiddle
	SliceDataFlagEnd    = slicedata.FlagEnd
)

type SurfaceStatus uint32

const (
	SurfaceRendering  SurfaceStatus = 1
	SurfaceDisplaying SurfaceStatus = 2
	SurfaceReady      SurfaceStatus = 4
	SurfaceSkipped    SurfaceStatus = 8
)

func (s SurfaceStatus) String() string {
	switch s {
	case SurfaceRendering:
		return "Rendering"
	case SurfaceDisplaying:
		return "Displaying"
	case SurfaceReady:
		return "Ready"
	case SurfaceSkipped:
		return "Skipped"
	}
	return fmt.Sprintf("SurfaceStatus(%d)", uint32(s))
}

func (s SurfaceStatus) busy() bool {
	return s == SurfaceRendering || s == SurfaceDisplaying
}

// Rectangle is a region in surface or image coordinates, origin at the top
// left.
type Rectangle struct {
	X      int16
	Y      int16
	Width  uint16
	Height uint16
}

func (r Rectangle) empty() bool {
	return r.Width == 0 || r.Height == 0
}

func (r Rectangle) within(l fourcc.Layout) bool {
	return l.Contains(int(r.X), int(r.Y), int(r.Width), int(r.Height))
}

func (r Rectangle) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Subpicture capability and association flags.
const (
	SubpictureChromaKeying = 0x0001
	SubpictureGlobalAlpha  = 0x0002
)

// ImageFormat describes a FourCC pixel format.
type ImageFormat = fourcc.Format

// Byte orders of ImageFormat.
const (
	LSBFirst = fourcc.LSBFirst
	MSBFirst = fourcc.MSBFirst
)

// Image is the client view of an image: its format, the buffer holding the
// pixels and the plane layout within that buffer.
type Image struct {
	ID                ImageID
	Format            ImageFormat
	Buf               BufferID
	Width             int
	Height            int
	DataSize          int
	NumPlanes         int
	Pitches           [3]int
	Offsets           [3]int
	NumPaletteEntries int
	EntryBytes        int
	ComponentOrder    [4]byte
}
