package params

import (
	"testing"

	"github.com/lanikai/alohava/internal/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPictureCodingExtension(t *testing.T) {
	e := PictureCodingExtension{
		IntraDCPrecision: 2,
		PictureStructure: 3,
		TopFieldFirst:    true,
		ProgressiveFrame: true,
	}
	v, err := e.Pack()
	require.NoError(t, err)
	// 10 | 11<<2 | 1<<4 | 1<<11
	assert.Equal(t, uint32(0x2|0xc|0x10|0x800), v)
	assert.Equal(t, e, UnpackPictureCodingExtension(v))

	e.IntraDCPrecision = 4
	_, err = e.Pack()
	assert.Error(t, err)
}

func TestSeqFields(t *testing.T) {
	f := SeqFields{
		ChromaFormatIDC:             1,
		FrameMbsOnlyFlag:            true,
		Direct8x8InferenceFlag:      true,
		Log2MaxFrameNumMinus4:       0xf,
		PicOrderCntType:             2,
		DeltaPicOrderAlwaysZeroFlag: true,
	}
	v, err := f.Pack()
	require.NoError(t, err)
	assert.Equal(t, uint32(1|1<<4|1<<6|0xf<<8|2<<12|1<<18), v)
	assert.Equal(t, f, UnpackSeqFields(v))
}

func TestVOPAndVC1Fields(t *testing.T) {
	vop := VOPFields{VOPCodingType: 1, IntraDCVLCThr: 7, AlternateVerticalScanFlag: true}
	v, err := vop.Pack()
	require.NoError(t, err)
	assert.Equal(t, uint32(1|7<<5|1<<9), v)
	assert.Equal(t, vop, UnpackVOPFields(v))

	mv := VC1MVFields{MVMode: 4, ExtendedDMVRange: 3}
	v, err = mv.Pack()
	require.NoError(t, err)
	assert.Equal(t, uint32(4|3<<18), v)
	assert.Equal(t, mv, UnpackVC1MVFields(v))
}

func TestPictureParameterH264Layout(t *testing.T) {
	pp := PictureParameterH264{
		CurrPic:                  PictureH264{PictureID: 7},
		PictureWidthInMbsMinus1:  39,
		PictureHeightInMbsMinus1: 29,
		NumRefFrames:             1,
		Seq:                      SeqFields{ChromaFormatIDC: 1, FrameMbsOnlyFlag: true},
		PicInitQPMinus26:         -3,
		Pic:                      PicFields{ReferencePicFlag: true},
		FrameNum:                 5,
	}
	for i := range pp.ReferenceFrames {
		pp.ReferenceFrames[i] = InvalidPicture
	}
	buf, err := pp.Marshal()
	require.NoError(t, err)
	require.Len(t, buf, PictureParameterH264Size)

	r := packet.NewReader(buf)
	assert.Equal(t, uint32(7), r.ReadUint32())
	r.Skip(336)
	assert.Equal(t, uint16(39), r.ReadUint16())
	assert.Equal(t, uint16(29), r.ReadUint16())
	r.Skip(4)
	assert.Equal(t, uint32(1|1<<4), r.ReadUint32())
	r.Skip(4)
	assert.Equal(t, int8(-3), r.ReadInt8())
	r.Skip(3)
	assert.Equal(t, uint32(1<<10), r.ReadUint32())
	assert.Equal(t, uint16(5), r.ReadUint16())

	var back PictureParameterH264
	require.NoError(t, back.Unmarshal(buf))
	assert.Equal(t, pp, back)
	assert.Equal(t, 640, back.Width())
	assert.Equal(t, 480, back.Height())

	assert.Error(t, back.Unmarshal(buf[:100]))
}

func TestSliceParameterH264(t *testing.T) {
	sp := NewSliceParameterH264()
	sp.SliceBase = SliceBase{DataSize: 100, DataOffset: 4, DataFlag: 1}
	sp.FirstMbInSlice = 12
	sp.SliceQPDelta = -2
	sp.L1.ChromaOffset[31][1] = -9

	buf := sp.Marshal()
	require.Len(t, buf, SliceParameterH264Size)

	base, err := ParseSliceBase(buf)
	require.NoError(t, err)
	assert.Equal(t, sp.SliceBase, base)

	back := new(SliceParameterH264)
	require.NoError(t, back.Unmarshal(buf))
	assert.Equal(t, sp, back)
}

func TestSliceBaseSelect(t *testing.T) {
	data := []byte("0123456789")
	b := SliceBase{DataSize: 3, DataOffset: 2}
	sel, err := b.Select(data)
	require.NoError(t, err)
	assert.Equal(t, []byte("234"), sel)

	b.DataOffset = 9
	_, err = b.Select(data)
	assert.Error(t, err)

	_, err = ParseSliceBase([]byte{1, 2, 3})
	assert.Error(t, err)

	b = SliceBase{DataSize: 7, DataOffset: 1, DataFlag: 4}
	back, err := ParseSliceBase(b.Marshal())
	require.NoError(t, err)
	assert.Equal(t, b, back)

	elems := Elements(make([]byte, 30), 12, 3)
	assert.Len(t, elems, 2)
}

func TestCodedBufferOf(t *testing.T) {
	p := EncPictureParameter{ReferencePicture: 1, ReconstructedPicture: 2, CodedBuf: 0x30000004, PictureWidth: 64}
	id, err := CodedBufferOf(p.Marshal(false))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x30000004), id)

	_, err = CodedBufferOf([]byte{0, 0, 0})
	assert.Error(t, err)
}

func TestEncSliceParameter(t *testing.T) {
	p := EncSliceParameter{StartRowNumber: 2, SliceHeight: 4, Flags: EncSliceFlags{IsIntra: true, DisableDeblockingFilterIDC: 2}}
	buf, err := p.Marshal()
	require.NoError(t, err)
	var back EncSliceParameter
	require.NoError(t, back.Unmarshal(buf))
	assert.Equal(t, p, back)
	assert.Equal(t, uint32(5), packet.NewReader(buf[8:]).ReadUint32())
}
