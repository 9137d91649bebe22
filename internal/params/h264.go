package params

import (
	"github.com/lanikai/alohava/internal/packet"
	errors "golang.org/x/xerrors"
)

// Picture flags.
const (
	PictureInvalid            = 0x01
	PictureTopField           = 0x02
	PictureBottomField        = 0x04
	PictureShortTermReference = 0x08
	PictureLongTermReference  = 0x10
)

// InvalidSurface marks an unused picture slot.
const InvalidSurface = 0xffffffff

// PictureH264 identifies a decoded picture by surface.
type PictureH264 struct {
	PictureID           uint32
	FrameIdx            uint32
	Flags               uint32
	TopFieldOrderCnt    uint32
	BottomFieldOrderCnt uint32
}

const pictureH264Size = 20

// InvalidPicture is an empty reference slot.
var InvalidPicture = PictureH264{PictureID: InvalidSurface, Flags: PictureInvalid}

func (p *PictureH264) write(w *packet.Writer) {
	w.WriteUint32(p.PictureID)
	w.WriteUint32(p.FrameIdx)
	w.WriteUint32(p.Flags)
	w.WriteUint32(p.TopFieldOrderCnt)
	w.WriteUint32(p.BottomFieldOrderCnt)
}

func (p *PictureH264) read(r *packet.Reader) {
	p.PictureID = r.ReadUint32()
	p.FrameIdx = r.ReadUint32()
	p.Flags = r.ReadUint32()
	p.TopFieldOrderCnt = r.ReadUint32()
	p.BottomFieldOrderCnt = r.ReadUint32()
}

// SeqFields carries the SPS flags of the H.264 picture parameters.
type SeqFields struct {
	ChromaFormatIDC                uint8 // 2 bits
	ResidualColourTransformFlag    bool
	GapsInFrameNumValueAllowedFlag bool
	FrameMbsOnlyFlag               bool
	MbAdaptiveFrameFieldFlag       bool
	Direct8x8InferenceFlag         bool
	MinLumaBiPredSize8x8           bool
	Log2MaxFrameNumMinus4          uint8 // 4 bits
	PicOrderCntType                uint8 // 2 bits
	Log2MaxPicOrderCntLsbMinus4    uint8 // 4 bits
	DeltaPicOrderAlwaysZeroFlag    bool
}

func (f SeqFields) Pack() (uint32, error) {
	var p packer
	p.uint(uint32(f.ChromaFormatIDC), 2, "chroma_format_idc")
	p.bool(f.ResidualColourTransformFlag)
	p.bool(f.GapsInFrameNumValueAllowedFlag)
	p.bool(f.FrameMbsOnlyFlag)
	p.bool(f.MbAdaptiveFrameFieldFlag)
	p.bool(f.Direct8x8InferenceFlag)
	p.bool(f.MinLumaBiPredSize8x8)
	p.uint(uint32(f.Log2MaxFrameNumMinus4), 4, "log2_max_frame_num_minus4")
	p.uint(uint32(f.PicOrderCntType), 2, "pic_order_cnt_type")
	p.uint(uint32(f.Log2MaxPicOrderCntLsbMinus4), 4, "log2_max_pic_order_cnt_lsb_minus4")
	p.bool(f.DeltaPicOrderAlwaysZeroFlag)
	return p.result()
}

func UnpackSeqFields(v uint32) (f SeqFields) {
	u := unpacker{value: v}
	f.ChromaFormatIDC = u.uint8(2)
	f.ResidualColourTransformFlag = u.bool()
	f.GapsInFrameNumValueAllowedFlag = u.bool()
	f.FrameMbsOnlyFlag = u.bool()
	f.MbAdaptiveFrameFieldFlag = u.bool()
	f.Direct8x8InferenceFlag = u.bool()
	f.MinLumaBiPredSize8x8 = u.bool()
	f.Log2MaxFrameNumMinus4 = u.uint8(4)
	f.PicOrderCntType = u.uint8(2)
	f.Log2MaxPicOrderCntLsbMinus4 = u.uint8(4)
	f.DeltaPicOrderAlwaysZeroFlag = u.bool()
	return
}

// PicFields carries the PPS and slice header flags of the H.264 picture
// parameters.
type PicFields struct {
	EntropyCodingModeFlag              bool
	WeightedPredFlag                   bool
	WeightedBipredIDC                  uint8 // 2 bits
	Transform8x8ModeFlag               bool
	FieldPicFlag                       bool
	ConstrainedIntraPredFlag           bool
	PicOrderPresentFlag                bool
	DeblockingFilterControlPresentFlag bool
	RedundantPicCntPresentFlag         bool
	ReferencePicFlag                   bool
}

func (f PicFields) Pack() (uint32, error) {
	var p packer
	p.bool(f.EntropyCodingModeFlag)
	p.bool(f.WeightedPredFlag)
	p.uint(uint32(f.WeightedBipredIDC), 2, "weighted_bipred_idc")
	p.bool(f.Transform8x8ModeFlag)
	p.bool(f.FieldPicFlag)
	p.bool(f.ConstrainedIntraPredFlag)
	p.bool(f.PicOrderPresentFlag)
	p.bool(f.DeblockingFilterControlPresentFlag)
	p.bool(f.RedundantPicCntPresentFlag)
	p.bool(f.ReferencePicFlag)
	return p.result()
}

func UnpackPicFields(v uint32) (f PicFields) {
	u := unpacker{value: v}
	f.EntropyCodingModeFlag = u.bool()
	f.WeightedPredFlag = u.bool()
	f.WeightedBipredIDC = u.uint8(2)
	f.Transform8x8ModeFlag = u.bool()
	f.FieldPicFlag = u.bool()
	f.ConstrainedIntraPredFlag = u.bool()
	f.PicOrderPresentFlag = u.bool()
	f.DeblockingFilterControlPresentFlag = u.bool()
	f.RedundantPicCntPresentFlag = u.bool()
	f.ReferencePicFlag = u.bool()
	return
}

// PictureParameterH264 is sent once per picture before any slice data.
type PictureParameterH264 struct {
	CurrPic                    PictureH264
	ReferenceFrames            [16]PictureH264
	PictureWidthInMbsMinus1    uint16
	PictureHeightInMbsMinus1   uint16
	BitDepthLumaMinus8         uint8
	BitDepthChromaMinus8       uint8
	NumRefFrames               uint8
	Seq                        SeqFields
	NumSliceGroupsMinus1       uint8
	SliceGroupMapType          uint8
	SliceGroupChangeRateMinus1 uint16
	PicInitQPMinus26           int8
	PicInitQSMinus26           int8
	ChromaQPIndexOffset        int8
	SecondChromaQPIndexOffset  int8
	Pic                        PicFields
	FrameNum                   uint16
}

// PictureParameterH264Size is the packed size in bytes.
const PictureParameterH264Size = 368

func (pp *PictureParameterH264) Marshal() ([]byte, error) {
	seq, err := pp.Seq.Pack()
	if err != nil {
		return nil, err
	}
	pic, err := pp.Pic.Pack()
	if err != nil {
		return nil, err
	}

	w := packet.NewWriterSize(PictureParameterH264Size)
	pp.CurrPic.write(w)
	for i := range pp.ReferenceFrames {
		pp.ReferenceFrames[i].write(w)
	}
	w.WriteUint16(pp.PictureWidthInMbsMinus1)
	w.WriteUint16(pp.PictureHeightInMbsMinus1)
	w.WriteUint8(pp.BitDepthLumaMinus8)
	w.WriteUint8(pp.BitDepthChromaMinus8)
	w.WriteUint8(pp.NumRefFrames)
	w.Align(4)
	w.WriteUint32(seq)
	w.WriteUint8(pp.NumSliceGroupsMinus1)
	w.WriteUint8(pp.SliceGroupMapType)
	w.WriteUint16(pp.SliceGroupChangeRateMinus1)
	w.WriteInt8(pp.PicInitQPMinus26)
	w.WriteInt8(pp.PicInitQSMinus26)
	w.WriteInt8(pp.ChromaQPIndexOffset)
	w.WriteInt8(pp.SecondChromaQPIndexOffset)
	w.WriteUint32(pic)
	w.WriteUint16(pp.FrameNum)
	w.Align(4)
	return w.Bytes(), nil
}

func (pp *PictureParameterH264) Unmarshal(buf []byte) error {
	r := packet.NewReader(buf)
	if err := r.CheckRemaining(PictureParameterH264Size); err != nil {
		return errors.Errorf("short H.264 picture parameter buffer: %v", err)
	}
	pp.CurrPic.read(r)
	for i := range pp.ReferenceFrames {
		pp.ReferenceFrames[i].read(r)
	}
	pp.PictureWidthInMbsMinus1 = r.ReadUint16()
	pp.PictureHeightInMbsMinus1 = r.ReadUint16()
	pp.BitDepthLumaMinus8 = r.ReadUint8()
	pp.BitDepthChromaMinus8 = r.ReadUint8()
	pp.NumRefFrames = r.ReadUint8()
	r.Align(4)
	pp.Seq = UnpackSeqFields(r.ReadUint32())
	pp.NumSliceGroupsMinus1 = r.ReadUint8()
	pp.SliceGroupMapType = r.ReadUint8()
	pp.SliceGroupChangeRateMinus1 = r.ReadUint16()
	pp.PicInitQPMinus26 = r.ReadInt8()
	pp.PicInitQSMinus26 = r.ReadInt8()
	pp.ChromaQPIndexOffset = r.ReadInt8()
	pp.SecondChromaQPIndexOffset = r.ReadInt8()
	pp.Pic = UnpackPicFields(r.ReadUint32())
	pp.FrameNum = r.ReadUint16()
	return nil
}

// Width and Height return the picture size in pixels.
func (pp *PictureParameterH264) Width() int {
	return (int(pp.PictureWidthInMbsMinus1) + 1) * 16
}

func (pp *PictureParameterH264) Height() int {
	return (int(pp.PictureHeightInMbsMinus1) + 1) * 16
}

// PredWeightTable holds explicit weighted prediction for one reference list.
type PredWeightTable struct {
	LumaWeightFlag   bool
	LumaWeight       [32]int16
	LumaOffset       [32]int16
	ChromaWeightFlag bool
	ChromaWeight     [32][2]int16
	ChromaOffset     [32][2]int16
}

func (t *PredWeightTable) write(w *packet.Writer) {
	w.WriteUint8(boolByte(t.LumaWeightFlag))
	w.Align(2)
	for _, v := range t.LumaWeight {
		w.WriteInt16(v)
	}
	for _, v := range t.LumaOffset {
		w.WriteInt16(v)
	}
	w.WriteUint8(boolByte(t.ChromaWeightFlag))
	w.Align(2)
	for _, v := range t.ChromaWeight {
		w.WriteInt16(v[0])
		w.WriteInt16(v[1])
	}
	for _, v := range t.ChromaOffset {
		w.WriteInt16(v[0])
		w.WriteInt16(v[1])
	}
}

func (t *PredWeightTable) read(r *packet.Reader) {
	t.LumaWeightFlag = r.ReadUint8() != 0
	r.Align(2)
	for i := range t.LumaWeight {
		t.LumaWeight[i] = r.ReadInt16()
	}
	for i := range t.LumaOffset {
		t.LumaOffset[i] = r.ReadInt16()
	}
	t.ChromaWeightFlag = r.ReadUint8() != 0
	r.Align(2)
	for i := range t.ChromaWeight {
		t.ChromaWeight[i][0] = r.ReadInt16()
		t.ChromaWeight[i][1] = r.ReadInt16()
	}
	for i := range t.ChromaOffset {
		t.ChromaOffset[i][0] = r.ReadInt16()
		t.ChromaOffset[i][1] = r.ReadInt16()
	}
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// SliceParameterH264 describes one slice. The embedded SliceBase selects the
// slice bytes inside the paired slice data buffer.
type SliceParameterH264 struct {
	SliceBase
	SliceDataBitOffset         uint16
	FirstMbInSlice             uint16
	SliceType                  uint8
	DirectSpatialMvPredFlag    bool
	NumRefIdxL0ActiveMinus1    uint8
	NumRefIdxL1ActiveMinus1    uint8
	CabacInitIDC               uint8
	SliceQPDelta               int8
	DisableDeblockingFilterIDC uint8
	SliceAlphaC0OffsetDiv2     int8
	SliceBetaOffsetDiv2        int8
	RefPicList0                [32]PictureH264
	RefPicList1                [32]PictureH264
	LumaLog2WeightDenom        uint8
	ChromaLog2WeightDenom      uint8
	L0                         PredWeightTable
	L1                         PredWeightTable
}

// SliceParameterH264Size is the packed size in bytes.
const SliceParameterH264Size = 2088

// NewSliceParameterH264 returns slice parameters with empty reference lists.
func NewSliceParameterH264() *SliceParameterH264 {
	sp := new(SliceParameterH264)
	for i := range sp.RefPicList0 {
		sp.RefPicList0[i] = InvalidPicture
		sp.RefPicList1[i] = InvalidPicture
	}
	return sp
}

func (sp *SliceParameterH264) Marshal() []byte {
	w := packet.NewWriterSize(SliceParameterH264Size)
	sp.SliceBase.write(w)
	w.WriteUint16(sp.SliceDataBitOffset)
	w.WriteUint16(sp.FirstMbInSlice)
	w.WriteUint8(sp.SliceType)
	w.WriteUint8(boolByte(sp.DirectSpatialMvPredFlag))
	w.WriteUint8(sp.NumRefIdxL0ActiveMinus1)
	w.WriteUint8(sp.NumRefIdxL1ActiveMinus1)
	w.WriteUint8(sp.CabacInitIDC)
	w.WriteInt8(sp.SliceQPDelta)
	w.WriteUint8(sp.DisableDeblockingFilterIDC)
	w.WriteInt8(sp.SliceAlphaC0OffsetDiv2)
	w.WriteInt8(sp.SliceBetaOffsetDiv2)
	w.Align(4)
	for i := range sp.RefPicList0 {
		sp.RefPicList0[i].write(w)
	}
	for i := range sp.RefPicList1 {
		sp.RefPicList1[i].write(w)
	}
	w.WriteUint8(sp.LumaLog2WeightDenom)
	w.WriteUint8(sp.ChromaLog2WeightDenom)
	sp.L0.write(w)
	sp.L1.write(w)
	w.Align(4)
	return w.Bytes()
}

func (sp *SliceParameterH264) Unmarshal(buf []byte) error {
	r := packet.NewReader(buf)
	if err := r.CheckRemaining(SliceParameterH264Size); err != nil {
		return errors.Errorf("short H.264 slice parameter buffer: %v", err)
	}
	sp.SliceBase.read(r)
	sp.SliceDataBitOffset = r.ReadUint16()
	sp.FirstMbInSlice = r.ReadUint16()
	sp.SliceType = r.ReadUint8()
	sp.DirectSpatialMvPredFlag = r.ReadUint8() != 0
	sp.NumRefIdxL0ActiveMinus1 = r.ReadUint8()
	sp.NumRefIdxL1ActiveMinus1 = r.ReadUint8()
	sp.CabacInitIDC = r.ReadUint8()
	sp.SliceQPDelta = r.ReadInt8()
	sp.DisableDeblockingFilterIDC = r.ReadUint8()
	sp.SliceAlphaC0OffsetDiv2 = r.ReadInt8()
	sp.SliceBetaOffsetDiv2 = r.ReadInt8()
	r.Align(4)
	for i := range sp.RefPicList0 {
		sp.RefPicList0[i].read(r)
	}
	for i := range sp.RefPicList1 {
		sp.RefPicList1[i].read(r)
	}
	sp.LumaLog2WeightDenom = r.ReadUint8()
	sp.ChromaLog2WeightDenom = r.ReadUint8()
	sp.L0.read(r)
	sp.L1.read(r)
	return nil
}
