package params

// VC1SequenceFields holds the sequence layer (advanced profile) or metadata
// (simple and main profiles) flags.
type VC1SequenceFields struct {
	Pulldown    bool
	Interlace   bool
	TFCntrFlag  bool
	FInterpFlag bool
	PSF         bool
	Multires    bool
	Overlap     bool
	SyncMarker  bool
	RangeRed    bool
	MaxBFrames  uint8 // 3 bits
}

func (f VC1SequenceFields) Pack() (uint32, error) {
	var p packer
	p.bool(f.Pulldown)
	p.bool(f.Interlace)
	p.bool(f.TFCntrFlag)
	p.bool(f.FInterpFlag)
	p.bool(f.PSF)
	p.bool(f.Multires)
	p.bool(f.Overlap)
	p.bool(f.SyncMarker)
	p.bool(f.RangeRed)
	p.uint(uint32(f.MaxBFrames), 3, "max_b_frames")
	return p.result()
}

func UnpackVC1SequenceFields(v uint32) (f VC1SequenceFields) {
	u := unpacker{value: v}
	f.Pulldown = u.bool()
	f.Interlace = u.bool()
	f.TFCntrFlag = u.bool()
	f.FInterpFlag = u.bool()
	f.PSF = u.bool()
	f.Multires = u.bool()
	f.Overlap = u.bool()
	f.SyncMarker = u.bool()
	f.RangeRed = u.bool()
	f.MaxBFrames = u.uint8(3)
	return
}

// VC1PictureFields holds the picture layer type and coding mode.
type VC1PictureFields struct {
	PictureType           uint8 // 3 bits
	FrameCodingMode       uint8 // 3 bits
	TopFieldFirst         bool
	IsFirstField          bool
	IntensityCompensation bool
}

func (f VC1PictureFields) Pack() (uint32, error) {
	var p packer
	p.uint(uint32(f.PictureType), 3, "picture_type")
	p.uint(uint32(f.FrameCodingMode), 3, "frame_coding_mode")
	p.bool(f.TopFieldFirst)
	p.bool(f.IsFirstField)
	p.bool(f.IntensityCompensation)
	return p.result()
}

func UnpackVC1PictureFields(v uint32) (f VC1PictureFields) {
	u := unpacker{value: v}
	f.PictureType = u.uint8(3)
	f.FrameCodingMode = u.uint8(3)
	f.TopFieldFirst = u.bool()
	f.IsFirstField = u.bool()
	f.IntensityCompensation = u.bool()
	return
}

// VC1MVFields holds the motion vector mode and table selection.
type VC1MVFields struct {
	MVMode                  uint8 // 3 bits
	MVMode2                 uint8 // 3 bits
	MVTable                 uint8 // 3 bits
	TwoMVBlockPatternTable  uint8 // 2 bits
	FourMVSwitch            bool
	FourMVBlockPatternTable uint8 // 2 bits
	ExtendedMVFlag          bool
	ExtendedMVRange         uint8 // 2 bits
	ExtendedDMVFlag         bool
	ExtendedDMVRange        uint8 // 2 bits
}

func (f VC1MVFields) Pack() (uint32, error) {
	var p packer
	p.uint(uint32(f.MVMode), 3, "mv_mode")
	p.uint(uint32(f.MVMode2), 3, "mv_mode2")
	p.uint(uint32(f.MVTable), 3, "mv_table")
	p.uint(uint32(f.TwoMVBlockPatternTable), 2, "two_mv_block_pattern_table")
	p.bool(f.FourMVSwitch)
	p.uint(uint32(f.FourMVBlockPatternTable), 2, "four_mv_block_pattern_table")
	p.bool(f.ExtendedMVFlag)
	p.uint(uint32(f.ExtendedMVRange), 2, "extended_mv_range")
	p.bool(f.ExtendedDMVFlag)
	p.uint(uint32(f.ExtendedDMVRange), 2, "extended_dmv_range")
	return p.result()
}

func UnpackVC1MVFields(v uint32) (f VC1MVFields) {
	u := unpacker{value: v}
	f.MVMode = u.uint8(3)
	f.MVMode2 = u.uint8(3)
	f.MVTable = u.uint8(3)
	f.TwoMVBlockPatternTable = u.uint8(2)
	f.FourMVSwitch = u.bool()
	f.FourMVBlockPatternTable = u.uint8(2)
	f.ExtendedMVFlag = u.bool()
	f.ExtendedMVRange = u.uint8(2)
	f.ExtendedDMVFlag = u.bool()
	f.ExtendedDMVRange = u.uint8(2)
	return
}
