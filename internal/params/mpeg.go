package params

// PictureCodingExtension is the MPEG-2 picture_coding_extension word.
type PictureCodingExtension struct {
	IntraDCPrecision         uint8 // 2 bits
	PictureStructure         uint8 // 2 bits
	TopFieldFirst            bool
	FramePredFrameDCT        bool
	ConcealmentMotionVectors bool
	QScaleType               bool
	IntraVLCFormat           bool
	AlternateScan            bool
	RepeatFirstField         bool
	ProgressiveFrame         bool
	IsFirstField             bool
}

func (e PictureCodingExtension) Pack() (uint32, error) {
	var p packer
	p.uint(uint32(e.IntraDCPrecision), 2, "intra_dc_precision")
	p.uint(uint32(e.PictureStructure), 2, "picture_structure")
	p.bool(e.TopFieldFirst)
	p.bool(e.FramePredFrameDCT)
	p.bool(e.ConcealmentMotionVectors)
	p.bool(e.QScaleType)
	p.bool(e.IntraVLCFormat)
	p.bool(e.AlternateScan)
	p.bool(e.RepeatFirstField)
	p.bool(e.ProgressiveFrame)
	p.bool(e.IsFirstField)
	return p.result()
}

func UnpackPictureCodingExtension(v uint32) (e PictureCodingExtension) {
	u := unpacker{value: v}
	e.IntraDCPrecision = u.uint8(2)
	e.PictureStructure = u.uint8(2)
	e.TopFieldFirst = u.bool()
	e.FramePredFrameDCT = u.bool()
	e.ConcealmentMotionVectors = u.bool()
	e.QScaleType = u.bool()
	e.IntraVLCFormat = u.bool()
	e.AlternateScan = u.bool()
	e.RepeatFirstField = u.bool()
	e.ProgressiveFrame = u.bool()
	e.IsFirstField = u.bool()
	return
}

// VOLFields is the MPEG-4 video object layer word.
type VOLFields struct {
	ShortVideoHeader      bool
	ChromaFormat          uint8 // 2 bits
	Interlaced            bool
	OBMCDisable           bool
	SpriteEnable          uint8 // 2 bits
	SpriteWarpingAccuracy uint8 // 2 bits
	QuantType             bool
	QuarterSample         bool
	DataPartitioned       bool
	ReversibleVLC         bool
	ResyncMarkerDisable   bool
}

func (f VOLFields) Pack() (uint32, error) {
	var p packer
	p.bool(f.ShortVideoHeader)
	p.uint(uint32(f.ChromaFormat), 2, "chroma_format")
	p.bool(f.Interlaced)
	p.bool(f.OBMCDisable)
	p.uint(uint32(f.SpriteEnable), 2, "sprite_enable")
	p.uint(uint32(f.SpriteWarpingAccuracy), 2, "sprite_warping_accuracy")
	p.bool(f.QuantType)
	p.bool(f.QuarterSample)
	p.bool(f.DataPartitioned)
	p.bool(f.ReversibleVLC)
	p.bool(f.ResyncMarkerDisable)
	return p.result()
}

func UnpackVOLFields(v uint32) (f VOLFields) {
	u := unpacker{value: v}
	f.ShortVideoHeader = u.bool()
	f.ChromaFormat = u.uint8(2)
	f.Interlaced = u.bool()
	f.OBMCDisable = u.bool()
	f.SpriteEnable = u.uint8(2)
	f.SpriteWarpingAccuracy = u.uint8(2)
	f.QuantType = u.bool()
	f.QuarterSample = u.bool()
	f.DataPartitioned = u.bool()
	f.ReversibleVLC = u.bool()
	f.ResyncMarkerDisable = u.bool()
	return
}

// VOPFields is the MPEG-4 video object plane word.
type VOPFields struct {
	VOPCodingType                  uint8 // 2 bits
	BackwardReferenceVOPCodingType uint8 // 2 bits
	VOPRoundingType                bool
	IntraDCVLCThr                  uint8 // 3 bits
	TopFieldFirst                  bool
	AlternateVerticalScanFlag      bool
}

func (f VOPFields) Pack() (uint32, error) {
	var p packer
	p.uint(uint32(f.VOPCodingType), 2, "vop_coding_type")
	p.uint(uint32(f.BackwardReferenceVOPCodingType), 2, "backward_reference_vop_coding_type")
	p.bool(f.VOPRoundingType)
	p.uint(uint32(f.IntraDCVLCThr), 3, "intra_dc_vlc_thr")
	p.bool(f.TopFieldFirst)
	p.bool(f.AlternateVerticalScanFlag)
	return p.result()
}

func UnpackVOPFields(v uint32) (f VOPFields) {
	u := unpacker{value: v}
	f.VOPCodingType = u.uint8(2)
	f.BackwardReferenceVOPCodingType = u.uint8(2)
	f.VOPRoundingType = u.bool()
	f.IntraDCVLCThr = u.uint8(3)
	f.TopFieldFirst = u.bool()
	f.AlternateVerticalScanFlag = u.bool()
	return
}
