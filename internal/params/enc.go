package params

import (
	"github.com/lanikai/alohava/internal/packet"
	errors "golang.org/x/xerrors"
)

// Every encode picture parameter structure stores the coded buffer ID at the
// same offset, after two surface IDs (or, for JPEG, one surface ID and the
// picture size).
const codedBufferOffset = 8

// CodedBufferOf returns the coded buffer referenced by an encode picture
// parameter buffer.
func CodedBufferOf(raw []byte) (uint32, error) {
	r := packet.NewReader(raw)
	if err := r.CheckRemaining(codedBufferOffset + 4); err != nil {
		return 0, errors.Errorf("short encode picture parameter buffer: %v", err)
	}
	r.Skip(codedBufferOffset)
	return r.ReadUint32(), nil
}

// Encode picture types.
const (
	EncPictureIntra         = 0
	EncPicturePredictive    = 1
	EncPictureBidirectional = 2
)

// EncPictureParameter is the common head of the H.264, H.263 and MPEG-4 encode
// picture parameters.
type EncPictureParameter struct {
	ReferencePicture     uint32
	ReconstructedPicture uint32
	CodedBuf             uint32
	PictureWidth         uint16
	PictureHeight        uint16
}

// EncPictureParameterSize is the packed size of the H.264 variant, which
// adds a last_picture byte.
const EncPictureParameterSize = 20

func (p *EncPictureParameter) Marshal(lastPicture bool) []byte {
	w := packet.NewWriterSize(EncPictureParameterSize)
	w.WriteUint32(p.ReferencePicture)
	w.WriteUint32(p.ReconstructedPicture)
	w.WriteUint32(p.CodedBuf)
	w.WriteUint16(p.PictureWidth)
	w.WriteUint16(p.PictureHeight)
	w.WriteUint8(boolByte(lastPicture))
	w.Align(4)
	return w.Bytes()
}

// Unmarshal decodes the common head. The last_picture byte is reported when
// present.
func (p *EncPictureParameter) Unmarshal(buf []byte) (lastPicture bool, err error) {
	r := packet.NewReader(buf)
	if err := r.CheckRemaining(16); err != nil {
		return false, errors.Errorf("short encode picture parameter buffer: %v", err)
	}
	p.ReferencePicture = r.ReadUint32()
	p.ReconstructedPicture = r.ReadUint32()
	p.CodedBuf = r.ReadUint32()
	p.PictureWidth = r.ReadUint16()
	p.PictureHeight = r.ReadUint16()
	if r.Remaining() > 0 {
		lastPicture = r.ReadUint8() != 0
	}
	return lastPicture, nil
}

// EncSliceFlags is the slice_flags word of the encode slice parameters.
type EncSliceFlags struct {
	IsIntra                    bool
	DisableDeblockingFilterIDC uint8 // 2 bits
}

func (f EncSliceFlags) Pack() (uint32, error) {
	var p packer
	p.bool(f.IsIntra)
	p.uint(uint32(f.DisableDeblockingFilterIDC), 2, "disable_deblocking_filter_idc")
	return p.result()
}

func UnpackEncSliceFlags(v uint32) (f EncSliceFlags) {
	u := unpacker{value: v}
	f.IsIntra = u.bool()
	f.DisableDeblockingFilterIDC = u.uint8(2)
	return
}

// EncSliceParameter describes one encoded slice as a band of macroblock rows.
type EncSliceParameter struct {
	StartRowNumber uint32
	SliceHeight    uint32
	Flags          EncSliceFlags
}

const EncSliceParameterSize = 12

func (p *EncSliceParameter) Marshal() ([]byte, error) {
	flags, err := p.Flags.Pack()
	if err != nil {
		return nil, err
	}
	w := packet.NewWriterSize(EncSliceParameterSize)
	w.WriteUint32(p.StartRowNumber)
	w.WriteUint32(p.SliceHeight)
	w.WriteUint32(flags)
	return w.Bytes(), nil
}

func (p *EncSliceParameter) Unmarshal(buf []byte) error {
	r := packet.NewReader(buf)
	if err := r.CheckRemaining(EncSliceParameterSize); err != nil {
		return errors.Errorf("short encode slice parameter buffer: %v", err)
	}
	p.StartRowNumber = r.ReadUint32()
	p.SliceHeight = r.ReadUint32()
	p.Flags = UnpackEncSliceFlags(r.ReadUint32())
	return nil
}
