package feed

import (
	"os"

	"github.com/nareix/joy4/av"
	"github.com/nareix/joy4/codec/h264parser"
	"github.com/nareix/joy4/format/mp4"
	"github.com/pkg/errors"
)

func init() {
	Register("mp4", OpenMP4)
}

// mp4Source reads the first H.264 track of an MP4 file.
type mp4Source struct {
	file    *os.File
	demuxer *mp4.Demuxer
	track   int8
	info    Info
}

// OpenMP4 opens an MP4 file and selects its first H.264 video track.
func OpenMP4(filename string) (Source, error) {
	log.Info("Opening file %s", filename)
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	demuxer := mp4.NewDemuxer(file)
	codecs, err := demuxer.Streams()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "read streams")
	}

	for i, codec := range codecs {
		cd, ok := codec.(h264parser.CodecData)
		if !ok {
			log.Debug("Skipping %v stream", codec.Type())
			continue
		}
		log.Info("%v stream %d: %dx%d", codec.Type(), i, cd.Width(), cd.Height())
		return &mp4Source{
			file:    file,
			demuxer: demuxer,
			track:   int8(i),
			info: Info{
				SPS:    cd.SPS(),
				PPS:    cd.PPS(),
				Width:  cd.Width(),
				Height: cd.Height(),
			},
		}, nil
	}

	file.Close()
	return nil, errors.New("no H.264 video stream found")
}

func (s *mp4Source) Info() Info {
	return s.info
}

func (s *mp4Source) ReadAccessUnit() (*AccessUnit, error) {
	for {
		pkt, err := s.demuxer.ReadPacket()
		if err != nil {
			return nil, err
		}
		if pkt.Idx != s.track {
			continue
		}
		return packetAccessUnit(pkt), nil
	}
}

// packetAccessUnit splits a length-prefixed sample into NAL units.
func packetAccessUnit(pkt av.Packet) *AccessUnit {
	nalus, _ := h264parser.SplitNALUs(pkt.Data)
	au := &AccessUnit{KeyFrame: pkt.IsKeyFrame, Time: pkt.Time}
	for _, n := range nalus {
		if len(n) > 0 {
			au.NALUs = append(au.NALUs, n)
		}
	}
	return au
}

func (s *mp4Source) Close() error {
	return s.file.Close()
}
