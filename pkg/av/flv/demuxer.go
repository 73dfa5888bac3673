package flv

import (
	"github.com/pkg/errors"

	"oggpcm/pkg/av"
)

type Demuxer struct{}

func NewDemuxer() *Demuxer {
	return &Demuxer{}
}

// DecodeHeader decodes the audio tag header at the start of pkt.Data.
func (d *Demuxer) DecodeHeader(pkt *av.Packet) error {
	tag := new(Tag)
	tag.flvTag.TagType = TagAudio
	_, err := tag.DecodeMediaTagHeader(pkt.Data)
	if err != nil {
		return errors.Wrap(err, "decode media tag header")
	} else {
		pkt.PacketHeader = tag
	}

	return nil
}
