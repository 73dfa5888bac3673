package flv

import (
	"bytes"
	"strings"
	"time"

	"github.com/gwuhaolin/livego/protocol/amf"
	"github.com/pkg/errors"

	"oggpcm/pkg/av"
)

// OnMetaData builds the AMF0 "onMetaData" script data payload for a PCM
// stream. duration is omitted when zero.
func OnMetaData(enc *amf.Encoder, st *av.Stream, tag *Tag, duration time.Duration) ([]byte, error) {
	meta := make(amf.Object)
	meta["audiocodecid"] = float64(tag.SoundFormat())
	meta["audiosamplerate"] = float64(st.SampleRate)
	meta["audiosamplesize"] = float64(st.CodecID.BitsPerSample())
	meta["stereo"] = st.Channels == 2
	if duration > 0 {
		meta["duration"] = duration.Seconds()
	}
	for _, k := range st.Metadata.Keys() {
		meta[strings.ToLower(k)] = st.Metadata[k]
	}

	buffer := bytes.NewBuffer([]byte{})
	for _, v := range []interface{}{"onMetaData", meta} {
		if _, err := enc.Encode(buffer, v, amf.AMF0); err != nil {
			return nil, errors.Wrapf(err, "amf encode value: %v", v)
		}
	}

	return buffer.Bytes(), nil
}
