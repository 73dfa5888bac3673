package av

type MediaType uint8

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeAudio
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeAudio:
		return "audio"
	default:
		return "unknown"
	}
}

type CodecID uint32

const (
	CodecNone CodecID = iota
	CodecPCMS8
	CodecPCMU8
	CodecPCMS16LE
	CodecPCMS16BE
	CodecPCMS24LE
	CodecPCMS24BE
	CodecPCMS32LE
	CodecPCMS32BE
	CodecPCMF32LE
	CodecPCMF32BE
	CodecPCMF64LE
	CodecPCMF64BE
)

var codecNames = map[CodecID]string{
	CodecNone:     "none",
	CodecPCMS8:    "pcm_s8",
	CodecPCMU8:    "pcm_u8",
	CodecPCMS16LE: "pcm_s16le",
	CodecPCMS16BE: "pcm_s16be",
	CodecPCMS24LE: "pcm_s24le",
	CodecPCMS24BE: "pcm_s24be",
	CodecPCMS32LE: "pcm_s32le",
	CodecPCMS32BE: "pcm_s32be",
	CodecPCMF32LE: "pcm_f32le",
	CodecPCMF32BE: "pcm_f32be",
	CodecPCMF64LE: "pcm_f64le",
	CodecPCMF64BE: "pcm_f64be",
}

func (id CodecID) String() string {
	if name, ok := codecNames[id]; ok {
		return name
	}
	return "unknown"
}

// BitsPerSample returns the storage width of one sample, 0 for non-PCM codecs.
func (id CodecID) BitsPerSample() int {
	switch id {
	case CodecPCMS8, CodecPCMU8:
		return 8
	case CodecPCMS16LE, CodecPCMS16BE:
		return 16
	case CodecPCMS24LE, CodecPCMS24BE:
		return 24
	case CodecPCMS32LE, CodecPCMS32BE, CodecPCMF32LE, CodecPCMF32BE:
		return 32
	case CodecPCMF64LE, CodecPCMF64BE:
		return 64
	default:
		return 0
	}
}
