package av

type PacketHeader interface{}

type PacketFlags uint8

const (
	FlagBOS PacketFlags = 1 << iota // first packet of a logical stream
	FlagEOS                         // last packet of a logical stream
)

// NoGranule marks a packet that did not complete on its page.
const NoGranule int64 = -1

type Packet struct {
	PacketHeader
	Data []byte

	Granule     int64  // granule position of the page the packet ended on, or NoGranule
	Serial      uint32 // ogg logical stream serial number
	StreamIndex int

	Flags PacketFlags
}

func (p *Packet) IsBOS() bool {
	return p.Flags&FlagBOS != 0
}

func (p *Packet) IsEOS() bool {
	return p.Flags&FlagEOS != 0
}

func NewPacket(opts ...PacketOption) *Packet {
	return (&Packet{Granule: NoGranule}).loadOptions(opts...)
}

func (p *Packet) loadOptions(opts ...PacketOption) *Packet {
	for _, opt := range opts {
		opt(p)
	}

	return p
}

type PacketOption func(*Packet)

func WithPacketData(data []byte) PacketOption {
	return func(p *Packet) {
		p.Data = data // no copy
	}
}

func WithPacketFlags(flags PacketFlags) PacketOption {
	return func(p *Packet) {
		p.Flags |= flags
	}
}

func WithPacketGranule(granule int64) PacketOption {
	return func(p *Packet) {
		p.Granule = granule
	}
}

func WithPacketSerial(serial uint32) PacketOption {
	return func(p *Packet) {
		p.Serial = serial
	}
}

func WithPacketStreamIndex(index int) PacketOption {
	return func(p *Packet) {
		p.StreamIndex = index
	}
}
