package av

type AudioPacketHeader interface {
	PacketHeader
	SoundFormat() uint8   // flv sound format
	SoundRate() uint8     // flv rate index
	SoundSize() uint8     // 0: 8-bit, 1: 16-bit
	SoundChannels() uint8 // 1 or 2
}
