package ogg

// Ogg uses CRC-32 with polynomial 0x04C11DB7, zero initial value and no bit
// reflection, which hash/crc32 cannot express.
var crcTable [256]uint32

func init() {
	const poly = uint32(0x04C11DB7)
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

func crcUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// pageCRC computes the checksum of a serialized page, treating the checksum
// field (bytes 22-25) as zero.
func pageCRC(page []byte) uint32 {
	var zero [4]byte
	crc := crcUpdate(0, page[:22])
	crc = crcUpdate(crc, zero[:])
	return crcUpdate(crc, page[26:])
}
