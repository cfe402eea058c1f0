package protocol

// CRC16 computes the frame checksum (CRC-16/MCRF4XX: reflected 0x1021,
// init 0xFFFF, no final xor) without a lookup table, to keep it small on
// the MCU. Host code validates with an equivalent table-driven CRC.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
