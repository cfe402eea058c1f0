package protocol

import (
	"testing"

	"github.com/snksoft/crc"
)

func TestCRC16CheckValue(t *testing.T) {
	// Standard check input for CRC-16/MCRF4XX
	if got := CRC16([]byte("123456789")); got != 0x6F91 {
		t.Errorf("CRC16(\"123456789\") = 0x%04X, want 0x6F91", got)
	}
	if got := CRC16(nil); got != 0xFFFF {
		t.Errorf("CRC16(empty) = 0x%04X, want 0xFFFF", got)
	}
}

func TestCRC16MatchesTable(t *testing.T) {
	testCases := [][]byte{
		{},
		{0x00},
		{0xFF},
		{5, MessageDest},
		{0x0B, 0x13, 0x01, 0x81, 0x00, 0x00, 0x00, 0x05},
		[]byte("wavedma telemetry"),
	}

	for i, data := range testCases {
		want := uint16(crc.CalculateCRC(frameCRC, data))
		if got := CRC16(data); got != want {
			t.Errorf("Test case %d: CRC16(%v) = 0x%04X, table CRC = 0x%04X", i, data, got, want)
		}
		if got := uint16(crcTable.CalculateCRC(data)); got != want {
			t.Errorf("Test case %d: table CRC 0x%04X differs from direct 0x%04X", i, got, want)
		}
	}
}

func TestCRC16Different(t *testing.T) {
	crc1 := CRC16([]byte{0x01, 0x02, 0x03})
	crc2 := CRC16([]byte{0x01, 0x02, 0x04})

	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}
