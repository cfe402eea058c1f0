// Package protocol implements the framed telemetry link between the
// firmware and host tools: VLQ-encoded fields inside length/sequence/CRC16
// framed blocks terminated by a sync byte.
package protocol

// Version represents the wavedma firmware version
const Version = "0.1.0"

// Protocol constants
const (
	MessageMax = 512 // Scratch output capacity, several frames per flush

	// Message sequence masks
	MessageSeqMask = 0x0F
)

// Telemetry message IDs, the first VLQ of every frame payload.
const (
	MsgTransferStats = 1 // transfers, dma_errors, bad_interrupts, wakeups
	MsgEvent         = 2 // type, channel, seq, v1, v2
	MsgIdentify      = 3 // version string, channel, buffer size
)
