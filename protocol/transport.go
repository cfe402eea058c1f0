package protocol

import "sync/atomic"

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
)

// Transport frames outgoing telemetry blocks on the firmware side.
// The link is one-way: there are no ACKs, each frame carries the next
// sequence number so the host can count dropped frames.
type Transport struct {
	nextSequence  uint32 // atomic, low 4 bits used
	output        OutputBuffer
	flushCallback func() // Called after each frame to push bytes out
}

// NewTransport creates a new Transport writing into output
func NewTransport(output OutputBuffer) *Transport {
	return &Transport{output: output}
}

// EncodeFrame encodes one block: length, sequence, payload, CRC16, sync.
// The payload must fit in MessageLengthMax; oversize frames are dropped and
// EncodeFrame returns false.
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) bool {
	cursor := t.output.CurPosition()

	seq := uint8(atomic.LoadUint32(&t.nextSequence))&MessageSeqMask | MessageDest
	t.output.Output([]byte{0, seq})

	frameData(t.output)

	// Update length field
	changed := len(t.output.DataSince(cursor))
	if changed+MessageTrailerSize > MessageLengthMax {
		t.output.Truncate(cursor)
		return false
	}
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})

	atomic.AddUint32(&t.nextSequence, 1)

	if t.flushCallback != nil {
		t.flushCallback()
	}
	return true
}

// SendMessage encodes a frame holding one message ID followed by its fields.
func (t *Transport) SendMessage(msgID uint32, args func(output OutputBuffer)) bool {
	return t.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, msgID)
		if args != nil {
			args(output)
		}
	})
}

// Sequence returns the sequence number the next frame will carry.
func (t *Transport) Sequence() uint8 {
	return uint8(atomic.LoadUint32(&t.nextSequence))&MessageSeqMask | MessageDest
}

// Reset restarts the sequence numbering
func (t *Transport) Reset() {
	atomic.StoreUint32(&t.nextSequence, 0)
}

// SetFlushCallback sets a callback invoked after every encoded frame
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}
