package protocol

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/snksoft/crc"
)

// frameCRC is the CRC-16/MCRF4XX the firmware computes with CRC16.
var frameCRC = &crc.Parameters{
	Width:      16,
	Polynomial: 0x1021,
	ReflectIn:  true,
	ReflectOut: true,
	Init:       0xFFFF,
	FinalXor:   0x0000,
}

var crcTable = crc.NewTable(frameCRC)

// MessageHandler receives the payload of every valid frame, message ID first.
type MessageHandler func(msgID uint32, data *[]byte) error

// Message represents a parsed frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}

// LinkStats counts what the host transport saw on the wire.
type LinkStats struct {
	Frames    uint32 // valid frames dispatched
	CRCErrors uint32 // frames rejected by CRC or sync byte
	Dropped   uint32 // frames missing according to the sequence numbers
	Resyncs   uint32 // times the parser lost framing
}

// HostTransport decodes the telemetry stream on the host side.
type HostTransport struct {
	port io.Reader

	inputBuffer *FifoBuffer
	handler     MessageHandler

	readMutex      sync.Mutex
	isSynchronized uint32 // atomic bool
	haveSequence   bool
	lastSequence   uint8

	frames    uint32
	crcErrors uint32
	dropped   uint32
	resyncs   uint32
}

// NewHostTransport creates a host-side transport reading from port.
// Call Run to start reading; Feed can be used directly without a port.
func NewHostTransport(port io.Reader, handler MessageHandler) *HostTransport {
	return &HostTransport{
		port:           port,
		inputBuffer:    NewFifoBuffer(1024),
		handler:        handler,
		isSynchronized: 1,
	}
}

// Run reads the port until ctx is cancelled or the port fails. A port that
// reports io.EOF ends Run with a nil error.
func (t *HostTransport) Run(ctx context.Context) error {
	if t.port == nil {
		return errors.New("host transport has no port")
	}
	buffer := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := t.port.Read(buffer)
		if n > 0 {
			t.Feed(buffer[:n])
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Feed appends raw bytes and dispatches every complete frame.
func (t *HostTransport) Feed(data []byte) {
	for len(data) > 0 {
		n := t.inputBuffer.Write(data)
		data = data[n:]
		t.processMessages()
		if n == 0 && t.inputBuffer.Free() == 0 {
			// Garbage filled the buffer without a frame; start over.
			t.inputBuffer.Reset()
			t.setSynchronized(false)
		}
	}
}

// processMessages parses and dispatches messages from the input buffer
func (t *HostTransport) processMessages() {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()

	data := t.inputBuffer.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				data = data[syncPos+1:]
				t.setSynchronized(true)
			} else {
				data = nil
			}
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			t.lostSync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			t.lostSync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			atomic.AddUint32(&t.crcErrors, 1)
			t.lostSync()
			continue
		}

		wireCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if wireCRC != uint16(crcTable.CalculateCRC(data[:msgLen-MessageTrailerSize])) {
			atomic.AddUint32(&t.crcErrors, 1)
			t.lostSync()
			continue
		}

		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])

		msg := &Message{
			Length:   data[MessagePositionLen],
			Sequence: seq,
			Payload:  payload,
			CRC:      wireCRC,
		}
		data = data[msgLen:]

		t.trackSequence(seq)
		t.dispatchMessage(msg)
	}

	consumed := t.inputBuffer.Available() - len(data)
	if consumed > 0 {
		t.inputBuffer.Pop(consumed)
	}
}

func (t *HostTransport) trackSequence(seq uint8) {
	if t.haveSequence {
		gap := (seq - t.lastSequence - 1) & MessageSeqMask
		atomic.AddUint32(&t.dropped, uint32(gap))
	}
	t.lastSequence = seq
	t.haveSequence = true
}

// dispatchMessage hands the payload to the handler, message ID decoded
func (t *HostTransport) dispatchMessage(msg *Message) {
	atomic.AddUint32(&t.frames, 1)
	if t.handler == nil || len(msg.Payload) == 0 {
		return
	}
	payload := msg.Payload
	msgID, err := DecodeVLQUint(&payload)
	if err != nil {
		return
	}
	_ = t.handler(msgID, &payload)
}

// Stats returns the link counters.
func (t *HostTransport) Stats() LinkStats {
	return LinkStats{
		Frames:    atomic.LoadUint32(&t.frames),
		CRCErrors: atomic.LoadUint32(&t.crcErrors),
		Dropped:   atomic.LoadUint32(&t.dropped),
		Resyncs:   atomic.LoadUint32(&t.resyncs),
	}
}

// Reset forgets buffered bytes and sequence history, e.g. after reconnecting.
func (t *HostTransport) Reset() {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()
	t.inputBuffer.Reset()
	t.haveSequence = false
	t.setSynchronized(true)
}

// SetPort replaces the reader used by Run.
func (t *HostTransport) SetPort(port io.Reader) {
	t.port = port
}

func (t *HostTransport) lostSync() {
	atomic.AddUint32(&t.resyncs, 1)
	t.setSynchronized(false)
}

// Helper methods for atomic operations
func (t *HostTransport) getSynchronized() bool {
	return atomic.LoadUint32(&t.isSynchronized) != 0
}

func (t *HostTransport) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&t.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&t.isSynchronized, 0)
	}
}
