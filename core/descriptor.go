package core

import "errors"

// ControlWord is the DMACHCTL word of a channel control structure.
//
//	31:30 DSTINC  29:28 DSTSIZE  27:26 SRCINC  25:24 SRCSIZE
//	17:14 ARBSIZE 13:4 XFERSIZE  3 NXTUSEBURST 2:0 XFERMODE
type ControlWord uint32

// Element size (source and destination together).
const (
	Size8  ControlWord = 0x00000000
	Size16 ControlWord = 0x11000000
	Size32 ControlWord = 0x22000000
)

// Source address increment.
const (
	SrcInc8    ControlWord = 0x00000000
	SrcInc16   ControlWord = 0x04000000
	SrcInc32   ControlWord = 0x08000000
	SrcIncNone ControlWord = 0x0C000000
)

// Destination address increment.
const (
	DstInc8    ControlWord = 0x00000000
	DstInc16   ControlWord = 0x40000000
	DstInc32   ControlWord = 0x80000000
	DstIncNone ControlWord = 0xC0000000
)

// Arbitration size: items moved before the controller re-arbitrates.
const (
	Arb1    ControlWord = 0 << 14
	Arb2    ControlWord = 1 << 14
	Arb4    ControlWord = 2 << 14
	Arb8    ControlWord = 3 << 14
	Arb16   ControlWord = 4 << 14
	Arb32   ControlWord = 5 << 14
	Arb64   ControlWord = 6 << 14
	Arb128  ControlWord = 7 << 14
	Arb256  ControlWord = 8 << 14
	Arb512  ControlWord = 9 << 14
	Arb1024 ControlWord = 10 << 14
)

const (
	NextUseBurst ControlWord = 0x00000008

	ctlDstIncMask   ControlWord = 0xC0000000
	ctlDstIncShift              = 30
	ctlSrcIncMask   ControlWord = 0x0C000000
	ctlSrcIncShift              = 26
	ctlSrcSizeMask  ControlWord = 0x03000000
	ctlSrcSizeShift             = 24
	ctlArbMask      ControlWord = 0x0003C000
	ctlArbShift                 = 14
	ctlXferSizeMask ControlWord = 0x00003FF0
	ctlXferShift                = 4
	ctlModeMask     ControlWord = 0x00000007

	// ControlMask covers the fields written by SetControl.
	ControlMask ControlWord = 0xFF03C000
)

// Mode is the XFERMODE field of a control word.
type Mode uint32

const (
	ModeStop             Mode = 0
	ModeBasic            Mode = 1
	ModeAuto             Mode = 2
	ModePingPong         Mode = 3
	ModeMemScatterGather Mode = 4
	ModePerScatterGather Mode = 6
)

func (m Mode) String() string {
	switch m {
	case ModeStop:
		return "stop"
	case ModeBasic:
		return "basic"
	case ModeAuto:
		return "auto"
	case ModePingPong:
		return "ping-pong"
	case ModeMemScatterGather:
		return "mem-scatter-gather"
	case ModePerScatterGather:
		return "per-scatter-gather"
	default:
		return "mode(" + utoa(uint32(m)) + ")"
	}
}

// MaxTransferCount is the largest item count a single control structure
// can describe (XFERSIZE is 10 bits, count-1).
const MaxTransferCount = 1024

var ErrTransferCount = errors.New("transfer count out of range")

// Mode returns the XFERMODE field.
func (c ControlWord) Mode() Mode {
	return Mode(c & ctlModeMask)
}

// Count returns the number of items described by XFERSIZE.
func (c ControlWord) Count() int {
	return int((c&ctlXferSizeMask)>>ctlXferShift) + 1
}

// ElementBytes returns the width of one item in bytes.
func (c ControlWord) ElementBytes() uintptr {
	return 1 << ((c & ctlSrcSizeMask) >> ctlSrcSizeShift)
}

// SrcIncrement returns the source address step in bytes, 0 for no increment.
func (c ControlWord) SrcIncrement() uintptr {
	return incrementBytes(uint32((c & ctlSrcIncMask) >> ctlSrcIncShift))
}

// DstIncrement returns the destination address step in bytes, 0 for no increment.
func (c ControlWord) DstIncrement() uintptr {
	return incrementBytes(uint32((c & ctlDstIncMask) >> ctlDstIncShift))
}

// ArbitrationSize returns the number of items between re-arbitration.
func (c ControlWord) ArbitrationSize() int {
	return 1 << ((c & ctlArbMask) >> ctlArbShift)
}

// WithTransfer replaces mode and transfer size, clearing NXTUSEBURST,
// the way the controller expects a fresh transfer to be described.
func (c ControlWord) WithTransfer(mode Mode, count int) ControlWord {
	c &^= ctlXferSizeMask | ctlModeMask | NextUseBurst
	return c | ControlWord(count-1)<<ctlXferShift | ControlWord(mode)
}

// WithMode replaces only the mode field.
func (c ControlWord) WithMode(mode Mode) ControlWord {
	return c&^ctlModeMask | ControlWord(mode)
}

func incrementBytes(field uint32) uintptr {
	if field == 3 {
		return 0
	}
	return 1 << field
}

// TransferDescriptor is the full shape of the repeating transfer submitted
// to the channel.
type TransferDescriptor struct {
	Control ControlWord // Size | SrcInc | DstInc | Arb
	Mode    Mode
	Count   int
}

// WaveformDescriptor returns the descriptor used by the engine: 32-bit items,
// both sides incrementing, arbitration every 8 items, auto mode.
func WaveformDescriptor(count int) TransferDescriptor {
	return TransferDescriptor{
		Control: Size32 | SrcInc32 | DstInc32 | Arb8,
		Mode:    ModeAuto,
		Count:   count,
	}
}

// Validate checks the item count against the control word limits.
func (d TransferDescriptor) Validate() error {
	if d.Count < 1 || d.Count > MaxTransferCount {
		return ErrTransferCount
	}
	return nil
}

// Word returns the complete control word for the descriptor.
func (d TransferDescriptor) Word() ControlWord {
	return (d.Control & ControlMask).WithTransfer(d.Mode, d.Count)
}
