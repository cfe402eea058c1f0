package core

import "unsafe"

// ChannelID identifies a µDMA channel number (0-31).
type ChannelID uint8

// SoftwareChannel is the channel reserved for software-requested transfers.
const SoftwareChannel ChannelID = 30

// ChannelSelect addresses one of the two control structures of a channel.
// The low bits are the channel number, AltSelect picks the alternate one.
type ChannelSelect uint32

const (
	PrimarySelect   ChannelSelect = 0x00
	AlternateSelect ChannelSelect = 0x20
)

// Primary returns the selector for the channel's primary control structure.
func (ch ChannelID) Primary() ChannelSelect {
	return ChannelSelect(ch) | PrimarySelect
}

// Alternate returns the selector for the channel's alternate control structure.
func (ch ChannelID) Alternate() ChannelSelect {
	return ChannelSelect(ch) | AlternateSelect
}

// Channel returns the channel number encoded in the selector.
func (s ChannelSelect) Channel() ChannelID {
	return ChannelID(s & 0x1F)
}

// IsAlternate reports whether the selector targets the alternate structure.
func (s ChannelSelect) IsAlternate() bool {
	return s&AlternateSelect != 0
}

// Attr is a set of per-channel attribute bits.
type Attr uint32

const (
	AttrUseBurst     Attr = 0x01
	AttrAltSelect    Attr = 0x02
	AttrHighPriority Attr = 0x04
	AttrReqMask      Attr = 0x08
	AttrAll          Attr = AttrUseBurst | AttrAltSelect | AttrHighPriority | AttrReqMask
)

// DMADriver is the abstract µDMA controller interface that core code uses.
// The TM4C123 target implements it on the memory-mapped registers, the sim
// package implements it in RAM for host-side runs and tests.
type DMADriver interface {
	// Enable sets the controller master enable.
	Enable()

	// Disable clears the controller master enable.
	Disable()

	// SetControlBase hands the control table to the controller.
	// The table must be 1024-byte aligned.
	SetControlBase(t *ControlTable) error

	// EnableChannel enables a channel for transfers.
	// In auto mode the controller clears the enable when the transfer completes.
	EnableChannel(ch ChannelID)

	// DisableChannel disables a channel.
	DisableChannel(ch ChannelID)

	// IsChannelEnabled reports the channel enable bit.
	IsChannelEnabled(ch ChannelID) bool

	// EnableAttributes sets attribute bits on a channel.
	EnableAttributes(ch ChannelID, attr Attr)

	// DisableAttributes clears attribute bits on a channel.
	DisableAttributes(ch ChannelID, attr Attr)

	// SetControl writes element size, increments and arbitration size into
	// the selected control structure, leaving mode and transfer size alone.
	SetControl(sel ChannelSelect, ctl ControlWord)

	// SetTransfer writes end pointers, mode and transfer size into the
	// selected control structure. count is the number of items (1-1024).
	SetTransfer(sel ChannelSelect, mode Mode, src, dst unsafe.Pointer, count int)

	// Mode reads the transfer mode back from the selected control structure.
	// The controller writes ModeStop when a transfer completes.
	Mode(sel ChannelSelect) Mode

	// Request issues a software transfer request for the channel.
	Request(ch ChannelID)

	// ErrorStatus returns non-zero when a bus error has been latched.
	ErrorStatus() uint32

	// ClearErrorStatus clears the latched bus error.
	ClearErrorStatus()
}

// Global singleton used by core code.
var dmaDriver DMADriver

// SetDMADriver is called by target-specific code to register its driver.
func SetDMADriver(d DMADriver) {
	dmaDriver = d
}

// MustDMA returns the configured driver or panics if missing.
func MustDMA() DMADriver {
	if dmaDriver == nil {
		panic("DMA driver not configured")
	}
	return dmaDriver
}
