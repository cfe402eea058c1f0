package core

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

const (
	// ControlTableSize covers 32 primary and 32 alternate structures.
	ControlTableSize = 1024
	// ControlTableAlign is the base address alignment the controller requires.
	ControlTableAlign = 1024

	controlEntrySize   = 16
	alternateTableBase = 0x200
)

var ErrControlTableAlign = errors.New("control table not 1024-byte aligned")

// ControlTable is the memory the controller reads channel control
// structures from. It must sit on a 1024-byte boundary; use NewControlTable.
type ControlTable [ControlTableSize]byte

// ControlEntry is one channel control structure.
type ControlEntry struct {
	SrcEnd  uint32
	DstEnd  uint32
	Control ControlWord
}

// Base returns the table's address as the controller sees it.
func (t *ControlTable) Base() uintptr {
	return uintptr(unsafe.Pointer(t))
}

// Aligned reports whether the table sits on a 1024-byte boundary.
func (t *ControlTable) Aligned() bool {
	return t.Base()%ControlTableAlign == 0
}

func entryOffset(sel ChannelSelect) int {
	off := int(sel.Channel()) * controlEntrySize
	if sel.IsAlternate() {
		off += alternateTableBase
	}
	return off
}

// Entry decodes the control structure addressed by sel.
func (t *ControlTable) Entry(sel ChannelSelect) ControlEntry {
	b := t[entryOffset(sel):]
	return ControlEntry{
		SrcEnd:  binary.LittleEndian.Uint32(b[0:]),
		DstEnd:  binary.LittleEndian.Uint32(b[4:]),
		Control: ControlWord(binary.LittleEndian.Uint32(b[8:])),
	}
}

// SetEntry encodes e into the control structure addressed by sel.
func (t *ControlTable) SetEntry(sel ChannelSelect, e ControlEntry) {
	b := t[entryOffset(sel):]
	binary.LittleEndian.PutUint32(b[0:], e.SrcEnd)
	binary.LittleEndian.PutUint32(b[4:], e.DstEnd)
	binary.LittleEndian.PutUint32(b[8:], uint32(e.Control))
}

// ControlWord returns only the control word of the addressed structure.
func (t *ControlTable) ControlWord(sel ChannelSelect) ControlWord {
	off := entryOffset(sel) + 8
	return ControlWord(binary.LittleEndian.Uint32(t[off:]))
}

// SetControlWord replaces only the control word of the addressed structure.
func (t *ControlTable) SetControlWord(sel ChannelSelect, c ControlWord) {
	off := entryOffset(sel) + 8
	binary.LittleEndian.PutUint32(t[off:], uint32(c))
}

// ControlWordPtr returns the address of the addressed control word, for
// drivers that must read it with a volatile load while the controller owns it.
func (t *ControlTable) ControlWordPtr(sel ChannelSelect) *uint32 {
	return (*uint32)(unsafe.Pointer(&t[entryOffset(sel)+8]))
}

// NewControlTable allocates a control table on a 1024-byte boundary.
// The backing array is over-allocated by one alignment step and the table
// is carved out of it, so no linker section is needed.
func NewControlTable() *ControlTable {
	backing := make([]byte, ControlTableSize+ControlTableAlign)
	base := uintptr(unsafe.Pointer(&backing[0]))
	off := (ControlTableAlign - base%ControlTableAlign) % ControlTableAlign
	return (*ControlTable)(unsafe.Pointer(&backing[off]))
}
