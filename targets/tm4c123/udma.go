//go:build tinygo && tm4c123

package main

import (
	"runtime/volatile"
	"unsafe"

	"wavedma/core"
)

// µDMA register block at 0x400FF000
type udmaRegs struct {
	STAT        volatile.Register32
	CFG         volatile.Register32
	CTLBASE     volatile.Register32
	ALTBASE     volatile.Register32
	WAITSTAT    volatile.Register32
	SWREQ       volatile.Register32
	USEBURSTSET volatile.Register32
	USEBURSTCLR volatile.Register32
	REQMASKSET  volatile.Register32
	REQMASKCLR  volatile.Register32
	ENASET      volatile.Register32
	ENACLR      volatile.Register32
	ALTSET      volatile.Register32
	ALTCLR      volatile.Register32
	PRIOSET     volatile.Register32
	PRIOCLR     volatile.Register32
	_           [3]uint32
	ERRCLR      volatile.Register32
	_           [300]uint32
	CHASGN      volatile.Register32
	CHIS        volatile.Register32
}

const udmaBase = 0x400FF000

const udmaCfgMasterEnable = 1 << 0

var udma = (*udmaRegs)(unsafe.Pointer(uintptr(udmaBase)))

// udmaDriver implements core.DMADriver on the TM4C123 µDMA controller.
// Pointers are 32 bits on this part, so end pointers go straight into the
// control table.
type udmaDriver struct {
	table *core.ControlTable
}

// NewUDMADriver creates the driver. SetControlBase must be called before
// any channel is configured.
func NewUDMADriver() *udmaDriver {
	return &udmaDriver{}
}

func (d *udmaDriver) Enable()  { udma.CFG.Set(udmaCfgMasterEnable) }
func (d *udmaDriver) Disable() { udma.CFG.Set(0) }

func (d *udmaDriver) SetControlBase(t *core.ControlTable) error {
	if !t.Aligned() {
		return core.ErrControlTableAlign
	}
	d.table = t
	udma.CTLBASE.Set(uint32(t.Base()))
	return nil
}

func (d *udmaDriver) EnableChannel(ch core.ChannelID)  { udma.ENASET.Set(1 << ch) }
func (d *udmaDriver) DisableChannel(ch core.ChannelID) { udma.ENACLR.Set(1 << ch) }

func (d *udmaDriver) IsChannelEnabled(ch core.ChannelID) bool {
	return udma.ENASET.Get()&(1<<ch) != 0
}

func (d *udmaDriver) EnableAttributes(ch core.ChannelID, attr core.Attr) {
	bit := uint32(1) << ch
	if attr&core.AttrUseBurst != 0 {
		udma.USEBURSTSET.Set(bit)
	}
	if attr&core.AttrAltSelect != 0 {
		udma.ALTSET.Set(bit)
	}
	if attr&core.AttrHighPriority != 0 {
		udma.PRIOSET.Set(bit)
	}
	if attr&core.AttrReqMask != 0 {
		udma.REQMASKSET.Set(bit)
	}
}

func (d *udmaDriver) DisableAttributes(ch core.ChannelID, attr core.Attr) {
	bit := uint32(1) << ch
	if attr&core.AttrUseBurst != 0 {
		udma.USEBURSTCLR.Set(bit)
	}
	if attr&core.AttrAltSelect != 0 {
		udma.ALTCLR.Set(bit)
	}
	if attr&core.AttrHighPriority != 0 {
		udma.PRIOCLR.Set(bit)
	}
	if attr&core.AttrReqMask != 0 {
		udma.REQMASKCLR.Set(bit)
	}
}

func (d *udmaDriver) controlWord(sel core.ChannelSelect) core.ControlWord {
	return core.ControlWord(volatile.LoadUint32(d.table.ControlWordPtr(sel)))
}

func (d *udmaDriver) SetControl(sel core.ChannelSelect, ctl core.ControlWord) {
	word := d.controlWord(sel)&^core.ControlMask | ctl&core.ControlMask
	volatile.StoreUint32(d.table.ControlWordPtr(sel), uint32(word))
}

func (d *udmaDriver) SetTransfer(sel core.ChannelSelect, mode core.Mode, src, dst unsafe.Pointer, count int) {
	word := d.controlWord(sel).WithTransfer(mode, count)
	srcEnd := uintptr(src) + uintptr(count-1)*word.SrcIncrement()
	dstEnd := uintptr(dst) + uintptr(count-1)*word.DstIncrement()
	d.table.SetEntry(sel, core.ControlEntry{
		SrcEnd:  uint32(srcEnd),
		DstEnd:  uint32(dstEnd),
		Control: word,
	})
}

func (d *udmaDriver) Mode(sel core.ChannelSelect) core.Mode {
	return d.controlWord(sel).Mode()
}

func (d *udmaDriver) Request(ch core.ChannelID) { udma.SWREQ.Set(1 << ch) }

func (d *udmaDriver) ErrorStatus() uint32 { return udma.ERRCLR.Get() }
func (d *udmaDriver) ClearErrorStatus()   { udma.ERRCLR.Set(1) }
