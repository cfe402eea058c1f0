// Package sim models the µDMA controller in RAM so the transfer engine can
// run on the host. Control structures live in a real core.ControlTable;
// end pointers are shadowed because host addresses do not fit in 32 bits.
//
// A Controller is not safe for concurrent use. Like the hardware it models,
// interrupt callbacks run one at a time, from Step.
package sim

import (
	"errors"
	"unsafe"

	"wavedma/core"
)

const numChannels = 32

var (
	ErrControlTableSet = errors.New("control table already set")
	ErrNoControlTable  = errors.New("control table not set")
)

type endPointers struct {
	src unsafe.Pointer
	dst unsafe.Pointer
}

// Controller is a simulated µDMA controller.
type Controller struct {
	masterEnabled bool
	table         *core.ControlTable
	shadow        [2 * numChannels]endPointers

	enabled  uint32 // per-channel enable bits
	requests uint32 // pending software requests
	attrs    [numChannels]core.Attr

	errStatus uint32
	failNext  uint32 // channels whose next transfer raises a bus error

	irqEnabled [2]bool
	onComplete func(ch core.ChannelID)
	onError    func()

	// Activity counters for tests and tools.
	ItemsMoved   uint64
	Completions  uint64
	BusErrors    uint64
	Interrupts   uint64
	IgnoredIRQs  uint64
	RequestsSeen uint64
}

// NewController returns a controller with everything disabled.
func NewController() *Controller {
	return &Controller{}
}

var _ core.DMADriver = (*Controller)(nil)

// Attach installs the interrupt service routines. onComplete is called for
// the channel completion vector, onError for the error vector.
func (c *Controller) Attach(onComplete func(ch core.ChannelID), onError func()) {
	c.onComplete = onComplete
	c.onError = onError
}

// EnableIRQ unmasks one of the two interrupt sources.
func (c *Controller) EnableIRQ(irq core.IRQ) {
	if int(irq) < len(c.irqEnabled) {
		c.irqEnabled[irq] = true
	}
}

func (c *Controller) Enable()  { c.masterEnabled = true }
func (c *Controller) Disable() { c.masterEnabled = false }

// SetControlBase registers the table. It may only be called once.
func (c *Controller) SetControlBase(t *core.ControlTable) error {
	if c.table != nil {
		return ErrControlTableSet
	}
	if !t.Aligned() {
		return core.ErrControlTableAlign
	}
	c.table = t
	return nil
}

// ControlTable returns the registered table.
func (c *Controller) ControlTable() *core.ControlTable {
	return c.table
}

func (c *Controller) EnableChannel(ch core.ChannelID)  { c.enabled |= 1 << ch }
func (c *Controller) DisableChannel(ch core.ChannelID) { c.enabled &^= 1 << ch }

func (c *Controller) IsChannelEnabled(ch core.ChannelID) bool {
	return c.enabled&(1<<ch) != 0
}

func (c *Controller) EnableAttributes(ch core.ChannelID, attr core.Attr) {
	c.attrs[ch] |= attr & core.AttrAll
}

func (c *Controller) DisableAttributes(ch core.ChannelID, attr core.Attr) {
	c.attrs[ch] &^= attr
}

// Attributes returns the attribute bits set on a channel.
func (c *Controller) Attributes(ch core.ChannelID) core.Attr {
	return c.attrs[ch]
}

func (c *Controller) mustTable() *core.ControlTable {
	if c.table == nil {
		panic(ErrNoControlTable)
	}
	return c.table
}

func (c *Controller) SetControl(sel core.ChannelSelect, ctl core.ControlWord) {
	t := c.mustTable()
	word := t.ControlWord(sel)
	word = word&^core.ControlMask | ctl&core.ControlMask
	t.SetControlWord(sel, word)
}

func shadowIndex(sel core.ChannelSelect) int {
	idx := int(sel.Channel())
	if sel.IsAlternate() {
		idx += numChannels
	}
	return idx
}

// SetTransfer stores end pointers the way the hardware expects them: the
// address of the last item, or the start address when not incrementing.
func (c *Controller) SetTransfer(sel core.ChannelSelect, mode core.Mode, src, dst unsafe.Pointer, count int) {
	t := c.mustTable()
	word := t.ControlWord(sel).WithTransfer(mode, count)

	srcEnd := unsafe.Add(src, uintptr(count-1)*word.SrcIncrement())
	dstEnd := unsafe.Add(dst, uintptr(count-1)*word.DstIncrement())
	c.shadow[shadowIndex(sel)] = endPointers{src: srcEnd, dst: dstEnd}

	t.SetEntry(sel, core.ControlEntry{
		SrcEnd:  uint32(uintptr(srcEnd)),
		DstEnd:  uint32(uintptr(dstEnd)),
		Control: word,
	})
}

func (c *Controller) Mode(sel core.ChannelSelect) core.Mode {
	return c.mustTable().ControlWord(sel).Mode()
}

// Request latches a software request; the transfer runs on the next Step.
func (c *Controller) Request(ch core.ChannelID) {
	c.requests |= 1 << ch
	c.RequestsSeen++
}

// Pending reports whether a request is latched for the channel.
func (c *Controller) Pending(ch core.ChannelID) bool {
	return c.requests&(1<<ch) != 0
}

func (c *Controller) ErrorStatus() uint32 { return c.errStatus }
func (c *Controller) ClearErrorStatus()   { c.errStatus = 0 }

// FailNext makes the next transfer on ch abort with a bus error.
func (c *Controller) FailNext(ch core.ChannelID) {
	c.failNext |= 1 << ch
}

// LatchError sets the error flag and raises the error interrupt without
// touching any channel, as a stray bus fault would.
func (c *Controller) LatchError() {
	c.errStatus = 1
	c.BusErrors++
	c.raiseError()
}

// RaiseComplete fires the completion vector for ch regardless of channel
// state, modelling a stale or spurious interrupt.
func (c *Controller) RaiseComplete(ch core.ChannelID) {
	c.raiseComplete(ch)
}

// Step services every latched request once and returns the number of
// channels that made progress.
func (c *Controller) Step() int {
	if !c.masterEnabled || c.table == nil {
		return 0
	}
	serviced := 0
	for ch := core.ChannelID(0); ch < numChannels; ch++ {
		bit := uint32(1) << ch
		if c.requests&bit == 0 || c.enabled&bit == 0 {
			continue
		}
		c.requests &^= bit
		serviced++
		c.service(ch)
	}
	return serviced
}

// Run steps until no request is pending or limit steps have run.
func (c *Controller) Run(limit int) int {
	steps := 0
	for steps < limit && c.Step() > 0 {
		steps++
	}
	return steps
}

func (c *Controller) service(ch core.ChannelID) {
	bit := uint32(1) << ch
	sel := ch.Primary()
	if c.attrs[ch]&core.AttrAltSelect != 0 {
		sel = ch.Alternate()
	}

	if c.failNext&bit != 0 {
		c.failNext &^= bit
		c.enabled &^= bit
		c.errStatus = 1
		c.BusErrors++
		c.raiseError()
		return
	}

	t := c.table
	word := t.ControlWord(sel)
	mode := word.Mode()
	if mode != core.ModeAuto && mode != core.ModeBasic {
		// Stopped or unsupported structure: the controller ignores the request.
		return
	}

	count := word.Count()
	n := count
	if mode == core.ModeBasic && word.ArbitrationSize() < n {
		n = word.ArbitrationSize()
	}

	ends := c.shadow[shadowIndex(sel)]
	sinc, dinc := word.SrcIncrement(), word.DstIncrement()
	src := unsafe.Add(ends.src, -int(uintptr(count-1)*sinc))
	dst := unsafe.Add(ends.dst, -int(uintptr(count-1)*dinc))
	size := word.ElementBytes()
	for i := 0; i < n; i++ {
		copyItem(unsafe.Add(dst, uintptr(i)*dinc), unsafe.Add(src, uintptr(i)*sinc), size)
	}
	c.ItemsMoved += uint64(n)

	if remaining := count - n; remaining > 0 {
		// Basic mode: the end pointers stay put, the next request moves the
		// rest of the block.
		t.SetControlWord(sel, word.WithTransfer(mode, remaining))
		return
	}

	t.SetControlWord(sel, word.WithTransfer(core.ModeStop, 1))
	c.enabled &^= bit
	c.Completions++
	c.raiseComplete(ch)
}

func copyItem(dst, src unsafe.Pointer, size uintptr) {
	switch size {
	case 1:
		*(*uint8)(dst) = *(*uint8)(src)
	case 2:
		*(*uint16)(dst) = *(*uint16)(src)
	default:
		*(*uint32)(dst) = *(*uint32)(src)
	}
}

func (c *Controller) raiseComplete(ch core.ChannelID) {
	if !c.irqEnabled[core.IRQSoftware] || c.onComplete == nil {
		c.IgnoredIRQs++
		return
	}
	c.Interrupts++
	c.onComplete(ch)
}

func (c *Controller) raiseError() {
	if !c.irqEnabled[core.IRQError] || c.onError == nil {
		c.IgnoredIRQs++
		return
	}
	c.Interrupts++
	c.onError()
}
