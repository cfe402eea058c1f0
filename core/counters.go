package core

import "sync/atomic"

// Counters accumulates completion and fault events from the DMA interrupt
// handlers. Fields only ever increase; they are never reset.
type Counters struct {
	transfers     uint32
	dmaErrors     uint32
	badInterrupts uint32
}

// Stats is a point-in-time copy of Counters.
type Stats struct {
	Transfers     uint32
	DMAErrors     uint32
	BadInterrupts uint32
}

// Diagnostics is the process-wide counter set, kept at a fixed symbol so a
// debugger can watch it.
var Diagnostics Counters

func (c *Counters) incTransfers() {
	atomic.AddUint32(&c.transfers, 1)
}

func (c *Counters) incDMAErrors() {
	atomic.AddUint32(&c.dmaErrors, 1)
}

func (c *Counters) incBadInterrupts() {
	atomic.AddUint32(&c.badInterrupts, 1)
}

// Transfers returns the number of completed transfers.
func (c *Counters) Transfers() uint32 {
	return atomic.LoadUint32(&c.transfers)
}

// DMAErrors returns the number of bus errors reported by the controller.
func (c *Counters) DMAErrors() uint32 {
	return atomic.LoadUint32(&c.dmaErrors)
}

// BadInterrupts returns the number of completion interrupts taken while the
// channel was not stopped.
func (c *Counters) BadInterrupts() uint32 {
	return atomic.LoadUint32(&c.badInterrupts)
}

// Stats returns all three counters read with interrupts masked, so the
// snapshot never straddles a handler.
func (c *Counters) Stats() Stats {
	state := disableInterrupts()
	s := Stats{
		Transfers:     atomic.LoadUint32(&c.transfers),
		DMAErrors:     atomic.LoadUint32(&c.dmaErrors),
		BadInterrupts: atomic.LoadUint32(&c.badInterrupts),
	}
	restoreInterrupts(state)
	return s
}
