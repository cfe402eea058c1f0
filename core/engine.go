package core

import (
	"errors"
	"unsafe"
)

// ChannelState is the channel state as observed through the driver.
type ChannelState uint8

const (
	ChannelIdle    ChannelState = iota // never armed
	ChannelArmed                       // descriptor loaded, channel not enabled
	ChannelRunning                     // enabled and requested
	ChannelStopped                     // controller finished and disabled the channel
)

func (s ChannelState) String() string {
	switch s {
	case ChannelIdle:
		return "idle"
	case ChannelArmed:
		return "armed"
	case ChannelRunning:
		return "running"
	case ChannelStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var ErrChannelBusy = errors.New("channel already running")

// Engine keeps one channel moving src into dst forever: every completion
// interrupt re-submits the same auto-mode transfer.
type Engine struct {
	drv      DMADriver
	ch       ChannelID
	src      SampleBuffer
	dst      SampleBuffer
	desc     TransferDescriptor
	counters *Counters
	armed    bool
}

// NewEngine binds the engine to a driver, channel and buffer pair.
// The buffers must have the same length, within MaxTransferCount.
func NewEngine(drv DMADriver, ch ChannelID, src, dst SampleBuffer, counters *Counters) (*Engine, error) {
	if len(src) != len(dst) {
		return nil, ErrBufferMismatch
	}
	desc := WaveformDescriptor(len(src))
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if counters == nil {
		counters = &Diagnostics
	}
	return &Engine{
		drv:      drv,
		ch:       ch,
		src:      src,
		dst:      dst,
		desc:     desc,
		counters: counters,
	}, nil
}

// Channel returns the channel the engine drives.
func (e *Engine) Channel() ChannelID {
	return e.ch
}

// Descriptor returns the transfer the engine submits on every arm.
func (e *Engine) Descriptor() TransferDescriptor {
	return e.desc
}

// Counters returns the counter set the handlers update.
func (e *Engine) Counters() *Counters {
	return e.counters
}

// Init fills the source with one sine cycle, configures the channel and
// starts the first transfer. The control table must already be registered.
func (e *Engine) Init() error {
	if err := FillSine(e.src); err != nil {
		return err
	}
	e.Configure()
	return e.Arm()
}

// Configure forces the channel attributes to a known baseline and writes the
// element size, increments and arbitration size into the primary structure.
func (e *Engine) Configure() {
	e.drv.DisableAttributes(e.ch, AttrUseBurst|AttrAltSelect|AttrHighPriority|AttrReqMask)
	e.drv.SetControl(e.ch.Primary(), e.desc.Control)
	RecordEvent(EvtConfigure, e.ch, uint32(e.desc.Control), 0)
}

// Arm loads the transfer, enables the channel and issues the software request.
// It refuses to touch a channel that is still enabled.
func (e *Engine) Arm() error {
	if e.drv.IsChannelEnabled(e.ch) {
		return ErrChannelBusy
	}
	e.submit()
	e.armed = true
	RecordEvent(EvtArm, e.ch, uint32(e.desc.Count), 0)
	return nil
}

func (e *Engine) submit() {
	e.drv.SetTransfer(e.ch.Primary(), e.desc.Mode,
		unsafe.Pointer(&e.src[0]), unsafe.Pointer(&e.dst[0]), e.desc.Count)
	e.drv.EnableChannel(e.ch)
	e.drv.Request(e.ch)
}

// HandleError services the µDMA error interrupt. A latched bus error is
// cleared and counted; the channel is not touched.
func (e *Engine) HandleError() {
	status := e.drv.ErrorStatus()
	if status == 0 {
		return
	}
	e.drv.ClearErrorStatus()
	e.counters.incDMAErrors()
	RecordEvent(EvtDMAError, e.ch, status, 0)
}

// HandleComplete services the channel completion interrupt. In auto mode the
// controller writes ModeStop and clears the enable when the block is done;
// that is the only state in which the transfer is re-armed. Any other mode
// is counted as a bad interrupt and the channel is left as it is.
func (e *Engine) HandleComplete() {
	mode := e.drv.Mode(e.ch.Primary())
	if mode != ModeStop {
		e.counters.incBadInterrupts()
		RecordEvent(EvtBadInterrupt, e.ch, uint32(mode), 0)
		return
	}
	e.counters.incTransfers()
	e.submit()
	RecordEvent(EvtComplete, e.ch, e.counters.Transfers(), 0)
}

// State derives the channel state from the driver.
func (e *Engine) State() ChannelState {
	if !e.armed {
		return ChannelIdle
	}
	if e.drv.IsChannelEnabled(e.ch) {
		return ChannelRunning
	}
	if e.drv.Mode(e.ch.Primary()) == ModeStop {
		return ChannelStopped
	}
	return ChannelArmed
}
