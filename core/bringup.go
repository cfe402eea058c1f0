package core

// IRQ identifies one of the two µDMA interrupt sources.
type IRQ uint8

const (
	IRQSoftware IRQ = iota // software channel completion
	IRQError               // bus error
)

// Platform is the one-time board setup the engine depends on.
type Platform interface {
	// SetClock configures the system clock tree.
	SetClock()

	// EnablePeripheral powers and clocks the µDMA module.
	EnablePeripheral()

	// EnableClockGating turns on peripheral clock gating.
	EnableClockGating()

	// EnableSleepMode lets the µDMA module keep its clock in sleep.
	EnableSleepMode()

	// EnableInterrupt unmasks the given source in the interrupt controller.
	EnableInterrupt(irq IRQ)

	// WaitForInterrupt suspends the core until the next interrupt.
	WaitForInterrupt()
}

// Bring-up steps, recorded as EvtBringup values.
const (
	StepClock = iota + 1
	StepPeripheral
	StepClockGating
	StepSleep
	StepErrorIRQ
	StepControllerEnable
	StepControlBase
	StepSoftwareIRQ
	StepEngineStarted
)

// Bringup runs the one-time start sequence and leaves the first transfer
// running. The caller then parks in Idle.
func Bringup(p Platform, drv DMADriver, table *ControlTable, eng *Engine) error {
	p.SetClock()
	RecordEvent(EvtBringup, eng.Channel(), StepClock, 0)

	p.EnablePeripheral()
	RecordEvent(EvtBringup, eng.Channel(), StepPeripheral, 0)

	p.EnableClockGating()
	RecordEvent(EvtBringup, eng.Channel(), StepClockGating, 0)
	p.EnableSleepMode()
	RecordEvent(EvtBringup, eng.Channel(), StepSleep, 0)

	p.EnableInterrupt(IRQError)
	RecordEvent(EvtBringup, eng.Channel(), StepErrorIRQ, 0)

	drv.Enable()
	RecordEvent(EvtBringup, eng.Channel(), StepControllerEnable, 0)

	if err := drv.SetControlBase(table); err != nil {
		return err
	}
	RecordEvent(EvtBringup, eng.Channel(), StepControlBase, 0)

	p.EnableInterrupt(IRQSoftware)
	RecordEvent(EvtBringup, eng.Channel(), StepSoftwareIRQ, 0)

	if err := eng.Init(); err != nil {
		return err
	}
	RecordEvent(EvtBringup, eng.Channel(), StepEngineStarted, 0)
	DebugPrintln("[DMA] transfer engine started")
	return nil
}

// Idle parks the caller forever. All progress after bring-up happens in the
// interrupt handlers; wake is called after every interrupt that ends a
// wait and may be nil.
func Idle(p Platform, wake func()) {
	for {
		p.WaitForInterrupt()
		if wake != nil {
			wake()
		}
	}
}
