package sim

import "wavedma/core"

// Board is a core.Platform for host runs. It records the bring-up calls
// and lets the controller make progress while the core "sleeps".
type Board struct {
	ctrl  *Controller
	Steps []string

	ClockSet          bool
	PeripheralEnabled bool
	ClockGating       bool
	SleepEnabled      bool
	Wakeups           int
}

// NewBoard wires a board to a simulated controller.
func NewBoard(ctrl *Controller) *Board {
	return &Board{ctrl: ctrl}
}

var _ core.Platform = (*Board)(nil)

func (b *Board) SetClock() {
	b.ClockSet = true
	b.Steps = append(b.Steps, "clock")
}

func (b *Board) EnablePeripheral() {
	b.PeripheralEnabled = true
	b.Steps = append(b.Steps, "peripheral")
}

func (b *Board) EnableClockGating() {
	b.ClockGating = true
	b.Steps = append(b.Steps, "clock-gating")
}

func (b *Board) EnableSleepMode() {
	b.SleepEnabled = true
	b.Steps = append(b.Steps, "sleep")
}

func (b *Board) EnableInterrupt(irq core.IRQ) {
	b.ctrl.EnableIRQ(irq)
	if irq == core.IRQError {
		b.Steps = append(b.Steps, "irq-error")
	} else {
		b.Steps = append(b.Steps, "irq-software")
	}
}

// WaitForInterrupt runs one controller step, which is where the simulated
// interrupts fire.
func (b *Board) WaitForInterrupt() {
	b.Wakeups++
	b.ctrl.Step()
}
