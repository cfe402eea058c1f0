package core

import (
	"errors"
	"reflect"
	"testing"
)

type mockPlatform struct {
	calls []string
	waits int
}

func (p *mockPlatform) SetClock()          { p.calls = append(p.calls, "clock") }
func (p *mockPlatform) EnablePeripheral()  { p.calls = append(p.calls, "peripheral") }
func (p *mockPlatform) EnableClockGating() { p.calls = append(p.calls, "gating") }
func (p *mockPlatform) EnableSleepMode()   { p.calls = append(p.calls, "sleep") }

func (p *mockPlatform) EnableInterrupt(irq IRQ) {
	if irq == IRQError {
		p.calls = append(p.calls, "irq-error")
	} else {
		p.calls = append(p.calls, "irq-software")
	}
}

func (p *mockPlatform) WaitForInterrupt() { p.waits++ }

func TestBringupOrder(t *testing.T) {
	ClearEvents()
	defer ClearEvents()

	p := &mockPlatform{}
	eng, drv, _ := newTestEngine(t, 8)
	if err := Bringup(p, drv, NewControlTable(), eng); err != nil {
		t.Fatalf("Bringup failed: %v", err)
	}

	want := []string{"clock", "peripheral", "gating", "sleep", "irq-error", "irq-software"}
	if !reflect.DeepEqual(p.calls, want) {
		t.Errorf("Platform calls %v, want %v", p.calls, want)
	}
	if drv.calls[0] != "Enable" || drv.calls[1] != "SetControlBase" {
		t.Errorf("Controller must be enabled then given its table, got %v", drv.calls[:2])
	}
	if eng.State() != ChannelRunning {
		t.Errorf("Expected running channel after bring-up, got %s", eng.State())
	}

	var steps []uint32
	for _, evt := range Events() {
		if evt.Type == EvtBringup {
			steps = append(steps, evt.Value1)
		}
	}
	if len(steps) != StepEngineStarted || steps[len(steps)-1] != StepEngineStarted {
		t.Errorf("Bring-up steps recorded: %v", steps)
	}
}

type failingBase struct{ *mockDMA }

var errBase = errors.New("base rejected")

func (f failingBase) SetControlBase(*ControlTable) error { return errBase }

func TestBringupStopsOnControlBaseError(t *testing.T) {
	p := &mockPlatform{}
	eng, drv, _ := newTestEngine(t, 8)

	err := Bringup(p, failingBase{drv}, NewControlTable(), eng)
	if !errors.Is(err, errBase) {
		t.Fatalf("Expected control base error, got %v", err)
	}
	if eng.State() != ChannelIdle {
		t.Errorf("Engine armed despite failed bring-up: %s", eng.State())
	}
	for _, c := range p.calls {
		if c == "irq-software" {
			t.Error("Completion interrupt enabled after failure")
		}
	}
}

func TestIdleCallsWake(t *testing.T) {
	// Idle never returns; stop it by panicking out of the wake callback.
	p := &mockPlatform{}
	wakes := 0
	stop := errors.New("stop")

	func() {
		defer func() {
			if r := recover(); r != stop {
				t.Fatalf("Unexpected panic %v", r)
			}
		}()
		Idle(p, func() {
			wakes++
			if wakes == 5 {
				panic(stop)
			}
		})
	}()

	if p.waits != 5 || wakes != 5 {
		t.Errorf("waits=%d wakes=%d, want 5 each", p.waits, wakes)
	}
}
