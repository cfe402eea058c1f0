//go:build !tinygo

package core

// State stands in for the saved interrupt mask on the host.
type State uintptr

// disableInterrupts has nothing to mask on the host; handlers run as plain
// calls from tests and the simulator.
func disableInterrupts() State {
	return 0
}

func restoreInterrupts(State) {}
