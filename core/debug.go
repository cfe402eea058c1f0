package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a transfer engine event for post-mortem analysis
type Event struct {
	Type    uint8     // Event type code
	Channel ChannelID // Channel the event refers to
	Seq     uint32    // Global event sequence number
	Value1  uint32    // Context-dependent value
	Value2  uint32    // Context-dependent value
}

// Event type codes
const (
	EvtConfigure    = 1 // Channel baseline + control word written
	EvtArm          = 2 // Initial transfer armed and requested (v1=count)
	EvtComplete     = 3 // Completion in stop mode, channel re-armed (v1=transfers)
	EvtBadInterrupt = 4 // Completion with channel not stopped (v1=mode)
	EvtDMAError     = 5 // Bus error latched and cleared (v1=status)
	EvtBringup      = 6 // Bring-up step finished (v1=step)
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool = false

	// Event ring buffer (non-blocking, written from interrupt context)
	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventSeq      uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, semihosting, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Never call it from an interrupt handler; use RecordEvent there.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent captures an event in the ring buffer.
// It does not allocate and is safe to call from the DMA handlers.
func RecordEvent(eventType uint8, ch ChannelID, value1, value2 uint32) {
	state := disableInterrupts()
	idx := eventRingHead
	eventSeq++
	eventRing[idx] = Event{
		Type:    eventType,
		Channel: ch,
		Seq:     eventSeq,
		Value1:  value1,
		Value2:  value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
	restoreInterrupts(state)
}

// Events returns the recorded events, oldest first.
func Events() []Event {
	state := disableInterrupts()
	ring := eventRing
	start := eventRingHead
	restoreInterrupts(state)

	out := make([]Event, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := ring[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns a short label for an event type code.
func EventName(eventType uint8) string {
	switch eventType {
	case EvtConfigure:
		return "CONFIGURE"
	case EvtArm:
		return "ARM"
	case EvtComplete:
		return "COMPLETE"
	case EvtBadInterrupt:
		return "BAD_IRQ!"
	case EvtDMAError:
		return "DMA_ERR!"
	case EvtBringup:
		return "BRINGUP"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents outputs the event ring through the debug writer.
// Call it from the idle loop or after a fault, never from a handler.
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + EventName(evt.Type) +
			" ch=" + utoa(uint32(evt.Channel)) +
			" seq=" + utoa(evt.Seq) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents clears the event ring
func ClearEvents() {
	state := disableInterrupts()
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	eventSeq = 0
	restoreInterrupts(state)
}
