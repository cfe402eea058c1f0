package mcu

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"wavedma/core"
	"wavedma/host/serial"
	"wavedma/protocol"
)

// DefaultEventHistory is how many firmware events an MCU keeps.
const DefaultEventHistory = 256

// Snapshot is the latest state reported by the board.
type Snapshot struct {
	Identity    core.Identity      `json:"identity"`
	Identified  bool               `json:"identified"`
	Report      core.Report        `json:"report"`
	Reports     uint32             `json:"reports"`
	LastReport  time.Time          `json:"last_report"`
	Link        protocol.LinkStats `json:"link"`
	BadMessages uint32             `json:"bad_messages"`
}

// MCU represents a telemetry connection to a wavedma board
type MCU struct {
	// Transport layer
	transport *protocol.HostTransport

	// Serial port, nil when reading from a plain io.Reader
	port serial.Port

	mu          sync.RWMutex
	identity    core.Identity
	identified  bool
	report      core.Report
	reports     uint32
	lastReport  time.Time
	badMessages uint32
	events      []core.Event
	maxEvents   int

	onReport func(core.Report)
	onEvent  func(core.Event)
	now      func() time.Time
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	m := &MCU{
		maxEvents: DefaultEventHistory,
		now:       time.Now,
	}
	m.transport = protocol.NewHostTransport(nil, m.HandleMessage)
	return m
}

// Connect opens the serial port, retrying while the device is missing.
func (m *MCU) Connect(ctx context.Context, cfg *serial.Config, maxWait time.Duration) error {
	port, err := serial.OpenRetry(ctx, cfg, maxWait, nil)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.port = port
	m.transport.SetPort(port)
	m.transport.Reset()
	return nil
}

// Attach reads telemetry from r instead of a serial port.
func (m *MCU) Attach(r io.Reader) {
	m.port = nil
	m.transport.SetPort(r)
	m.transport.Reset()
}

// Run decodes telemetry until ctx is cancelled or the stream ends. On a
// serial port the stream only ends on error.
func (m *MCU) Run(ctx context.Context) error {
	for {
		err := m.transport.Run(ctx)
		if err != nil || m.port == nil {
			return err
		}
		// tarm/serial reports a read timeout as io.EOF
	}
}

// Close closes the serial port, if any
func (m *MCU) Close() error {
	if m.port != nil {
		return m.port.Close()
	}
	return nil
}

// OnReport registers a callback for every transfer_stats message.
// Callbacks run on the reading goroutine.
func (m *MCU) OnReport(fn func(core.Report)) { m.onReport = fn }

// OnEvent registers a callback for every forwarded firmware event.
func (m *MCU) OnEvent(fn func(core.Event)) { m.onEvent = fn }

// SetEventHistory changes how many events are kept.
func (m *MCU) SetEventHistory(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 {
		n = 1
	}
	m.maxEvents = n
	if len(m.events) > n {
		m.events = append([]core.Event(nil), m.events[len(m.events)-n:]...)
	}
}

// HandleMessage decodes one telemetry message. It is the transport's
// message handler and can be fed directly in tests.
func (m *MCU) HandleMessage(msgID uint32, data *[]byte) error {
	switch msgID {
	case protocol.MsgTransferStats:
		r, err := core.DecodeReport(data)
		if err != nil {
			return m.badMessage("transfer_stats", err)
		}
		m.mu.Lock()
		m.report = r
		m.reports++
		m.lastReport = m.now()
		m.mu.Unlock()
		if m.onReport != nil {
			m.onReport(r)
		}

	case protocol.MsgEvent:
		evt, err := core.DecodeEvent(data)
		if err != nil {
			return m.badMessage("event", err)
		}
		m.mu.Lock()
		m.events = append(m.events, evt)
		if len(m.events) > m.maxEvents {
			m.events = m.events[len(m.events)-m.maxEvents:]
		}
		m.mu.Unlock()
		if m.onEvent != nil {
			m.onEvent(evt)
		}

	case protocol.MsgIdentify:
		id, err := core.DecodeIdentity(data)
		if err != nil {
			return m.badMessage("identify", err)
		}
		m.mu.Lock()
		m.identity = id
		m.identified = true
		m.mu.Unlock()

	default:
		return m.badMessage(fmt.Sprintf("id %d", msgID), core.ErrUnexpectedMessage)
	}
	return nil
}

func (m *MCU) badMessage(name string, err error) error {
	m.mu.Lock()
	m.badMessages++
	m.mu.Unlock()
	return fmt.Errorf("failed to decode %s: %w", name, err)
}

// Snapshot returns the latest board state.
func (m *MCU) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Identity:    m.identity,
		Identified:  m.identified,
		Report:      m.report,
		Reports:     m.reports,
		LastReport:  m.lastReport,
		Link:        m.transport.Stats(),
		BadMessages: m.badMessages,
	}
}

// Events returns the kept events, oldest first.
func (m *MCU) Events() []core.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]core.Event(nil), m.events...)
}
