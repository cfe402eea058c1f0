package core

import (
	"errors"

	"wavedma/protocol"
)

// Report is the payload of a transfer_stats telemetry message.
type Report struct {
	Stats
	Wakeups uint32 // idle-loop wake-ups since boot
}

// Identity is the payload of an identify telemetry message.
type Identity struct {
	Version    string
	Channel    ChannelID
	BufferSize uint32
}

var ErrUnexpectedMessage = errors.New("unexpected telemetry message")

// EncodeReport writes a transfer_stats message body.
func EncodeReport(output protocol.OutputBuffer, r Report) {
	protocol.EncodeVLQUint(output, r.Transfers)
	protocol.EncodeVLQUint(output, r.DMAErrors)
	protocol.EncodeVLQUint(output, r.BadInterrupts)
	protocol.EncodeVLQUint(output, r.Wakeups)
}

// DecodeReport parses a transfer_stats message body.
func DecodeReport(data *[]byte) (Report, error) {
	var r Report
	fields := []*uint32{&r.Transfers, &r.DMAErrors, &r.BadInterrupts, &r.Wakeups}
	for _, f := range fields {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return Report{}, err
		}
		*f = v
	}
	return r, nil
}

// EncodeEvent writes an event message body.
func EncodeEvent(output protocol.OutputBuffer, evt Event) {
	protocol.EncodeVLQUint(output, uint32(evt.Type))
	protocol.EncodeVLQUint(output, uint32(evt.Channel))
	protocol.EncodeVLQUint(output, evt.Seq)
	protocol.EncodeVLQUint(output, evt.Value1)
	protocol.EncodeVLQUint(output, evt.Value2)
}

// DecodeEvent parses an event message body.
func DecodeEvent(data *[]byte) (Event, error) {
	var v [5]uint32
	for i := range v {
		x, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return Event{}, err
		}
		v[i] = x
	}
	return Event{
		Type:    uint8(v[0]),
		Channel: ChannelID(v[1]),
		Seq:     v[2],
		Value1:  v[3],
		Value2:  v[4],
	}, nil
}

// EncodeIdentity writes an identify message body.
func EncodeIdentity(output protocol.OutputBuffer, id Identity) {
	protocol.EncodeVLQString(output, id.Version)
	protocol.EncodeVLQUint(output, uint32(id.Channel))
	protocol.EncodeVLQUint(output, id.BufferSize)
}

// DecodeIdentity parses an identify message body.
func DecodeIdentity(data *[]byte) (Identity, error) {
	version, err := protocol.DecodeVLQString(data)
	if err != nil {
		return Identity{}, err
	}
	ch, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return Identity{}, err
	}
	size, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Version: version, Channel: ChannelID(ch), BufferSize: size}, nil
}

// Reporter pushes counter snapshots and new ring events over a framed
// transport. It runs in the idle loop, never in a handler.
type Reporter struct {
	transport *protocol.Transport
	counters  *Counters
	identity  Identity

	wakeups     uint32
	last        Stats
	sentFirst   bool
	lastEventSq uint32
}

// NewReporter creates a reporter for the given counters.
func NewReporter(t *protocol.Transport, counters *Counters, id Identity) *Reporter {
	return &Reporter{transport: t, counters: counters, identity: id}
}

// Identify sends the identify message.
func (r *Reporter) Identify() {
	r.transport.SendMessage(protocol.MsgIdentify, func(output protocol.OutputBuffer) {
		EncodeIdentity(output, r.identity)
	})
}

// Wake is called after each idle-loop wake-up. It sends a transfer_stats
// frame when any counter moved, followed by events not yet sent.
func (r *Reporter) Wake() {
	r.wakeups++
	stats := r.counters.Stats()
	if r.sentFirst && stats == r.last {
		return
	}
	r.last = stats
	r.sentFirst = true

	report := Report{Stats: stats, Wakeups: r.wakeups}
	r.transport.SendMessage(protocol.MsgTransferStats, func(output protocol.OutputBuffer) {
		EncodeReport(output, report)
	})

	for _, evt := range Events() {
		if evt.Seq <= r.lastEventSq {
			continue
		}
		// Completions are already summarized by the counters.
		if evt.Type != EvtComplete {
			e := evt
			r.transport.SendMessage(protocol.MsgEvent, func(output protocol.OutputBuffer) {
				EncodeEvent(output, e)
			})
		}
		r.lastEventSq = evt.Seq
	}
}
