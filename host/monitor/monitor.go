// Package monitor exposes the telemetry of a wavedma board over HTTP and
// summarizes it on the console.
package monitor

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"wavedma/core"
	"wavedma/host/mcu"
	"wavedma/protocol"
)

// Source is what the HTTP interface reads from; *mcu.MCU satisfies it.
type Source interface {
	Snapshot() mcu.Snapshot
	Events() []core.Event
}

// Counters is the JSON body of GET /counters.
type Counters struct {
	Transfers     uint32    `json:"transfers"`
	DMAErrors     uint32    `json:"dma_errors"`
	BadInterrupts uint32    `json:"bad_interrupts"`
	Wakeups       uint32    `json:"wakeups"`
	Reports       uint32    `json:"reports"`
	LastReport    time.Time `json:"last_report"`
}

// Event is the JSON form of a firmware event.
type Event struct {
	Name    string `json:"name"`
	Type    uint8  `json:"type"`
	Channel uint8  `json:"channel"`
	Seq     uint32 `json:"seq"`
	Value1  uint32 `json:"value1"`
	Value2  uint32 `json:"value2"`
}

// Identity is the JSON body of GET /identity.
type Identity struct {
	Version    string `json:"version"`
	Channel    uint8  `json:"channel"`
	BufferSize uint32 `json:"buffer_size"`
}

// HTTPMonitor binds a Source to a set of routes.
type HTTPMonitor struct {
	src Source

	// Stale is how old the last report may be before /health fails.
	Stale time.Duration

	now func() time.Time
}

// NewHTTPMonitor wraps src. A zero stale window disables the age check.
func NewHTTPMonitor(src Source, stale time.Duration) *HTTPMonitor {
	return &HTTPMonitor{src: src, Stale: stale, now: time.Now}
}

// Bind registers the monitor's routes on r.
func (h *HTTPMonitor) Bind(r chi.Router) {
	r.Get("/counters", h.counters)
	r.Get("/identity", h.identity)
	r.Get("/link", h.link)
	r.Get("/events", h.events)
	r.Get("/health", h.health)
}

// Router returns a new router with the monitor bound at its root.
func (h *HTTPMonitor) Router() chi.Router {
	r := chi.NewRouter()
	h.Bind(r)
	return r
}

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *HTTPMonitor) counters(w http.ResponseWriter, r *http.Request) {
	s := h.src.Snapshot()
	respondJSON(w, Counters{
		Transfers:     s.Report.Transfers,
		DMAErrors:     s.Report.DMAErrors,
		BadInterrupts: s.Report.BadInterrupts,
		Wakeups:       s.Report.Wakeups,
		Reports:       s.Reports,
		LastReport:    s.LastReport,
	})
}

func (h *HTTPMonitor) identity(w http.ResponseWriter, r *http.Request) {
	s := h.src.Snapshot()
	if !s.Identified {
		http.Error(w, "board has not identified itself", http.StatusNotFound)
		return
	}
	respondJSON(w, Identity{
		Version:    s.Identity.Version,
		Channel:    uint8(s.Identity.Channel),
		BufferSize: s.Identity.BufferSize,
	})
}

func (h *HTTPMonitor) link(w http.ResponseWriter, r *http.Request) {
	s := h.src.Snapshot()
	respondJSON(w, struct {
		protocol.LinkStats
		BadMessages uint32
	}{s.Link, s.BadMessages})
}

// events serves the kept events, newest last. ?limit=N keeps the newest N.
func (h *HTTPMonitor) events(w http.ResponseWriter, r *http.Request) {
	events := h.src.Events()
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		if n < len(events) {
			events = events[len(events)-n:]
		}
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		out = append(out, Event{
			Name:    core.EventName(e.Type),
			Type:    e.Type,
			Channel: uint8(e.Channel),
			Seq:     e.Seq,
			Value1:  e.Value1,
			Value2:  e.Value2,
		})
	}
	respondJSON(w, out)
}

// health is 200 while reports arrive and no fault counter is set.
func (h *HTTPMonitor) health(w http.ResponseWriter, r *http.Request) {
	s := h.src.Snapshot()
	switch {
	case s.Reports == 0:
		http.Error(w, "no reports received", http.StatusServiceUnavailable)
	case h.Stale > 0 && h.now().Sub(s.LastReport) > h.Stale:
		http.Error(w, "reports are stale", http.StatusServiceUnavailable)
	case s.Report.DMAErrors > 0 || s.Report.BadInterrupts > 0:
		http.Error(w, "faults reported", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
	}
}
