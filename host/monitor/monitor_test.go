package monitor

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wavedma/core"
	"wavedma/host/mcu"
	"wavedma/protocol"
)

type fakeSource struct {
	snap   mcu.Snapshot
	events []core.Event
}

func (f *fakeSource) Snapshot() mcu.Snapshot { return f.snap }
func (f *fakeSource) Events() []core.Event   { return f.events }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCountersEndpoint(t *testing.T) {
	src := &fakeSource{snap: mcu.Snapshot{
		Report:  core.Report{Stats: core.Stats{Transfers: 42, DMAErrors: 1}, Wakeups: 50},
		Reports: 7,
	}}
	rec := get(t, NewHTTPMonitor(src, 0).Router(), "/counters")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status %d", rec.Code)
	}

	var got Counters
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Transfers != 42 || got.DMAErrors != 1 || got.Wakeups != 50 || got.Reports != 7 {
		t.Errorf("Unexpected counters %+v", got)
	}
}

func TestIdentityEndpoint(t *testing.T) {
	src := &fakeSource{}
	router := NewHTTPMonitor(src, 0).Router()
	if rec := get(t, router, "/identity"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before identify, got %d", rec.Code)
	}

	src.snap.Identified = true
	src.snap.Identity = core.Identity{Version: "0.1.0", Channel: core.SoftwareChannel, BufferSize: 1024}
	rec := get(t, router, "/identity")
	var got Identity
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Channel != 30 || got.BufferSize != 1024 {
		t.Errorf("Unexpected identity %+v", got)
	}
}

func TestEventsEndpointLimit(t *testing.T) {
	src := &fakeSource{events: []core.Event{
		{Type: core.EvtConfigure, Seq: 1},
		{Type: core.EvtArm, Seq: 2, Value1: 1024},
		{Type: core.EvtDMAError, Seq: 3, Value1: 1},
	}}
	router := NewHTTPMonitor(src, 0).Router()

	rec := get(t, router, "/events?limit=2")
	var got []Event
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "ARM" || got[1].Name != "DMA_ERR!" {
		t.Errorf("Unexpected events %+v", got)
	}

	if rec := get(t, router, "/events?limit=x"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestLinkEndpoint(t *testing.T) {
	src := &fakeSource{snap: mcu.Snapshot{Link: protocol.LinkStats{Frames: 9, Dropped: 2}, BadMessages: 1}}
	rec := get(t, NewHTTPMonitor(src, 0).Router(), "/link")

	var got map[string]uint32
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got["Frames"] != 9 || got["Dropped"] != 2 || got["BadMessages"] != 1 {
		t.Errorf("Unexpected link stats %v", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	testCases := []struct {
		name string
		snap mcu.Snapshot
		want int
	}{
		{"no reports", mcu.Snapshot{}, http.StatusServiceUnavailable},
		{"healthy", mcu.Snapshot{Reports: 3, LastReport: now.Add(-time.Second)}, http.StatusOK},
		{"stale", mcu.Snapshot{Reports: 3, LastReport: now.Add(-time.Minute)}, http.StatusServiceUnavailable},
		{"faults", mcu.Snapshot{
			Reports:    3,
			LastReport: now,
			Report:     core.Report{Stats: core.Stats{BadInterrupts: 1}},
		}, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHTTPMonitor(&fakeSource{snap: tc.snap}, 10*time.Second)
			h.now = func() time.Time { return now }
			if rec := get(t, h.Router(), "/health"); rec.Code != tc.want {
				t.Errorf("Status %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestConsoleLoggerRateLimitsProgress(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleLogger(log.New(&buf, "", 0), time.Hour)

	c.Report(core.Report{Stats: core.Stats{Transfers: 1}})
	c.Report(core.Report{Stats: core.Stats{Transfers: 2}})
	c.Report(core.Report{Stats: core.Stats{Transfers: 3, DMAErrors: 1}})
	c.Event(core.Event{Type: core.EvtDMAError, Channel: core.SoftwareChannel, Seq: 9, Value1: 1})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %q", lines)
	}
	if !strings.HasPrefix(lines[0], "transfers=1 ") {
		t.Errorf("First line %q", lines[0])
	}
	if !strings.Contains(lines[1], "dma_errors=1") {
		t.Errorf("Fault change not logged: %q", lines[1])
	}
	if lines[2] != "event DMA_ERR! ch=30 seq=9 v1=1 v2=0" {
		t.Errorf("Event line %q", lines[2])
	}
}
