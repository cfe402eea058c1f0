package monitor

import (
	"log"
	"time"

	"golang.org/x/time/rate"

	"wavedma/core"
)

// ConsoleLogger prints telemetry to a log.Logger. Progress lines are rate
// limited; fault counter changes and events are always printed.
type ConsoleLogger struct {
	log     *log.Logger
	limiter *rate.Limiter
	last    core.Stats
}

// NewConsoleLogger prints at most one progress line per interval.
func NewConsoleLogger(l *log.Logger, interval time.Duration) *ConsoleLogger {
	return &ConsoleLogger{
		log:     l,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Report handles one transfer_stats message.
func (c *ConsoleLogger) Report(r core.Report) {
	faults := r.DMAErrors != c.last.DMAErrors || r.BadInterrupts != c.last.BadInterrupts
	c.last = r.Stats
	if !faults && !c.limiter.Allow() {
		return
	}
	c.log.Printf("transfers=%d dma_errors=%d bad_interrupts=%d wakeups=%d",
		r.Transfers, r.DMAErrors, r.BadInterrupts, r.Wakeups)
}

// Event handles one forwarded firmware event.
func (c *ConsoleLogger) Event(e core.Event) {
	c.log.Printf("event %s ch=%d seq=%d v1=%d v2=%d",
		core.EventName(e.Type), e.Channel, e.Seq, e.Value1, e.Value2)
}
