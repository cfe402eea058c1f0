package core

import (
	"sync"
	"testing"
)

func TestCountersStartAtZero(t *testing.T) {
	var c Counters
	if c.Stats() != (Stats{}) {
		t.Errorf("Expected zero stats, got %+v", c.Stats())
	}
}

func TestCountersIncrementIndependently(t *testing.T) {
	var c Counters
	c.incTransfers()
	c.incTransfers()
	c.incDMAErrors()
	c.incBadInterrupts()
	c.incBadInterrupts()
	c.incBadInterrupts()

	want := Stats{Transfers: 2, DMAErrors: 1, BadInterrupts: 3}
	if got := c.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestCountersConcurrentIncrements(t *testing.T) {
	// Two sources incrementing at once must not lose updates.
	var c Counters
	var wg sync.WaitGroup
	const perSource = 10000

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < perSource; i++ {
			c.incTransfers()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < perSource; i++ {
			c.incTransfers()
			c.incDMAErrors()
		}
	}()
	wg.Wait()

	if c.Transfers() != 2*perSource || c.DMAErrors() != perSource {
		t.Errorf("Lost increments: %+v", c.Stats())
	}
}
