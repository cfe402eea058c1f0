// Command wavedma-sim runs the transfer engine against the simulated µDMA
// controller and prints the counters.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"wavedma/core"
	"wavedma/host/mcu"
	"wavedma/protocol"
	"wavedma/sim"
)

var (
	size        = flag.Int("n", core.BufferSize, "Samples per transfer (1-1024)")
	cycles      = flag.Int("cycles", 1000, "Idle-loop wake-ups to run")
	failEvery   = flag.Int("fail-every", 0, "Abort every Nth transfer with a bus error (0 = never)")
	strayErrors = flag.Int("stray-error-every", 0, "Raise a stray error interrupt every N wake-ups (0 = never)")
	strayIRQs   = flag.Int("stray-irq-every", 0, "Raise a completion interrupt mid-transfer every N wake-ups (0 = never)")
	telemetry   = flag.Bool("telemetry", false, "Encode telemetry frames and decode them as the monitor would")
	events      = flag.Bool("events", false, "Dump the event ring at the end")
	verbose     = flag.Bool("verbose", false, "Enable debug output")
)

func main() {
	flag.Parse()

	if *verbose {
		core.SetDebugWriter(func(s string) { log.Println(s) })
		core.SetDebugEnabled(true)
	}

	ctrl := sim.NewController()
	board := sim.NewBoard(ctrl)
	counters := &core.Counters{}
	src := make(core.SampleBuffer, *size)
	dst := make(core.SampleBuffer, *size)

	eng, err := core.NewEngine(ctrl, core.SoftwareChannel, src, dst, counters)
	if err != nil {
		log.Fatalf("invalid transfer: %v", err)
	}
	ctrl.Attach(func(core.ChannelID) { eng.HandleComplete() }, eng.HandleError)

	if err := core.Bringup(board, ctrl, core.NewControlTable(), eng); err != nil {
		log.Fatalf("bring-up failed: %v", err)
	}

	var (
		stream   bytes.Buffer
		reporter *core.Reporter
	)
	if *telemetry {
		frames := protocol.NewScratchOutput()
		transport := protocol.NewTransport(frames)
		transport.SetFlushCallback(func() {
			stream.Write(frames.Result())
			frames.Reset()
		})
		reporter = core.NewReporter(transport, counters, core.Identity{
			Version:    protocol.Version,
			Channel:    core.SoftwareChannel,
			BufferSize: uint32(*size),
		})
		reporter.Identify()
	}

	for i := 1; i <= *cycles; i++ {
		if *failEvery > 0 && i%*failEvery == 0 {
			ctrl.FailNext(core.SoftwareChannel)
		}
		board.WaitForInterrupt()
		if *strayErrors > 0 && i%*strayErrors == 0 {
			ctrl.LatchError()
		}
		if *strayIRQs > 0 && i%*strayIRQs == 0 {
			ctrl.RaiseComplete(core.SoftwareChannel)
		}
		if reporter != nil {
			reporter.Wake()
		}
	}

	stats := counters.Stats()
	fmt.Printf("transfers:      %d\n", stats.Transfers)
	fmt.Printf("dma errors:     %d\n", stats.DMAErrors)
	fmt.Printf("bad interrupts: %d\n", stats.BadInterrupts)
	fmt.Printf("items moved:    %d\n", ctrl.ItemsMoved)
	fmt.Printf("channel state:  %s\n", eng.State())

	if idx, ok := core.Verify(src, dst); ok {
		fmt.Println("destination:    matches source")
	} else if stats.Transfers == 0 {
		fmt.Println("destination:    never written")
	} else {
		fmt.Printf("destination:    differs at sample %d\n", idx)
	}

	if *telemetry {
		m := mcu.NewMCU()
		n := stream.Len()
		m.Attach(&stream)
		if err := m.Run(context.Background()); err != nil {
			log.Fatalf("decoding telemetry: %v", err)
		}
		snap := m.Snapshot()
		fmt.Printf("telemetry:      %d bytes, %d frames, %d reports, last transfers=%d\n",
			n, snap.Link.Frames, snap.Reports, snap.Report.Transfers)
	}

	if *events {
		core.SetDebugWriter(func(s string) { fmt.Println(s) })
		core.DumpEvents()
	}

	if eng.State() != core.ChannelRunning {
		os.Exit(1)
	}
}
