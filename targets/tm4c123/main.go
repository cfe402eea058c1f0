//go:build tinygo && tm4c123

// Firmware for the EK-TM4C123GXL LaunchPad. Copies a sine table into a
// destination buffer over the µDMA software channel, forever.
//
// Build:
//
//	tinygo build -target=targets/tm4c123/tm4c123.json -o wavedma.elf ./targets/tm4c123
//
// Telemetry frames on UART0 are off by default:
//
//	-ldflags "-X main.telemetry=on"
package main

import (
	"wavedma/core"
	"wavedma/protocol"
)

var (
	// Set with -ldflags -X; "on" streams counters over UART0, "debug" prints
	// text logs instead.
	telemetry = "off"

	driver   *udmaDriver
	engine   *core.Engine
	table    *core.ControlTable
	reporter *core.Reporter

	outputBuffer *protocol.ScratchOutput
)

func main() {
	enableFPU()

	driver = NewUDMADriver()
	core.SetDMADriver(driver)

	var err error
	engine, err = core.NewEngine(driver, core.SoftwareChannel,
		core.SourceBuffer(), core.DestinationBuffer(), &core.Diagnostics)
	if err != nil {
		halt()
	}
	table = core.NewControlTable()

	var plat board
	if err := core.Bringup(plat, driver, table, engine); err != nil {
		halt()
	}

	var wake func()
	switch telemetry {
	case "on":
		InitUART()
		outputBuffer = protocol.NewScratchOutput()
		transport := protocol.NewTransport(outputBuffer)
		transport.SetFlushCallback(writeUART)
		reporter = core.NewReporter(transport, &core.Diagnostics, core.Identity{
			Version:    protocol.Version,
			Channel:    core.SoftwareChannel,
			BufferSize: core.BufferSize,
		})
		reporter.Identify()
		wake = reporter.Wake
	case "debug":
		InitUART()
		core.SetDebugWriter(UARTPrintln)
		core.SetDebugEnabled(true)
		core.DumpEvents()
	}

	core.Idle(plat, wake)
}

// writeUART drains the frame buffer to the UART.
func writeUART() {
	UARTWrite(outputBuffer.Result())
	outputBuffer.Reset()
}

// halt parks the core with interrupts still enabled so a debugger can
// inspect core.Diagnostics and the event ring.
func halt() {
	for {
		board{}.WaitForInterrupt()
	}
}

//export UDMA_Software_IRQHandler
func udmaSoftwareHandler() {
	engine.HandleComplete()
}

//export UDMA_Error_IRQHandler
func udmaErrorHandler() {
	engine.HandleError()
}
