//go:build tm4c123

// Chip hooks for the TinyGo runtime on the TM4C123GH6PM. TinyGo has no port
// for this part; copy this file into $TINYGOROOT/src/runtime before building.

package runtime

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"
)

type timeUnit int64

const (
	// SysTick runs from the 50 MHz core clock and interrupts every millisecond.
	coreClockHz  = 50000000
	tickHz       = 1000
	nsPerTick    = 1000000000 / tickHz
	systickLoad  = coreClockHz/tickHz - 1
	systickCtrl  = 0xE000E010
	systickRVR   = 0xE000E014
	systickCVR   = 0xE000E018
	systickOn    = 1<<0 | 1<<1 | 1<<2 // enable, interrupt, core clock
	uart0DR      = 0x4000C000
	uart0FR      = 0x4000C018
	uart0CTL     = 0x4000C030
	uartFRTXFF   = 1 << 5
	uartFRRXFE   = 1 << 4
	uartCTLUARTE = 1 << 0
)

var (
	regSysTickCtrl = (*volatile.Register32)(unsafe.Pointer(uintptr(systickCtrl)))
	regSysTickRVR  = (*volatile.Register32)(unsafe.Pointer(uintptr(systickRVR)))
	regSysTickCVR  = (*volatile.Register32)(unsafe.Pointer(uintptr(systickCVR)))
	regUARTDR      = (*volatile.Register32)(unsafe.Pointer(uintptr(uart0DR)))
	regUARTFR      = (*volatile.Register32)(unsafe.Pointer(uintptr(uart0FR)))
	regUARTCTL     = (*volatile.Register32)(unsafe.Pointer(uintptr(uart0CTL)))

	tickCount uint64
)

//export Reset_Handler
func main() {
	preinit()
	run()
	exit(0)
}

func init() {
	regSysTickRVR.Set(systickLoad)
	regSysTickCVR.Set(0)
	regSysTickCtrl.Set(systickOn)
}

//export SysTick_Handler
func sysTickHandler() {
	tickCount++
}

func ticks() timeUnit {
	mask := arm.DisableInterrupts()
	t := tickCount
	arm.EnableInterrupts(mask)
	return timeUnit(t)
}

func sleepTicks(d timeUnit) {
	end := ticks() + d
	for ticks() < end {
		arm.Asm("wfi")
	}
}

func ticksToNanoseconds(t timeUnit) int64 {
	return int64(t) * nsPerTick
}

func nanosecondsToTicks(ns int64) timeUnit {
	return timeUnit(ns / nsPerTick)
}

// putchar writes to UART0 once the firmware has enabled it and drops
// output before that.
func putchar(c byte) {
	if regUARTCTL.Get()&uartCTLUARTE == 0 {
		return
	}
	for regUARTFR.Get()&uartFRTXFF != 0 {
	}
	regUARTDR.Set(uint32(c))
}

func getchar() byte {
	for buffered() == 0 {
		Gosched()
	}
	return byte(regUARTDR.Get())
}

func buffered() int {
	if regUARTFR.Get()&uartFRRXFE != 0 {
		return 0
	}
	return 1
}
