//go:build tinygo && tm4c123

package main

import (
	"runtime/volatile"
	"unsafe"
)

// UART0 on PA0 (RX) / PA1 (TX), behind the ICDI virtual COM port
const (
	sysctlRCGCUART = sysctlBase + 0x618
	sysctlRCGCGPIO = sysctlBase + 0x608
	sysctlPRUART   = sysctlBase + 0xA18
	sysctlPRGPIO   = sysctlBase + 0xA08

	gpioABase  = 0x40004000
	gpioAFSEL  = gpioABase + 0x420
	gpioADEN   = gpioABase + 0x51C
	gpioAPCTL  = gpioABase + 0x52C
	uart0Base  = 0x4000C000
	uartDR     = uart0Base + 0x000
	uartFR     = uart0Base + 0x018
	uartIBRD   = uart0Base + 0x024
	uartFBRD   = uart0Base + 0x028
	uartLCRH   = uart0Base + 0x02C
	uartCTL    = uart0Base + 0x030
	uartFRTXFF = 1 << 5

	uartLCRHWLEN8 = 0x3 << 5
	uartLCRHFEN   = 1 << 4
	uartCTLUARTEN = 1 << 0
	uartCTLTXE    = 1 << 8
	uartCTLRXE    = 1 << 9

	pinsPA0PA1 = 0x03
	pctlU0     = 0x11

	telemetryBaud = 115200
)

var (
	regRCGCUART = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlRCGCUART)))
	regRCGCGPIO = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlRCGCGPIO)))
	regPRUART   = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlPRUART)))
	regPRGPIO   = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlPRGPIO)))
	regAFSEL    = (*volatile.Register32)(unsafe.Pointer(uintptr(gpioAFSEL)))
	regDEN      = (*volatile.Register32)(unsafe.Pointer(uintptr(gpioADEN)))
	regPCTL     = (*volatile.Register32)(unsafe.Pointer(uintptr(gpioAPCTL)))
	regUARTDR   = (*volatile.Register32)(unsafe.Pointer(uintptr(uartDR)))
	regUARTFR   = (*volatile.Register32)(unsafe.Pointer(uintptr(uartFR)))
	regUARTIBRD = (*volatile.Register32)(unsafe.Pointer(uintptr(uartIBRD)))
	regUARTFBRD = (*volatile.Register32)(unsafe.Pointer(uintptr(uartFBRD)))
	regUARTLCRH = (*volatile.Register32)(unsafe.Pointer(uintptr(uartLCRH)))
	regUARTCTL  = (*volatile.Register32)(unsafe.Pointer(uintptr(uartCTL)))
)

// InitUART configures UART0 for 115200 8N1 with FIFOs. It must run after
// SetClock, the divisors assume a 50 MHz system clock.
func InitUART() {
	regRCGCUART.SetBits(1)
	regRCGCGPIO.SetBits(1)
	for regPRUART.Get()&1 == 0 || regPRGPIO.Get()&1 == 0 {
	}

	regAFSEL.SetBits(pinsPA0PA1)
	regPCTL.ReplaceBits(pctlU0, 0xFF, 0)
	regDEN.SetBits(pinsPA0PA1)

	// BRD = clock / (16 * baud); fractional part in 1/64ths, rounded
	div64 := (systemClockHz*8/telemetryBaud + 1) / 2
	regUARTCTL.ClearBits(uartCTLUARTEN)
	regUARTIBRD.Set(uint32(div64 / 64))
	regUARTFBRD.Set(uint32(div64 % 64))
	regUARTLCRH.Set(uartLCRHWLEN8 | uartLCRHFEN)
	regUARTCTL.Set(uartCTLUARTEN | uartCTLTXE | uartCTLRXE)
}

// UARTWrite blocks until every byte is in the transmit FIFO.
func UARTWrite(data []byte) {
	for _, b := range data {
		for regUARTFR.Get()&uartFRTXFF != 0 {
		}
		regUARTDR.Set(uint32(b))
	}
}

// UARTPrintln writes a text line, for the debug writer.
func UARTPrintln(s string) {
	UARTWrite([]byte(s))
	UARTWrite([]byte("\r\n"))
}
