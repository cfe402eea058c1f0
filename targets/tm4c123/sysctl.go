//go:build tinygo && tm4c123

package main

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"

	"wavedma/core"
)

// System control registers
const (
	sysctlBase    = 0x400FE000
	sysctlRIS     = sysctlBase + 0x050
	sysctlMISC    = sysctlBase + 0x058
	sysctlRCC     = sysctlBase + 0x060
	sysctlRCC2    = sysctlBase + 0x070
	sysctlRCGCDMA = sysctlBase + 0x60C
	sysctlSCGCDMA = sysctlBase + 0x70C
	sysctlPRDMA   = sysctlBase + 0xA0C

	// FPU control, system control block
	scbCPACR = 0xE000ED88
	fpuFPCCR = 0xE000EF34
)

// RCC / RCC2 fields
const (
	rccMOSCDIS   = 1 << 0
	rccOSCSRC    = 0x3 << 4
	rccXTAL      = 0x1F << 6
	rccXTAL16MHz = 0x15 << 6
	rccBYPASS    = 1 << 11
	rccUSESYSDIV = 1 << 22
	rccACG       = 1 << 27

	rcc2OSCSRC2 = 0x7 << 4
	rcc2BYPASS2 = 1 << 11
	rcc2PWRDN2  = 1 << 13
	rcc2SYSDIV2 = 0x3F << 23
	rcc2USERCC2 = 1 << 31

	risPLLLRIS = 1 << 6

	// 400 MHz PLL, fixed /2, SYSDIV2+1 = 4: 50 MHz
	sysDiv50MHz = 3 << 23
)

const (
	fpccrLSPEN = 1 << 30
	fpccrASPEN = 1 << 31
	cpacrCP10  = 0x3 << 20
	cpacrCP11  = 0x3 << 22
)

// NVIC interrupt numbers (vector number minus 16)
const (
	irqUDMASoftware = 46
	irqUDMAError    = 47
)

const systemClockHz = 50000000

var (
	regRIS     = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlRIS)))
	regMISC    = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlMISC)))
	regRCC     = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlRCC)))
	regRCC2    = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlRCC2)))
	regRCGCDMA = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlRCGCDMA)))
	regSCGCDMA = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlSCGCDMA)))
	regPRDMA   = (*volatile.Register32)(unsafe.Pointer(uintptr(sysctlPRDMA)))
	regCPACR   = (*volatile.Register32)(unsafe.Pointer(uintptr(scbCPACR)))
	regFPCCR   = (*volatile.Register32)(unsafe.Pointer(uintptr(fpuFPCCR)))
)

// board is the TM4C123 implementation of core.Platform.
type board struct{}

// SetClock runs the core at 50 MHz from the PLL, fed by the 16 MHz crystal.
func (board) SetClock() {
	rcc := regRCC.Get()
	rcc2 := regRCC2.Get()

	// Run from the raw oscillator while the PLL is reprogrammed
	rcc |= rccBYPASS
	rcc &^= rccUSESYSDIV
	rcc2 |= rcc2USERCC2 | rcc2BYPASS2
	regRCC.Set(rcc)
	regRCC2.Set(rcc2)

	rcc = rcc&^(rccXTAL|rccOSCSRC|rccMOSCDIS) | rccXTAL16MHz
	rcc2 &^= rcc2OSCSRC2 | rcc2PWRDN2
	regMISC.Set(risPLLLRIS)
	regRCC.Set(rcc)
	regRCC2.Set(rcc2)

	rcc |= rccUSESYSDIV
	rcc2 = rcc2&^rcc2SYSDIV2 | sysDiv50MHz
	regRCC.Set(rcc)
	regRCC2.Set(rcc2)

	for regRIS.Get()&risPLLLRIS == 0 {
	}

	regRCC2.ClearBits(rcc2BYPASS2)
}

func (board) EnablePeripheral() {
	regRCGCDMA.SetBits(1)
	for regPRDMA.Get()&1 == 0 {
	}
}

func (board) EnableClockGating() {
	regRCC.SetBits(rccACG)
}

func (board) EnableSleepMode() {
	regSCGCDMA.SetBits(1)
}

func (board) EnableInterrupt(irq core.IRQ) {
	switch irq {
	case core.IRQSoftware:
		arm.EnableIRQ(irqUDMASoftware)
	case core.IRQError:
		arm.EnableIRQ(irqUDMAError)
	}
}

func (board) WaitForInterrupt() {
	arm.Asm("wfi")
}

// enableFPU grants access to the FPU and turns on lazy context stacking.
func enableFPU() {
	regCPACR.SetBits(cpacrCP10 | cpacrCP11)
	regFPCCR.SetBits(fpccrASPEN | fpccrLSPEN)
}
