// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package stm32f4xx implements the two memory-mapped peripherals of the VEE
// core that sit on the guest's MMIO bus: a GPIO bank (this file) and an SPI
// master (spi.go). Both are grounded on the reference device models'
// register-decode style: stm32f4xx_gpio_write dispatching on word offset,
// pin_state_arbitration recomputing a PinStatus from register fields
// (_examples/original_source/hw/arm/stm32f4xx_gpio.c), adapted to
// periph.io/x/periph's own register-bank convention of a typed Go struct
// with named offset constants (see host/bcm283x/gpio.go's register enums).
package stm32f4xx

import (
	"fmt"

	"github.com/WeMakeIt1995/VEE/conn/afio"
	"github.com/WeMakeIt1995/VEE/conn/pin"
	"github.com/WeMakeIt1995/VEE/vee/mmio"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

// Word offsets into a GPIO bank's ten-register file, matching spec.md §6's
// byte offsets (MODER=0x00, ..., AFRH=0x24) divided by 4.
const (
	RegMODER = iota
	RegOTYPER
	RegOSPEEDR
	RegPUPDR
	RegIDR
	RegODR
	RegBSRR
	RegLCKR
	RegAFRL
	RegAFRH
	numGPIORegs
)

// MMIOWindowBytes is the size of a GPIO bank's (and an SPI master's)
// memory-mapped window, per spec.md §6.
const MMIOWindowBytes = 0x400

// pin mode field values, decoded from MODER.
const (
	modeInput = iota
	modePushPull
	modeAltFunc
	modeAnalog
)

// pull field values, decoded from PUPDR.
const (
	pullNone = iota
	pullUp
	pullDown
)

// BankOpts configures a Bank at construction.
type BankOpts struct {
	// PortIndex selects this bank's row in the AFIO table (0=PA, 1=PB,
	// 2=PC). Default 0.
	PortIndex uint32
}

// Bank is a 16-pin GPIO bank backed by the ten STM32F4-style registers of
// spec.md §3. It owns register-write decoding, the lock-sequence state
// machine, per-pin arbitration, and AFIO binding.
type Bank struct {
	sched     sched.Scheduler
	afioTable *afio.Table
	portIndex int

	regs [numGPIORegs]uint32

	lckrSeq    [3]uint32
	lckrActive bool

	pins [16]*pin.Pin
}

// NewBank realizes a Bank: all registers zero, all 16 pins High-Z, each
// wired to write IDR on its own InVoltageMV changes (spec.md §4.5).
func NewBank(s sched.Scheduler, afioTable *afio.Table, reg mmio.Registrar, opts BankOpts) *Bank {
	b := &Bank{sched: s, afioTable: afioTable, portIndex: int(opts.PortIndex)}
	for i := range b.pins {
		b.pins[i] = pin.New(s)
		idx := i
		b.pins[idx].SetOnInChange(func(_ *pin.Pin, mv int32) { b.syncIDRBit(idx, mv) })
	}
	if reg != nil {
		_, _ = reg.Register(fmt.Sprintf("gpio%d", b.portIndex), MMIOWindowBytes, b)
	}
	return b
}

// Pin returns the owned pin at index n, for wiring into a Line.
func (b *Bank) Pin(n int) *pin.Pin {
	return b.pins[n]
}

// PortIndex returns the bank's AFIO-table row.
func (b *Bank) PortIndex() int {
	return b.portIndex
}

// ReadAt implements mmio.Region.
func (b *Bank) ReadAt(offset uint32) uint32 {
	idx := offset / 4
	if idx >= numGPIORegs {
		return 0
	}
	return b.regs[idx]
}

// WriteAt implements mmio.Region and is the register-write decoder of
// spec.md §4.3.
func (b *Bank) WriteAt(offset uint32, val uint32) {
	idx := offset / 4
	switch idx {
	case RegMODER, RegOTYPER, RegOSPEEDR, RegPUPDR, RegODR, RegAFRL, RegAFRH:
		if b.lckrActive {
			return
		}
		b.changeReg(int(idx), val)
	case RegIDR:
		// Read-only mirror of external electrical state; writes ignored.
	case RegBSRR:
		if b.lckrActive {
			return
		}
		newODR := (b.regs[RegODR] | (val & 0xFFFF)) &^ ((val >> 16) & 0xFFFF)
		b.changeReg(RegODR, newODR)
	case RegLCKR:
		b.writeLCKR(val)
	}
}

// changeReg stores val at idx, and if it actually changed, rebinds AFIO (on
// an AFR write) and re-arbitrates every pin, matching change_pin_state's
// early-exit-on-unchanged-value in the reference model.
func (b *Bank) changeReg(idx int, val uint32) {
	if b.regs[idx] == val {
		return
	}
	b.regs[idx] = val

	switch idx {
	case RegAFRL:
		b.rebindAF(0, 8)
	case RegAFRH:
		b.rebindAF(8, 16)
	}
	for i := 0; i < 16; i++ {
		b.arbitrate(i)
	}
}

// rebindAF rebinds pins [start,end) to whatever cell their current AFR
// selector names, per spec.md §4.3.2. The installed notifier drives the pin
// from the level carried in the notification itself, not from the cell's
// (possibly already-moved-on) live level — see applyAFLevel.
func (b *Bank) rebindAF(start, end int) {
	for p := start; p < end; p++ {
		af := b.afSelector(p)
		cell, ok := b.afioTable.Lookup(b.portIndex, p, af)
		if !ok {
			continue
		}
		pp := p
		cell.Bind(b, pp, func(level uint8) { b.applyAFLevel(pp, level) }, func() int32 { return b.pins[pp].InVoltageMV() })
	}
}

func (b *Bank) afSelector(p int) int {
	if p < 8 {
		return int(extract(b.regs[RegAFRL], uint(4*p), 4))
	}
	return int(extract(b.regs[RegAFRH], uint(4*(p-8)), 4))
}

// arbitrate recomputes pin p's PinStatus per spec.md §4.3.1 and applies the
// unwired write-back rule to IDR. It reads the AF cell's live level, which
// is correct for the ordinary case of a single register write changing one
// thing at a time; it must not be used from inside a rapid burst of cell
// transitions (see applyAFLevel) because by the time several such calls are
// drained the cell has already settled on its final level.
func (b *Bank) arbitrate(p int) {
	af := b.afSelector(p)
	cellLevel := uint8(0)
	if cell, ok := b.afioTable.Lookup(b.portIndex, p, af); ok && cell.BoundTo(b, p) {
		cellLevel = cell.Level()
	}
	b.drive(p, cellLevel)
}

// applyAFLevel is the AFIO cell notifier installed by rebindAF. level is the
// value captured at the moment the cell transitioned, not the cell's
// current value, so that a burst of several transitions issued before the
// loop next drains (the SPI bit-clock handler toggles SCK/MOSI many times
// in one tick) replays each one to the bound pin in order instead of
// collapsing them to the final state — spec.md §5's "consistent upstream
// snapshot" guarantee.
func (b *Bank) applyAFLevel(p int, level uint8) {
	mode := extract(b.regs[RegMODER], uint(2*p), 2)
	if mode != modeAltFunc {
		return
	}
	af := b.afSelector(p)
	if cell, ok := b.afioTable.Lookup(b.portIndex, p, af); !ok || !cell.BoundTo(b, p) {
		return
	}
	b.drive(p, level)
}

// drive computes pin p's Status from the bank's static register fields
// (MODER/OTYPER/PUPDR/ODR) combined with cellLevel, the alternate-function
// cell's level to use for mode=AF (ignored otherwise), and applies it.
func (b *Bank) drive(p int, cellLevel uint8) {
	mode := extract(b.regs[RegMODER], uint(2*p), 2)
	otype := extract(b.regs[RegOTYPER], uint(p), 1)
	pupd := extract(b.regs[RegPUPDR], uint(2*p), 2)
	od := extract(b.regs[RegODR], uint(p), 1)

	st := pin.Status{}

	switch mode {
	case modeInput:
		st.Direction = pin.In
		if pupd == pullNone || pupd == pullUp {
			st.OutVoltageMV = 3300
		}
	case modePushPull:
		st.Direction = pin.Out
		applyDrivenLevel(&st, otype, od == 1, pupd)
	case modeAltFunc:
		st.Direction = pin.Out
		applyDrivenLevel(&st, otype, cellLevel == 1, pupd)
	case modeAnalog:
		st.Direction = pin.HighImpedance
	}

	b.pins[p].SetStatus(st)

	if !b.pins[p].HasExternCircuit() {
		b.syncIDRBit(p, st.OutVoltageMV)
	}
}

// applyDrivenLevel fills in the output voltage/current for a push-pull or
// open-drain driver, shared between ModePP and ModeAF (spec.md §4.3.1's
// "same rule as mode=01 but with cell.level substituted for od").
func applyDrivenLevel(st *pin.Status, otype uint32, driveHigh bool, pupd uint32) {
	if !driveHigh {
		return
	}
	if otype == 0 { // push-pull
		st.OutVoltageMV = 3300
		st.OutCurrentMA = 20
		return
	}
	// open-drain
	if pupd == pullNone || pupd == pullUp {
		st.OutVoltageMV = 3300
	}
}

// syncIDRBit sets or clears IDR bit p according to whether mv is nonzero.
func (b *Bank) syncIDRBit(p int, mv int32) {
	if mv != 0 {
		b.regs[RegIDR] |= 1 << uint(p)
	} else {
		b.regs[RegIDR] &^= 1 << uint(p)
	}
}

// writeLCKR feeds the 3-deep lock-key FIFO and latches lckrActive once the
// key sequence matches (spec.md §4.3.3). Per spec.md, LCKR writes keep
// shifting the FIFO even once active, but can never unlatch it.
func (b *Bank) writeLCKR(val uint32) {
	b.regs[RegLCKR] = val
	b.lckrSeq[2] = b.lckrSeq[1]
	b.lckrSeq[1] = b.lckrSeq[0]
	b.lckrSeq[0] = val

	if b.lckrActive {
		return
	}
	newest, mid, oldest := b.lckrSeq[0], b.lckrSeq[1], b.lckrSeq[2]
	patternOK := oldest&0x10000 == 0x10000 && mid&0x10000 == 0 && newest&0x10000 == 0x10000
	keysEqual := oldest&0xFFFF == mid&0xFFFF && mid&0xFFFF == newest&0xFFFF
	if patternOK && keysEqual {
		b.lckrActive = true
	}
}

// LckrActive reports whether the lock sequence has latched.
func (b *Bank) LckrActive() bool {
	return b.lckrActive
}

// PinFunction returns a short human-readable summary of pin n's configured
// function, in the spirit of (periph.io/x/periph/host/bcm283x.Pin).Function
// — diagnostic only, not part of the register-level contract.
func (b *Bank) PinFunction(n int) string {
	mode := extract(b.regs[RegMODER], uint(2*n), 2)
	switch mode {
	case modeInput:
		switch extract(b.regs[RegPUPDR], uint(2*n), 2) {
		case pullUp:
			return "In/PullUp"
		case pullDown:
			return "In/PullDown"
		default:
			return "In/Float"
		}
	case modePushPull:
		kind := "PP"
		if extract(b.regs[RegOTYPER], uint(n), 1) == 1 {
			kind = "OD"
		}
		level := "Low"
		if extract(b.regs[RegODR], uint(n), 1) == 1 {
			level = "High"
		}
		return fmt.Sprintf("Out/%s/%s", kind, level)
	case modeAltFunc:
		return fmt.Sprintf("<Alt%d>", b.afSelector(n))
	default:
		return "Analog"
	}
}

// extract reads a width-bit field starting at bit shift, mirroring QEMU's
// extract32 used throughout the reference register decoders.
func extract(val uint32, shift, width uint) uint32 {
	return (val >> shift) & ((1 << width) - 1)
}
