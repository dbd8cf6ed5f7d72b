// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package stm32f4xx

import (
	"fmt"

	"github.com/WeMakeIt1995/VEE/conn/afio"
	"github.com/WeMakeIt1995/VEE/vee/mmio"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

// Word offsets into an SPI master's nine-register file, per spec.md §6's
// byte offsets (CR1=0x00, ..., I2SPR=0x20) divided by 4.
const (
	RegCR1 = iota
	RegCR2
	RegSR
	RegDR
	RegCRCPR
	RegRxCRCR
	RegTxCRCR
	RegI2SCFGR
	RegI2SPR
	numSPIRegs
)

// CR1 bit positions, matching the reference model's CR1Fields bitfield
// (_examples/original_source/hw/arm/vee_stm32f4xx_spi.c).
const (
	cr1CPHA = 1 << 0
	cr1CPOL = 1 << 1
	cr1MSTR = 1 << 2
	// bits 3-5 are BR, unused by this core.
	cr1SPE      = 1 << 6
	cr1LSBFirst = 1 << 7
	cr1SSI      = 1 << 8
	cr1SSM      = 1 << 9
	cr1RxOnly   = 1 << 10
	cr1DFF      = 1 << 11
)

// SR bit positions, matching SRFields.
const (
	srRXNE = 1 << 0
	srTXE  = 1 << 1
	srBSY  = 1 << 7
)

// spiBitClockUS is the fixed one-tick delay between a DR write that starts a
// transfer and the bit-clock handler draining it, per spec.md §4.4.
const spiBitClockUS = 1

// SPIOpts configures an SPI master at construction.
type SPIOpts struct {
	// PortIndex names this master's MMIO registration ("spi<n>"). It does
	// not select AFIO cells: every master claims the AFIO table's SPI1
	// cells, whatever the value.
	PortIndex uint32
}

// transferStatus mirrors the reference model's anonymous transmitStatus
// struct: in-flight shift state that never crosses the register boundary.
type transferStatus struct {
	bitsRemain    uint32
	txData        uint32
	rxData        uint32
	txBuffer      uint32
	txBufferValid bool
}

// SPI is a memory-mapped SPI master: the SR/DR handshake seen by the guest,
// plus the bit-shift state machine that drives AFIO.SCK/MOSI and samples
// AFIO.MISO, grounded on stm32f4xx_spi_write/clock_handler in
// vee_stm32f4xx_spi.c. Per spec.md §3, a master does not own electrical
// pins of its own; it holds direct references to its four AFIO cells,
// exactly as the reference model's afio_cs/afio_sck/afio_miso/afio_mosi
// fields do.
type SPI struct {
	clock sched.Clock

	portIndex int
	cs, sck, miso, mosi *afio.Cell

	regs  [numSPIRegs]uint32
	xfer  transferStatus
	timer sched.Timer
}

// NewSPI realizes an SPI master at reset values (SR=0x2 i.e. TXE set and BSY
// clear, I2SPR=0x2, CRCPR=0x7, all else zero), claiming the AFIO table's
// SPI1 cells with CS and MOSI idle-high and SCK idle-low. The MISO cell's
// level is left as it is.
func NewSPI(clock sched.Clock, afioTable *afio.Table, reg mmio.Registrar, opts SPIOpts) *SPI {
	m := &SPI{
		clock:     clock,
		portIndex: int(opts.PortIndex),
		cs:        afioTable.SPI1.CS,
		sck:       afioTable.SPI1.SCK,
		miso:      afioTable.SPI1.MISO,
		mosi:      afioTable.SPI1.MOSI,
	}
	m.regs[RegSR] = srTXE
	m.regs[RegI2SPR] = 0x2
	m.regs[RegCRCPR] = 0x7

	m.cs.SetLevel(1)
	m.sck.SetLevel(0)
	m.mosi.SetLevel(1)

	if reg != nil {
		_, _ = reg.Register(fmt.Sprintf("spi%d", m.portIndex), MMIOWindowBytes, m)
	}
	return m
}

// ReadAt implements mmio.Region. Reading DR atomically clears RXNE, per
// spec.md §4.4.
func (m *SPI) ReadAt(offset uint32) uint32 {
	idx := offset / 4
	if idx >= numSPIRegs {
		return 0
	}
	if idx == RegDR {
		m.regs[RegSR] &^= srRXNE
	}
	return m.regs[idx]
}

// WriteAt implements mmio.Region and is the register-write decoder of
// spec.md §4.4.
func (m *SPI) WriteAt(offset uint32, val uint32) {
	idx := offset / 4
	switch idx {
	case RegCR1:
		m.writeCR1(val)
	case RegCR2:
		m.regs[RegCR2] = val
	case RegSR:
		// Read-only status; writes ignored.
	case RegDR:
		m.writeDR(val)
	case RegCRCPR, RegRxCRCR, RegTxCRCR, RegI2SCFGR, RegI2SPR:
		m.regs[idx] = val
	}
}

// writeCR1 implements spec.md §4.4's CR1 write rule: on SPE falling edge,
// zero the transfer status; on any write that leaves SPE and SSM set, drive
// CS from SSI immediately.
func (m *SPI) writeCR1(val uint32) {
	wasSPE := m.regs[RegCR1]&cr1SPE != 0
	m.regs[RegCR1] = val
	isSPE := val&cr1SPE != 0

	if wasSPE && !isSPE {
		m.xfer = transferStatus{}
		return
	}
	if isSPE && val&cr1SSM != 0 {
		level := uint8(0)
		if val&cr1SSI != 0 {
			level = 1
		}
		m.cs.SetLevel(level)
	}
}

// writeDR implements spec.md §4.4's DR write rule: gated by SPE=1 and TXE=1;
// starts a transfer if idle, else stages the next byte behind the in-flight
// one.
func (m *SPI) writeDR(val uint32) {
	if m.regs[RegCR1]&cr1SPE == 0 {
		return
	}
	if m.regs[RegSR]&srTXE == 0 {
		return
	}

	if m.regs[RegSR]&srBSY == 0 {
		m.regs[RegSR] |= srBSY
		m.xfer.txData = val & 0xFFFF
		m.xfer.bitsRemain = m.frameBits()
		m.timer = m.clock.AfterUS(spiBitClockUS, m.clockHandler)
		return
	}

	m.regs[RegSR] &^= srTXE
	m.xfer.txBuffer = val & 0xFFFF
	m.xfer.txBufferValid = true
}

func (m *SPI) frameBits() uint32 {
	if m.regs[RegCR1]&cr1DFF != 0 {
		return 16
	}
	return 8
}

// clockHandler is the bit-clock handler of spec.md §4.4: it drains the
// entire bitsRemain count in one invocation, toggling SCK between a
// shift-out phase (SCK low) and a sampling phase (SCK high), grounded on
// clock_handler's while loop in vee_stm32f4xx_spi.c. AFIO cell levels are
// set directly; any bound GPIO pin re-arbitrates via the cell's deferred
// notifier once this handler returns.
func (m *SPI) clockHandler() {
	if m.regs[RegSR]&srBSY == 0 {
		return
	}

	for m.xfer.bitsRemain > 0 {
		if m.sck.Level() == 1 {
			bit := int32(0)
			if m.miso.Sample() != 0 {
				bit = 1
			}
			m.xfer.rxData |= uint32(bit) << (m.xfer.bitsRemain - 1)
			m.xfer.bitsRemain--

			if m.xfer.bitsRemain == 0 {
				if m.xfer.txBufferValid {
					m.xfer.txBufferValid = false
					m.xfer.txData = m.xfer.txBuffer
					m.xfer.bitsRemain = m.frameBits()
					m.regs[RegSR] |= srTXE
				} else {
					m.regs[RegSR] &^= srBSY
				}
				m.regs[RegDR] = m.xfer.rxData
				m.xfer.rxData = 0
				m.regs[RegSR] |= srRXNE
			}
		} else {
			bit := (m.xfer.txData >> (m.xfer.bitsRemain - 1)) & 1
			m.mosi.SetLevel(uint8(bit))
		}
		m.sck.SetLevel(1 - m.sck.Level())
	}
}
