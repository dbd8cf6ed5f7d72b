// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 implements the SPI-attached side of a 128x64 monochrome
// OLED display controller: the CS-framed byte accumulator, the SSD1306
// command parser, and the GDDRAM pixel buffer. It is grounded on the
// reference device models' vee_ssd1306.c (command interpretation and
// pixel export) and vee_spi.c's cs_handler/sck_handler (CS/SCK framing),
// both under _examples/original_source/hw/arm. Unlike the reference, which
// splits this framing into a separate generic "vee-spi" slave-pin object
// that vee_ssd1306.c binds to by object path, this package owns its own
// CS/SCK/MOSI/RST/DC pins directly: the distilled spec folds the framer
// into the display controller itself (it is not a separately named module),
// and periph's own device packages never split a controller's electrical
// pins from its command logic into two objects either.
package ssd1306

import (
	"github.com/WeMakeIt1995/VEE/conn/gpio"
	"github.com/WeMakeIt1995/VEE/conn/pin"
	"github.com/WeMakeIt1995/VEE/devices"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

var _ devices.Snapshotter = (*Dev)(nil)

// AddressingMode selects how a data write walks the GDDRAM.
type AddressingMode int

// Possible memory addressing modes, set by command 0x20.
const (
	AddressingHorizontal AddressingMode = iota
	AddressingVertical
	AddressingPage
)

// Display geometry, matching the reference's VeeSsd1306Display* constants.
const (
	Width      = 128
	Pages      = 8
	PageHeight = 8
	Height     = Pages * PageHeight
)

// onColor is the pixel value written for a set bit, matching the reference's
// SSD1306_ON_COLOR.
const onColor = 0x0000ffff

// cmdBufferCap bounds the command/data byte accumulator; bytes beyond this
// are silently dropped (spec.md §7's command-buffer-overflow entry).
const cmdBufferCap = 4096

// lastCommandsCap bounds the diagnostic ring of recognized-but-inert
// commands (SPEC_FULL.md §4's supplemented extended command set).
const lastCommandsCap = 16

// Regs holds the SSD1306's control-register state, per spec.md §3.
type Regs struct {
	MemoryAddressingMode AddressingMode
	LowerColumnStart     uint8
	HigherColumnStart    uint8
	PageStart            uint8
	PageEnd              uint8
	PageSelect           uint8
	// ColumnStart/ColumnEnd are masked to 3 bits on every write, per
	// spec.md's open issue O4: the reference does this too, and is
	// "almost certainly wrong" for a 128-column-wide display, but spec.md
	// says to keep it rather than silently fix it.
	ColumnStart    uint8
	ColumnEnd      uint8
	DisplayOn      bool
	DisplayGDDRAM  bool
	DisplayInverse bool
}

// LastCommand records one recognized-but-visually-inert command byte and its
// raw argument bytes, for external diagnostics only (SPEC_FULL.md §4).
type LastCommand struct {
	Code byte
	Args []byte
}

// Dev is an SPI-attached SSD1306 display controller. It owns its own bus
// pins (CS, SCK, MOSI) and its two control pins (RST, DC); a Line wires
// each of these to whatever GPIO-bank pin an AFIO cell currently binds to
// the SPI master driving this bus.
type Dev struct {
	CS, SCK, MOSI *pin.Pin
	RST, DC       *pin.Pin

	cmdBuffer  [cmdBufferCap]byte
	cmdIdx     int
	bitsRemain uint32
	rxShift    uint32

	Regs   Regs
	GDDRAM [Width * Height]uint32

	LastCommands []LastCommand
}

// New realizes a Dev with all five pins non-driving (this slave never
// drives CS, SCK, MOSI, RST, or DC; whatever master or reset line is wired
// onto them decides their level) and calls reset to put register state in
// the same configuration vee_ssd1306_rst does at instance-init, so a
// freshly constructed display and a freshly reset one are identical by
// construction (SPEC_FULL.md §4's "reset-on-construction parity").
func New(s sched.Scheduler) *Dev {
	d := &Dev{
		CS:   pin.New(s),
		SCK:  pin.New(s),
		MOSI: pin.New(s),
		RST:  pin.New(s),
		DC:   pin.New(s),
	}
	// All five are Direction=In: this device never drives any of them. Each
	// still carries OutVoltageMV=3300 so that, wired onto a Line, it
	// contributes a weak pull-high rather than clamping the wired-AND
	// minimum to 0 before the master (or an external reset button) actively
	// drives it low — the same convention vee_spi_init and a GPIO bank's
	// own input-mode pins use.
	d.CS.SetStatus(pin.Status{Direction: pin.In, OutVoltageMV: 3300})
	d.RST.SetStatus(pin.Status{Direction: pin.In, OutVoltageMV: 3300})
	d.DC.SetStatus(pin.Status{Direction: pin.In, OutVoltageMV: 3300})
	d.SCK.SetStatus(pin.Status{Direction: pin.In, OutVoltageMV: 3300})
	d.MOSI.SetStatus(pin.Status{Direction: pin.In, OutVoltageMV: 3300})
	// Unwired, each pin reads its own pull-high as its input (so CS and RST
	// start deasserted); a Line wired onto a pin replaces this with the
	// arbitrated value. Set before the handlers are installed, so it fires
	// none of them.
	for _, p := range []*pin.Pin{d.CS, d.SCK, d.MOSI, d.RST, d.DC} {
		p.SetInVoltageMV(3300)
	}

	d.CS.SetOnInChange(func(p *pin.Pin, _ int32) { d.handleCS(p.InLevel()) })
	d.SCK.SetOnInChange(func(p *pin.Pin, _ int32) { d.handleSCK(p.InLevel()) })
	d.RST.SetOnInChange(func(p *pin.Pin, _ int32) { d.handleRST(p.InLevel()) })

	d.reset()
	return d
}

// reset reinitializes all register state and zeroes the command buffer and
// GDDRAM, matching vee_ssd1306_rst.
func (d *Dev) reset() {
	d.cmdIdx = 0
	d.bitsRemain = 0
	d.rxShift = 0
	d.Regs = Regs{MemoryAddressingMode: AddressingPage, DisplayGDDRAM: true}
	for i := range d.GDDRAM {
		d.GDDRAM[i] = 0
	}
}

// handleRST implements the reset-pin handler: a Low level (RST asserted)
// reinitializes the device, matching pin_rst_handler's
// `if (!in_voltage_mv) reset()`.
func (d *Dev) handleRST(level gpio.Level) {
	if level == gpio.Low {
		d.reset()
	}
}

// handleCS implements the CS-edge framing of spec.md §4.6: a falling edge
// (Low, CS asserted) resets the bit counter and starts a transfer; a rising
// edge (High, CS deasserted) interprets whatever accumulated in the command
// buffer.
func (d *Dev) handleCS(level gpio.Level) {
	if level == gpio.High {
		d.bitsRemain = 0
		d.interpret()
		return
	}
	d.bitsRemain = 8
	d.rxShift = 0
}

// handleSCK implements the byte-accumulation of spec.md §4.6: each
// SCK-rising edge while CS is low shifts MOSI's current level into the
// in-flight byte, MSB-first, grounded on sck_handler's rx_shift_buffer
// accumulation in vee_spi.c.
func (d *Dev) handleSCK(level gpio.Level) {
	if d.CS.InLevel() == gpio.High {
		return // CS deasserted: not our transaction.
	}
	if level == gpio.Low {
		return // only the sampling (rising) edge shifts a bit in.
	}
	if d.bitsRemain == 0 {
		return
	}
	bit := uint32(0)
	if d.MOSI.InLevel() == gpio.High {
		bit = 1
	}
	d.rxShift |= bit << (d.bitsRemain - 1)
	d.bitsRemain--

	if d.bitsRemain == 0 {
		d.appendByte(byte(d.rxShift))
		d.bitsRemain = 8
		d.rxShift = 0
	}
}

// appendByte adds b to the command buffer, dropping it silently once the
// buffer is full (spec.md §7).
func (d *Dev) appendByte(b byte) {
	if d.cmdIdx >= cmdBufferCap {
		return
	}
	d.cmdBuffer[d.cmdIdx] = b
	d.cmdIdx++
}

// interpret consumes the accumulated command buffer at CS-rising, per
// spec.md §4.6: a DC high level means the buffer is pixel data to write
// into GDDRAM under the current addressing mode; DC low means the first
// byte is an SSD1306 command. Grounded on
// vee_spi_transmit_stop_handler's do/while(0) dispatch.
func (d *Dev) interpret() {
	defer func() { d.cmdIdx = 0 }()
	if d.cmdIdx == 0 {
		return
	}
	buf := d.cmdBuffer[:d.cmdIdx]
	if d.DC.InLevel() == gpio.High {
		d.writeGDDRAM(buf)
		return
	}
	d.runCommand(buf)
}

// writeGDDRAM walks buf according to the current addressing mode, writing
// each byte as 8 vertical pixels, per spec.md §4.6's three addressing-mode
// mappings.
func (d *Dev) writeGDDRAM(buf []byte) {
	switch d.Regs.MemoryAddressingMode {
	case AddressingHorizontal:
		idx := 0
		for page := int(d.Regs.PageStart); page < int(d.Regs.PageEnd) && idx < len(buf); page++ {
			for col := int(d.Regs.ColumnStart); col < int(d.Regs.ColumnEnd) && idx < len(buf); col++ {
				d.writeColumnByte(page, col, buf[idx])
				idx++
			}
		}
	case AddressingVertical:
		idx := 0
		for col := int(d.Regs.ColumnStart); col < int(d.Regs.ColumnEnd) && idx < len(buf); col++ {
			for page := int(d.Regs.PageStart); page < int(d.Regs.PageEnd) && idx < len(buf); page++ {
				d.writeColumnByte(page, col, buf[idx])
				idx++
			}
		}
	case AddressingPage:
		colStart := int(d.Regs.HigherColumnStart&0xf)<<4 | int(d.Regs.LowerColumnStart)
		idx := 0
		for col := colStart; col < Width && idx < len(buf); col++ {
			d.writeColumnByte(int(d.Regs.PageSelect), col, buf[idx])
			idx++
		}
	}
}

// writeColumnByte writes one byte as 8 vertical pixels at (col, page*8..+7),
// bit k of b giving row page*8+k.
func (d *Dev) writeColumnByte(page, col int, b byte) {
	for k := 0; k < PageHeight; k++ {
		row := page*PageHeight + k
		v := uint32(0)
		if b>>uint(k)&1 != 0 {
			v = onColor
		}
		d.GDDRAM[row*Width+col] = v
	}
}

// runCommand interprets buf[0] (and any trailing argument bytes) as an
// SSD1306 command, per spec.md §4.6's table. Ranges the distilled spec
// doesn't assign pixel-affecting behavior to, but which the reference
// recognizes as structurally valid, are recorded into LastCommands instead
// of falling through the unknown-command tolerance (SPEC_FULL.md §4).
func (d *Dev) runCommand(buf []byte) {
	code := buf[0]
	args := buf[1:]
	switch {
	case code <= 0x0f:
		d.Regs.LowerColumnStart = code & 0xf
	case code >= 0x10 && code <= 0x1f:
		d.Regs.HigherColumnStart = code & 0xf
	case code == 0x20:
		if len(args) >= 1 {
			d.Regs.MemoryAddressingMode = AddressingMode(args[0] & 0x3)
		}
	case code == 0x21:
		if len(args) >= 1 {
			d.Regs.ColumnStart = args[0] & 0x7
		}
		if len(args) >= 2 {
			d.Regs.ColumnEnd = args[1] & 0x7
		}
	case code == 0x22:
		if len(args) >= 1 {
			d.Regs.PageStart = args[0] & 0x7
		}
		if len(args) >= 2 {
			d.Regs.PageEnd = args[1] & 0x7
		}
	case code == 0xa4 || code == 0xa5:
		d.Regs.DisplayGDDRAM = code == 0xa4
	case code == 0xa6 || code == 0xa7:
		d.Regs.DisplayInverse = code != 0xa6
	case code == 0xae || code == 0xaf:
		d.Regs.DisplayOn = code == 0xaf
	case code >= 0xb0 && code <= 0xb7:
		d.Regs.PageSelect = code & 0x7
	case isSupplementedCommand(code):
		d.recordLastCommand(code, args)
	}
	// Anything else is an unknown command, tolerated silently (spec.md §7).
}

// isSupplementedCommand reports whether code falls in one of the extended
// ranges original_source/hw/arm/vee_ssd1306.c defines but the distilled
// spec's §4.6 table omits (SPEC_FULL.md §4): display start line, contrast
// control, segment remap, multiplex ratio, display offset, clock divide
// ratio, pre-charge period, COM pins config, VCOMH level, NOP, and the
// scroll setup/activate/deactivate family.
func isSupplementedCommand(code byte) bool {
	switch {
	case code >= 0x40 && code <= 0x7f: // display start line
		return true
	case code == 0x81: // contrast control
		return true
	case code >= 0xa0 && code <= 0xa1: // segment remap
		return true
	case code == 0xa8: // multiplex ratio
		return true
	case code == 0xd3: // display offset
		return true
	case code == 0xd5: // clock divide ratio
		return true
	case code == 0xd9: // pre-charge period
		return true
	case code == 0xda: // COM pins hardware config
		return true
	case code == 0xdb: // VCOMH deselect level
		return true
	case code == 0xe3: // NOP
		return true
	case code >= 0x26 && code <= 0x27: // horizontal scroll setup
		return true
	case code >= 0x29 && code <= 0x2a: // continuous scroll setup
		return true
	case code >= 0x2e && code <= 0x2f: // deactivate/activate scroll
		return true
	case code == 0xa3: // vertical scroll area
		return true
	}
	return false
}

// recordLastCommand appends to the bounded diagnostic ring, dropping the
// oldest entry once full.
func (d *Dev) recordLastCommand(code byte, args []byte) {
	cp := make([]byte, len(args))
	copy(cp, args)
	d.LastCommands = append(d.LastCommands, LastCommand{Code: code, Args: cp})
	if len(d.LastCommands) > lastCommandsCap {
		d.LastCommands = d.LastCommands[len(d.LastCommands)-lastCommandsCap:]
	}
}

// Pixels produces a (width, height, pixels) snapshot, per spec.md §6's
// control-channel contract: pixels is in column-major order (width outer,
// height inner), matching the reference exporter's walk order (spec.md's
// open issue O3, kept as specified). When the display is off, every pixel
// is 0; when on but not showing GDDRAM, every pixel is the on-color;
// otherwise GDDRAM is copied, XORed with the on-color when DisplayInverse
// is set — the one open issue (O2) spec.md explicitly authorizes fixing,
// since the reference's inverse path is a no-op bug.
func (d *Dev) Pixels() (width, height int, pixels []uint32) {
	pixels = make([]uint32, Width*Height)
	if !d.Regs.DisplayOn {
		return Width, Height, pixels
	}
	if !d.Regs.DisplayGDDRAM {
		for i := range pixels {
			pixels[i] = onColor
		}
		return Width, Height, pixels
	}
	for col := 0; col < Width; col++ {
		for row := 0; row < Height; row++ {
			v := d.GDDRAM[row*Width+col]
			if d.Regs.DisplayInverse {
				v ^= onColor
			}
			pixels[col*Height+row] = v
		}
	}
	return Width, Height, pixels
}
