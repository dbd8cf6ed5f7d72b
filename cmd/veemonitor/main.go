// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// veemonitor wires a GPIO bank, an SPI master, and an SSD1306 slave into one
// simulated bus, drives a short demo sequence across it, and renders the
// resulting display snapshot to the terminal using ANSI color blocks,
// exactly the role periph-extra/devices/screen.Dev plays for an LED strip:
// local visualization while the real hardware is out of reach.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/WeMakeIt1995/VEE/conn/afio"
	"github.com/WeMakeIt1995/VEE/conn/line"
	"github.com/WeMakeIt1995/VEE/conn/pin"
	"github.com/WeMakeIt1995/VEE/control"
	"github.com/WeMakeIt1995/VEE/devices/ssd1306"
	"github.com/WeMakeIt1995/VEE/devices/ssd1306/image1bit"
	"github.com/WeMakeIt1995/VEE/host/stm32f4xx"
	"github.com/WeMakeIt1995/VEE/vee/mmio"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

// bus wires together the simulated topology a veemonitor session drives: a
// GPIO bank and SPI master, alternate-function bound to an SSD1306 over
// CS/SCK/MOSI, with DC and RST as ordinary push-pull GPIO outputs.
type bus struct {
	loop *sched.Loop
	bank *stm32f4xx.Bank
	spi  *stm32f4xx.SPI
	dev  *ssd1306.Dev
}

// Pin assignments on the PA bank, arbitrary but consistent with the AFIO
// table's real SPI1 mapping (conn/afio.Table).
const (
	pinCS   = 4
	pinSCK  = 5
	pinMOSI = 7
	pinDC   = 0
	pinRST  = 1
)

func newBus() *bus {
	l := sched.New()
	tbl := afio.NewTable(l)
	bank := stm32f4xx.NewBank(l, tbl, mmio.NullRegistrar{}, stm32f4xx.BankOpts{PortIndex: 0})
	spi := stm32f4xx.NewSPI(l, tbl, mmio.NullRegistrar{}, stm32f4xx.SPIOpts{})
	dev := ssd1306.New(l)

	afrl := uint32(5)<<(4*pinCS) | uint32(5)<<(4*pinSCK) | uint32(5)<<(4*pinMOSI)
	bank.WriteAt(stm32f4xx.RegAFRL*4, afrl)

	const (
		modeInput    = 0
		modePushPull = 1
		modeAltFunc  = 2
	)
	moder := uint32(modeAltFunc)<<(2*pinCS) | uint32(modeAltFunc)<<(2*pinSCK) | uint32(modeAltFunc)<<(2*pinMOSI)
	moder |= uint32(modePushPull)<<(2*pinDC) | uint32(modePushPull)<<(2*pinRST)
	bank.WriteAt(stm32f4xx.RegMODER*4, moder)
	// RST idle-high (not asserted); DC idle-low (command mode) until a
	// caller raises it for a data write.
	bank.WriteAt(stm32f4xx.RegODR*4, uint32(1)<<pinRST)

	resolver := func(path string) (*pin.Pin, bool) {
		switch path {
		case "cs":
			return bank.Pin(pinCS), true
		case "sck":
			return bank.Pin(pinSCK), true
		case "mosi":
			return bank.Pin(pinMOSI), true
		case "dc":
			return bank.Pin(pinDC), true
		case "rst":
			return bank.Pin(pinRST), true
		case "dev.cs":
			return dev.CS, true
		case "dev.sck":
			return dev.SCK, true
		case "dev.mosi":
			return dev.MOSI, true
		case "dev.dc":
			return dev.DC, true
		case "dev.rst":
			return dev.RST, true
		}
		return nil, false
	}
	line.New(resolver, "cs,dev.cs")
	line.New(resolver, "sck,dev.sck")
	line.New(resolver, "mosi,dev.mosi")
	line.New(resolver, "dc,dev.dc")
	line.New(resolver, "rst,dev.rst")
	l.Drain()

	return &bus{loop: l, bank: bank, spi: spi, dev: dev}
}

// setDC drives the DC GPIO pin directly: high selects pixel data, low
// selects a command byte, matching spec.md §4.6's framing rule.
func (b *bus) setDC(data bool) {
	od := uint32(0)
	if data {
		od = 1 << pinDC
	}
	rst := b.bank.ReadAt(stm32f4xx.RegODR * 4) & (1 << pinRST)
	b.bank.WriteAt(stm32f4xx.RegODR*4, od|rst)
}

// transmit sends bs over the SPI master using software NSS (CR1 SSM/SSI)
// to frame CS around the whole burst, one byte at a time: clockHandler
// drains an entire byte's bits within a single Advance, so there is no
// need to poll BSY between bytes.
func (b *bus) transmit(bs []byte) {
	const cr1Base = 1<<6 | 1<<9 // SPE | SSM
	b.spi.WriteAt(stm32f4xx.RegCR1*4, cr1Base) // SSI=0: CS asserted
	b.loop.Drain()
	for _, by := range bs {
		b.spi.WriteAt(stm32f4xx.RegDR*4, uint32(by))
		b.loop.Advance(1)
	}
	b.spi.WriteAt(stm32f4xx.RegCR1*4, cr1Base|1<<8) // SSI=1: CS deasserted
	b.loop.Drain()
}

func (b *bus) sendCommand(bs ...byte) {
	b.setDC(false)
	b.transmit(bs)
}

func (b *bus) sendData(bs ...byte) {
	b.setDC(true)
	b.transmit(bs)
}

// runDemo turns the display on and paints a vertical-stripe test pattern
// into page 0, the same shape of interaction spec.md's scenario S4 drives.
func (b *bus) runDemo() {
	b.sendCommand(0xAF)              // display on
	b.sendCommand(0x22, 0x00, 0x07)  // page_start=0, page_end=7
	b.sendCommand(0x21, 0x00, 0x7F)  // column_start=0, column_end=127 (masked to 3 bits, O4)
	b.sendCommand(0xB0)              // page_select=0
	stripe := make([]byte, ssd1306.Width)
	for i := range stripe {
		if i%2 == 0 {
			stripe[i] = 0xFF
		}
	}
	b.sendData(stripe...)
}

// render draws the current display snapshot to w as a grid of ANSI color
// blocks, one per pixel, built through image1bit.FromPixels so the same
// column-major packing ssd1306.Dev.Pixels exports is walked on the read
// side the way image1bit.Image.Set walks it on the write side. Falls back
// to a plain ASCII grid when w is not a terminal, the defensive TTY check
// periph-extra's own tooling uses before emitting color codes.
func render(w io.Writer, isTerminal bool, width, height int, pixels []uint32) error {
	img, err := image1bit.FromPixels(width, height, pixels)
	if err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			on := img.AtBit(x, y) == image1bit.On
			if !isTerminal {
				ch := byte(' ')
				if on {
					ch = '#'
				}
				_, _ = fmt.Fprintf(w, "%c", ch)
				continue
			}
			c := color.NRGBA{A: 255}
			if on {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			_, _ = io.WriteString(w, ansi256.Default.Block(c))
		}
		if isTerminal {
			_, _ = io.WriteString(w, "\033[0m")
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}

func main() {
	frames := flag.Int("frames", 4, "number of frames to render after the demo sequence")
	interval := flag.Duration("interval", 200*time.Millisecond, "wall-clock pause between rendered frames")
	verbose := flag.Bool("verbose", false, "print the CS line's rail voltage before each frame")
	flag.Parse()

	b := newBus()
	b.runDemo()

	out := colorable.NewColorableStdout()
	isTerminal := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	feeder := control.NewFeeder(b.loop, func(int64) {}, nil)
	for i := 0; i < *frames; i++ {
		feeder.Feed(1)
		b.loop.Advance(5000)

		if *verbose {
			fmt.Fprintf(os.Stderr, "frame %d: CS rail %s\n", i, b.dev.CS.InVoltage())
		}
		fmt.Fprintf(out, "-- frame %d --\n", i)
		width, height, pixels := control.GetPixel(b.dev)
		if err := render(out, isTerminal, width, height, pixels); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		time.Sleep(*interval)
	}
}
