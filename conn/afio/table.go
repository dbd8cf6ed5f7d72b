// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package afio

import "github.com/WeMakeIt1995/VEE/vee/sched"

// Per spec.md §1's Non-goals, only SPI1's CS/SCK/MISO/MOSI and I2C1's
// SCL/SDA populate the table; AF5 routes the SPI1 signals, AF4 routes I2C1,
// exactly as g_stm32f4xxAfioSocMap lays them out in
// _examples/original_source/hw/arm/stm32f4xx_gpio.c.
const (
	afSPI1 = 5
	afI2C1 = 4
)

// SPIGroup is the four AFIO cells belonging to one SPI instance.
type SPIGroup struct {
	CS, SCK, MISO, MOSI *Cell
}

// I2CGroup is the two AFIO cells belonging to one I2C instance.
type I2CGroup struct {
	SCL, SDA *Cell
}

// Table is the process-wide, statically-shaped AFIO fabric: which cells
// exist is fixed at construction (one real device would build exactly one
// of these at startup), but each cell's binding to a GPIO pin is mutable.
// Three GPIO ports are modeled, PA/PB/PC (indices 0/1/2), matching the
// reference SoC map.
type Table struct {
	SPI1 SPIGroup
	I2C1 I2CGroup

	// byPortPinAF[port][pin][af] is the cell, if any, that alternate
	// function af on (port, pin) routes to.
	byPortPinAF [3][16][16]*Cell
}

// NewTable builds the fixed SPI1/I2C1 cell set, wired into the PA/PB/PC
// alternate-function slots the reference SoC map populates, and returns it
// ready for GPIO banks to bind against.
func NewTable(s sched.Scheduler) *Table {
	t := &Table{
		SPI1: SPIGroup{CS: NewCell(s), SCK: NewCell(s), MISO: NewCell(s), MOSI: NewCell(s)},
		I2C1: I2CGroup{SCL: NewCell(s), SDA: NewCell(s)},
	}

	const pa, pb = 0, 1

	t.byPortPinAF[pa][4][afSPI1] = t.SPI1.CS
	t.byPortPinAF[pa][5][afSPI1] = t.SPI1.SCK
	t.byPortPinAF[pa][6][afSPI1] = t.SPI1.MISO
	t.byPortPinAF[pa][7][afSPI1] = t.SPI1.MOSI
	t.byPortPinAF[pa][15][afSPI1] = t.SPI1.CS

	t.byPortPinAF[pb][3][afSPI1] = t.SPI1.SCK
	t.byPortPinAF[pb][4][afSPI1] = t.SPI1.MISO
	t.byPortPinAF[pb][5][afSPI1] = t.SPI1.MOSI
	t.byPortPinAF[pb][6][afI2C1] = t.I2C1.SDA
	t.byPortPinAF[pb][7][afI2C1] = t.I2C1.SCL
	t.byPortPinAF[pb][8][afI2C1] = t.I2C1.SDA
	t.byPortPinAF[pb][9][afI2C1] = t.I2C1.SCL

	return t
}

// Lookup returns the cell (if any) that alternate function af on the given
// (port, pin) routes to. port and pin out of the modeled range always miss.
func (t *Table) Lookup(port, pin, af int) (*Cell, bool) {
	if port < 0 || port >= len(t.byPortPinAF) {
		return nil, false
	}
	if pin < 0 || pin >= len(t.byPortPinAF[port]) {
		return nil, false
	}
	if af < 0 || af >= len(t.byPortPinAF[port][pin]) {
		return nil, false
	}
	c := t.byPortPinAF[port][pin][af]
	return c, c != nil
}
