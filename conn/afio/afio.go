// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package afio implements the alternate-function I/O fabric that routes an
// on-chip peripheral's logical signal (e.g. SPI1.MOSI) onto whichever GPIO
// pin currently claims that alternate function. It is grounded on the
// reference model's static AFIO map, g_stm32f4xxAfioSocMap in
// _examples/original_source/hw/arm/stm32f4xx_gpio.c, and on the per-cell
// level/back-reference fields of STM32F4XXAFIOState in
// _examples/original_source/include/hw/misc/stm32f4xx_gpio.h.
package afio

import "github.com/WeMakeIt1995/VEE/vee/sched"

// Owner identifies the GPIO bank currently bound to a Cell. GPIO banks
// compare themselves against a Cell's recorded owner with ==, so any
// comparable value (conventionally the bank's own pointer) works; afio
// does not need to import the gpio bank package to do the comparison,
// which keeps the dependency edge one-directional.
type Owner interface{}

// Cell is one logical channel of an on-chip peripheral: a level plus a
// back-reference to the GPIO pin currently bound to it. At most one GPIO
// pin is bound to a Cell at a time (spec.md §3); rebinding releases the
// previous notifier before installing the new one.
type Cell struct {
	sched sched.Scheduler

	level uint8

	boundOwner Owner
	boundPin   int
	notifier   func(level uint8)
	sample     func() int32
}

// NewCell returns a Cell with level 0 and no binding.
func NewCell(s sched.Scheduler) *Cell {
	return &Cell{sched: s}
}

// Level returns the cell's current logical level, 0 or 1.
func (c *Cell) Level() uint8 {
	return c.level
}

// SetLevel sets the cell's logical level. It is idempotent: an unchanged
// level never schedules the notifier. The caller (an SPI master driving
// SCK/MOSI, or CR1 driving CS) is responsible for calling this only when
// it intends a real transition. The level is captured into the deferred
// call at schedule time, not re-read from the cell later: an SPI bit-clock
// burst can toggle a cell many times before the loop next drains, and
// spec.md §5 requires each of those transitions to reach the notifier in
// order, not just the final one.
func (c *Cell) SetLevel(level uint8) {
	if level != 0 {
		level = 1
	}
	if level == c.level {
		return
	}
	c.level = level
	if c.notifier != nil {
		fn, snap := c.notifier, level
		if c.sched != nil {
			c.sched.Defer(func() { fn(snap) })
		} else {
			fn(snap)
		}
	}
}

// Bind records that pin index p of owner now claims this cell, and installs
// notifier as the deferred callback run with the new level whenever it
// subsequently changes, plus sample as the accessor an input-direction
// peripheral (e.g. the SPI master reading MISO) uses to read the bound GPIO
// pin's current in_voltage_mv. Any previously installed notifier/sample is
// dropped. A GPIO bank calls this from its AFR-register write handler
// (spec.md §4.3.2).
func (c *Cell) Bind(owner Owner, p int, notifier func(level uint8), sample func() int32) {
	c.boundOwner = owner
	c.boundPin = p
	c.notifier = notifier
	c.sample = sample
}

// Sample reads the in_voltage_mv of whichever GPIO pin is currently bound to
// this cell, or 0 if nothing is bound. The SPI master's bit-clock handler
// uses this to sample AFIO.MISO (spec.md §4.4), mirroring the reference
// model's connectedGpioState/connectedGpioPin back-reference read in
// clock_handler.
func (c *Cell) Sample() int32 {
	if c.sample == nil {
		return 0
	}
	return c.sample()
}

// BoundTo reports whether owner/p is the pin currently bound to this cell.
// A GPIO bank's per-pin arbitration (spec.md §4.3.1) uses this to reject a
// stale alternate-function selection left over from before a rebind.
func (c *Cell) BoundTo(owner Owner, p int) bool {
	return c.boundOwner == owner && c.boundPin == p
}
