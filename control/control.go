// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package control implements the VEE core's control-channel surface:
// the handful of host-side operations an external tool (cmd/veemonitor,
// or a test harness) uses to read a simulated display and drive the
// virtual clock forward. It is grounded on
// _examples/original_source/hw/vee/vee-qapi.c's three QMP commands
// (vee_ssd1306_get_pixel, vee_vm_feed, vee_get_vm_time_us), adapted from
// QAPI/QMP request-response plumbing to plain Go functions and a
// callback-driven feeder, since spec.md §1 scopes control-channel
// transport out and asks only for "a small interface."
package control

import (
	"github.com/WeMakeIt1995/VEE/devices"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

// GetPixel snapshots dev's display memory, matching
// qmp_vee_ssd1306_get_pixel's (width, height, pixel-list) response shape.
// dev only needs to implement devices.Snapshotter, not be an *ssd1306.Dev
// specifically, so a future display model can resolve the same object path
// the reference QAPI command does without this package changing.
func GetPixel(dev devices.Snapshotter) (width, height int, pixels []uint32) {
	return dev.Pixels()
}

// GetVMTimeUS returns the virtual clock's current value in microseconds,
// matching qmp_vee_get_vm_time_us.
func GetVMTimeUS(clock sched.Clock) int64 {
	return clock.NowUS()
}

// tickIntervalUS is the virtual-clock period between feed ticks, matching
// vm_feed_timer_handler's hardcoded 5ms re-arm.
const tickIntervalUS = 5000

// Feeder drives a virtual-clock tick sequence, matching qmp_vee_vm_feed's
// timer: every tick but the last fires onTick with the clock's current
// time; the tick that exhausts the requested count fires onDone instead
// of onTick (mirroring vm_feed_timer_handler's
// decrement-then-check-zero order, where the terminal decrement stops the
// VM rather than emitting one more vee_vm_feed_tick_event).
type Feeder struct {
	clock     sched.Clock
	onTick    func(nowUS int64)
	onDone    func()
	remaining int64
	active    bool
}

// NewFeeder returns a Feeder bound to clock. onTick and onDone may be nil.
func NewFeeder(clock sched.Clock, onTick func(nowUS int64), onDone func()) *Feeder {
	return &Feeder{clock: clock, onTick: onTick, onDone: onDone}
}

// Feed adds count ticks to the feed sequence, matching qmp_vee_vm_feed's
// `g_vm_feed_count += count`. If no feed is currently running, it arms the
// first timer now (the original's equivalent of calling vm_resume).
// count<=0 is a no-op.
func (f *Feeder) Feed(count int64) {
	if count <= 0 {
		return
	}
	f.remaining += count
	if !f.active {
		f.active = true
		f.arm()
	}
}

// Pending reports how many ticks remain, for diagnostics.
func (f *Feeder) Pending() int64 {
	return f.remaining
}

func (f *Feeder) arm() {
	f.clock.AfterUS(tickIntervalUS, f.fire)
}

func (f *Feeder) fire() {
	f.remaining--
	if f.remaining <= 0 {
		f.active = false
		if f.onDone != nil {
			f.onDone()
		}
		return
	}
	if f.onTick != nil {
		f.onTick(f.clock.NowUS())
	}
	f.arm()
}
