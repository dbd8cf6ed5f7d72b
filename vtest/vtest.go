// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package vtest is meant to be used to test VEE core components using fake
// schedulers and recording pins, the VEE analogue of
// periph.io/x/periph/conn/gpio/gpiotest: simple, mutable fakes that let a
// test drive or observe state without a real host event loop.
package vtest

import (
	"github.com/WeMakeIt1995/VEE/conn/pin"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

// Sync is a synchronous Scheduler+Clock fake: Defer and AfterUS both run fn
// immediately rather than queueing it, for tests of a single component in
// isolation that don't care about the deferred-ordering guarantee sched.Loop
// provides across a whole wired topology (spec.md §5) and would rather skip
// the Drain()/Advance() dance.
type Sync struct {
	now int64
}

// Defer implements sched.Scheduler by calling fn immediately.
func (s *Sync) Defer(fn func()) {
	fn()
}

// NowUS implements sched.Clock.
func (s *Sync) NowUS() int64 {
	return s.now
}

// AfterUS implements sched.Clock by advancing the fake clock by us and
// calling fn immediately, synchronously.
func (s *Sync) AfterUS(us int64, fn func()) sched.Timer {
	if us < 0 {
		us = 0
	}
	s.now += us
	fn()
	return noopTimer{}
}

type noopTimer struct{}

// Cancel implements sched.Timer. Sync never defers, so there is never
// anything to cancel.
func (noopTimer) Cancel() {}

// RecordingPin observes every out-change and in-change notification fired
// for an existing *pin.Pin and appends a copy of each to its history.
// Modify the wrapped pin directly (SetStatus/SetInVoltageMV) to simulate
// hardware events; read History back to assert on what propagated.
type RecordingPin struct {
	OutHistory []pin.Status
	InHistory  []int32
}

// NewRecordingPin installs OnOutChange/OnInChange handlers on p that record
// into a new RecordingPin. It replaces any handler p already had installed.
func NewRecordingPin(p *pin.Pin) *RecordingPin {
	r := &RecordingPin{}
	p.SetOnOutChange(func(_ *pin.Pin, st pin.Status) { r.OutHistory = append(r.OutHistory, st) })
	p.SetOnInChange(func(_ *pin.Pin, mv int32) { r.InHistory = append(r.InHistory, mv) })
	return r
}
