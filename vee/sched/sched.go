// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sched declares the two scheduling primitives the VEE core asks of
// its host event loop: a bottom-half queue for deferred callbacks, and a
// monotonic microsecond clock for the SPI bit-clock timer.
//
// The core never calls a change handler synchronously from within another
// handler; it always defers through a Scheduler so that a handler mutating
// upstream state cannot reenter its own caller. This mirrors the
// conn.Conn/host.Driver split in periph.io/x/periph: the core depends only
// on these interfaces, and this package also ships the one concrete,
// single-threaded implementation (Loop) that makes the core runnable
// standalone.
package sched

// Scheduler defers a bottom-half callback to run later on the same,
// single-threaded event loop. Deferred callbacks run in the order they were
// scheduled.
type Scheduler interface {
	// Defer enqueues fn to run on a later pass of the loop, never
	// synchronously from within Defer itself.
	Defer(fn func())
}

// Clock is a monotonic, virtual microsecond clock. It never reflects wall
// time; it advances only when the loop is driven forward, exactly like
// QEMU_CLOCK_VIRTUAL in the reference device models this core is styled
// after.
type Clock interface {
	// NowUS returns the current virtual time in microseconds.
	NowUS() int64
	// AfterUS schedules fn to run once the virtual clock has advanced by at
	// least us microseconds from now. A us of 0 or less still defers fn
	// rather than invoking it synchronously.
	AfterUS(us int64, fn func()) Timer
}

// Timer is a handle to a pending AfterUS callback.
type Timer interface {
	// Cancel prevents a pending callback from firing. Canceling an already
	// fired or already canceled timer is a no-op.
	Cancel()
}
