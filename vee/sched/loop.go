// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sched

import (
	"container/list"
	"sync"
)

// Loop is a single-threaded, cooperative event loop: the one concrete
// Scheduler/Clock pair the VEE core runs against standalone. It is not
// safe for concurrent use from multiple goroutines; the core assumes a
// single host event loop serializes every callback, exactly as spec'd for
// the reference device models (one OS thread, no locks held across a
// callback boundary).
type Loop struct {
	mu       sync.Mutex
	now      int64
	deferred list.List
	timers   list.List
}

// New returns a Loop with its virtual clock at 0.
func New() *Loop {
	return &Loop{}
}

type timerEntry struct {
	due      int64
	fn       func()
	canceled bool
}

// Defer implements Scheduler.
func (l *Loop) Defer(fn func()) {
	l.mu.Lock()
	l.deferred.PushBack(fn)
	l.mu.Unlock()
}

// NowUS implements Clock.
func (l *Loop) NowUS() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// AfterUS implements Clock.
func (l *Loop) AfterUS(us int64, fn func()) Timer {
	if us < 0 {
		us = 0
	}
	l.mu.Lock()
	e := &timerEntry{due: l.now + us, fn: fn}
	elem := l.timers.PushBack(e)
	l.mu.Unlock()
	return &timerHandle{l: l, elem: elem}
}

type timerHandle struct {
	l    *Loop
	elem *list.Element
}

// Cancel implements Timer.
func (h *timerHandle) Cancel() {
	h.l.mu.Lock()
	if e, ok := h.elem.Value.(*timerEntry); ok {
		e.canceled = true
	}
	h.l.mu.Unlock()
}

// Drain runs every deferred callback currently queued, including ones
// scheduled by callbacks that ran earlier in the same Drain, until the
// queue is empty.
func (l *Loop) Drain() {
	for {
		l.mu.Lock()
		front := l.deferred.Front()
		if front == nil {
			l.mu.Unlock()
			return
		}
		l.deferred.Remove(front)
		l.mu.Unlock()
		front.Value.(func())()
	}
}

// Advance moves the virtual clock forward by us microseconds, firing every
// timer whose due time has now been reached (oldest first) and draining the
// deferred queue after each one, so a timer callback's own deferred work
// completes before the next timer fires.
func (l *Loop) Advance(us int64) {
	l.mu.Lock()
	l.now += us
	target := l.now
	l.mu.Unlock()

	for {
		l.mu.Lock()
		var due *list.Element
		for e := l.timers.Front(); e != nil; e = e.Next() {
			te := e.Value.(*timerEntry)
			if te.canceled {
				continue
			}
			if te.due <= target {
				due = e
				break
			}
		}
		if due == nil {
			l.mu.Unlock()
			return
		}
		te := due.Value.(*timerEntry)
		l.timers.Remove(due)
		l.mu.Unlock()

		te.fn()
		l.Drain()
	}
}
