// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sched

import "testing"

func TestLoop_DeferOrder(t *testing.T) {
	l := New()
	var order []int
	l.Defer(func() { order = append(order, 1) })
	l.Defer(func() { order = append(order, 2) })
	l.Defer(func() {
		order = append(order, 3)
		l.Defer(func() { order = append(order, 4) })
	})
	l.Drain()
	want := []int{1, 2, 3, 4}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestLoop_AfterUS(t *testing.T) {
	l := New()
	fired := false
	l.AfterUS(1, func() { fired = true })
	if fired {
		t.Fatal("timer fired before Advance")
	}
	l.Advance(1)
	if !fired {
		t.Fatal("timer did not fire after Advance")
	}
	if now := l.NowUS(); now != 1 {
		t.Fatalf("NowUS() = %d, want 1", now)
	}
}

func TestLoop_TimerCancel(t *testing.T) {
	l := New()
	fired := false
	timer := l.AfterUS(1, func() { fired = true })
	timer.Cancel()
	l.Advance(5)
	if fired {
		t.Fatal("canceled timer fired")
	}
}

func TestLoop_AdvanceDrainsBetweenTimers(t *testing.T) {
	l := New()
	var order []string
	l.AfterUS(1, func() {
		order = append(order, "timer1")
		l.Defer(func() { order = append(order, "deferred-from-timer1") })
	})
	l.AfterUS(1, func() { order = append(order, "timer2") })
	l.Advance(1)
	want := []string{"timer1", "deferred-from-timer1", "timer2"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}
