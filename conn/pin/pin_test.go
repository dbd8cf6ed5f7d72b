// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pin

import (
	"testing"

	"github.com/WeMakeIt1995/VEE/conn/gpio"
	"github.com/WeMakeIt1995/VEE/conn/physic"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

func TestPin_DefaultsToHighImpedance(t *testing.T) {
	l := sched.New()
	p := New(l)
	if p.Direction() != HighImpedance {
		t.Fatalf("Direction() = %v, want HighImpedance", p.Direction())
	}
	if p.OutVoltageMV() != 0 || p.InVoltageMV() != 0 {
		t.Fatal("new pin should read 0V on both sides")
	}
}

func TestPin_SetStatusIsIdempotent(t *testing.T) {
	l := sched.New()
	p := New(l)
	fired := 0
	p.SetOnOutChange(func(*Pin, Status) { fired++ })

	p.SetStatus(Status{Direction: Out, OutVoltageMV: 3300})
	l.Drain()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	p.SetStatus(Status{Direction: Out, OutVoltageMV: 3300})
	l.Drain()
	if fired != 1 {
		t.Fatalf("fired = %d after repeat write, want still 1", fired)
	}

	p.SetStatus(Status{Direction: Out, OutVoltageMV: 0})
	l.Drain()
	if fired != 2 {
		t.Fatalf("fired = %d after real change, want 2", fired)
	}
}

func TestPin_SetInVoltageIsIdempotentAndDeferred(t *testing.T) {
	l := sched.New()
	p := New(l)
	var seen []int32
	p.SetOnInChange(func(_ *Pin, mv int32) { seen = append(seen, mv) })

	p.SetInVoltageMV(3300)
	if len(seen) != 0 {
		t.Fatal("handler must not fire synchronously")
	}
	l.Drain()
	if len(seen) != 1 || seen[0] != 3300 {
		t.Fatalf("seen = %v, want [3300]", seen)
	}

	p.SetInVoltageMV(3300)
	l.Drain()
	if len(seen) != 1 {
		t.Fatalf("seen = %v, unchanged value should not refire", seen)
	}

	p.SetInVoltageMV(0)
	l.Drain()
	if len(seen) != 2 || seen[1] != 0 {
		t.Fatalf("seen = %v, want [3300 0]", seen)
	}
}

// TestPin_SetStatusDeliversEachHistoricalSnapshot pins the "consistent
// upstream snapshot" guarantee of spec.md §5: a burst of several SetStatus
// calls made before the loop next drains must deliver each intermediate
// value to the handler, not just the final one.
func TestPin_SetStatusDeliversEachHistoricalSnapshot(t *testing.T) {
	l := sched.New()
	p := New(l)
	var seen []int32
	p.SetOnOutChange(func(_ *Pin, st Status) { seen = append(seen, st.OutVoltageMV) })

	for _, mv := range []int32{3300, 0, 3300, 0} {
		p.SetStatus(Status{Direction: Out, OutVoltageMV: mv})
	}
	l.Drain()

	want := []int32{3300, 0, 3300, 0}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestPin_LevelAndVoltageHelpers(t *testing.T) {
	l := sched.New()
	p := New(l)

	if p.InLevel() != gpio.Low || p.OutLevel() != gpio.Low {
		t.Fatal("a fresh pin should read Low on both sides")
	}

	p.SetStatus(Status{Direction: Out, OutVoltageMV: 3300})
	l.Drain()
	if p.OutLevel() != gpio.High {
		t.Fatalf("OutLevel() = %v, want High", p.OutLevel())
	}
	if got, want := p.OutVoltage(), 3300*physic.MilliVolt; got != want {
		t.Fatalf("OutVoltage() = %v, want %v", got, want)
	}

	p.SetInVoltageMV(3300)
	l.Drain()
	if p.InLevel() != gpio.High {
		t.Fatalf("InLevel() = %v, want High", p.InLevel())
	}
	if got, want := p.InVoltage(), 3300*physic.MilliVolt; got != want {
		t.Fatalf("InVoltage() = %v, want %v", got, want)
	}
}
