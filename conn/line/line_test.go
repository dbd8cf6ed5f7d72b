// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package line

import (
	"testing"

	"github.com/WeMakeIt1995/VEE/conn/pin"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

func resolverFor(pins map[string]*pin.Pin) Resolver {
	return func(path string) (*pin.Pin, bool) {
		p, ok := pins[path]
		return p, ok
	}
}

// TestLine_WiredAND covers spec.md's P1 invariant and scenario S2.
func TestLine_WiredAND(t *testing.T) {
	l := sched.New()
	p := pin.New(l)
	q := pin.New(l)
	line := New(resolverFor(map[string]*pin.Pin{"/p": p, "/q": q}), "/p,/q")
	if len(line.Members()) != 2 {
		t.Fatalf("Members() len = %d, want 2", len(line.Members()))
	}

	p.SetStatus(pin.Status{Direction: pin.In, OutVoltageMV: 3300})
	q.SetStatus(pin.Status{Direction: pin.In, OutVoltageMV: 3300})
	l.Drain()
	if p.InVoltageMV() != 3300 || q.InVoltageMV() != 3300 {
		t.Fatalf("both pulled up: p=%d q=%d, want 3300,3300", p.InVoltageMV(), q.InVoltageMV())
	}

	// q becomes an open-drain output pulling low.
	q.SetStatus(pin.Status{Direction: pin.Out, OutVoltageMV: 0})
	l.Drain()
	for _, members := range []*pin.Pin{p, q} {
		if v := members.InVoltageMV(); v != 0 {
			t.Fatalf("pin in_voltage_mv = %d after q pulls low, want 0", v)
		}
	}

	q.SetStatus(pin.Status{Direction: pin.Out, OutVoltageMV: 3300})
	l.Drain()
	if p.InVoltageMV() != 3300 || q.InVoltageMV() != 3300 {
		t.Fatalf("after q releases: p=%d q=%d, want 3300,3300", p.InVoltageMV(), q.InVoltageMV())
	}
}

func TestLine_SkipsUnresolvedPathAndStripsQuotes(t *testing.T) {
	l := sched.New()
	p := pin.New(l)
	line := New(resolverFor(map[string]*pin.Pin{"/p": p}), `"/p,/missing"`)
	if len(line.Members()) != 1 {
		t.Fatalf("Members() len = %d, want 1", len(line.Members()))
	}
	if !p.HasExternCircuit() {
		t.Fatal("resolved member should have HasExternCircuit set")
	}
}
