// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package line implements the electrical wire that joins two or more Pins
// and performs wired-AND arbitration over them. It is grounded on the
// reference device model's vee_line object
// (_examples/original_source/hw/arm/vee_line.c), in particular
// vee_pin_out_state_change_handler's min-voltage scan and its
// dev_realize's comma-separated path resolution with quote stripping.
package line

import (
	"log"
	"strings"

	"github.com/WeMakeIt1995/VEE/conn/pin"
)

// Resolver looks up a pin by its canonical object path. A registry package
// (the VEE analogue of periph.io's conn/gpio/gpioreg) is the conventional
// implementer; tests can supply a plain map-backed func.
type Resolver func(path string) (*pin.Pin, bool)

// Line is a wire joining a set of Pins. It holds non-owning references;
// pins are owned by whatever GPIO bank, SPI master, or SSD1306 created them
// (spec.md §9, "Ownership of lines").
type Line struct {
	members []*pin.Pin
	// last holds each member's most recently observed OutVoltageMV, indexed
	// in parallel with members. It is updated only from the snapshot carried
	// by a member's own OnOutChange notification, never by re-reading the
	// pin live: several notifications for the same pin can already be
	// queued by the time the line drains (an SPI burst toggles one pin many
	// times in a single tick), and by then the pin's live value has already
	// moved on to its final state. Using the snapshot lets arbitrate replay
	// every historical transition in order instead of collapsing them.
	last []int32
}

// New resolves pathList (comma-separated canonical pin paths, optionally
// wrapped in matching single or double quotes) through resolve, marks each
// resolved pin HasExternCircuit, and installs the wired-AND handler on it.
// A path that fails to resolve is logged and skipped, per spec.md §7's
// "malformed pin path" error taxonomy entry: the Line realizes with
// whatever membership it could resolve rather than failing outright.
func New(resolve Resolver, pathList string) *Line {
	l := &Line{}
	pathList = trimMatchingQuotes(pathList)
	if pathList == "" {
		return l
	}
	for _, raw := range strings.Split(pathList, ",") {
		p, ok := resolve(raw)
		if !ok {
			log.Printf("line: could not resolve pin path %q, skipping", raw)
			continue
		}
		p.SetHasExternCircuit(true)
		l.members = append(l.members, p)
		l.last = append(l.last, p.OutVoltageMV())
	}
	for i, p := range l.members {
		idx := i
		p.SetOnOutChange(func(_ *pin.Pin, st pin.Status) { l.arbitrate(idx, st.OutVoltageMV) })
	}
	// Apply the wired-AND minimum immediately so spec.md §8's P1 invariant
	// holds right after construction too, not only after the first member
	// transition following it.
	if len(l.members) > 0 {
		min := l.last[0]
		for _, v := range l.last[1:] {
			if v < min {
				min = v
			}
		}
		for _, p := range l.members {
			p.SetInVoltageMV(min)
		}
	}
	return l
}

// trimMatchingQuotes strips one layer of surrounding single or double
// quotes, exactly as the reference model's vee_str_trim calls do for both
// quote characters in sequence.
func trimMatchingQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []byte{'\'', '"'} {
		if len(s) >= 2 && s[0] == q && s[len(s)-1] == q {
			s = s[1 : len(s)-1]
		}
	}
	return s
}

// Members returns the pins currently wired onto the line.
func (l *Line) Members() []*pin.Pin {
	return l.members
}

// arbitrate implements the wired-AND rule: every member's InVoltageMV
// becomes the minimum OutVoltageMV among all members (spec.md §4.2), using
// each member's most recently observed snapshot rather than re-reading it
// live. changedIdx/mv update that one member's entry before recomputing the
// minimum. Pin itself is idempotent on SetInVoltageMV, so members whose
// voltage did not actually change never refire their OnInChange handler.
func (l *Line) arbitrate(changedIdx int, mv int32) {
	l.last[changedIdx] = mv
	min := l.last[0]
	for _, v := range l.last[1:] {
		if v < min {
			min = v
		}
	}
	for _, p := range l.members {
		p.SetInVoltageMV(min)
	}
}
