// Copyright 2025 The VEE Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pin implements the elemental electrical endpoint of the VEE
// core: a Pin carries a direction, an output voltage/current pair, and an
// input voltage, and notifies two deferred handlers when either side
// changes. It is grounded on the reference device model's vee_pin
// object (_examples/original_source/hw/arm/vee_pin.c), trimmed of its QOM
// scaffolding down to the plain Go struct periph.io/x/periph's own
// conn/gpio.PinIO implementations (see host/bcm283x.Pin) are built around:
// state plus a couple of notification hooks, no inheritance.
package pin

import (
	"github.com/WeMakeIt1995/VEE/conn/gpio"
	"github.com/WeMakeIt1995/VEE/conn/physic"
	"github.com/WeMakeIt1995/VEE/vee/sched"
)

// Direction is the electrical direction of a Pin, mirroring
// VeePinDirection in the reference model.
type Direction int

const (
	// HighImpedance is the reset direction: the pin neither drives nor
	// reads the line it may be attached to.
	HighImpedance Direction = iota
	// Out means the pin drives OutVoltageMV/OutCurrentMA onto its line.
	Out
	// In means the pin only observes InVoltageMV.
	In
)

func (d Direction) String() string {
	switch d {
	case Out:
		return "Out"
	case In:
		return "In"
	default:
		return "HighImpedance"
	}
}

// OutChangeFunc is called, always deferred through a sched.Scheduler, when a
// Pin's output side changes. st is the status at the moment SetStatus was
// called, not whatever the pin's current status is when the handler finally
// runs — spec.md §5 requires "each handler runs with a consistent upstream
// snapshot", which a live re-read of p would violate once a pin has moved on
// to a later state by the time a backlog of deferred calls drains.
type OutChangeFunc func(p *Pin, st Status)

// InChangeFunc is the InVoltageMV analogue of OutChangeFunc.
type InChangeFunc func(p *Pin, mv int32)

// Status is the triple a GPIO bank's per-pin arbitration computes and
// compares byte-wise against the Pin's stored value (spec.md §4.3.1): only
// a change in one of these three fields fires OnOutChange.
type Status struct {
	Direction    Direction
	OutVoltageMV int32
	OutCurrentMA int32
}

// Pin is an elemental electrical endpoint. The zero value is not usable;
// construct one with New.
type Pin struct {
	sched sched.Scheduler

	status Status
	inMV   int32

	hasExternCircuit bool

	onOut OutChangeFunc
	onIn  InChangeFunc
}

// New returns a Pin in HighImpedance direction with both voltages at 0,
// deferring change notifications through s.
func New(s sched.Scheduler) *Pin {
	return &Pin{sched: s}
}

// Direction returns the pin's current direction.
func (p *Pin) Direction() Direction {
	return p.status.Direction
}

// OutVoltageMV returns the pin's current output voltage in millivolts.
func (p *Pin) OutVoltageMV() int32 {
	return p.status.OutVoltageMV
}

// OutCurrentMA returns the pin's current output current in milliamps.
func (p *Pin) OutCurrentMA() int32 {
	return p.status.OutCurrentMA
}

// InVoltageMV returns the voltage the pin observes: the value of the most
// recent SetInVoltageMV call whose deferred update has run.
func (p *Pin) InVoltageMV() int32 {
	return p.inMV
}

// OutVoltage returns the pin's driven output voltage in physic's full-
// precision unit, for callers that want to print or compare it rather than
// work in raw millivolts.
func (p *Pin) OutVoltage() physic.ElectricPotential {
	return physic.ElectricPotential(p.status.OutVoltageMV) * physic.MilliVolt
}

// OutCurrent returns the pin's driven output current in physic's unit.
func (p *Pin) OutCurrent() physic.ElectricCurrent {
	return physic.ElectricCurrent(p.status.OutCurrentMA) * physic.MilliAmpere
}

// InVoltage returns the pin's observed input voltage in physic's unit.
func (p *Pin) InVoltage() physic.ElectricPotential {
	return physic.ElectricPotential(p.inMV) * physic.MilliVolt
}

// InLevel reports the pin's observed input as a logical Level: any nonzero
// millivolt reading reads as High, matching the threshold-free comparisons
// a digital device model makes against its input pins.
func (p *Pin) InLevel() gpio.Level {
	return gpio.Level(p.inMV != 0)
}

// OutLevel reports the pin's own driven output as a logical Level.
func (p *Pin) OutLevel() gpio.Level {
	return gpio.Level(p.status.OutVoltageMV != 0)
}

// HasExternCircuit reports whether this pin currently sits on a Line. When
// true, a GPIO bank must not self-loopback its output into IDR (spec.md
// §4.3.1); the Line's own propagation is the only writer of InVoltageMV.
func (p *Pin) HasExternCircuit() bool {
	return p.hasExternCircuit
}

// SetHasExternCircuit marks the pin as attached to (or detached from) an
// external Line. Line.New calls this when it resolves a member pin.
func (p *Pin) SetHasExternCircuit(v bool) {
	p.hasExternCircuit = v
}

// SetOnOutChange installs the handler fired, deferred, when SetStatus
// changes the pin's direction or output voltage/current. Only one handler
// may be installed at a time; installing a new one replaces the old.
func (p *Pin) SetOnOutChange(fn OutChangeFunc) {
	p.onOut = fn
}

// SetOnInChange installs the handler fired, deferred, when SetInVoltageMV
// actually changes InVoltageMV. Only one handler may be installed at a
// time; installing a new one replaces the old.
func (p *Pin) SetOnInChange(fn InChangeFunc) {
	p.onIn = fn
}

// SetStatus applies a newly arbitrated Status. It is idempotent: if st
// equals the pin's current status in every field, OnOutChange does not
// fire (spec.md §4.3.1, "compare byte-wise with the stored pin status; if
// unchanged, do nothing"). The handler is deferred with st captured by
// value, so a pin driven through several transitions before the loop next
// drains still delivers each one to its subscriber in order.
func (p *Pin) SetStatus(st Status) {
	if st == p.status {
		return
	}
	p.status = st
	if p.onOut != nil {
		fn, snap := p.onOut, st
		if p.sched != nil {
			p.sched.Defer(func() { fn(p, snap) })
		} else {
			fn(p, snap)
		}
	}
}

// SetInVoltageMV records the voltage a Line (or another caller standing in
// for one) has computed for this pin. With a scheduler, the value is stored
// and OnInChange fired from the same deferred callback, so input changes of
// several pins take effect in the order they were requested: a handler
// reading a sibling pin's InVoltageMV sees it as of that point in the
// sequence, not its final value after a whole burst. It is idempotent: a
// value equal to the stored one when the callback runs never fires
// OnInChange. As with SetStatus, mv (and the handler) is captured at call
// time.
func (p *Pin) SetInVoltageMV(mv int32) {
	fn := p.onIn
	apply := func() {
		if mv == p.inMV {
			return
		}
		p.inMV = mv
		if fn != nil {
			fn(p, mv)
		}
	}
	if p.sched != nil {
		p.sched.Defer(apply)
		return
	}
	apply()
}
