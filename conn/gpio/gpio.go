// Copyright 2016 The PIO Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpio declares the handful of digital-pin vocabulary types the VEE
// core shares with periph.io/x/periph/conn/gpio: the logical level a Pin
// reads or drives, and the pull configuration a GPIO bank's PUPDR register
// selects for an input pin.
package gpio

// Level is the level of a logical signal: Low or High.
type Level bool

const (
	// Low represents 0v.
	Low Level = false
	// High represents the supply rail, generally 3.3v.
	High Level = true
)

func (l Level) String() string {
	if l == Low {
		return "Low"
	}
	return "High"
}

// Pull specifies the internal pull-up or pull-down an input pin is wired
// to, decoded from a GPIO bank's PUPDR field.
type Pull uint8

// Acceptable pull values, matching the STM32 PUPDR encoding order.
const (
	Float Pull = 0 // No pull resistor (PUPDR 00).
	Up    Pull = 1 // Pull-up (PUPDR 01).
	Down  Pull = 2 // Pull-down (PUPDR 10).
)

const pullName = "FloatUpDown"

var pullIndex = [...]uint8{0, 5, 7, 11}

func (i Pull) String() string {
	if i >= Pull(len(pullIndex)-1) {
		return "Pull(invalid)"
	}
	return pullName[pullIndex[i]:pullIndex[i+1]]
}
