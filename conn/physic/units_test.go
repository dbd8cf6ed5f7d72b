// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package physic

import "testing"

func TestElectricPotential_String(t *testing.T) {
	data := []struct {
		v        ElectricPotential
		expected string
	}{
		{0, "0V"},
		{3300 * MilliVolt, "3.300V"},
		{0 * MilliVolt, "0V"},
		{-3300 * MilliVolt, "-3.300V"},
		{1 * KiloVolt, "1kV"},
	}
	for _, line := range data {
		if s := line.v.String(); s != line.expected {
			t.Fatalf("%v.String() = %q, want %q", int64(line.v), s, line.expected)
		}
	}
}

func TestElectricCurrent_String(t *testing.T) {
	if s := (20 * MilliAmpere).String(); s != "20mA" {
		t.Fatalf("got %q", s)
	}
	if s := ElectricCurrent(0).String(); s != "0A" {
		t.Fatalf("got %q", s)
	}
}
