// Copyright 2016 The PIO Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package devices

// Snapshotter is implemented by a simulated display: it exports its current
// picture directly, rather than requiring a caller to replay the bus
// transactions that produced it. Unlike periph.io/x/periph's write-only
// devices.Display (a host program drives a real display by writing to it),
// a VEE display is written by its own simulated bus traffic; the host only
// ever reads it back, so this interface runs in the opposite direction.
type Snapshotter interface {
	// Pixels returns the display's width and height, and its pixels in
	// column-major order (width outer, height inner), each a nonzero value
	// meaning "on" in the device's native encoding.
	Pixels() (width, height int, pixels []uint32)
}
