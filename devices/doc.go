// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices contains interfaces for classes of simulated devices.
//
// Subpackages contain the concrete implementations, modeled after the
// virtual peripherals a VEE core exposes on its SPI bus.
package devices
