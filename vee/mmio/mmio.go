// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mmio declares the memory-mapped I/O region contract the VEE core
// expects from its host: the ability to register a fixed-size,
// word-addressable window with read/write callbacks. The core's GPIO banks
// and SPI masters each own one 0x400-byte window; host CPU emulation's
// memory-region dispatch (out of scope for this module, per spec.md §1) is
// the only expected implementer of Registrar in a real deployment.
package mmio

// Region is a word-addressable, native-endian memory-mapped window, the
// same register-file shape periph.io/x/periph's host/bcm283x package maps
// over /dev/gpiomem.
type Region interface {
	// ReadAt returns the 32-bit register at the given byte offset (a
	// multiple of 4).
	ReadAt(offset uint32) uint32
	// WriteAt stores val at the given byte offset (a multiple of 4).
	WriteAt(offset uint32, val uint32)
}

// Registrar registers a Region of the given byte size at a host-assigned
// base address. The VEE core never picks its own base address; that is the
// host CPU emulator's job.
type Registrar interface {
	// Register installs region as a byteSize-byte MMIO window and returns
	// the base address the host assigned it.
	Register(name string, byteSize uint32, region Region) (base uint32, err error)
}

// NullRegistrar discards registrations. It is useful for components
// exercised purely through their Go API (tests, cmd/veemonitor) that never
// need an address-space presence.
type NullRegistrar struct{}

// Register implements Registrar by discarding the region.
func (NullRegistrar) Register(name string, byteSize uint32, region Region) (uint32, error) {
	return 0, nil
}
