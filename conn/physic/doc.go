// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package physic declares the electrical units the VEE core reasons about:
// potential (voltage) and current.
//
// Values are stored as int64 nano-units, the same representation
// periph.io/x/periph/conn/physic uses, so they never lose precision when a
// GPIO bank's millivolt quantities are promoted to a fuller unit for
// printing or comparison.
package physic
