// Copyright 2026 The Custos Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the host-memory backend for the custos buffer layer.
//
// # Overview
//
// The CPU backend allocates on the Go heap with no CGO and no driver:
//   - Zero-initialized allocations by contract
//   - Direct slice views via Buffer.AsSlice (host addressable)
//   - Zero-copy adoption of existing slices (buffer.FromVec, buffer.Wrap)
//   - A per-device allocation cache for replayed computations
//
// # Basic Usage
//
//	import (
//	    "github.com/enzonoe/custos/backend/cpu"
//	    "github.com/enzonoe/custos/buffer"
//	)
//
//	func main() {
//	    device := cpu.New()
//	    defer device.Close()
//
//	    a, _ := buffer.FromSlice(device, []float32{1, 2, 3, 4})
//	    defer a.Release()
//
//	    out, _ := buffer.Get[float32](device, a.Len())
//	    copy(out.AsSlice(), a.AsSlice())
//	}
//
// # Thread Safety
//
// A Device and its cache are meant for exclusive use by one goroutine at a
// time. Goroutines needing independent caches should each own a Device.
package cpu
