// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU device with its full kernel set.
//
// # Overview
//
// This package registers a CPU implementation for every built-in
// operator:
//   - Inner product as a packed GEMM over flattened trailing axes
//   - Convolution over channel-packed tensors through precomputed
//     indirect gather tables
//   - ReLU, Sigmoid and Add directly on packed storage
//   - Float32 throughout, plus int8 convolution and relu with
//     quantization scales
//
// Kernels run on tensors in device layout; the forward accelerator
// converts inputs on the way in and callers unpack outputs on the way
// out. Scratch memory comes from the owning context's grow-only
// workspace, never from per-call allocation.
//
// # Basic Usage
//
//	import (
//	    "github.com/strata-ml/strata/backend/cpu"
//	    "github.com/strata-ml/strata/layer"
//	    "github.com/strata-ml/strata/op"
//	)
//
//	func main() {
//	    dev := cpu.New()
//	    ctx := dev.NewContext()
//
//	    acc := layer.NewAcc(op.InnerProduct)
//	    // Init, Reshape and Forward against ctx
//	}
//
// # Thread Safety
//
// The device and its registry are safe for concurrent use. A context is
// not: it owns the scratch workspace for one stream of execution, so
// concurrent pipelines each take their own context from Device.NewContext.
package cpu
