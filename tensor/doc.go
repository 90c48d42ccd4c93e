// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the data model for the Strata execution core.
//
// # Overview
//
// Every tensor the runtime touches is a Blob: a Desc (dims, dtype, layout,
// optional scales) over a region of a Buffer. Buffers own their storage and
// come back zero-filled; Blobs are views and never copy.
//
// # Basic Usage
//
//	import (
//	    "github.com/strata-ml/strata/tensor"
//	)
//
//	func main() {
//	    x, err := tensor.NewOwned(tensor.Desc{
//	        Dims:   tensor.Dims{2, 3},
//	        DType:  tensor.Float32,
//	        Layout: tensor.Canonical,
//	    })
//	    if err != nil {
//	        // ...
//	    }
//	    copy(x.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})
//	}
//
// # Data Types
//
// Supported element types:
//   - Float32: the arithmetic type of the float kernels
//   - Float16, BFloat16: storage-only narrow floats
//   - Int8: quantized tensors, with scales in Quant
//   - Int32: accumulators and index tables
//
// # Layouts
//
// Tensors exist in one of three layouts:
//   - Canonical: dense row-major over the dims
//   - PackedC4: channels in blocks of 4, padded with zeros
//   - Indirect: int32 gather tables for convolution
//
// Kernels run on PackedC4 data; the layout package converts between
// canonical and packed forms, and conversion costs only appear where a
// tensor is not already in the layout a kernel wants.
//
// # Views
//
// A Blob may start at any byte offset inside its Buffer, so several views
// can share one allocation:
//
//	flat, err := tensor.NewBlob(flatDesc, x.Base(), x.Offset())
package tensor
