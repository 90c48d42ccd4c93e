// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public data model of the Strata runtime.
//
// The package defines the types the execution core moves around:
//   - Dims, DataType, Layout, Quant: tensor geometry and format
//   - Desc: the full description of one tensor
//   - Buffer: owned, zero-initialized storage
//   - Blob: a described view into a Buffer at a byte offset
//
// Example:
//
//	buf, _ := tensor.NewBufferFloat32(tensor.Dims{2, 3}, []float32{1, 2, 3, 4, 5, 6})
//	view, _ := tensor.NewBlob(buf.Desc(), buf, 0)
//	_ = view.AsFloat32()
package tensor

import (
	"github.com/strata-ml/strata/internal/tensor"
)

// Type aliases for public API

// Dims holds one extent per axis, outermost first.
type Dims = tensor.Dims

// DataType identifies the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32  DataType = tensor.Float32
	Float16  DataType = tensor.Float16
	BFloat16 DataType = tensor.BFloat16
	Int8     DataType = tensor.Int8
	Int32    DataType = tensor.Int32
)

// Layout identifies how elements are arranged in storage.
type Layout = tensor.Layout

// Layout constants.
const (
	Canonical Layout = tensor.Canonical
	PackedC4  Layout = tensor.PackedC4
	Indirect  Layout = tensor.Indirect
)

// PackWidth is the channel block width of the packed layout.
const PackWidth = tensor.PackWidth

// Quant carries quantization scales for int8 tensors.
type Quant = tensor.Quant

// Desc describes one tensor: dims, dtype, layout and optional scales.
type Desc = tensor.Desc

// Buffer is owned, zero-initialized storage with a descriptor.
type Buffer = tensor.Buffer

// Blob is a described view into a Buffer at a byte offset.
type Blob = tensor.Blob

// Creation functions

// NewBuffer allocates zero-filled storage for desc.
func NewBuffer(desc Desc) (*Buffer, error) {
	return tensor.NewBuffer(desc)
}

// NewBufferFloat32 allocates a canonical float32 buffer holding values.
//
// Example:
//
//	w, err := tensor.NewBufferFloat32(tensor.Dims{2, 3}, weights)
func NewBufferFloat32(dims Dims, values []float32) (*Buffer, error) {
	return tensor.NewBufferFloat32(dims, values)
}

// NewBlob views base at a byte offset under desc. The view must fit inside
// the buffer.
func NewBlob(desc Desc, base *Buffer, offset int) (*Blob, error) {
	return tensor.NewBlob(desc, base, offset)
}

// NewOwned allocates a fresh buffer for desc and returns the whole-buffer
// view over it.
func NewOwned(desc Desc) (*Blob, error) {
	return tensor.NewOwned(desc)
}

// RoundUp rounds n up to the next multiple of m.
func RoundUp(n, m int) int {
	return tensor.RoundUp(n, m)
}
