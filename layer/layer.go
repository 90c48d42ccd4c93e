// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layer provides the public forward accelerator: one object per
// operator instance driving the Init, Reshape, Forward lifecycle.
//
// Init validates the call and binds tensors; Reshape prepares everything
// extent-dependent (output storage, conv gather tables, packed working
// copies); Forward executes through the device's kernel registry, skipping
// layout conversion for tensors already device-resident.
//
// Example:
//
//	acc := layer.NewAcc(op.InnerProduct)
//	if err := acc.Init(ctx, param, res, inputs, outputs); err != nil { ... }
//	if err := acc.Reshape(); err != nil { ... }
//	if err := acc.Forward(); err != nil { ... }
package layer

import (
	"github.com/strata-ml/strata/internal/layer"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/tensor"
)

// State tracks the accelerator lifecycle.
type State = layer.State

// Lifecycle states.
const (
	Created     State = layer.Created
	Initialized State = layer.Initialized
	Shaped      State = layer.Shaped
	Executing   State = layer.Executing
)

// Acc drives one operator instance through its lifecycle.
type Acc = layer.Acc

// NewAcc returns an accelerator in the Created state.
func NewAcc(t op.Type) *Acc {
	return layer.NewAcc(t)
}

// OutputDims computes the dims one operator produces from its inputs, for
// sizing output tensors before Init.
func OutputDims(t op.Type, param op.Param, inputs []*tensor.Blob) (tensor.Dims, error) {
	return layer.OutputDims(t, param, inputs)
}
