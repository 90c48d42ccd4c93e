// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides sequential pipelines over forward accelerators:
// a chain of operators that binds once, reshapes and executes as a unit,
// and drives its own backward walk.
//
// Example:
//
//	seq := model.NewSequence(ctx,
//	    model.Layer{Type: op.InnerProduct, Param: fcParam, Resource: fcRes},
//	    model.Layer{Type: op.ReLU},
//	)
//	if err := seq.Bind(input); err != nil { ... }
//	if err := seq.Reshape(); err != nil { ... }
//	if err := seq.Forward(); err != nil { ... }
//
//	session := grad.NewSession(engine)
//	if err := seq.Backward(session, lossGrad); err != nil { ... }
package model

import (
	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/model"
)

// Layer describes one step of a sequence: the operator kind, its
// attributes and its trained resources.
type Layer = model.Layer

// Sequence chains single-input operators into a pipeline.
type Sequence = model.Sequence

// NewSequence creates a sequence over the context. Layers run in the order
// given.
func NewSequence(ctx *device.Context, layers ...Layer) *Sequence {
	return model.NewSequence(ctx, layers...)
}
