// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package grad provides the public backward protocol: per-operator
// gradient functions behind an explicit engine, and a session that merges
// contributions across a backward walk.
//
// Each backward step writes into caller-owned destinations, one per input
// and per resource slot, each with its own accumulate flag. The session
// layers the usual walk semantics on top: first touch overwrites a fresh
// zero buffer, revisits accumulate.
//
// Example:
//
//	engine := grad.NewEngine(ctx)
//	session := grad.NewSession(engine)
//	session.SetUpstream(loss, lossGrad)
//	if err := session.Step(op.InnerProduct, param, res, inputs, outputs); err != nil { ... }
//	wg := session.ResourceGrad(res.Weight)
package grad

import (
	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/grad"
)

// Dest is one gradient destination with its accumulate flag.
type Dest = grad.Dest

// Request carries one backward step: forward tensors, the upstream
// gradient and all destinations.
type Request = grad.Request

// GradFunc computes one operator's backward step.
type GradFunc = grad.GradFunc

// Engine resolves and runs gradient functions.
type Engine = grad.Engine

// Session owns the gradient storage for one backward walk.
type Session = grad.Session

// NewEngine returns an engine bound to ctx with the built-in gradient set.
func NewEngine(ctx *device.Context) *Engine {
	return grad.NewEngine(ctx)
}

// NewSession returns an empty session over the engine.
func NewSession(e *Engine) *Session {
	return grad.NewSession(e)
}
