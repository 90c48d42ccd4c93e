// Copyright 2025 Strata ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides parameter update rules for training.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom update rules
//
// Optimizers read weight and bias gradients out of a grad.Session and
// update the parameter buffers in place. A parameter the backward walk
// never touched is skipped.
//
// # Basic Usage
//
//	import (
//	    "github.com/strata-ml/strata/grad"
//	    "github.com/strata-ml/strata/optim"
//	)
//
//	optimizer, err := optim.NewAdam(
//	    seq.Parameters(),
//	    optim.AdamConfig{
//	        LR:    0.001,
//	        Betas: [2]float32{0.9, 0.999},
//	    },
//	)
//
// # Training Loop Pattern
//
//	engine := grad.NewEngine(ctx)
//
//	for epoch := 0; epoch < numEpochs; epoch++ {
//	    // 1. Forward pass
//	    if err := seq.Forward(); err != nil { ... }
//
//	    // 2. Loss gradient for the final output
//	    upstream := lossGradient(seq)
//
//	    // 3. Backward walk into a fresh session
//	    session := grad.NewSession(engine)
//	    if err := seq.Backward(session, upstream); err != nil { ... }
//
//	    // 4. Update parameters
//	    if err := optimizer.Step(session); err != nil { ... }
//	}
//
// Each iteration uses a fresh session; reusing one would accumulate
// gradients across iterations.
package optim
