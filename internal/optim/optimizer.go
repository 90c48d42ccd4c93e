// Package optim implements parameter update rules over the gradients a
// backward walk produces.
//
// This package provides:
//   - Optimizer interface: base interface for all optimizers
//   - SGD: stochastic gradient descent with momentum
//   - Adam: adaptive moment estimation
//
// Optimizers read resource gradients out of a grad.Session and update the
// parameter buffers in place. A parameter the walk never touched has no
// gradient and is skipped.
//
// Example usage:
//
//	optimizer, err := optim.NewSGD(seq.Parameters(), optim.SGDConfig{LR: 0.01})
//
//	for epoch := 0; epoch < epochs; epoch++ {
//	    session := grad.NewSession(engine)
//	    session.SetUpstream(output, lossGrad)
//	    // ... session.Step per operator, in reverse ...
//	    if err := optimizer.Step(session); err != nil {
//	        // ...
//	    }
//	}
package optim

import (
	"github.com/strata-ml/strata/internal/grad"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// Optimizer is the base interface for all update rules.
type Optimizer interface {
	// Step reads the session's resource gradients and updates the
	// parameters in place. Parameters without a gradient are skipped.
	Step(session *grad.Session) error

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate, for scheduling.
	SetLR(lr float32)
}

// checkParams verifies that every parameter is float32 and canonical;
// update arithmetic runs directly on the stored values.
func checkParams(params []*tensor.Buffer) error {
	for i, p := range params {
		if p == nil {
			return status.Errorf(status.KindNullResource, "parameter %d is nil", i)
		}
		if p.DType() != tensor.Float32 {
			return status.Errorf(status.KindUnsupportedDType,
				"parameter %d is %s, optimizers update float32", i, p.DType())
		}
		if p.Layout() != tensor.Canonical {
			return status.Errorf(status.KindShapeMismatch,
				"parameter %d has %s layout, optimizers update canonical storage", i, p.Layout())
		}
	}
	return nil
}

// gradFor returns the session gradient for one parameter, nil when the
// backward walk never reached it.
func gradFor(session *grad.Session, param *tensor.Buffer) []float32 {
	g := session.ResourceGrad(param)
	if g == nil {
		return nil
	}
	return g.AsFloat32()
}
