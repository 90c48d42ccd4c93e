package optim

import (
	"github.com/strata-ml/strata/internal/grad"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate SGD in relevant directions and dampens oscillations.
//
// Example:
//
//	optimizer, err := optim.NewSGD(seq.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	params     []*tensor.Buffer
	lr         float32
	momentum   float32
	velocities map[*tensor.Buffer][]float32
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer over the given parameter buffers.
//
// Parameters must be float32 with canonical storage; updates run in place
// on the stored values.
func NewSGD(params []*tensor.Buffer, config SGDConfig) (*SGD, error) {
	if err := checkParams(params); err != nil {
		return nil, err
	}

	// Set defaults
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.LR < 0 {
		return nil, status.Errorf(status.KindInvalidState, "learning rate %v is negative", config.LR)
	}
	if config.Momentum < 0 || config.Momentum >= 1 {
		return nil, status.Errorf(status.KindInvalidState, "momentum %v outside [0, 1)", config.Momentum)
	}

	s := &SGD{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
	}
	if config.Momentum > 0 {
		s.velocities = make(map[*tensor.Buffer][]float32, len(params))
	}
	return s, nil
}

// Step performs a single optimization step from the session's resource
// gradients.
//
// Parameters with no gradient (not touched by the backward walk) are skipped.
func (s *SGD) Step(session *grad.Session) error {
	if session == nil {
		return status.Errorf(status.KindNullResource, "session is nil")
	}
	for _, param := range s.params {
		g := gradFor(session, param)
		if g == nil {
			// Parameter didn't participate in the backward walk, skip.
			continue
		}
		data := param.AsFloat32()
		if len(g) != len(data) {
			return status.Errorf(status.KindShapeMismatch,
				"gradient has %d elements, parameter has %d", len(g), len(data))
		}

		if s.momentum == 0 {
			for i := range data {
				data[i] -= s.lr * g[i]
			}
		} else {
			velocity, exists := s.velocities[param]
			if !exists {
				velocity = make([]float32, len(data))
				s.velocities[param] = velocity
			}
			for i := range data {
				velocity[i] = s.momentum*velocity[i] + g[i]
				data[i] -= s.lr * velocity[i]
			}
		}
	}
	return nil
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}
