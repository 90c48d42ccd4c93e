package optim

import (
	"math"

	"github.com/strata-ml/strata/internal/grad"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	optimizer, err := optim.NewAdam(seq.Parameters(), optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	params []*tensor.Buffer
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int                          // Timestep for bias correction
	m      map[*tensor.Buffer][]float32 // First moment estimates
	v      map[*tensor.Buffer][]float32 // Second moment estimates
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer over the given parameter buffers.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(params []*tensor.Buffer, config AdamConfig) (*Adam, error) {
	if err := checkParams(params); err != nil {
		return nil, err
	}

	// Set defaults
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	if config.Betas[0] < 0 || config.Betas[0] >= 1 || config.Betas[1] < 0 || config.Betas[1] >= 1 {
		return nil, status.Errorf(status.KindInvalidState, "betas %v outside [0, 1)", config.Betas)
	}

	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		t:      0,
		m:      make(map[*tensor.Buffer][]float32, len(params)),
		v:      make(map[*tensor.Buffer][]float32, len(params)),
	}, nil
}

// Step performs a single optimization step from the session's resource
// gradients.
//
//  1. Update biased first moment estimate
//  2. Update biased second moment estimate
//  3. Compute bias-corrected moment estimates
//  4. Update parameters
//
// Parameters with no gradient are skipped and do not advance their moments.
func (a *Adam) Step(session *grad.Session) error {
	if session == nil {
		return status.Errorf(status.KindNullResource, "session is nil")
	}

	// Increment timestep
	a.t++

	// bias_correction1 = 1 - beta1^t
	// bias_correction2 = 1 - beta2^t
	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
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

		m, exists := a.m[param]
		if !exists {
			m = make([]float32, len(data))
			a.m[param] = m
		}
		v, exists := a.v[param]
		if !exists {
			v = make([]float32, len(data))
			a.v[param] = v
		}

		for i := range data {
			// m_t = beta1 * m_{t-1} + (1-beta1) * grad
			m[i] = a.beta1*m[i] + (1.0-a.beta1)*g[i]

			// v_t = beta2 * v_{t-1} + (1-beta2) * grad²
			v[i] = a.beta2*v[i] + (1.0-a.beta2)*g[i]*g[i]

			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2

			// param = param - lr * m_hat / (sqrt(v_hat) + eps)
			data[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
	return nil
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
//
// Useful for monitoring optimizer state.
func (a *Adam) GetTimestep() int {
	return a.t
}
