package optim_test

import (
	"math"
	"testing"

	"github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/internal/grad"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/optim"
	"github.com/strata-ml/strata/internal/tensor"
)

// Helper to check float equality with tolerance.
func floatEqual(a, b, eps float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < eps
}

// paramOf creates a parameter buffer holding values.
func paramOf(t *testing.T, values []float32) *tensor.Buffer {
	t.Helper()
	p, err := tensor.NewBufferFloat32(tensor.Dims{1, len(values)}, values)
	if err != nil {
		t.Fatalf("NewBufferFloat32: %v", err)
	}
	return p
}

// seedGrad runs one inner-product backward on the session so that grads
// lands as the session's gradient for param. The input carries the wanted
// gradient values and the upstream gradient is one, so
// weight_grad[0,i] = 1 * input[0,i].
func seedGrad(t *testing.T, session *grad.Session, param *tensor.Buffer, grads []float32) {
	t.Helper()

	in, err := tensor.NewBufferFloat32(tensor.Dims{1, len(grads)}, grads)
	if err != nil {
		t.Fatalf("NewBufferFloat32: %v", err)
	}
	x, err := tensor.NewBlob(in.Desc(), in, 0)
	if err != nil {
		t.Fatalf("NewBlob: %v", err)
	}
	y, err := tensor.NewOwned(tensor.Desc{Dims: tensor.Dims{1, 1}, DType: tensor.Float32, Layout: tensor.Canonical})
	if err != nil {
		t.Fatalf("NewOwned: %v", err)
	}
	og, err := tensor.NewBufferFloat32(tensor.Dims{1, 1}, []float32{1})
	if err != nil {
		t.Fatalf("NewBufferFloat32: %v", err)
	}

	session.SetUpstream(y, og)
	err = session.Step(op.InnerProduct,
		&op.InnerProductParam{OutChannels: 1},
		&op.Resource{Weight: param},
		[]*tensor.Blob{x}, []*tensor.Blob{y})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	engine := grad.NewEngine(cpu.New().NewContext())

	// Create a simple parameter: x = [2.0]
	param := paramOf(t, []float32{2.0})

	// Create SGD optimizer (no momentum)
	optimizer, err := optim.NewSGD([]*tensor.Buffer{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.0})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	// Simulate gradient: grad_x = 1.0
	session := grad.NewSession(engine)
	seedGrad(t, session, param, []float32{1.0})

	// Perform one step
	if err := optimizer.Step(session); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Expected: x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0 = 1.9
	expected := float32(1.9)
	actual := param.AsFloat32()[0]

	if !floatEqual(actual, expected, 1e-6) {
		t.Errorf("SGD update: got %f, want %f", actual, expected)
	}
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	engine := grad.NewEngine(cpu.New().NewContext())

	// Create parameter: x = [1.0]
	param := paramOf(t, []float32{1.0})

	// Create SGD with momentum=0.9
	optimizer, err := optim.NewSGD([]*tensor.Buffer{param},
		optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	// First step: grad = 1.0
	session1 := grad.NewSession(engine)
	seedGrad(t, session1, param, []float32{1.0})
	if err := optimizer.Step(session1); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// First step:
	// v_1 = 0.9 * 0 + 1.0 = 1.0
	// x_1 = 1.0 - 0.1 * 1.0 = 0.9
	expected1 := float32(0.9)
	actual1 := param.AsFloat32()[0]

	if !floatEqual(actual1, expected1, 1e-6) {
		t.Errorf("SGD momentum step 1: got %f, want %f", actual1, expected1)
	}

	// Second step: grad = 1.0
	session2 := grad.NewSession(engine)
	seedGrad(t, session2, param, []float32{1.0})
	if err := optimizer.Step(session2); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Second step:
	// v_2 = 0.9 * 1.0 + 1.0 = 1.9
	// x_2 = 0.9 - 0.1 * 1.9 = 0.71
	expected2 := float32(0.71)
	actual2 := param.AsFloat32()[0]

	if !floatEqual(actual2, expected2, 1e-5) {
		t.Errorf("SGD momentum step 2: got %f, want %f", actual2, expected2)
	}
}

// TestSGD_SkipsMissingGradient tests that a parameter the backward walk
// never touched keeps its value.
func TestSGD_SkipsMissingGradient(t *testing.T) {
	engine := grad.NewEngine(cpu.New().NewContext())

	touched := paramOf(t, []float32{1.0})
	untouched := paramOf(t, []float32{5.0})

	optimizer, err := optim.NewSGD([]*tensor.Buffer{touched, untouched},
		optim.SGDConfig{LR: 0.1})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	// Only the first parameter gets a gradient.
	session := grad.NewSession(engine)
	seedGrad(t, session, touched, []float32{1.0})

	if err := optimizer.Step(session); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if !floatEqual(touched.AsFloat32()[0], 0.9, 1e-6) {
		t.Errorf("touched: got %f, want 0.9", touched.AsFloat32()[0])
	}
	if untouched.AsFloat32()[0] != 5.0 {
		t.Errorf("untouched parameter changed: got %f, want 5.0", untouched.AsFloat32()[0])
	}
}

// TestSGD_GetSetLR tests learning rate getter/setter.
func TestSGD_GetSetLR(t *testing.T) {
	param := paramOf(t, []float32{1.0})

	optimizer, err := optim.NewSGD([]*tensor.Buffer{param}, optim.SGDConfig{LR: 0.01})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	// Test GetLR
	if optimizer.GetLR() != 0.01 {
		t.Errorf("GetLR: got %f, want 0.01", optimizer.GetLR())
	}

	// Test SetLR
	optimizer.SetLR(0.001)
	if optimizer.GetLR() != 0.001 {
		t.Errorf("GetLR after SetLR: got %f, want 0.001", optimizer.GetLR())
	}
}

// TestSGD_ConfigErrors tests constructor validation.
func TestSGD_ConfigErrors(t *testing.T) {
	param := paramOf(t, []float32{1.0})

	if _, err := optim.NewSGD([]*tensor.Buffer{param}, optim.SGDConfig{Momentum: 1.0}); err == nil {
		t.Error("momentum 1.0 should be rejected")
	}
	if _, err := optim.NewSGD([]*tensor.Buffer{param}, optim.SGDConfig{Momentum: -0.1}); err == nil {
		t.Error("negative momentum should be rejected")
	}
	if _, err := optim.NewSGD([]*tensor.Buffer{param, nil}, optim.SGDConfig{}); err == nil {
		t.Error("nil parameter should be rejected")
	}
}

// TestAdam_SimpleUpdate tests the Adam optimizer update.
func TestAdam_SimpleUpdate(t *testing.T) {
	engine := grad.NewEngine(cpu.New().NewContext())

	// Create parameter: x = [1.0]
	param := paramOf(t, []float32{1.0})

	// Create Adam optimizer with default hyperparameters
	optimizer, err := optim.NewAdam([]*tensor.Buffer{param}, optim.AdamConfig{
		LR:    0.001,
		Betas: [2]float32{0.9, 0.999},
		Eps:   1e-8,
	})
	if err != nil {
		t.Fatalf("NewAdam: %v", err)
	}

	// Gradient: grad = 1.0
	session := grad.NewSession(engine)
	seedGrad(t, session, param, []float32{1.0})

	// First step
	if err := optimizer.Step(session); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// After first step (with bias correction):
	// m_1 = 0.9 * 0 + 0.1 * 1.0 = 0.1
	// v_1 = 0.999 * 0 + 0.001 * 1.0 = 0.001
	// m_hat = 0.1 / (1 - 0.9^1) = 0.1 / 0.1 = 1.0
	// v_hat = 0.001 / (1 - 0.999^1) = 0.001 / 0.001 = 1.0
	// x_new = 1.0 - 0.001 * 1.0 / (sqrt(1.0) + 1e-8) ≈ 0.999

	actual := param.AsFloat32()[0]
	expected := float32(0.999)

	if !floatEqual(actual, expected, 1e-5) {
		t.Errorf("Adam first step: got %f, want %f", actual, expected)
	}
}

// TestAdam_Timestep tests that Adam advances its bias-correction timestep.
func TestAdam_Timestep(t *testing.T) {
	engine := grad.NewEngine(cpu.New().NewContext())

	param := paramOf(t, []float32{1.0})

	optimizer, err := optim.NewAdam([]*tensor.Buffer{param}, optim.AdamConfig{LR: 0.01})
	if err != nil {
		t.Fatalf("NewAdam: %v", err)
	}

	// Check initial timestep
	if optimizer.GetTimestep() != 0 {
		t.Errorf("Initial timestep: got %d, want 0", optimizer.GetTimestep())
	}

	// Perform 3 steps and verify timestep increments
	for i := 1; i <= 3; i++ {
		session := grad.NewSession(engine)
		seedGrad(t, session, param, []float32{1.0})
		if err := optimizer.Step(session); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}

		if optimizer.GetTimestep() != i {
			t.Errorf("After step %d, timestep: got %d, want %d", i, optimizer.GetTimestep(), i)
		}
	}

	// Parameter should decrease over steps with a positive gradient
	final := param.AsFloat32()[0]
	if final >= 1.0 {
		t.Errorf("After 3 Adam steps with positive gradient, parameter should decrease: got %f", final)
	}
}

// TestConvergence_SimpleQuadratic tests optimizer convergence on f(x) = x².
//
// This is an integration test that verifies both SGD and Adam can minimize
// a simple quadratic function. The minimum is at x = 0.
func TestConvergence_SimpleQuadratic(t *testing.T) {
	// Test SGD convergence
	t.Run("SGD", func(t *testing.T) {
		engine := grad.NewEngine(cpu.New().NewContext())

		// Start at x = 3.0
		param := paramOf(t, []float32{3.0})

		optimizer, err := optim.NewSGD([]*tensor.Buffer{param},
			optim.SGDConfig{LR: 0.1, Momentum: 0.9})
		if err != nil {
			t.Fatalf("NewSGD: %v", err)
		}

		// Train for 100 steps
		// f(x) = x², df/dx = 2x
		for i := 0; i < 100; i++ {
			current := param.AsFloat32()[0]

			session := grad.NewSession(engine)
			seedGrad(t, session, param, []float32{2.0 * current})

			if err := optimizer.Step(session); err != nil {
				t.Fatalf("Step %d: %v", i, err)
			}
		}

		// After 100 steps, x should be close to 0
		final := param.AsFloat32()[0]
		if math.Abs(float64(final)) > 0.1 {
			t.Errorf("SGD convergence: x = %f, expected close to 0", final)
		}
	})

	// Test Adam convergence
	t.Run("Adam", func(t *testing.T) {
		engine := grad.NewEngine(cpu.New().NewContext())

		// Start at x = 3.0
		param := paramOf(t, []float32{3.0})

		optimizer, err := optim.NewAdam([]*tensor.Buffer{param}, optim.AdamConfig{
			LR:    0.1,
			Betas: [2]float32{0.9, 0.999},
			Eps:   1e-8,
		})
		if err != nil {
			t.Fatalf("NewAdam: %v", err)
		}

		// Train for 100 steps
		for i := 0; i < 100; i++ {
			current := param.AsFloat32()[0]

			session := grad.NewSession(engine)
			seedGrad(t, session, param, []float32{2.0 * current})

			if err := optimizer.Step(session); err != nil {
				t.Fatalf("Step %d: %v", i, err)
			}
		}

		// After 100 steps, x should be close to 0
		final := param.AsFloat32()[0]
		if math.Abs(float64(final)) > 0.1 {
			t.Errorf("Adam convergence: x = %f, expected close to 0", final)
		}
	})
}

// TestMultipleParameters tests optimizers with multiple parameters.
func TestMultipleParameters(t *testing.T) {
	engine := grad.NewEngine(cpu.New().NewContext())

	// Create two parameters
	param1 := paramOf(t, []float32{1.0, 2.0})
	param2 := paramOf(t, []float32{3.0})

	optimizer, err := optim.NewSGD([]*tensor.Buffer{param1, param2},
		optim.SGDConfig{LR: 0.1})
	if err != nil {
		t.Fatalf("NewSGD: %v", err)
	}

	// Seed gradients for both parameters in one session
	session := grad.NewSession(engine)
	seedGrad(t, session, param1, []float32{1.0, 2.0})
	seedGrad(t, session, param2, []float32{0.5})

	// Perform step
	if err := optimizer.Step(session); err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Check param1: [1.0, 2.0] - 0.1 * [1.0, 2.0] = [0.9, 1.8]
	p1 := param1.AsFloat32()
	if !floatEqual(p1[0], 0.9, 1e-6) || !floatEqual(p1[1], 1.8, 1e-6) {
		t.Errorf("param1: got [%f, %f], want [0.9, 1.8]", p1[0], p1[1])
	}

	// Check param2: 3.0 - 0.1 * 0.5 = 2.95
	p2 := param2.AsFloat32()
	if !floatEqual(p2[0], 2.95, 1e-6) {
		t.Errorf("param2: got %f, want 2.95", p2[0])
	}
}
