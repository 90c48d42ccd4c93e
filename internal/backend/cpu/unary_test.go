package cpu

import (
	"errors"
	"math"
	"testing"

	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/layout"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// float32Near reports elementwise closeness within a relative tolerance,
// falling back to absolute for values near zero.
func float32Near(a, b []float32, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		d := math.Abs(float64(a[i] - b[i]))
		if d <= tol {
			continue
		}
		m := math.Max(math.Abs(float64(a[i])), math.Abs(float64(b[i])))
		if d > tol*m {
			return false
		}
	}
	return true
}

func testContext() *device.Context {
	return New().NewContext()
}

func TestReluFloat32Remainder(t *testing.T) {
	cfg := testContext().Parallel()
	for _, n := range []int{1, 3, 4, 5, 8, 9, 17} {
		src := make([]float32, n)
		for i := range src {
			src[i] = float32(i) + 0.5
			if i%2 == 1 {
				src[i] = -src[i]
			}
		}
		dst := make([]float32, n)
		reluFloat32(dst, src, cfg)

		for i := range src {
			want := src[i]
			if want < 0 {
				want = 0
			}
			if dst[i] != want {
				t.Errorf("n=%d: relu[%d] = %v, want %v", n, i, dst[i], want)
			}
		}
	}
}

func TestSigmoidFloat32Remainder(t *testing.T) {
	cfg := testContext().Parallel()
	for _, n := range []int{1, 3, 4, 5, 8, 9, 17} {
		src := make([]float32, n)
		for i := range src {
			src[i] = float32(i)*0.7 - 3
		}
		dst := make([]float32, n)
		sigmoidFloat32(dst, src, cfg)

		// The tail shares the formula with the main loop, so equality is
		// exact, not approximate.
		for i := range src {
			want := float32(1 / (1 + math.Exp(-float64(src[i]))))
			if dst[i] != want {
				t.Errorf("n=%d: sigmoid[%d] = %v, want %v", n, i, dst[i], want)
			}
		}
	}
}

func TestReluKernelPackedChannels(t *testing.T) {
	ctx := testContext()
	for _, ch := range []int{1, 3, 4, 5, 8, 9} {
		desc := tensor.Desc{Dims: tensor.Dims{2, ch, 3}, DType: tensor.Float32, Layout: tensor.Canonical}
		src, err := tensor.NewOwned(desc)
		if err != nil {
			t.Fatalf("NewOwned failed: %v", err)
		}
		vals := src.AsFloat32()
		for i := range vals {
			vals[i] = float32(i) - float32(len(vals))/2
		}

		packed, err := layout.Pack(src)
		if err != nil {
			t.Fatalf("Pack failed: %v", err)
		}
		out, err := tensor.NewOwned(desc.WithLayout(tensor.PackedC4))
		if err != nil {
			t.Fatalf("NewOwned failed: %v", err)
		}

		call := &device.Call{Op: op.ReLU, Inputs: []*tensor.Blob{packed}, Outputs: []*tensor.Blob{out}}
		if err := reluKernel(ctx, call); err != nil {
			t.Fatalf("ch=%d: reluKernel failed: %v", ch, err)
		}

		back, err := layout.Unpack(out)
		if err != nil {
			t.Fatalf("Unpack failed: %v", err)
		}
		got := back.AsFloat32()
		for i, v := range vals {
			want := v
			if want < 0 {
				want = 0
			}
			if got[i] != want {
				t.Errorf("ch=%d: element %d = %v, want %v", ch, i, got[i], want)
			}
		}
	}
}

func TestReluInt8(t *testing.T) {
	ctx := testContext()
	desc := tensor.Desc{Dims: tensor.Dims{1, 6}, DType: tensor.Int8, Layout: tensor.Canonical}
	src, err := tensor.NewOwned(desc)
	if err != nil {
		t.Fatalf("NewOwned failed: %v", err)
	}
	copy(src.AsInt8(), []int8{-128, -1, 0, 1, 64, 127})
	out, err := tensor.NewOwned(desc)
	if err != nil {
		t.Fatalf("NewOwned failed: %v", err)
	}

	call := &device.Call{Op: op.ReLU, Inputs: []*tensor.Blob{src}, Outputs: []*tensor.Blob{out}}
	if err := reluKernel(ctx, call); err != nil {
		t.Fatalf("reluKernel failed: %v", err)
	}
	want := []int8{0, 0, 0, 1, 64, 127}
	for i, v := range out.AsInt8() {
		if v != want[i] {
			t.Errorf("element %d = %d, want %d", i, v, want[i])
		}
	}
}

func TestSigmoidRejectsInt8(t *testing.T) {
	ctx := testContext()
	desc := tensor.Desc{Dims: tensor.Dims{1, 4}, DType: tensor.Int8, Layout: tensor.Canonical}
	src, _ := tensor.NewOwned(desc)
	out, _ := tensor.NewOwned(desc)
	call := &device.Call{Op: op.Sigmoid, Inputs: []*tensor.Blob{src}, Outputs: []*tensor.Blob{out}}
	if err := sigmoidKernel(ctx, call); !errors.Is(err, status.ErrUnsupportedDType) {
		t.Errorf("got %v, want unsupported dtype", err)
	}
}
