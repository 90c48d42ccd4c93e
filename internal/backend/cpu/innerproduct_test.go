package cpu

import (
	"errors"
	"testing"

	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/layout"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

func naiveFC(x, w, bias []float32, batch, ic, oc int) []float32 {
	y := make([]float32, batch*oc)
	for b := 0; b < batch; b++ {
		for o := 0; o < oc; o++ {
			var sum float32
			for i := 0; i < ic; i++ {
				sum += x[b*ic+i] * w[o*ic+i]
			}
			if bias != nil {
				sum += bias[o]
			}
			y[b*oc+o] = sum
		}
	}
	return y
}

func runInnerProduct(t *testing.T, batch, ic, oc int, withBias bool) {
	t.Helper()
	ctx := testContext()

	xVals := make([]float32, batch*ic)
	for i := range xVals {
		xVals[i] = float32(i%7)*0.5 - 1
	}
	wVals := make([]float32, oc*ic)
	for i := range wVals {
		wVals[i] = float32(i%5)*0.25 - 0.5
	}
	var bVals []float32
	if withBias {
		bVals = make([]float32, oc)
		for i := range bVals {
			bVals[i] = float32(i) - 1
		}
	}

	src, err := tensor.NewBufferFloat32(tensor.Dims{batch, ic}, xVals)
	if err != nil {
		t.Fatalf("input buffer: %v", err)
	}
	packed, err := layout.Pack(mustWrap(t, src))
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	out, err := tensor.NewOwned(tensor.Desc{
		Dims: tensor.Dims{batch, oc}, DType: tensor.Float32, Layout: tensor.PackedC4,
	})
	if err != nil {
		t.Fatalf("output blob: %v", err)
	}

	weight, err := tensor.NewBufferFloat32(tensor.Dims{oc, ic}, wVals)
	if err != nil {
		t.Fatalf("weight buffer: %v", err)
	}
	res := &op.Resource{Weight: weight}
	if withBias {
		res.Bias, err = tensor.NewBufferFloat32(tensor.Dims{oc}, bVals)
		if err != nil {
			t.Fatalf("bias buffer: %v", err)
		}
	}

	call := &device.Call{
		Op:       op.InnerProduct,
		Inputs:   []*tensor.Blob{packed},
		Outputs:  []*tensor.Blob{out},
		Param:    &op.InnerProductParam{OutChannels: oc, HasBias: withBias},
		Resource: res,
	}
	if err := innerProductKernel(ctx, call); err != nil {
		t.Fatalf("innerProductKernel failed: %v", err)
	}

	back, err := layout.Unpack(out)
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	want := naiveFC(xVals, wVals, bVals, batch, ic, oc)
	if !float32Near(back.AsFloat32(), want, 1e-5) {
		t.Errorf("batch=%d ic=%d oc=%d bias=%v: got %v, want %v",
			batch, ic, oc, withBias, back.AsFloat32(), want)
	}
}

func mustWrap(t *testing.T, buf *tensor.Buffer) *tensor.Blob {
	t.Helper()
	blob, err := tensor.NewBlob(buf.Desc(), buf, 0)
	if err != nil {
		t.Fatalf("NewBlob failed: %v", err)
	}
	return blob
}

func TestInnerProductKernel(t *testing.T) {
	cases := []struct {
		batch, ic, oc int
		bias          bool
	}{
		{2, 3, 2, false},
		{2, 3, 2, true},
		{3, 5, 4, true},
		{1, 8, 5, false},
		{2, 9, 3, true},
	}
	for _, tc := range cases {
		runInnerProduct(t, tc.batch, tc.ic, tc.oc, tc.bias)
	}
}

func TestInnerProductRejectsInt8(t *testing.T) {
	ctx := testContext()
	desc := tensor.Desc{Dims: tensor.Dims{1, 4}, DType: tensor.Int8, Layout: tensor.PackedC4}
	in, _ := tensor.NewOwned(desc)
	out, _ := tensor.NewOwned(desc)
	weight, _ := tensor.NewBufferFloat32(tensor.Dims{4, 4}, make([]float32, 16))

	call := &device.Call{
		Op:       op.InnerProduct,
		Inputs:   []*tensor.Blob{in},
		Outputs:  []*tensor.Blob{out},
		Param:    &op.InnerProductParam{OutChannels: 4},
		Resource: &op.Resource{Weight: weight},
	}
	if err := innerProductKernel(ctx, call); !errors.Is(err, status.ErrUnsupportedDType) {
		t.Errorf("got %v, want unsupported dtype", err)
	}
}

func TestInnerProductMissingWeight(t *testing.T) {
	ctx := testContext()
	desc := tensor.Desc{Dims: tensor.Dims{1, 4}, DType: tensor.Float32, Layout: tensor.PackedC4}
	in, _ := tensor.NewOwned(desc)
	out, _ := tensor.NewOwned(desc)

	call := &device.Call{
		Op:      op.InnerProduct,
		Inputs:  []*tensor.Blob{in},
		Outputs: []*tensor.Blob{out},
		Param:   &op.InnerProductParam{OutChannels: 4},
	}
	if err := innerProductKernel(ctx, call); !errors.Is(err, status.ErrNullResource) {
		t.Errorf("got %v, want null resource", err)
	}
}
