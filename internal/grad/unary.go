package grad

import (
	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/layout"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// reluGrad passes the upstream gradient through where the forward input was
// positive and blocks it elsewhere.
func reluGrad(ctx *device.Context, req *Request) error {
	in := req.Inputs[0]
	dest := req.InputGrads[0]
	if err := checkDest(dest, in.ElemCount(), "relu input gradient"); err != nil {
		return err
	}
	ogView, err := gradView(req.OutputGrad)
	if err != nil {
		return err
	}
	canon, err := layout.EnsureLayout([]*tensor.Blob{in, ogView}, tensor.Canonical)
	if err != nil {
		return err
	}
	x := canon[0].AsFloat32()
	dy := canon[1].AsFloat32()

	dst := dest.Buf.AsFloat32()[:in.ElemCount()]
	if dest.Accumulate {
		for i := range dst {
			if x[i] > 0 {
				dst[i] += dy[i]
			}
		}
		return nil
	}
	for i := range dst {
		if x[i] > 0 {
			dst[i] = dy[i]
		} else {
			dst[i] = 0
		}
	}
	return nil
}

// sigmoidGrad uses the forward output: dx = dy * y * (1 - y).
func sigmoidGrad(ctx *device.Context, req *Request) error {
	out := req.Outputs[0]
	dest := req.InputGrads[0]
	if err := checkDest(dest, out.ElemCount(), "sigmoid input gradient"); err != nil {
		return err
	}
	ogView, err := gradView(req.OutputGrad)
	if err != nil {
		return err
	}
	canon, err := layout.EnsureLayout([]*tensor.Blob{out, ogView}, tensor.Canonical)
	if err != nil {
		return err
	}
	y := canon[0].AsFloat32()
	dy := canon[1].AsFloat32()

	dst := dest.Buf.AsFloat32()[:out.ElemCount()]
	if dest.Accumulate {
		for i := range dst {
			dst[i] += dy[i] * y[i] * (1 - y[i])
		}
		return nil
	}
	for i := range dst {
		dst[i] = dy[i] * y[i] * (1 - y[i])
	}
	return nil
}

// addGrad routes the upstream gradient to both addends unchanged.
func addGrad(ctx *device.Context, req *Request) error {
	a, b := req.Inputs[0], req.Inputs[1]
	if !a.Dims().Equal(b.Dims()) {
		return status.Errorf(status.KindShapeMismatch,
			"add gradient inputs disagree on dims: %v vs %v", a.Dims(), b.Dims())
	}
	n := req.Outputs[0].ElemCount()
	for k, what := range []string{"left input gradient", "right input gradient"} {
		if err := checkDest(req.InputGrads[k], n, what); err != nil {
			return err
		}
	}
	ogView, err := gradView(req.OutputGrad)
	if err != nil {
		return err
	}
	canon, err := layout.EnsureLayout([]*tensor.Blob{ogView}, tensor.Canonical)
	if err != nil {
		return err
	}
	dy := canon[0].AsFloat32()

	for k := range req.InputGrads {
		dest := req.InputGrads[k]
		dst := dest.Buf.AsFloat32()[:n]
		if dest.Accumulate {
			for i := range dst {
				dst[i] += dy[i]
			}
			continue
		}
		copy(dst, dy[:n])
	}
	return nil
}
