package cpu

import (
	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// innerProductKernel computes y = x @ W^T (+ bias) over packed rows.
// The input arrives as [batch, in] packed to a lane multiple, the output as
// [batch, out] packed likewise; the weight stays canonical [out, in].
func innerProductKernel(ctx *device.Context, call *device.Call) error {
	param := call.Param.(*op.InnerProductParam)
	in, out := call.Inputs[0], call.Outputs[0]
	if in.DType() != tensor.Float32 {
		return status.Errorf(status.KindUnsupportedDType, "cpu inner product: %s", in.DType())
	}
	if call.Resource == nil || call.Resource.Weight == nil {
		return status.Errorf(status.KindNullResource, "inner product weight missing")
	}

	batch := in.Desc().Batch()
	ic := in.Desc().Channels()
	oc := param.OutChannels

	var bias []float32
	if param.HasBias {
		if call.Resource.Bias == nil {
			return status.Errorf(status.KindNullResource, "inner product bias missing")
		}
		bias = call.Resource.Bias.AsFloat32()
	}
	fcFloat32(out.AsFloat32(), in.AsFloat32(), call.Resource.Weight.AsFloat32(),
		bias, batch, ic, oc, ctx.Parallel())
	return nil
}

// fcFloat32 computes one dot product per (batch row, output channel): a
// 4-wide main loop over the input width with a scalar tail for the
// remainder. Parallel iterations own disjoint output elements.
func fcFloat32(y, x, w, bias []float32, batch, ic, oc int, cfg parallel.Config) {
	inStride := tensor.RoundUp(ic, tensor.PackWidth)
	outStride := tensor.RoundUp(oc, tensor.PackWidth)

	parallel.For(batch*oc, func(k int) {
		b, o := k/oc, k%oc
		xRow := x[b*inStride:]
		wRow := w[o*ic:]

		var s0, s1, s2, s3 float32
		j := 0
		for ; j+tensor.PackWidth <= ic; j += tensor.PackWidth {
			s0 += xRow[j] * wRow[j]
			s1 += xRow[j+1] * wRow[j+1]
			s2 += xRow[j+2] * wRow[j+2]
			s3 += xRow[j+3] * wRow[j+3]
		}
		sum := s0 + s1 + s2 + s3
		// Scalar tail over the input remainder.
		for ; j < ic; j++ {
			sum += xRow[j] * wRow[j]
		}
		if bias != nil {
			sum += bias[o]
		}
		y[b*outStride+o] = sum
	}, cfg)
}
