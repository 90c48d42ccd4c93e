package cpu

import (
	"math"

	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// convKernel computes a 2D convolution over packed tensors through the
// indirect index buffer built at reshape time. Each indirect entry holds the
// input spatial index for one (output pixel, kernel tap) pair, or -1 where
// the tap falls into padding; skipping a -1 tap contributes an exact zero.
func convKernel(ctx *device.Context, call *device.Call) error {
	param := call.Param.(*op.ConvParam)
	in := call.Inputs[0]
	if call.Indirect == nil {
		return status.Errorf(status.KindNullResource, "conv indirect buffer not built")
	}
	if call.Resource == nil || call.Resource.Weight == nil {
		return status.Errorf(status.KindNullResource, "conv weight missing")
	}
	switch in.DType() {
	case tensor.Float32:
		return convFloat32(ctx, call, param)
	case tensor.Int8:
		return convInt8(ctx, call, param)
	default:
		return status.Errorf(status.KindUnsupportedDType, "cpu conv: %s", in.DType())
	}
}

func convFloat32(ctx *device.Context, call *device.Call, param *op.ConvParam) error {
	in, out := call.Inputs[0], call.Outputs[0]
	batch := in.Desc().Batch()
	ic := in.Desc().Channels()
	inSpatial := in.Desc().Spatial()
	oc := param.OutChannels
	outSpatial := out.Desc().Spatial()
	inBlocks := tensor.RoundUp(ic, tensor.PackWidth) / tensor.PackWidth
	outBlocks := tensor.RoundUp(oc, tensor.PackWidth) / tensor.PackWidth
	kTaps := param.KernelH * param.KernelW

	x := in.AsFloat32()
	y := out.AsFloat32()
	w := call.Resource.Weight.AsFloat32() // canonical [oc, ic, kh, kw]
	idx := call.Indirect.AsInt32()

	var bias []float32
	if param.HasBias {
		if call.Resource.Bias == nil {
			return status.Errorf(status.KindNullResource, "conv bias missing")
		}
		bias = call.Resource.Bias.AsFloat32()
	}

	parallel.For(batch*oc, func(k int) {
		b, o := k/oc, k%oc
		wRow := w[o*ic*kTaps:]
		for p := 0; p < outSpatial; p++ {
			var sum float32
			if bias != nil {
				sum = bias[o]
			}
			taps := idx[p*kTaps : (p+1)*kTaps]
			for t, sp := range taps {
				if sp < 0 {
					continue // padding tap
				}
				xBase := ((b*inBlocks)*inSpatial + int(sp)) * tensor.PackWidth
				blockStep := inSpatial * tensor.PackWidth

				var s0, s1, s2, s3 float32
				c := 0
				for ; c+tensor.PackWidth <= ic; c += tensor.PackWidth {
					xb := xBase + (c/tensor.PackWidth)*blockStep
					s0 += x[xb] * wRow[c*kTaps+t]
					s1 += x[xb+1] * wRow[(c+1)*kTaps+t]
					s2 += x[xb+2] * wRow[(c+2)*kTaps+t]
					s3 += x[xb+3] * wRow[(c+3)*kTaps+t]
				}
				sum += s0 + s1 + s2 + s3
				// Channel remainder, scalar.
				for ; c < ic; c++ {
					xv := x[xBase+(c/tensor.PackWidth)*blockStep+c%tensor.PackWidth]
					sum += xv * wRow[c*kTaps+t]
				}
			}
			if param.FuseReLU && sum < 0 {
				sum = 0
			}
			y[((b*outBlocks+o/tensor.PackWidth)*outSpatial+p)*tensor.PackWidth+o%tensor.PackWidth] = sum
		}
	}, ctx.Parallel())
	return nil
}

// convInt8 accumulates int8 taps into int32 and requantizes per output
// channel: scale[o] = inScale * weightScale[o] / outScale. The bias, when
// present, is int32 in the accumulator domain.
func convInt8(ctx *device.Context, call *device.Call, param *op.ConvParam) error {
	in, out := call.Inputs[0], call.Outputs[0]
	weight := call.Resource.Weight
	if in.Quant() == nil || weight.Quant() == nil || out.Quant() == nil {
		return status.Errorf(status.KindNullResource,
			"int8 conv requires input, weight and output scales")
	}

	batch := in.Desc().Batch()
	ic := in.Desc().Channels()
	inSpatial := in.Desc().Spatial()
	oc := param.OutChannels
	outSpatial := out.Desc().Spatial()
	inBlocks := tensor.RoundUp(ic, tensor.PackWidth) / tensor.PackWidth
	outBlocks := tensor.RoundUp(oc, tensor.PackWidth) / tensor.PackWidth
	kTaps := param.KernelH * param.KernelW

	x := in.AsInt8()
	y := out.AsInt8()
	w := weight.AsInt8()
	idx := call.Indirect.AsInt32()
	inScale := in.Quant().Scale(0)
	outScale := out.Quant().Scale(0)

	var bias []int32
	if param.HasBias {
		if call.Resource.Bias == nil {
			return status.Errorf(status.KindNullResource, "conv bias missing")
		}
		bias = call.Resource.Bias.AsInt32()
	}

	parallel.For(batch*oc, func(k int) {
		b, o := k/oc, k%oc
		requant := inScale * weight.Quant().Scale(o) / outScale
		wRow := w[o*ic*kTaps:]
		for p := 0; p < outSpatial; p++ {
			var acc int32
			if bias != nil {
				acc = bias[o]
			}
			taps := idx[p*kTaps : (p+1)*kTaps]
			for t, sp := range taps {
				if sp < 0 {
					continue // padding tap
				}
				xBase := ((b*inBlocks)*inSpatial + int(sp)) * tensor.PackWidth
				blockStep := inSpatial * tensor.PackWidth
				for c := 0; c < ic; c++ {
					xv := x[xBase+(c/tensor.PackWidth)*blockStep+c%tensor.PackWidth]
					acc += int32(xv) * int32(wRow[c*kTaps+t])
				}
			}
			v := math.Round(float64(acc) * float64(requant))
			lo := -128.0
			if param.FuseReLU {
				lo = 0
			}
			v = math.Max(lo, math.Min(127, v))
			y[((b*outBlocks+o/tensor.PackWidth)*outSpatial+p)*tensor.PackWidth+o%tensor.PackWidth] = int8(v)
		}
	}, ctx.Parallel())
	return nil
}
