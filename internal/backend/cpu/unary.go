package cpu

import (
	"math"

	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// reluKernel clamps negatives to zero, lane by lane over the device layout.
func reluKernel(ctx *device.Context, call *device.Call) error {
	in, out := call.Inputs[0], call.Outputs[0]
	switch in.DType() {
	case tensor.Float32:
		reluFloat32(out.AsFloat32(), in.AsFloat32(), ctx.Parallel())
	case tensor.Int8:
		reluInt8(out.AsInt8(), in.AsInt8(), ctx.Parallel())
	default:
		return status.Errorf(status.KindUnsupportedDType, "cpu relu: %s", in.DType())
	}
	return nil
}

// sigmoidKernel computes 1 / (1 + exp(-x)) lane by lane.
func sigmoidKernel(ctx *device.Context, call *device.Call) error {
	in, out := call.Inputs[0], call.Outputs[0]
	if in.DType() != tensor.Float32 {
		return status.Errorf(status.KindUnsupportedDType, "cpu sigmoid: %s", in.DType())
	}
	sigmoidFloat32(out.AsFloat32(), in.AsFloat32(), ctx.Parallel())
	return nil
}

func reluFloat32(dst, src []float32, cfg parallel.Config) {
	parallel.ForRange(len(src), func(start, end int) {
		i := start
		for ; i+tensor.PackWidth <= end; i += tensor.PackWidth {
			dst[i] = max(src[i], 0)
			dst[i+1] = max(src[i+1], 0)
			dst[i+2] = max(src[i+2], 0)
			dst[i+3] = max(src[i+3], 0)
		}
		// Scalar tail.
		for ; i < end; i++ {
			dst[i] = max(src[i], 0)
		}
	}, cfg)
}

func reluInt8(dst, src []int8, cfg parallel.Config) {
	parallel.ForRange(len(src), func(start, end int) {
		i := start
		for ; i+tensor.PackWidth <= end; i += tensor.PackWidth {
			dst[i] = max(src[i], 0)
			dst[i+1] = max(src[i+1], 0)
			dst[i+2] = max(src[i+2], 0)
			dst[i+3] = max(src[i+3], 0)
		}
		for ; i < end; i++ {
			dst[i] = max(src[i], 0)
		}
	}, cfg)
}

func sigmoidFloat32(dst, src []float32, cfg parallel.Config) {
	sig := func(v float32) float32 {
		return float32(1 / (1 + math.Exp(-float64(v))))
	}
	parallel.ForRange(len(src), func(start, end int) {
		i := start
		for ; i+tensor.PackWidth <= end; i += tensor.PackWidth {
			dst[i] = sig(src[i])
			dst[i+1] = sig(src[i+1])
			dst[i+2] = sig(src[i+2])
			dst[i+3] = sig(src[i+3])
		}
		// Scalar tail.
		for ; i < end; i++ {
			dst[i] = sig(src[i])
		}
	}, cfg)
}
