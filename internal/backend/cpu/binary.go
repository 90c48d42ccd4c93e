package cpu

import (
	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// addKernel computes elementwise a + b. Both inputs arrive in the same
// device layout, so lane positions line up and padding adds to padding.
func addKernel(ctx *device.Context, call *device.Call) error {
	a, b, out := call.Inputs[0], call.Inputs[1], call.Outputs[0]
	if a.DType() != tensor.Float32 {
		return status.Errorf(status.KindUnsupportedDType, "cpu add: %s", a.DType())
	}
	addFloat32(out.AsFloat32(), a.AsFloat32(), b.AsFloat32(), ctx.Parallel())
	return nil
}

func addFloat32(dst, a, b []float32, cfg parallel.Config) {
	parallel.ForRange(len(dst), func(start, end int) {
		i := start
		for ; i+tensor.PackWidth <= end; i += tensor.PackWidth {
			dst[i] = a[i] + b[i]
			dst[i+1] = a[i+1] + b[i+1]
			dst[i+2] = a[i+2] + b[i+2]
			dst[i+3] = a[i+3] + b[i+3]
		}
		// Scalar tail.
		for ; i < end; i++ {
			dst[i] = a[i] + b[i]
		}
	}, cfg)
}
