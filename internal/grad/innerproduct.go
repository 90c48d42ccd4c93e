package grad

import (
	"unsafe"

	"github.com/strata-ml/strata/internal/backend/cpu"
	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/layout"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// Inner product backward. With input [batch, ic], weight [oc, ic] and
// upstream gradient [batch, oc]:
//
//	weight_grad[o, i] = sum_b og[b, o] * input[b, i]
//	input_grad[b, i]  = sum_o og[b, o] * weight[o, i]
//	bias_grad[o]      = sum_b og[b, o]
func innerProductGrad(ctx *device.Context, req *Request) error {
	p, ok := req.Param.(*op.InnerProductParam)
	if !ok {
		return status.Errorf(status.KindNullResource, "inner product param missing")
	}
	res := req.Resource
	if res == nil || res.Weight == nil {
		return status.Errorf(status.KindNullResource, "inner product weight missing")
	}
	in, out := req.Inputs[0], req.Outputs[0]
	batch := in.Dims()[0]
	ic := in.Dims().CountFrom(1)
	oc := p.OutChannels

	if res.Weight.DType() != tensor.Float32 {
		return status.Errorf(status.KindUnsupportedDType,
			"inner product gradient needs float32 weights, got %s", res.Weight.DType())
	}
	// The weight's byte size must match the declared geometry before any
	// destination is touched.
	want := oc * ic * tensor.Float32.Size()
	if res.Weight.BytesSize() != want {
		return status.Errorf(status.KindShapeMismatch,
			"inner product weight is %d bytes, want %d (out %d, in %d)",
			res.Weight.BytesSize(), want, oc, ic)
	}
	if !out.Dims().Equal(tensor.Dims{batch, oc}) {
		return status.Errorf(status.KindShapeMismatch,
			"inner product output dims %v, want [%d %d]", out.Dims(), batch, oc)
	}

	inDest := req.InputGrads[0]
	wDest := req.ResourceGrads[0]
	if err := checkDest(inDest, batch*ic, "input gradient"); err != nil {
		return err
	}
	if err := checkDest(wDest, oc*ic, "weight gradient"); err != nil {
		return err
	}
	var bDest Dest
	if p.HasBias {
		bDest = req.ResourceGrads[1]
		if err := checkDest(bDest, oc, "bias gradient"); err != nil {
			return err
		}
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
	og := canon[1].AsFloat32()
	w := res.Weight.AsFloat32()

	if err := execInputGrad(ctx, batch, oc, ic, inDest, og, w); err != nil {
		return err
	}
	execWeightGrad(ctx, batch, oc, ic, wDest, og, x)
	if p.HasBias {
		execBiasGrad(batch, oc, bDest, og)
	}
	return nil
}

// execInputGrad computes input_grad += og @ weight as a packed matmul. Both
// scratch areas live in the shared workspace: og copied row-major, weight
// rows padded to the lane width.
func execInputGrad(ctx *device.Context, batch, oc, ic int, dest Dest, og, w []float32) error {
	packASize := batch * oc * tensor.Float32.Size()
	packBSize := oc * tensor.RoundUp(ic, tensor.PackWidth) * tensor.Float32.Size()
	ws, release, err := ctx.SharedWorkspace(packASize + packBSize)
	if err != nil {
		return err
	}
	defer release()
	packA := floatsOf(ws[:packASize])
	packB := floatsOf(ws[packASize : packASize+packBSize])

	dst := dest.Buf.AsFloat32()[:batch*ic]
	if !dest.Accumulate {
		clear(dst)
	}
	cpu.PackGemmA(packA, og, batch, oc)
	cpu.PackGemmB(packB, w, oc, ic)
	cpu.GemmPackedAcc(dst, packA, packB, batch, oc, ic, ctx.Parallel())
	return nil
}

// execWeightGrad accumulates og^T @ input row by row; each output channel
// owns a disjoint destination row, so rows parallelize freely.
func execWeightGrad(ctx *device.Context, batch, oc, ic int, dest Dest, og, x []float32) {
	dst := dest.Buf.AsFloat32()[:oc*ic]
	if !dest.Accumulate {
		clear(dst)
	}
	parallel.For(oc, func(o int) {
		row := dst[o*ic : (o+1)*ic]
		for b := 0; b < batch; b++ {
			g := og[b*oc+o]
			src := x[b*ic : (b+1)*ic]
			i := 0
			for ; i+tensor.PackWidth <= ic; i += tensor.PackWidth {
				row[i] += g * src[i]
				row[i+1] += g * src[i+1]
				row[i+2] += g * src[i+2]
				row[i+3] += g * src[i+3]
			}
			// Scalar tail over the input remainder.
			for ; i < ic; i++ {
				row[i] += g * src[i]
			}
		}
	}, ctx.Parallel())
}

// execBiasGrad reduces og over the batch axis. A single batch without
// accumulation is a plain copy.
func execBiasGrad(batch, oc int, dest Dest, og []float32) {
	dst := dest.Buf.AsFloat32()[:oc]
	if batch == 1 && !dest.Accumulate {
		copy(dst, og[:oc])
		return
	}
	if !dest.Accumulate {
		clear(dst)
	}
	for b := 0; b < batch; b++ {
		src := og[b*oc : (b+1)*oc]
		n := 0
		for ; n+tensor.PackWidth <= oc; n += tensor.PackWidth {
			dst[n] += src[n]
			dst[n+1] += src[n+1]
			dst[n+2] += src[n+2]
			dst[n+3] += src[n+3]
		}
		for ; n < oc; n++ {
			dst[n] += src[n]
		}
	}
}

// floatsOf reinterprets workspace bytes as float32 lanes.
func floatsOf(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}
