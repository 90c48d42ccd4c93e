package layout

import (
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// ConvOutputDims computes the output dims of a 2D convolution over a
// canonical rank-4 input.
func ConvOutputDims(inDims tensor.Dims, outChannels, kernelH, kernelW, strideH, strideW, padH, padW int) (tensor.Dims, error) {
	if len(inDims) != 4 {
		return nil, status.Errorf(status.KindShapeMismatch,
			"conv input must be rank 4, got dims %v", inDims)
	}
	inH, inW := inDims[2], inDims[3]
	outH := (inH+2*padH-kernelH)/strideH + 1
	outW := (inW+2*padW-kernelW)/strideW + 1
	if outH <= 0 || outW <= 0 {
		return nil, status.Errorf(status.KindShapeMismatch,
			"kernel %dx%d stride %dx%d pad %dx%d does not fit input %dx%d",
			kernelH, kernelW, strideH, strideW, padH, padW, inH, inW)
	}
	return tensor.Dims{inDims[0], outChannels, outH, outW}, nil
}

// BuildConvIndirect precomputes the tap index table of a 2D convolution:
// one int32 entry per (output pixel, kernel tap) holding the input spatial
// index the tap reads, or -1 where the tap lands in zero padding. Entries
// depend on shapes only, so the table is built once at reshape time and
// reused across Forward calls. Kernels skip -1 taps, which contributes an
// exact zero.
func BuildConvIndirect(inDims tensor.Dims, kernelH, kernelW, strideH, strideW, padH, padW int) (*tensor.Blob, error) {
	outDims, err := ConvOutputDims(inDims, 1, kernelH, kernelW, strideH, strideW, padH, padW)
	if err != nil {
		return nil, err
	}
	inH, inW := inDims[2], inDims[3]
	outH, outW := outDims[2], outDims[3]
	kTaps := kernelH * kernelW

	blob, err := tensor.NewOwned(tensor.Desc{
		Dims:   tensor.Dims{outH * outW, kTaps},
		DType:  tensor.Int32,
		Layout: tensor.Indirect,
	})
	if err != nil {
		return nil, err
	}
	idx := blob.AsInt32()
	for oh := 0; oh < outH; oh++ {
		for ow := 0; ow < outW; ow++ {
			p := oh*outW + ow
			for kh := 0; kh < kernelH; kh++ {
				for kw := 0; kw < kernelW; kw++ {
					ih := oh*strideH - padH + kh
					iw := ow*strideW - padW + kw
					t := kh*kernelW + kw
					if ih < 0 || ih >= inH || iw < 0 || iw >= inW {
						idx[p*kTaps+t] = -1
					} else {
						idx[p*kTaps+t] = int32(ih*inW + iw)
					}
				}
			}
		}
	}
	return blob, nil
}
