package layer

import (
	"github.com/strata-ml/strata/internal/layout"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// opShape describes an operator's arity, resource needs and the input dtypes
// it accepts. Init validates against this table before any storage is
// touched.
type opShape struct {
	inputs        int
	outputs       int
	needsResource bool
	dtypes        []tensor.DataType
}

var opShapes = map[op.Type]opShape{
	op.InnerProduct: {1, 1, true, []tensor.DataType{tensor.Float32}},
	op.Conv:         {1, 1, true, []tensor.DataType{tensor.Float32, tensor.Int8}},
	op.ReLU:         {1, 1, false, []tensor.DataType{tensor.Float32, tensor.Int8}},
	op.Sigmoid:      {1, 1, false, []tensor.DataType{tensor.Float32}},
	op.Add:          {2, 1, false, []tensor.DataType{tensor.Float32}},
}

func (s opShape) allows(dt tensor.DataType) bool {
	for _, d := range s.dtypes {
		if d == dt {
			return true
		}
	}
	return false
}

// OutputDims computes the dims one operator produces from its inputs.
// Reshape uses it to size outputs; pipeline builders can use it to size
// intermediate tensors before Init.
func OutputDims(t op.Type, param op.Param, inputs []*tensor.Blob) (tensor.Dims, error) {
	shape, ok := opShapes[t]
	if !ok {
		return nil, status.Errorf(status.KindKernelNotFound, "no shape rule for op %s", t)
	}
	if len(inputs) != shape.inputs {
		return nil, status.Errorf(status.KindShapeMismatch,
			"op %s wants %d inputs, got %d", t, shape.inputs, len(inputs))
	}
	switch t {
	case op.InnerProduct:
		p, ok := param.(*op.InnerProductParam)
		if !ok {
			return nil, status.Errorf(status.KindNullResource, "op %s needs an inner product param", t)
		}
		return tensor.Dims{inputs[0].Dims()[0], p.OutChannels}, nil
	case op.Conv:
		p, ok := param.(*op.ConvParam)
		if !ok {
			return nil, status.Errorf(status.KindNullResource, "op %s needs a conv param", t)
		}
		return layout.ConvOutputDims(inputs[0].Dims(), p.OutChannels,
			p.KernelH, p.KernelW, p.StrideH, p.StrideW, p.PadH, p.PadW)
	case op.ReLU, op.Sigmoid:
		return inputs[0].Dims().Clone(), nil
	case op.Add:
		if !inputs[0].Dims().Equal(inputs[1].Dims()) {
			return nil, status.Errorf(status.KindShapeMismatch,
				"add inputs disagree: %v vs %v", inputs[0].Dims(), inputs[1].Dims())
		}
		return inputs[0].Dims().Clone(), nil
	default:
		return nil, status.Errorf(status.KindKernelNotFound, "no shape rule for op %s", t)
	}
}
