// Package grad implements the backward protocol: per-operator gradient
// functions resolved through an explicit registry, writing into
// caller-owned destinations with independent accumulate flags.
//
// Gradient arithmetic runs on canonical float32 data. Narrow formats are
// rejected rather than silently widened.
package grad

import (
	"log/slog"

	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// Dest is one gradient destination. Accumulate adds the new contribution to
// whatever the buffer holds; otherwise the buffer is overwritten.
type Dest struct {
	Buf        *tensor.Buffer
	Accumulate bool
}

// Request carries everything one backward step needs: the forward tensors,
// the upstream gradient flowing in from the output side, and a destination
// per input and per resource slot.
type Request struct {
	Op       op.Type
	Param    op.Param
	Resource *op.Resource

	Inputs  []*tensor.Blob
	Outputs []*tensor.Blob

	// OutputGrad is the upstream gradient with the output's dims. A nil
	// value means the walker reached this operator without one.
	OutputGrad *tensor.Buffer

	// InputGrads has one destination per input. ResourceGrads is
	// per-operator: inner product uses [weight, bias], with the bias slot
	// ignored when the operator has no bias.
	InputGrads    []Dest
	ResourceGrads []Dest
}

// GradFunc computes one operator's backward step. All generic validation
// has already passed; the function checks operator-specific geometry before
// touching any destination.
type GradFunc func(ctx *device.Context, req *Request) error

// gradShape fixes the arity of a backward step.
type gradShape struct {
	inputs        int
	outputs       int
	resourceGrads int
}

var gradShapes = map[op.Type]gradShape{
	op.InnerProduct: {inputs: 1, outputs: 1, resourceGrads: 2},
	op.ReLU:         {inputs: 1, outputs: 1, resourceGrads: 0},
	op.Sigmoid:      {inputs: 1, outputs: 1, resourceGrads: 0},
	op.Add:          {inputs: 2, outputs: 1, resourceGrads: 0},
}

// Engine resolves and runs gradient functions. Like the kernel registry it
// is an explicit object; nothing is process-global.
type Engine struct {
	ctx   *device.Context
	funcs map[op.Type]GradFunc
}

// NewEngine returns an engine bound to ctx with the built-in gradient set.
func NewEngine(ctx *device.Context) *Engine {
	e := &Engine{ctx: ctx, funcs: make(map[op.Type]GradFunc)}
	e.funcs[op.InnerProduct] = innerProductGrad
	e.funcs[op.ReLU] = reluGrad
	e.funcs[op.Sigmoid] = sigmoidGrad
	e.funcs[op.Add] = addGrad
	return e
}

// Register adds a gradient function for an operator that has none yet.
func (e *Engine) Register(t op.Type, f GradFunc) error {
	if f == nil {
		return status.Errorf(status.KindNullResource, "nil gradient func for op %s", t)
	}
	if _, ok := e.funcs[t]; ok {
		return status.Errorf(status.KindInvalidState, "gradient for op %s already registered", t)
	}
	e.funcs[t] = f
	return nil
}

// Context returns the bound device context.
func (e *Engine) Context() *device.Context { return e.ctx }

// OnGrad validates and runs one backward step. Validation is ordered so
// that every failure happens before any destination is modified.
func (e *Engine) OnGrad(req *Request) error {
	if req == nil {
		return status.Errorf(status.KindNullResource, "nil gradient request")
	}
	if err := e.run(req); err != nil {
		slog.Debug("gradient step rejected", "op", req.Op.String(), "err", err)
		return err
	}
	return nil
}

func (e *Engine) run(req *Request) error {
	f, ok := e.funcs[req.Op]
	if !ok {
		return status.Errorf(status.KindKernelNotFound,
			"no gradient for op %s on %s device", req.Op, e.ctx.Device().Kind())
	}
	shape, ok := gradShapes[req.Op]
	if !ok {
		return status.Errorf(status.KindKernelNotFound, "no gradient shape for op %s", req.Op)
	}
	if len(req.Inputs) != shape.inputs || len(req.Outputs) != shape.outputs {
		return status.Errorf(status.KindShapeMismatch,
			"op %s gradient wants %d inputs and %d outputs, got %d and %d",
			req.Op, shape.inputs, shape.outputs, len(req.Inputs), len(req.Outputs))
	}
	if len(req.InputGrads) != shape.inputs || len(req.ResourceGrads) != shape.resourceGrads {
		return status.Errorf(status.KindShapeMismatch,
			"op %s gradient wants %d input and %d resource destinations, got %d and %d",
			req.Op, shape.inputs, shape.resourceGrads, len(req.InputGrads), len(req.ResourceGrads))
	}

	dt := req.Outputs[0].DType()
	for _, in := range req.Inputs {
		if in.DType() != dt {
			return status.Errorf(status.KindShapeMismatch,
				"op %s gradient dtypes disagree: input %s, output %s", req.Op, in.DType(), dt)
		}
	}
	if dt != tensor.Float32 {
		return status.Errorf(status.KindUnsupportedDType, "op %s gradient on %s tensors", req.Op, dt)
	}

	if req.OutputGrad == nil {
		return status.Errorf(status.KindMissingUpstreamGradient,
			"op %s has no upstream gradient", req.Op)
	}
	if req.OutputGrad.DType() != tensor.Float32 {
		return status.Errorf(status.KindUnsupportedDType,
			"op %s upstream gradient is %s", req.Op, req.OutputGrad.DType())
	}
	if !req.OutputGrad.Dims().Equal(req.Outputs[0].Dims()) {
		return status.Errorf(status.KindShapeMismatch,
			"op %s upstream gradient dims %v, output dims %v",
			req.Op, req.OutputGrad.Dims(), req.Outputs[0].Dims())
	}

	return f(e.ctx, req)
}

// checkDest validates one destination before arithmetic: present, float32,
// canonical and exactly wantElems wide.
func checkDest(dest Dest, wantElems int, what string) error {
	if dest.Buf == nil {
		return status.Errorf(status.KindNullResource, "%s destination missing", what)
	}
	if dest.Buf.DType() != tensor.Float32 {
		return status.Errorf(status.KindUnsupportedDType,
			"%s destination is %s", what, dest.Buf.DType())
	}
	if dest.Buf.Layout() != tensor.Canonical {
		return status.Errorf(status.KindShapeMismatch,
			"%s destination must be canonical, got %s", what, dest.Buf.Layout())
	}
	if dest.Buf.ElemCount() != wantElems {
		return status.Errorf(status.KindShapeMismatch,
			"%s destination holds %d elements, want %d", what, dest.Buf.ElemCount(), wantElems)
	}
	return nil
}

// gradView wraps an upstream gradient buffer as a zero-offset view so the
// layout converters can consume it.
func gradView(buf *tensor.Buffer) (*tensor.Blob, error) {
	return tensor.NewBlob(buf.Desc(), buf, 0)
}
