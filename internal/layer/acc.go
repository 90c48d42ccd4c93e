// Package layer implements the forward accelerator: a per-operator lifecycle
// that validates a call once, prepares shape-dependent state once, and then
// executes repeatedly through the device's kernel registry.
package layer

import (
	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/layout"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// State tracks the accelerator lifecycle. Forward is legal only once Shaped;
// a dims change demotes nothing by itself, but Forward detects stale dims
// and demands a new Reshape.
type State int

const (
	Created State = iota
	Initialized
	Shaped
	Executing
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initialized:
		return "initialized"
	case Shaped:
		return "shaped"
	case Executing:
		return "executing"
	default:
		return "unknown"
	}
}

// stage holds one input's device-layout working copy, reused across Forward
// calls. A nil packed blob means the input is already device-ready and
// passes through without conversion.
type stage struct {
	packed *tensor.Blob // device-layout destination
	src    *tensor.Blob // canonical view to pack from
	canon  *tensor.Blob // scratch for packed inputs that must re-flatten
}

// Acc drives one operator instance. It is not safe for concurrent use; one
// Forward call holds it at a time.
type Acc struct {
	opType   op.Type
	state    State
	ctx      *device.Context
	param    op.Param
	resource *op.Resource
	inputs   []*tensor.Blob
	outputs  []*tensor.Blob

	stages     []stage
	indirect   *tensor.Blob
	shapedDims []tensor.Dims
}

// NewAcc returns an accelerator in the Created state.
func NewAcc(t op.Type) *Acc {
	return &Acc{opType: t}
}

// Op returns the operator kind.
func (a *Acc) Op() op.Type { return a.opType }

// State returns the lifecycle state.
func (a *Acc) State() State { return a.state }

// Outputs returns the bound output blobs, resident in device layout after
// Forward. Callers unpack through CanonicalOutput when they need canonical
// data.
func (a *Acc) Outputs() []*tensor.Blob { return a.outputs }

// Init binds the operator to its context, parameters, resource and tensors,
// and validates everything that does not depend on concrete extents being
// final: arity, dtype agreement, the parameter variant, resource presence
// and the weight byte size. No storage is written.
func (a *Acc) Init(ctx *device.Context, param op.Param, resource *op.Resource, inputs, outputs []*tensor.Blob) error {
	if a.state != Created {
		return status.Errorf(status.KindInvalidState, "Init on %s accelerator", a.state)
	}
	shape, ok := opShapes[a.opType]
	if !ok {
		return status.Errorf(status.KindKernelNotFound, "unknown operator %s", a.opType)
	}
	if len(inputs) != shape.inputs || len(outputs) != shape.outputs {
		return status.Errorf(status.KindShapeMismatch,
			"op %s wants %d inputs and %d outputs, got %d and %d",
			a.opType, shape.inputs, shape.outputs, len(inputs), len(outputs))
	}

	dt := inputs[0].DType()
	if !shape.allows(dt) {
		return status.Errorf(status.KindUnsupportedDType, "op %s on %s input", a.opType, dt)
	}
	for _, in := range inputs[1:] {
		if in.DType() != dt {
			return status.Errorf(status.KindShapeMismatch,
				"op %s inputs disagree on dtype: %s vs %s", a.opType, dt, in.DType())
		}
	}
	for _, out := range outputs {
		if out.DType() != dt {
			return status.Errorf(status.KindShapeMismatch,
				"op %s output dtype %s, input %s", a.opType, out.DType(), dt)
		}
	}

	// Resolve the parameter variant once; kernels and Reshape reuse the
	// typed form without re-asserting.
	switch a.opType {
	case op.InnerProduct:
		if _, ok := param.(*op.InnerProductParam); !ok {
			return status.Errorf(status.KindNullResource, "inner product param missing")
		}
	case op.Conv:
		if _, ok := param.(*op.ConvParam); !ok {
			return status.Errorf(status.KindNullResource, "conv param missing")
		}
	}
	if shape.needsResource {
		if err := validateResource(a.opType, param, resource, inputs[0]); err != nil {
			return err
		}
	}
	if dt == tensor.Int8 && a.opType == op.Conv {
		if inputs[0].Quant() == nil || outputs[0].Quant() == nil {
			return status.Errorf(status.KindNullResource,
				"int8 conv requires input and output scales")
		}
	}

	a.ctx = ctx
	a.param = param
	a.resource = resource
	a.inputs = inputs
	a.outputs = outputs
	a.state = Initialized
	return nil
}

// Reshape prepares everything that depends on extents: output dims and
// storage, the conv indirect table and the packed working copies reused by
// Forward. It must run again whenever input dims change; Forward detects
// stale dims and refuses to run.
func (a *Acc) Reshape() error {
	if a.state != Initialized && a.state != Shaped {
		return status.Errorf(status.KindInvalidState, "Reshape on %s accelerator", a.state)
	}
	shape := opShapes[a.opType]
	if shape.needsResource {
		// Extents may have changed since Init; the weight must still fit.
		if err := validateResource(a.opType, a.param, a.resource, a.inputs[0]); err != nil {
			return err
		}
	}

	wantDims, err := OutputDims(a.opType, a.param, a.inputs)
	if err != nil {
		return err
	}
	dt := a.inputs[0].DType()
	for _, out := range a.outputs {
		if out.Dims().Equal(wantDims) && out.Layout() == tensor.PackedC4 && out.DType() == dt {
			continue
		}
		desc := tensor.Desc{Dims: wantDims.Clone(), DType: dt, Layout: tensor.PackedC4, Quant: out.Quant().Clone()}
		if err := out.Resize(desc); err != nil {
			return err
		}
	}

	if a.opType == op.Conv {
		p := a.param.(*op.ConvParam)
		a.indirect, err = layout.BuildConvIndirect(a.inputs[0].Dims(),
			p.KernelH, p.KernelW, p.StrideH, p.StrideW, p.PadH, p.PadW)
		if err != nil {
			return err
		}
	}
	if err := a.buildStages(); err != nil {
		return err
	}

	a.shapedDims = a.shapedDims[:0]
	for _, in := range a.inputs {
		a.shapedDims = append(a.shapedDims, in.Dims().Clone())
	}
	a.state = Shaped
	return nil
}

// Forward executes the operator once: bring inputs into device layout
// (skipping tensors already resident there), dispatch through the registry,
// and leave outputs in device layout. Repeatable while dims are unchanged.
func (a *Acc) Forward() error {
	if a.state != Shaped {
		return status.Errorf(status.KindInvalidState, "Forward on %s accelerator", a.state)
	}
	for i, in := range a.inputs {
		if !in.Dims().Equal(a.shapedDims[i]) {
			return status.Errorf(status.KindInvalidState,
				"input %d dims changed %v -> %v, Reshape required",
				i, a.shapedDims[i], in.Dims())
		}
	}
	a.state = Executing
	defer func() { a.state = Shaped }()

	devIn := make([]*tensor.Blob, len(a.inputs))
	for i := range a.inputs {
		st := &a.stages[i]
		if st.packed == nil {
			devIn[i] = a.inputs[i]
			continue
		}
		if st.canon != nil {
			if err := layout.UnpackInto(st.canon, a.inputs[i]); err != nil {
				return err
			}
		}
		if err := layout.PackInto(st.packed, st.src); err != nil {
			return err
		}
		devIn[i] = st.packed
	}

	call := &device.Call{
		Op:       a.opType,
		Inputs:   devIn,
		Outputs:  a.outputs,
		Param:    a.param,
		Resource: a.resource,
		Indirect: a.indirect,
	}
	return a.ctx.Device().Registry().Dispatch(a.ctx, call)
}

// CanonicalOutput unpacks one output into canonical layout. The conversion
// belongs to the caller; Forward never pays for it.
func (a *Acc) CanonicalOutput(i int) (*tensor.Blob, error) {
	if a.state != Shaped {
		return nil, status.Errorf(status.KindInvalidState, "CanonicalOutput on %s accelerator", a.state)
	}
	if i < 0 || i >= len(a.outputs) {
		return nil, status.Errorf(status.KindShapeMismatch, "output index %d of %d", i, len(a.outputs))
	}
	return layout.Unpack(a.outputs[i])
}

// buildStages allocates the packed working copies for inputs that are not
// already device-resident. Inner product additionally flattens trailing
// axes, viewing canonical storage in place where possible.
func (a *Acc) buildStages() error {
	a.stages = make([]stage, len(a.inputs))
	for i, in := range a.inputs {
		if in.Layout() == tensor.Indirect {
			return status.Errorf(status.KindShapeMismatch,
				"input %d is an indirect index buffer", i)
		}
		dt := in.DType()

		if a.opType == op.InnerProduct {
			n := in.Dims()[0]
			flat := tensor.Dims{n, in.Dims().CountFrom(1)}
			if len(in.Dims()) == 2 && in.Layout() == tensor.PackedC4 {
				continue // already device-ready
			}
			packed, err := tensor.NewOwned(tensor.Desc{
				Dims: flat, DType: dt, Layout: tensor.PackedC4, Quant: in.Quant().Clone(),
			})
			if err != nil {
				return err
			}
			st := stage{packed: packed}
			switch {
			case in.Layout() == tensor.Canonical && len(in.Dims()) == 2:
				st.src = in
			case in.Layout() == tensor.Canonical:
				// Canonical storage is contiguous: flattening is a free
				// reinterpretation of the same bytes.
				view, err := tensor.NewBlob(tensor.Desc{
					Dims: flat, DType: dt, Layout: tensor.Canonical, Quant: in.Quant().Clone(),
				}, in.Base(), in.Offset())
				if err != nil {
					return err
				}
				st.src = view
			default:
				// Packed with trailing axes: unpack, then repack flat.
				canon, err := tensor.NewOwned(in.Desc().WithLayout(tensor.Canonical))
				if err != nil {
					return err
				}
				view, err := tensor.NewBlob(tensor.Desc{
					Dims: flat, DType: dt, Layout: tensor.Canonical, Quant: in.Quant().Clone(),
				}, canon.Base(), 0)
				if err != nil {
					return err
				}
				st.canon = canon
				st.src = view
			}
			a.stages[i] = st
			continue
		}

		if in.Layout() == tensor.PackedC4 {
			continue // conversion skipped, used in place
		}
		packed, err := tensor.NewOwned(in.Desc().WithLayout(tensor.PackedC4))
		if err != nil {
			return err
		}
		a.stages[i] = stage{packed: packed, src: in}
	}
	return nil
}

// validateResource checks weight and bias against the operator's
// expectations: presence, dtype and exact byte size. It runs before any
// arithmetic, at Init and again at every Reshape.
func validateResource(t op.Type, param op.Param, res *op.Resource, in *tensor.Blob) error {
	if res == nil || res.Weight == nil {
		return status.Errorf(status.KindNullResource, "op %s weight missing", t)
	}
	dt := in.DType()

	switch t {
	case op.InnerProduct:
		p := param.(*op.InnerProductParam)
		ic := in.Dims().CountFrom(1)
		if res.Weight.DType() != dt {
			return status.Errorf(status.KindShapeMismatch,
				"inner product weight dtype %s, input %s", res.Weight.DType(), dt)
		}
		want := p.OutChannels * ic * dt.Size()
		if res.Weight.BytesSize() != want {
			return status.Errorf(status.KindShapeMismatch,
				"inner product weight is %d bytes, want %d (out %d, in %d)",
				res.Weight.BytesSize(), want, p.OutChannels, ic)
		}
		if p.HasBias {
			if res.Bias == nil {
				return status.Errorf(status.KindNullResource, "inner product bias missing")
			}
			if res.Bias.BytesSize() != p.OutChannels*dt.Size() {
				return status.Errorf(status.KindShapeMismatch,
					"inner product bias is %d bytes, want %d",
					res.Bias.BytesSize(), p.OutChannels*dt.Size())
			}
		}

	case op.Conv:
		p := param.(*op.ConvParam)
		if len(in.Dims()) != 4 {
			return status.Errorf(status.KindShapeMismatch,
				"conv input must be rank 4, got dims %v", in.Dims())
		}
		ic := in.Dims()[1]
		if res.Weight.DType() != dt {
			return status.Errorf(status.KindShapeMismatch,
				"conv weight dtype %s, input %s", res.Weight.DType(), dt)
		}
		want := p.OutChannels * ic * p.KernelH * p.KernelW * dt.Size()
		if res.Weight.BytesSize() != want {
			return status.Errorf(status.KindShapeMismatch,
				"conv weight is %d bytes, want %d", res.Weight.BytesSize(), want)
		}
		if dt == tensor.Int8 && res.Weight.Quant() == nil {
			return status.Errorf(status.KindNullResource, "int8 conv weight has no scales")
		}
		if p.HasBias {
			if res.Bias == nil {
				return status.Errorf(status.KindNullResource, "conv bias missing")
			}
			biasDT := dt
			if dt == tensor.Int8 {
				biasDT = tensor.Int32 // accumulator domain
			}
			if res.Bias.DType() != biasDT || res.Bias.BytesSize() != p.OutChannels*biasDT.Size() {
				return status.Errorf(status.KindShapeMismatch,
					"conv bias: %s %d bytes, want %s %d bytes",
					res.Bias.DType(), res.Bias.BytesSize(), biasDT, p.OutChannels*biasDT.Size())
			}
		}
	}
	return nil
}
