// Package model composes forward accelerators into sequential pipelines
// that reshape and execute as a unit and drive their own backward walks.
package model

import (
	"github.com/strata-ml/strata/internal/device"
	"github.com/strata-ml/strata/internal/grad"
	"github.com/strata-ml/strata/internal/layer"
	"github.com/strata-ml/strata/internal/layout"
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// Layer describes one step of a sequence: the operator kind, its attributes
// and its trained resources. Operators without resources leave Resource nil.
type Layer struct {
	Type     op.Type
	Param    op.Param
	Resource *op.Resource
}

// Sequence chains single-input operators into a pipeline. Each accelerator's
// output blob is the next one's input, so a Reshape walk propagates dims
// through the chain and Forward leaves every intermediate in device layout
// with no conversions between steps.
//
// Example:
//
//	seq := model.NewSequence(ctx,
//	    model.Layer{Type: op.InnerProduct, Param: fcParam, Resource: fcRes},
//	    model.Layer{Type: op.ReLU},
//	)
//
//	if err := seq.Bind(input); err != nil { ... }
//	if err := seq.Reshape(); err != nil { ... }
//	if err := seq.Forward(); err != nil { ... }
type Sequence struct {
	ctx    *device.Context
	layers []Layer
	accs   []*layer.Acc
	blobs  []*tensor.Blob
	input  *tensor.Blob
}

// NewSequence creates a sequence over the context. Layers run in the order
// given.
func NewSequence(ctx *device.Context, layers ...Layer) *Sequence {
	return &Sequence{ctx: ctx, layers: layers}
}

// Add appends a layer. Adding to a bound sequence drops the binding; Bind
// must run again before the next Reshape.
func (s *Sequence) Add(l Layer) {
	s.layers = append(s.layers, l)
	s.accs = nil
	s.blobs = nil
	s.input = nil
}

// Len returns the number of layers.
func (s *Sequence) Len() int {
	return len(s.layers)
}

// Acc returns the accelerator at the given index of a bound sequence.
//
// Panics if the index is out of bounds.
func (s *Sequence) Acc(index int) *layer.Acc {
	if index < 0 || index >= len(s.accs) {
		panic("model.Sequence.Acc: index out of bounds")
	}
	return s.accs[index]
}

// Bind creates the accelerators and intermediate tensors for one input and
// initializes every layer against its real dims. The intermediates start
// canonical; the first Reshape moves them to device layout.
func (s *Sequence) Bind(input *tensor.Blob) error {
	if input == nil {
		return status.Errorf(status.KindNullResource, "sequence input is nil")
	}

	accs := make([]*layer.Acc, 0, len(s.layers))
	blobs := make([]*tensor.Blob, 0, len(s.layers))
	prev := input
	for i, l := range s.layers {
		dims, err := layer.OutputDims(l.Type, l.Param, []*tensor.Blob{prev})
		if err != nil {
			return status.Wrapf(err, "layer %d", i)
		}
		out, err := tensor.NewOwned(tensor.Desc{
			Dims:   dims,
			DType:  prev.DType(),
			Layout: tensor.Canonical,
			Quant:  prev.Quant().Clone(),
		})
		if err != nil {
			return err
		}

		acc := layer.NewAcc(l.Type)
		if err := acc.Init(s.ctx, l.Param, l.Resource, []*tensor.Blob{prev}, []*tensor.Blob{out}); err != nil {
			return status.Wrapf(err, "layer %d", i)
		}
		accs = append(accs, acc)
		blobs = append(blobs, out)
		prev = out
	}

	s.accs = accs
	s.blobs = blobs
	s.input = input
	return nil
}

// Reshape walks the chain in order, so each layer sees the dims its
// predecessor just produced. Run it after Bind and again whenever the input
// dims change.
func (s *Sequence) Reshape() error {
	if s.input == nil {
		return status.Errorf(status.KindInvalidState, "sequence not bound")
	}
	for i, acc := range s.accs {
		if err := acc.Reshape(); err != nil {
			return status.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Forward executes the chain once. Outputs stay in device layout.
func (s *Sequence) Forward() error {
	if s.input == nil {
		return status.Errorf(status.KindInvalidState, "sequence not bound")
	}
	for i, acc := range s.accs {
		if err := acc.Forward(); err != nil {
			return status.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Input returns the bound input tensor, nil before Bind.
func (s *Sequence) Input() *tensor.Blob {
	return s.input
}

// Output returns the final tensor of the chain. For an empty sequence this
// is the input itself.
func (s *Sequence) Output() *tensor.Blob {
	if len(s.blobs) == 0 {
		return s.input
	}
	return s.blobs[len(s.blobs)-1]
}

// CanonicalOutput unpacks the final tensor into canonical layout.
func (s *Sequence) CanonicalOutput() (*tensor.Blob, error) {
	if s.input == nil {
		return nil, status.Errorf(status.KindInvalidState, "sequence not bound")
	}
	if len(s.accs) == 0 {
		return layout.Unpack(s.input)
	}
	return s.accs[len(s.accs)-1].CanonicalOutput(0)
}

// Backward seeds the session with the loss gradient for the final output and
// steps every layer in reverse. After it returns, the session holds
// gradients for the input and for every weight and bias in the chain.
func (s *Sequence) Backward(session *grad.Session, upstream *tensor.Buffer) error {
	if s.input == nil {
		return status.Errorf(status.KindInvalidState, "sequence not bound")
	}
	if session == nil || upstream == nil {
		return status.Errorf(status.KindMissingUpstreamGradient, "sequence backward needs a session and an upstream gradient")
	}

	session.SetUpstream(s.Output(), upstream)
	for i := len(s.accs) - 1; i >= 0; i-- {
		in := s.input
		if i > 0 {
			in = s.blobs[i-1]
		}
		l := s.layers[i]
		err := session.Step(l.Type, l.Param, l.Resource, []*tensor.Blob{in}, []*tensor.Blob{s.blobs[i]})
		if err != nil {
			return status.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Parameters returns every weight and bias buffer in the chain, in layer
// order. The slice feeds optimizer construction.
func (s *Sequence) Parameters() []*tensor.Buffer {
	var params []*tensor.Buffer
	for _, l := range s.layers {
		if l.Resource == nil {
			continue
		}
		if l.Resource.Weight != nil {
			params = append(params, l.Resource.Weight)
		}
		if l.Resource.Bias != nil {
			params = append(params, l.Resource.Bias)
		}
	}
	return params
}
