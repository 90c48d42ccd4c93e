package grad

import (
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// Session owns the gradient storage for one backward walk. The first
// contribution for a tensor lands in a fresh zero buffer with an overwrite,
// later contributions accumulate, so fan-out in the forward graph sums
// without the operators knowing about each other.
//
// A failed step rolls its first-touch buffers back; the session never keeps
// a destination that no step has written.
type Session struct {
	engine    *Engine
	blobGrads map[*tensor.Blob]*tensor.Buffer
	resGrads  map[*tensor.Buffer]*tensor.Buffer
}

// NewSession returns an empty session over the engine.
func NewSession(e *Engine) *Session {
	return &Session{
		engine:    e,
		blobGrads: make(map[*tensor.Blob]*tensor.Buffer),
		resGrads:  make(map[*tensor.Buffer]*tensor.Buffer),
	}
}

// SetUpstream seeds the walk with the loss gradient for a forward output.
func (s *Session) SetUpstream(b *tensor.Blob, g *tensor.Buffer) {
	s.blobGrads[b] = g
}

// BlobGrad returns the accumulated gradient for a forward tensor, nil when
// no step has produced one.
func (s *Session) BlobGrad(b *tensor.Blob) *tensor.Buffer { return s.blobGrads[b] }

// ResourceGrad returns the accumulated gradient for a weight or bias
// buffer, nil when no step has produced one.
func (s *Session) ResourceGrad(r *tensor.Buffer) *tensor.Buffer { return s.resGrads[r] }

// Step runs one operator's backward. The upstream gradient must already be
// present for the operator's output; destinations for its inputs and
// resources are created on first touch and accumulated on revisits.
func (s *Session) Step(t op.Type, param op.Param, res *op.Resource, inputs, outputs []*tensor.Blob) error {
	shape, ok := gradShapes[t]
	if !ok {
		return status.Errorf(status.KindKernelNotFound, "no gradient shape for op %s", t)
	}

	var og *tensor.Buffer
	if len(outputs) == shape.outputs && shape.outputs == 1 {
		og = s.blobGrads[outputs[0]]
	}

	var newBlobs []*tensor.Blob
	var newRes []*tensor.Buffer
	rollback := func() {
		for _, b := range newBlobs {
			delete(s.blobGrads, b)
		}
		for _, r := range newRes {
			delete(s.resGrads, r)
		}
	}

	inDests := make([]Dest, len(inputs))
	for i, in := range inputs {
		buf, seen := s.blobGrads[in]
		if !seen {
			var err error
			buf, err = newGradBuffer(in.Dims())
			if err != nil {
				rollback()
				return err
			}
			s.blobGrads[in] = buf
			newBlobs = append(newBlobs, in)
		}
		inDests[i] = Dest{Buf: buf, Accumulate: seen}
	}

	resDests := make([]Dest, 0, shape.resourceGrads)
	if shape.resourceGrads > 0 {
		if res == nil || res.Weight == nil {
			rollback()
			return status.Errorf(status.KindNullResource, "op %s gradient needs a weight", t)
		}
		targets := []*tensor.Buffer{res.Weight, res.Bias}
		for k := 0; k < shape.resourceGrads; k++ {
			target := targets[k]
			if target == nil {
				resDests = append(resDests, Dest{})
				continue
			}
			buf, seen := s.resGrads[target]
			if !seen {
				var err error
				buf, err = newGradBuffer(target.Dims())
				if err != nil {
					rollback()
					return err
				}
				s.resGrads[target] = buf
				newRes = append(newRes, target)
			}
			resDests = append(resDests, Dest{Buf: buf, Accumulate: seen})
		}
	}

	req := &Request{
		Op:            t,
		Param:         param,
		Resource:      res,
		Inputs:        inputs,
		Outputs:       outputs,
		OutputGrad:    og,
		InputGrads:    inDests,
		ResourceGrads: resDests,
	}
	if err := s.engine.OnGrad(req); err != nil {
		rollback()
		return err
	}
	return nil
}

// newGradBuffer allocates a zero canonical float32 buffer over dims.
func newGradBuffer(dims tensor.Dims) (*tensor.Buffer, error) {
	return tensor.NewBuffer(tensor.Desc{
		Dims:   dims.Clone(),
		DType:  tensor.Float32,
		Layout: tensor.Canonical,
	})
}
