package device

import (
	"github.com/strata-ml/strata/internal/op"
	"github.com/strata-ml/strata/internal/status"
	"github.com/strata-ml/strata/internal/tensor"
)

// Call carries one operator invocation: device-layout inputs and outputs,
// the parameter variant, the persistent resource and, for convolution, the
// precomputed indirect index buffer.
type Call struct {
	Op       op.Type
	Inputs   []*tensor.Blob
	Outputs  []*tensor.Blob
	Param    op.Param
	Resource *op.Resource
	Indirect *tensor.Blob
}

// KernelFunc executes one operator invocation. Inputs arrive already in the
// device layout; the kernel leaves outputs in device layout.
type KernelFunc func(ctx *Context, call *Call) error

// Registry maps operator kinds to kernels for one device kind. Backends
// populate it during bootstrap; after that it is read-only and dispatch
// takes no locks.
type Registry struct {
	kind    Kind
	kernels map[op.Type]KernelFunc
}

// NewRegistry returns an empty registry for one device kind.
func NewRegistry(kind Kind) *Registry {
	return &Registry{kind: kind, kernels: make(map[op.Type]KernelFunc)}
}

// Kind returns the device class the registry serves.
func (r *Registry) Kind() Kind { return r.kind }

// Len returns the number of registered kernels.
func (r *Registry) Len() int { return len(r.kernels) }

// Register adds a kernel for an operator kind. Registering the same kind
// twice is an error; a deliberate override goes through Replace.
func (r *Registry) Register(t op.Type, k KernelFunc) error {
	if k == nil {
		return status.Errorf(status.KindNullResource, "nil kernel for op %s", t)
	}
	if _, ok := r.kernels[t]; ok {
		return status.Errorf(status.KindInvalidState,
			"kernel for op %s already registered on %s", t, r.kind)
	}
	r.kernels[t] = k
	return nil
}

// Replace installs a kernel regardless of an existing entry. Bootstrap code
// uses it to upgrade a baseline kernel with a more capable one.
func (r *Registry) Replace(t op.Type, k KernelFunc) {
	r.kernels[t] = k
}

// Lookup resolves the kernel for an operator kind. A missing entry is a
// typed lookup failure, never a crash.
func (r *Registry) Lookup(t op.Type) (KernelFunc, error) {
	k, ok := r.kernels[t]
	if !ok {
		return nil, status.Errorf(status.KindKernelNotFound,
			"op %s on %s device", t, r.kind)
	}
	return k, nil
}

// Dispatch resolves and invokes: no scheduling, no layout work, no fallback.
func (r *Registry) Dispatch(ctx *Context, call *Call) error {
	k, err := r.Lookup(call.Op)
	if err != nil {
		return err
	}
	return k(ctx, call)
}
