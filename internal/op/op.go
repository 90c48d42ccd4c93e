// Package op defines operator kinds, their parameter variants and the
// persistent resources (weights, biases) an operator owns.
package op

import "github.com/strata-ml/strata/internal/tensor"

// Type identifies an operator kind. It keys the kernel and gradient
// registries.
type Type int

const (
	InnerProduct Type = iota
	Conv
	ReLU
	Sigmoid
	Add
)

func (t Type) String() string {
	switch t {
	case InnerProduct:
		return "InnerProduct"
	case Conv:
		return "Conv"
	case ReLU:
		return "ReLU"
	case Sigmoid:
		return "Sigmoid"
	case Add:
		return "Add"
	default:
		return "unknown"
	}
}

// Param is the tagged parameter variant attached to an operator. The concrete
// payload is type-asserted exactly once, when an accelerator or gradient
// function initializes, never on the execution path. Operators without
// parameters (the unary family, Add) carry a nil Param.
type Param interface {
	Kind() Type
}

// InnerProductParam configures a fully connected operator. The weight is
// [OutChannels, inChannels]; the input's trailing axes flatten into
// inChannels.
type InnerProductParam struct {
	OutChannels int
	HasBias     bool
}

func (*InnerProductParam) Kind() Type { return InnerProduct }

// ConvParam configures a 2D convolution with weight
// [OutChannels, inChannels, KernelH, KernelW].
type ConvParam struct {
	OutChannels int
	KernelH     int
	KernelW     int
	StrideH     int
	StrideW     int
	PadH        int
	PadW        int
	HasBias     bool
	// FuseReLU clamps negative outputs inside the kernel. Used by the
	// quantized path to avoid a second pass over int8 data.
	FuseReLU bool
}

func (*ConvParam) Kind() Type { return Conv }

// Resource holds an operator's persistent parameters. Weight and bias are
// canonical-layout buffers; forward and gradient passes read them, never
// write them.
type Resource struct {
	Weight *tensor.Buffer
	Bias   *tensor.Buffer
}
