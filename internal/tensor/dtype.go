// Package tensor provides the core data model of the runtime: dims, data
// types, memory layouts, owned buffers and bounds-checked blob views.
package tensor

import (
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// DataType represents runtime element type information for tensors.
type DataType int

// Supported element types.
const (
	Float32 DataType = iota
	Float16
	BFloat16
	Int8
	Int32
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float16, BFloat16:
		return 2
	case Int8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case BFloat16:
		return "bfloat16"
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// IsFloat reports whether the data type is a floating-point format.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float16 || dt == BFloat16
}

// fromFloat32 narrows a float32 to the 16-bit lane encoding of dt.
func fromFloat32(dt DataType, v float32) uint16 {
	switch dt {
	case Float16:
		return uint16(float16.Fromfloat32(v))
	case BFloat16:
		return uint16(bfloat16.FromFloat32(v))
	default:
		panic("fromFloat32 called on " + dt.String())
	}
}

// toFloat32 widens a 16-bit lane encoding of dt back to float32.
func toFloat32(dt DataType, bits uint16) float32 {
	switch dt {
	case Float16:
		return float16.Float16(bits).Float32()
	case BFloat16:
		return bfloat16.BFloat16(bits).Float32()
	default:
		panic("toFloat32 called on " + dt.String())
	}
}
