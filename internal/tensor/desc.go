package tensor

import "github.com/strata-ml/strata/internal/status"

// Desc describes one tensor: logical dims (always expressed in canonical
// order, independent of layout), element type, resident layout and optional
// quantization metadata.
type Desc struct {
	Dims   Dims
	DType  DataType
	Layout Layout
	Quant  *Quant
}

// ElemCount returns the logical element count, excluding packed padding.
func (d Desc) ElemCount() int {
	return d.Dims.Count()
}

// PaddedCount returns the number of stored elements, including the
// zero-padded channel lanes of a packed layout.
func (d Desc) PaddedCount() int {
	if d.Layout != PackedC4 {
		return d.ElemCount()
	}
	return d.Batch() * RoundUp(d.Channels(), PackWidth) * d.Spatial()
}

// BytesSize returns the storage size in bytes, including packed padding.
func (d Desc) BytesSize() int {
	return d.PaddedCount() * d.DType.Size()
}

// Batch returns the leading extent.
func (d Desc) Batch() int {
	if len(d.Dims) == 0 {
		return 0
	}
	return d.Dims[0]
}

// Channels returns the channel extent (second axis), or 1 for rank-1 dims.
func (d Desc) Channels() int {
	if len(d.Dims) < 2 {
		return 1
	}
	return d.Dims[1]
}

// Spatial returns the product of the extents after the channel axis.
func (d Desc) Spatial() int {
	return d.Dims.CountFrom(2)
}

// Validate checks internal consistency and returns a typed error.
func (d Desc) Validate() error {
	if err := d.Dims.Validate(); err != nil {
		return status.Errorf(status.KindShapeMismatch, "%v", err)
	}
	switch d.DType {
	case Float32, Float16, BFloat16, Int8, Int32:
	default:
		return status.Errorf(status.KindUnsupportedDType, "data type %d", int(d.DType))
	}
	if d.Layout == PackedC4 && len(d.Dims) < 2 {
		return status.Errorf(status.KindShapeMismatch,
			"packed layout requires rank >= 2, got dims %v", d.Dims)
	}
	if d.Layout == Indirect && d.DType != Int32 {
		return status.Errorf(status.KindUnsupportedDType,
			"indirect buffers must be int32, got %s", d.DType)
	}
	return nil
}

// Clone returns a deep copy.
func (d Desc) Clone() Desc {
	return Desc{Dims: d.Dims.Clone(), DType: d.DType, Layout: d.Layout, Quant: d.Quant.Clone()}
}

// WithLayout returns a copy of the desc re-tagged with the given layout.
// Dims stay logical; only the storage arrangement changes.
func (d Desc) WithLayout(l Layout) Desc {
	out := d.Clone()
	out.Layout = l
	return out
}
