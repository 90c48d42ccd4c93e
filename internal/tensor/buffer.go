package tensor

import (
	"fmt"
	"unsafe"

	"github.com/strata-ml/strata/internal/status"
)

// Buffer is owned tensor storage. Allocation zero-fills, so freshly created
// buffers are valid accumulation targets. A Buffer has exactly one logical
// owner; sharing happens through Blob views.
type Buffer struct {
	data []byte
	desc Desc
}

// NewBuffer allocates zero-initialized storage for desc.
func NewBuffer(desc Desc) (*Buffer, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &Buffer{data: make([]byte, desc.BytesSize()), desc: desc}, nil
}

// NewBufferFloat32 allocates a canonical float32 buffer and copies values
// into it. The value count must match the dims exactly.
func NewBufferFloat32(dims Dims, values []float32) (*Buffer, error) {
	desc := Desc{Dims: dims.Clone(), DType: Float32, Layout: Canonical}
	buf, err := NewBuffer(desc)
	if err != nil {
		return nil, err
	}
	if len(values) != desc.ElemCount() {
		return nil, status.Errorf(status.KindShapeMismatch,
			"%d values for dims %v (%d elements)", len(values), dims, desc.ElemCount())
	}
	copy(buf.AsFloat32(), values)
	return buf, nil
}

// Desc returns the buffer's descriptor.
func (b *Buffer) Desc() Desc { return b.desc }

// Dims returns the logical dims.
func (b *Buffer) Dims() Dims { return b.desc.Dims }

// DType returns the element type.
func (b *Buffer) DType() DataType { return b.desc.DType }

// Layout returns the resident layout.
func (b *Buffer) Layout() Layout { return b.desc.Layout }

// Quant returns the quantization metadata, or nil.
func (b *Buffer) Quant() *Quant { return b.desc.Quant }

// Bytes returns the raw storage, including any packed padding.
func (b *Buffer) Bytes() []byte { return b.data }

// BytesSize returns the storage size in bytes.
func (b *Buffer) BytesSize() int { return len(b.data) }

// ElemCount returns the logical element count.
func (b *Buffer) ElemCount() int { return b.desc.ElemCount() }

// AsFloat32 reinterprets the storage as float32 lanes, padding included.
// Panics when the element type is not Float32; operations validate dtypes
// before touching storage, so a panic here is a programming error.
func (b *Buffer) AsFloat32() []float32 {
	if b.desc.DType != Float32 {
		panic(fmt.Sprintf("AsFloat32 called on %s buffer", b.desc.DType))
	}
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b.data[0])), b.desc.PaddedCount())
}

// AsInt8 reinterprets the storage as int8 lanes, padding included.
func (b *Buffer) AsInt8() []int8 {
	if b.desc.DType != Int8 {
		panic(fmt.Sprintf("AsInt8 called on %s buffer", b.desc.DType))
	}
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int8)(unsafe.Pointer(&b.data[0])), b.desc.PaddedCount())
}

// AsInt32 reinterprets the storage as int32 lanes, padding included.
func (b *Buffer) AsInt32() []int32 {
	if b.desc.DType != Int32 {
		panic(fmt.Sprintf("AsInt32 called on %s buffer", b.desc.DType))
	}
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&b.data[0])), b.desc.PaddedCount())
}

// AsUint16 reinterprets Float16 or BFloat16 storage as raw 16-bit lanes.
func (b *Buffer) AsUint16() []uint16 {
	if b.desc.DType != Float16 && b.desc.DType != BFloat16 {
		panic(fmt.Sprintf("AsUint16 called on %s buffer", b.desc.DType))
	}
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&b.data[0])), b.desc.PaddedCount())
}

// Zero clears the storage. Accumulation targets are re-zeroed through this
// before an overwrite-mode pass.
func (b *Buffer) Zero() {
	clear(b.data)
}

// Clone returns an independent deep copy of storage and descriptor.
func (b *Buffer) Clone() *Buffer {
	data := make([]byte, len(b.data))
	copy(data, b.data)
	return &Buffer{data: data, desc: b.desc.Clone()}
}

// Resize reallocates the buffer for a new descriptor. Storage is replaced
// and zero-filled whenever the byte size changes; contents are not carried
// over. Dims changes always go through here, never through reinterpretation.
func (b *Buffer) Resize(desc Desc) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if desc.BytesSize() != len(b.data) {
		b.data = make([]byte, desc.BytesSize())
	} else {
		clear(b.data)
	}
	b.desc = desc
	return nil
}

// Float32Values converts the stored lanes to float32, in storage order.
// Supported for the floating-point formats only.
func (b *Buffer) Float32Values() ([]float32, error) {
	switch b.desc.DType {
	case Float32:
		src := b.AsFloat32()
		out := make([]float32, len(src))
		copy(out, src)
		return out, nil
	case Float16, BFloat16:
		src := b.AsUint16()
		out := make([]float32, len(src))
		for i, bits := range src {
			out[i] = toFloat32(b.desc.DType, bits)
		}
		return out, nil
	default:
		return nil, status.Errorf(status.KindUnsupportedDType,
			"no float32 view of %s storage", b.desc.DType)
	}
}

// SetFloat32Values writes float32 values into the stored lanes, narrowing
// for the 16-bit formats. The value count must match the storage lane count.
func (b *Buffer) SetFloat32Values(values []float32) error {
	if len(values) != b.desc.PaddedCount() {
		return status.Errorf(status.KindShapeMismatch,
			"%d values for %d storage lanes", len(values), b.desc.PaddedCount())
	}
	switch b.desc.DType {
	case Float32:
		copy(b.AsFloat32(), values)
		return nil
	case Float16, BFloat16:
		dst := b.AsUint16()
		for i, v := range values {
			dst[i] = fromFloat32(b.desc.DType, v)
		}
		return nil
	default:
		return status.Errorf(status.KindUnsupportedDType,
			"cannot write float32 values into %s storage", b.desc.DType)
	}
}
