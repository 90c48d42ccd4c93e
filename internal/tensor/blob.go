package tensor

import (
	"fmt"
	"unsafe"

	"github.com/strata-ml/strata/internal/status"
)

// Blob is a bounds-checked view of tensor data: a descriptor plus a backing
// Buffer and byte offset, validated at construction. A Blob does not have to
// own its storage; several views may alias one buffer.
type Blob struct {
	desc   Desc
	base   *Buffer
	offset int
}

// NewBlob builds a view of base at a byte offset. The viewed range must lie
// entirely inside the buffer.
func NewBlob(desc Desc, base *Buffer, offset int) (*Blob, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if base == nil {
		return nil, status.Errorf(status.KindNullResource, "blob %v has no backing buffer", desc.Dims)
	}
	if offset < 0 || offset+desc.BytesSize() > base.BytesSize() {
		return nil, status.Errorf(status.KindShapeMismatch,
			"view of %d bytes at offset %d exceeds buffer of %d bytes",
			desc.BytesSize(), offset, base.BytesSize())
	}
	return &Blob{desc: desc, base: base, offset: offset}, nil
}

// NewOwned allocates a fresh zero-filled buffer and returns a whole-buffer
// view of it.
func NewOwned(desc Desc) (*Blob, error) {
	buf, err := NewBuffer(desc)
	if err != nil {
		return nil, err
	}
	return &Blob{desc: desc, base: buf}, nil
}

// Desc returns the view's descriptor.
func (t *Blob) Desc() Desc { return t.desc }

// Dims returns the logical dims.
func (t *Blob) Dims() Dims { return t.desc.Dims }

// DType returns the element type.
func (t *Blob) DType() DataType { return t.desc.DType }

// Layout returns the resident layout.
func (t *Blob) Layout() Layout { return t.desc.Layout }

// Quant returns the quantization metadata, or nil.
func (t *Blob) Quant() *Quant { return t.desc.Quant }

// Base returns the backing buffer.
func (t *Blob) Base() *Buffer { return t.base }

// Offset returns the view's byte offset into the backing buffer.
func (t *Blob) Offset() int { return t.offset }

// ElemCount returns the logical element count.
func (t *Blob) ElemCount() int { return t.desc.ElemCount() }

// BytesSize returns the viewed size in bytes, packed padding included.
func (t *Blob) BytesSize() int { return t.desc.BytesSize() }

// Data returns the viewed byte range.
func (t *Blob) Data() []byte {
	return t.base.data[t.offset : t.offset+t.desc.BytesSize()]
}

// AsFloat32 reinterprets the viewed range as float32 lanes, padding included.
// Panics on a dtype mismatch, as with Buffer.AsFloat32.
func (t *Blob) AsFloat32() []float32 {
	if t.desc.DType != Float32 {
		panic(fmt.Sprintf("AsFloat32 called on %s blob", t.desc.DType))
	}
	data := t.Data()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), t.desc.PaddedCount())
}

// AsInt8 reinterprets the viewed range as int8 lanes, padding included.
func (t *Blob) AsInt8() []int8 {
	if t.desc.DType != Int8 {
		panic(fmt.Sprintf("AsInt8 called on %s blob", t.desc.DType))
	}
	data := t.Data()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*int8)(unsafe.Pointer(&data[0])), t.desc.PaddedCount())
}

// AsInt32 reinterprets the viewed range as int32 lanes.
func (t *Blob) AsInt32() []int32 {
	if t.desc.DType != Int32 {
		panic(fmt.Sprintf("AsInt32 called on %s blob", t.desc.DType))
	}
	data := t.Data()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), t.desc.PaddedCount())
}

// AsUint16 reinterprets Float16 or BFloat16 views as raw 16-bit lanes.
func (t *Blob) AsUint16() []uint16 {
	if t.desc.DType != Float16 && t.desc.DType != BFloat16 {
		panic(fmt.Sprintf("AsUint16 called on %s blob", t.desc.DType))
	}
	data := t.Data()
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(&data[0])), t.desc.PaddedCount())
}

// Resize reallocates the view for new dims or layout. Only a whole-buffer
// view may resize; an aliasing sub-view cannot grow the storage under the
// other views' feet.
func (t *Blob) Resize(desc Desc) error {
	if t.offset != 0 || t.base.BytesSize() != t.desc.BytesSize() {
		return status.Errorf(status.KindInvalidState,
			"cannot resize an aliasing view (offset %d of %d-byte buffer)",
			t.offset, t.base.BytesSize())
	}
	if err := t.base.Resize(desc); err != nil {
		return err
	}
	t.desc = desc
	return nil
}
