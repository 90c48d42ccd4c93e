package tensor

import (
	"errors"
	"testing"

	"github.com/strata-ml/strata/internal/status"
)

func TestNewBufferZeroFilled(t *testing.T) {
	buf, err := NewBuffer(Desc{Dims: Dims{2, 3}, DType: Float32, Layout: Canonical})
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	for i, v := range buf.AsFloat32() {
		if v != 0 {
			t.Fatalf("element %d = %v, want 0", i, v)
		}
	}
	if buf.BytesSize() != 2*3*4 {
		t.Errorf("BytesSize = %d, want 24", buf.BytesSize())
	}
}

func TestPackedBufferPadding(t *testing.T) {
	// 5 channels pack into two blocks of 4 lanes.
	desc := Desc{Dims: Dims{2, 5, 3}, DType: Float32, Layout: PackedC4}
	buf, err := NewBuffer(desc)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	wantLanes := 2 * 8 * 3
	if got := len(buf.AsFloat32()); got != wantLanes {
		t.Errorf("storage lanes = %d, want %d", got, wantLanes)
	}
	if buf.ElemCount() != 2*5*3 {
		t.Errorf("ElemCount = %d, want 30", buf.ElemCount())
	}
}

func TestAsFloat32WrongDTypePanics(t *testing.T) {
	buf, err := NewBuffer(Desc{Dims: Dims{4}, DType: Int8, Layout: Canonical})
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("AsFloat32 on int8 buffer did not panic")
		}
	}()
	buf.AsFloat32()
}

func TestNewBufferFloat32CountMismatch(t *testing.T) {
	_, err := NewBufferFloat32(Dims{2, 3}, []float32{1, 2, 3})
	if !errors.Is(err, status.ErrShapeMismatch) {
		t.Errorf("got %v, want shape mismatch", err)
	}
}

func TestHalfPrecisionValues(t *testing.T) {
	// Exactly representable in both 16-bit formats.
	values := []float32{1.0, -2.5, 0.375, 100.0}

	for _, dt := range []DataType{Float16, BFloat16} {
		buf, err := NewBuffer(Desc{Dims: Dims{4}, DType: dt, Layout: Canonical})
		if err != nil {
			t.Fatalf("NewBuffer(%s) failed: %v", dt, err)
		}
		if err := buf.SetFloat32Values(values); err != nil {
			t.Fatalf("SetFloat32Values(%s) failed: %v", dt, err)
		}
		got, err := buf.Float32Values()
		if err != nil {
			t.Fatalf("Float32Values(%s) failed: %v", dt, err)
		}
		for i := range values {
			if got[i] != values[i] {
				t.Errorf("%s round trip [%d] = %v, want %v", dt, i, got[i], values[i])
			}
		}
	}
}

func TestFloat32ValuesUnsupported(t *testing.T) {
	buf, err := NewBuffer(Desc{Dims: Dims{4}, DType: Int8, Layout: Canonical})
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	if _, err := buf.Float32Values(); !errors.Is(err, status.ErrUnsupportedDType) {
		t.Errorf("got %v, want unsupported dtype", err)
	}
}

func TestResize(t *testing.T) {
	buf, err := NewBuffer(Desc{Dims: Dims{2, 2}, DType: Float32, Layout: Canonical})
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	buf.AsFloat32()[0] = 7

	// Same byte size: storage reused but cleared.
	if err := buf.Resize(Desc{Dims: Dims{4}, DType: Float32, Layout: Canonical}); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if buf.AsFloat32()[0] != 0 {
		t.Error("resize did not clear storage")
	}

	// Larger: fresh zeroed storage.
	if err := buf.Resize(Desc{Dims: Dims{3, 4}, DType: Float32, Layout: Canonical}); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if buf.BytesSize() != 3*4*4 {
		t.Errorf("BytesSize after resize = %d, want 48", buf.BytesSize())
	}
	for i, v := range buf.AsFloat32() {
		if v != 0 {
			t.Fatalf("element %d = %v after resize, want 0", i, v)
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	buf, err := NewBufferFloat32(Dims{3}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("NewBufferFloat32 failed: %v", err)
	}
	dup := buf.Clone()
	dup.AsFloat32()[0] = 9
	if buf.AsFloat32()[0] != 1 {
		t.Error("clone shares storage with original")
	}
}
