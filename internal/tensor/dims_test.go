package tensor

import "testing"

func TestDimsCount(t *testing.T) {
	tests := []struct {
		dims Dims
		want int
	}{
		{Dims{4}, 4},
		{Dims{2, 3}, 6},
		{Dims{2, 3, 4, 5}, 120},
		{Dims{}, 0},
	}
	for _, tt := range tests {
		if got := tt.dims.Count(); got != tt.want {
			t.Errorf("Count(%v) = %d, want %d", tt.dims, got, tt.want)
		}
	}
}

func TestDimsCountFrom(t *testing.T) {
	d := Dims{2, 3, 4, 5}
	if got := d.CountFrom(1); got != 60 {
		t.Errorf("CountFrom(1) = %d, want 60", got)
	}
	if got := d.CountFrom(2); got != 20 {
		t.Errorf("CountFrom(2) = %d, want 20", got)
	}
	if got := d.CountFrom(4); got != 1 {
		t.Errorf("CountFrom(4) = %d, want 1", got)
	}
	if got := d.CountFrom(7); got != 1 {
		t.Errorf("CountFrom past rank = %d, want 1", got)
	}
}

func TestDimsValidate(t *testing.T) {
	if err := (Dims{2, 3}).Validate(); err != nil {
		t.Errorf("valid dims rejected: %v", err)
	}
	if err := (Dims{}).Validate(); err == nil {
		t.Error("rank-0 dims accepted")
	}
	if err := (Dims{2, 0}).Validate(); err == nil {
		t.Error("zero extent accepted")
	}
	if err := (Dims{2, -1}).Validate(); err == nil {
		t.Error("negative extent accepted")
	}
}

func TestDimsEqualClone(t *testing.T) {
	a := Dims{2, 3, 4}
	b := a.Clone()
	if !a.Equal(b) {
		t.Error("clone not equal to original")
	}
	b[1] = 7
	if a[1] != 3 {
		t.Error("clone shares storage with original")
	}
	if a.Equal(Dims{2, 3}) {
		t.Error("rank mismatch reported equal")
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct{ n, m, want int }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{9, 4, 12},
		{7, 8, 8},
	}
	for _, tt := range tests {
		if got := RoundUp(tt.n, tt.m); got != tt.want {
			t.Errorf("RoundUp(%d, %d) = %d, want %d", tt.n, tt.m, got, tt.want)
		}
	}
}
