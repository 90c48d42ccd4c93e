package tensor

import "fmt"

// Dims is the ordered list of tensor extents in canonical (batch-major,
// channel-second) order. Rank is at least 1 and every extent is positive.
type Dims []int

// Count returns the total number of logical elements.
func (d Dims) Count() int {
	if len(d) == 0 {
		return 0
	}
	n := 1
	for _, v := range d {
		n *= v
	}
	return n
}

// CountFrom returns the product of the extents from axis onward. Axes past
// the end count as 1, so CountFrom(2) on a rank-2 tensor is the unit spatial
// size.
func (d Dims) CountFrom(axis int) int {
	n := 1
	for i := axis; i < len(d); i++ {
		n *= d[i]
	}
	return n
}

// Validate checks rank and extents.
func (d Dims) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("dims must have rank >= 1")
	}
	for _, v := range d {
		if v <= 0 {
			return fmt.Errorf("non-positive extent %d in dims %v", v, d)
		}
	}
	return nil
}

// Equal reports whether two dims have identical rank and extents.
func (d Dims) Equal(other Dims) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if d[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (d Dims) Clone() Dims {
	out := make(Dims, len(d))
	copy(out, d)
	return out
}

func (d Dims) String() string {
	return fmt.Sprint([]int(d))
}

// RoundUp rounds n up to the next multiple of m.
func RoundUp(n, m int) int {
	return (n + m - 1) / m * m
}
