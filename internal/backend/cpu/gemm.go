package cpu

import (
	"github.com/strata-ml/strata/internal/parallel"
	"github.com/strata-ml/strata/internal/tensor"
)

// Packed GEMM for the gradient engine's input-gradient path. A is copied
// into scratch row-major; B is laid out in rows padded to the lane width so
// the inner loop always reads full 4-wide groups. Both scratch areas come
// from the shared workspace arena.

// PackGemmA copies a ([m, k] row-major) into scratch.
func PackGemmA(dst, a []float32, m, k int) {
	copy(dst[:m*k], a[:m*k])
}

// PackGemmB lays b ([k, n] row-major) into rows of roundUp(n, 4) lanes,
// zero-filling the padded columns.
func PackGemmB(dst, b []float32, k, n int) {
	nPadded := tensor.RoundUp(n, tensor.PackWidth)
	for r := 0; r < k; r++ {
		row := dst[r*nPadded : (r+1)*nPadded]
		copy(row, b[r*n:(r+1)*n])
		for j := n; j < nPadded; j++ {
			row[j] = 0
		}
	}
}

// GemmPackedAcc accumulates a @ b into c ([m, n] row-major, unpadded).
// Rows of c are disjoint across parallel iterations. The 4-wide column
// groups read B's zero padding freely; stores are masked to real columns.
func GemmPackedAcc(c, packedA, packedB []float32, m, k, n int, cfg parallel.Config) {
	nPadded := tensor.RoundUp(n, tensor.PackWidth)

	parallel.For(m, func(i int) {
		aRow := packedA[i*k : (i+1)*k]
		cRow := c[i*n : (i+1)*n]
		for j := 0; j < nPadded; j += tensor.PackWidth {
			var t0, t1, t2, t3 float32
			for p := 0; p < k; p++ {
				av := aRow[p]
				bRow := packedB[p*nPadded+j:]
				t0 += av * bRow[0]
				t1 += av * bRow[1]
				t2 += av * bRow[2]
				t3 += av * bRow[3]
			}
			if j+tensor.PackWidth <= n {
				cRow[j] += t0
				cRow[j+1] += t1
				cRow[j+2] += t2
				cRow[j+3] += t3
				continue
			}
			// Masked store for the column remainder.
			if j < n {
				cRow[j] += t0
			}
			if j+1 < n {
				cRow[j+1] += t1
			}
			if j+2 < n {
				cRow[j+2] += t2
			}
			if j+3 < n {
				cRow[j+3] += t3
			}
		}
	}, cfg)
}
