package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/siamese/internal/parallel"
)

// vec wraps a float32 slice as a unit-stride BLAS vector.
func vec(x []float32) blas32.Vector {
	return blas32.Vector{N: len(x), Inc: 1, Data: x}
}

// Sub computes dst = a - b element-wise.
func (cpu *CPUBackend) Sub(a, b, dst []float32) {
	if len(a) != len(dst) || len(b) != len(dst) {
		panic(fmt.Sprintf("sub: lengths differ: a=%d b=%d dst=%d", len(a), len(b), len(dst)))
	}
	parallel.ForChunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = a[i] - b[i]
		}
	}, cpu.par)
}

// Dot returns the inner product of x and y.
func (cpu *CPUBackend) Dot(x, y []float32) float32 {
	if len(x) != len(y) {
		panic(fmt.Sprintf("dot: lengths differ: %d vs %d", len(x), len(y)))
	}
	if len(x) == 0 {
		return 0
	}
	return blas32.Dot(vec(x), vec(y))
}

// Scale computes dst = alpha * x.
func (cpu *CPUBackend) Scale(alpha float32, x, dst []float32) {
	if len(x) != len(dst) {
		panic(fmt.Sprintf("scale: lengths differ: x=%d dst=%d", len(x), len(dst)))
	}
	if len(x) == 0 {
		return
	}
	copy(dst, x)
	blas32.Scal(alpha, vec(dst))
}

// Axpy computes y += alpha * x.
func (cpu *CPUBackend) Axpy(alpha float32, x, y []float32) {
	if len(x) != len(y) {
		panic(fmt.Sprintf("axpy: lengths differ: x=%d y=%d", len(x), len(y)))
	}
	if len(x) == 0 {
		return
	}
	blas32.Axpy(alpha, vec(x), vec(y))
}

// RowSumSquares treats x as a [rows, dim] matrix and writes the squared L2
// norm of each row into dst.
func (cpu *CPUBackend) RowSumSquares(x []float32, rows, dim int, dst []float32) {
	checkRows("rowSumSquares", x, rows, dim, dst)
	parallel.For(rows, func(i int) {
		row := x[i*dim : (i+1)*dim]
		dst[i] = blas32.Dot(vec(row), vec(row))
	}, rowConfig(cpu.par, dim))
}

// RowNorms treats x as a [rows, dim] matrix and writes the L2 norm of each
// row into dst.
func (cpu *CPUBackend) RowNorms(x []float32, rows, dim int, dst []float32) {
	checkRows("rowNorms", x, rows, dim, dst)
	parallel.For(rows, func(i int) {
		dst[i] = blas32.Nrm2(vec(x[i*dim : (i+1)*dim]))
	}, rowConfig(cpu.par, dim))
}

// ScaleRows treats x and dst as [rows, dim] matrices and writes
// dst[i, :] = alpha[i] * x[i, :].
func (cpu *CPUBackend) ScaleRows(alpha, x []float32, dim int, dst []float32) {
	rows := len(alpha)
	if len(x) != rows*dim || len(dst) != rows*dim {
		panic(fmt.Sprintf("scaleRows: want %d elements, got x=%d dst=%d", rows*dim, len(x), len(dst)))
	}
	parallel.For(rows, func(i int) {
		lo, hi := i*dim, (i+1)*dim
		copy(dst[lo:hi], x[lo:hi])
		blas32.Scal(alpha[i], vec(dst[lo:hi]))
	}, rowConfig(cpu.par, dim))
}

func checkRows(op string, x []float32, rows, dim int, dst []float32) {
	if len(x) != rows*dim {
		panic(fmt.Sprintf("%s: want %d elements for [%d, %d], got %d", op, rows*dim, rows, dim, len(x)))
	}
	if len(dst) != rows {
		panic(fmt.Sprintf("%s: dst has %d elements, want %d", op, len(dst), rows))
	}
}

// rowConfig scales the chunk size so each goroutine gets roughly the same
// number of elements as an element-wise kernel would.
func rowConfig(cfg parallel.Config, dim int) parallel.Config {
	if dim > 0 {
		cfg.MinChunkSize = max(1, cfg.MinChunkSize/dim)
	}
	return cfg
}
