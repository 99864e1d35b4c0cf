package engine

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// CMatrix is a dense square complex matrix stored row-major.
type CMatrix struct {
	n    int
	data []complex128
}

// NewCMatrix allocates an n×n zero matrix.
func NewCMatrix(n int) (*CMatrix, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cmatrix dim %d: %w", n, ErrEmptyInput)
	}
	return &CMatrix{n: n, data: make([]complex128, n*n)}, nil
}

// CMatrixFromRows copies row-major rows; every row must have len(rows) entries.
func CMatrixFromRows(rows [][]complex128) (*CMatrix, error) {
	n := len(rows)
	m, err := NewCMatrix(n)
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(r), n, ErrNonSquare)
		}
		copy(m.data[i*n:(i+1)*n], r)
	}
	return m, nil
}

// Dim returns the matrix order.
func (m *CMatrix) Dim() int { return m.n }

// At returns element (i, j).
func (m *CMatrix) At(i, j int) complex128 { return m.data[i*m.n+j] }

// Set stores v at (i, j).
func (m *CMatrix) Set(i, j int, v complex128) { m.data[i*m.n+j] = v }

// Rows returns a deep copy as row slices.
func (m *CMatrix) Rows() [][]complex128 {
	out := make([][]complex128, m.n)
	for i := range out {
		out[i] = append([]complex128(nil), m.data[i*m.n:(i+1)*m.n]...)
	}
	return out
}

// Trace returns Σ m[i][i].
func (m *CMatrix) Trace() complex128 {
	var t complex128
	for i := 0; i < m.n; i++ {
		t += m.At(i, i)
	}
	return t
}

// MulVec returns m·v.
func (m *CMatrix) MulVec(v []complex128) []complex128 {
	out := make([]complex128, m.n)
	for i := 0; i < m.n; i++ {
		var s complex128
		row := m.data[i*m.n : (i+1)*m.n]
		for j, a := range row {
			s += a * v[j]
		}
		out[i] = s
	}
	return out
}

// QuadraticForm returns vᴴ·m·v.
func (m *CMatrix) QuadraticForm(v []complex128) complex128 {
	mv := m.MulVec(v)
	var s complex128
	for i, z := range v {
		s += cmplx.Conj(z) * mv[i]
	}
	return s
}

// realEmbedding maps M = A + iB to the 2n×2n real matrix [[A, -B], [B, A]].
// The map is an algebra homomorphism, so products and exponentials commute with it.
func (m *CMatrix) realEmbedding(scale complex128) *mat.Dense {
	n := m.n
	e := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			z := scale * m.At(i, j)
			e.Set(i, j, real(z))
			e.Set(i, j+n, -imag(z))
			e.Set(i+n, j, imag(z))
			e.Set(i+n, j+n, real(z))
		}
	}
	return e
}

// hermitianEmbedding embeds the Hermitian matrix defined by the lower triangle
// of m (the upper triangle is ignored, the diagonal is taken as real).
func (m *CMatrix) hermitianEmbedding() *mat.SymDense {
	n := m.n
	s := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			z := m.At(i, j)
			if i == j {
				z = complex(real(z), 0)
			}
			// h[j][i] = conj(z): fill the upper triangle of the embedding.
			s.SetSym(j, i, real(z))
			s.SetSym(j+n, i+n, real(z))
			s.SetSym(j, i+n, imag(z))
			s.SetSym(i, j+n, -imag(z))
		}
	}
	return s
}

// fromEmbedding recovers the complex matrix from the left block column of a
// real embedding.
func fromEmbedding(e *mat.Dense, n int) *CMatrix {
	m := &CMatrix{n: n, data: make([]complex128, n*n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, complex(e.At(i, j), e.At(i+n, j)))
		}
	}
	return m
}

func (m *CMatrix) finite() bool {
	for _, z := range m.data {
		if !finiteComplex(z) {
			return false
		}
	}
	return true
}

func finiteComplex(z complex128) bool {
	return !math.IsNaN(real(z)) && !math.IsInf(real(z), 0) &&
		!math.IsNaN(imag(z)) && !math.IsInf(imag(z), 0)
}

func finiteVector(v []complex128) bool {
	for _, z := range v {
		if !finiteComplex(z) {
			return false
		}
	}
	return true
}
