package engine

import "math"

// buildBasis returns the n×n basis. Row r, column k is the damped falling
// factorial exp(-k²/2)·k(k-1)…(k-r+1), which vanishes for k < r.
// Magnitudes are evaluated in log space so large n never yields Inf·0.
func buildBasis(n int) (*CMatrix, error) {
	b, err := NewCMatrix(n)
	if err != nil {
		return nil, ErrInvalidBasisSize
	}
	for r := 0; r < n; r++ {
		for k := r; k < n; k++ {
			kf := float64(k)
			lgK, _ := math.Lgamma(kf + 1)
			lgKR, _ := math.Lgamma(kf - float64(r) + 1)
			b.Set(r, k, complex(math.Exp(-0.5*kf*kf+lgK-lgKR), 0))
		}
	}
	return b, nil
}

// basisRow returns row r truncated or zero-padded to length l.
func (e *Engine) basisRow(r, l int) []complex128 {
	out := make([]complex128, l)
	n := e.basis.Dim()
	for k := 0; k < l && k < n; k++ {
		out[k] = e.basis.At(r, k)
	}
	return out
}
