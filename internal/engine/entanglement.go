package engine

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"QOFA/internal/domain/models"
)

// entropyFloor keeps ln(p) finite for zero probabilities.
const entropyFloor = 1e-10

// EntanglementResult is a cross-instrument coupling matrix with its spectral summary.
type EntanglementResult struct {
	Symbols []string
	Matrix  *CMatrix
	// SingularValues are normalized to sum to 1, descending.
	SingularValues []float64
	Entropy        float64
	Pairs          []models.EntangledPair
}

// Entanglement builds the pairwise coupling matrix of the series, whose
// off-diagonal cell (i,j) is pearson(i,j)·exp(i·arg Σ x_i·x_j), and reduces it
// to the Shannon entropy of its normalized singular values. Row order follows
// the input order.
func (e *Engine) Entanglement(series []models.Series) (*EntanglementResult, error) {
	if err := checkSeries(series); err != nil {
		return nil, fmt.Errorf("entanglement: %w", err)
	}
	n := len(series)
	m, err := NewCMatrix(n)
	if err != nil {
		return nil, fmt.Errorf("entanglement: %w", err)
	}
	res := &EntanglementResult{Symbols: make([]string, n), Matrix: m}
	for i, si := range series {
		res.Symbols[i] = si.Symbol
		for j := i + 1; j < n; j++ {
			sj := series[j]
			corr := pearson(si.Values, sj.Values)
			phase := math.Atan2(0, floats.Dot(si.Values, sj.Values))
			z := cmplx.Rect(corr, phase)
			m.Set(i, j, z)
			m.Set(j, i, z)
			if math.Abs(corr) >= e.opts.EntanglementThreshold {
				res.Pairs = append(res.Pairs, models.EntangledPair{A: si.Symbol, B: sj.Symbol, Correlation: corr})
			}
		}
	}

	sv, err := singularValues(m)
	if err != nil {
		return nil, fmt.Errorf("entanglement: %w", err)
	}
	total := floats.Sum(sv)
	if !(total > 0) {
		return nil, fmt.Errorf("entanglement: %w", ErrDegenerateCoupling)
	}
	floats.Scale(1/total, sv)
	var h float64
	for _, p := range sv {
		h -= p * math.Log(p+entropyFloor)
	}
	res.SingularValues = sv
	res.Entropy = math.Max(h, 0)
	return res, nil
}

// singularValues returns the singular values of m, descending. The real
// embedding carries every singular value twice.
func singularValues(m *CMatrix) ([]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(m.realEmbedding(1), mat.SVDNone); !ok {
		return nil, ErrNumericalDegeneracy
	}
	doubled := svd.Values(nil)
	out := make([]float64, m.Dim())
	for i := range out {
		out[i] = doubled[2*i]
	}
	return out, nil
}

func checkSeries(series []models.Series) error {
	if len(series) < 2 {
		return fmt.Errorf("%d series: %w", len(series), ErrInsufficientData)
	}
	seen := make(map[string]struct{}, len(series))
	l := len(series[0].Values)
	for _, s := range series {
		if _, dup := seen[s.Symbol]; dup {
			return fmt.Errorf("%q: %w", s.Symbol, ErrDuplicateSymbol)
		}
		seen[s.Symbol] = struct{}{}
		switch {
		case len(s.Values) < 2:
			return fmt.Errorf("%q has %d samples: %w", s.Symbol, len(s.Values), ErrInsufficientData)
		case len(s.Values) != l:
			return fmt.Errorf("%q has %d samples, want %d: %w", s.Symbol, len(s.Values), l, ErrLengthMismatch)
		case !finiteSeries(s.Values):
			return fmt.Errorf("%q: %w", s.Symbol, ErrNonFinite)
		}
	}
	return nil
}
