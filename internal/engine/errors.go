package engine

import "errors"

// Sentinel errors. Every message is prefixed with "engine:"; operations wrap
// them with context via fmt.Errorf("...: %w", ErrX) and callers match with errors.Is.
var (
	// Construction errors: non-retryable, raised before any computation.
	ErrInvalidBasisSize = errors.New("engine: basis size must be > 0")
	ErrInvalidTimeSteps = errors.New("engine: time steps must be > 0")
	ErrInvalidOption    = errors.New("engine: invalid option")

	// Input-shape errors.
	ErrEmptyInput       = errors.New("engine: empty input")
	ErrInsufficientData = errors.New("engine: at least two samples required")
	ErrLengthMismatch   = errors.New("engine: length mismatch")
	ErrNonSquare        = errors.New("engine: matrix is not square")
	ErrNonFinite        = errors.New("engine: NaN or Inf in input")
	ErrDuplicateSymbol  = errors.New("engine: duplicate symbol")
	ErrInvalidInput     = errors.New("engine: invalid input")

	// Numerical degeneracy.
	ErrDegenerateStrikes   = errors.New("engine: adjacent strikes are equal")
	ErrDegenerateCoupling  = errors.New("engine: coupling matrix has no non-zero singular value")
	ErrDegeneratePortfolio = errors.New("engine: portfolio weights have zero norm")
	ErrNumericalDegeneracy = errors.New("engine: computation produced NaN or Inf")
)

// IsInputError reports whether err is caused by malformed caller input.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrEmptyInput, ErrInsufficientData, ErrLengthMismatch, ErrNonSquare,
		ErrNonFinite, ErrDuplicateSymbol, ErrInvalidInput, ErrInvalidTimeSteps,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsDegenerate reports whether err is a numerical-degeneracy failure.
func IsDegenerate(err error) bool {
	return errors.Is(err, ErrDegenerateStrikes) ||
		errors.Is(err, ErrDegenerateCoupling) ||
		errors.Is(err, ErrDegeneratePortfolio) ||
		errors.Is(err, ErrNumericalDegeneracy)
}
