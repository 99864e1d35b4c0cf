package repository

// SeriesSource records where the series behind an analysis came from.
type SeriesSource string

const (
	SourceRequest SeriesSource = "request"
	SourceHistory SeriesSource = "history"
	SourceSample  SeriesSource = "sample"
)

// IsValidSource reports whether s is a known series source.
func IsValidSource(s SeriesSource) bool {
	switch s {
	case SourceRequest, SourceHistory, SourceSample:
		return true
	default:
		return false
	}
}
