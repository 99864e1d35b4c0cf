package api

import (
	"errors"

	"QOFA/internal/engine"
	"QOFA/internal/service/metrics"
	"QOFA/internal/usecase"
	xhttp "QOFA/pkg/http"
	applogger "QOFA/pkg/logger"
)

// toAppError maps use case failures onto HTTP errors: bad input is a 400,
// numerically degenerate input a 422, anything else a 500.
func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, usecase.ErrClientNameRequired):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case engine.IsInputError(err):
		return xhttp.InvalidInputError(err.Error()).WithError(err)
	case engine.IsDegenerate(err):
		return xhttp.DegenerateError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

func recordError(l *applogger.Logger, endpoint string, appErr *xhttp.AppError) {
	metrics.EndpointErrors.WithLabelValues(endpoint, appErr.Code).Inc()
	if appErr.Status >= 500 {
		l.Error("api error", applogger.String("endpoint", endpoint), applogger.Error(appErr))
		return
	}
	l.Warn("api rejected", applogger.String("endpoint", endpoint), applogger.Error(appErr))
}
