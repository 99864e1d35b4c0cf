package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"QOFA/internal/domain/models"
	icache "QOFA/internal/service/cache"
	"QOFA/internal/service/metrics"
	"QOFA/internal/service/ratelimit"
	"QOFA/internal/usecase"
	xhttp "QOFA/pkg/http"
	applogger "QOFA/pkg/logger"
	"QOFA/pkg/util"
)

const maxSamplePoints = 5000

// EngineInfo reports the engine tunables.
type EngineInfo interface {
	Metrics() models.EngineMetrics
}

// QuantumHandler serves the analysis endpoints.
type QuantumHandler struct {
	flow      *usecase.FlowAnalysisUseCase
	portfolio *usecase.PortfolioUseCase
	evolution *usecase.EvolutionUseCase
	sample    *usecase.SampleGenerator
	eng       EngineInfo
	l         *applogger.Logger

	cache    icache.BytesCache
	cacheTTL time.Duration
	rl       *ratelimit.Limiter
}

func NewQuantumHandler(
	flow *usecase.FlowAnalysisUseCase,
	portfolio *usecase.PortfolioUseCase,
	evolution *usecase.EvolutionUseCase,
	sample *usecase.SampleGenerator,
	eng EngineInfo,
	l *applogger.Logger,
) *QuantumHandler {
	metrics.Register()
	if l == nil {
		l = applogger.NewNop()
	}
	return &QuantumHandler{
		flow:      flow,
		portfolio: portfolio,
		evolution: evolution,
		sample:    sample,
		eng:       eng,
		l:         l,
	}
}

// SetCache enables response caching for deterministic endpoints.
func (h *QuantumHandler) SetCache(c icache.BytesCache, ttl time.Duration) {
	h.cache = c
	h.cacheTTL = ttl
}

// SetRateLimiter limits the analysis endpoints per client IP.
func (h *QuantumHandler) SetRateLimiter(rl *ratelimit.Limiter) { h.rl = rl }

func (h *QuantumHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/quantum-metrics", h.QuantumMetrics)
	g.GET("/demo/generate-sample-data", h.SampleData)

	a := g.Group("/analyze", h.limit)
	a.POST("/quantum-flow", h.QuantumFlow)
	a.POST("/entanglement", h.Entanglement)
	a.POST("/risk-assessment", h.RiskAssessment)
	a.POST("/hamiltonian", h.Hamiltonian)
}

// limit rejects clients over their token bucket for the route.
func (h *QuantumHandler) limit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.rl == nil || h.rl.Allow(c.RealIP()+"|"+c.Path()) {
			return next(c)
		}
		endpoint := endpointName(c.Path())
		appErr := xhttp.TooManyRequestsError("rate limit exceeded")
		recordError(h.l, endpoint, appErr)
		return xhttp.AppErrorResponse(c, appErr)
	}
}

func (h *QuantumHandler) QuantumFlow(c echo.Context) error {
	const endpoint = "quantum_flow"
	defer observe(endpoint, time.Now())

	req := &models.FlowRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.flow.Analyze(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *QuantumHandler) Entanglement(c echo.Context) error {
	const endpoint = "entanglement"
	defer observe(endpoint, time.Now())

	req := &models.EntanglementRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.portfolio.Entanglement(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *QuantumHandler) RiskAssessment(c echo.Context) error {
	const endpoint = "risk_assessment"
	defer observe(endpoint, time.Now())

	req := &models.RiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.portfolio.AssessRisk(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *QuantumHandler) Hamiltonian(c echo.Context) error {
	const endpoint = "hamiltonian"
	defer observe(endpoint, time.Now())

	req := &models.HamiltonianRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	return h.cached(c, endpoint, req, func() (interface{}, error) {
		return h.evolution.Analyze(ctx, *req)
	})
}

// SampleData accepts optional ?symbols=A,B and ?n= query parameters.
func (h *QuantumHandler) SampleData(c echo.Context) error {
	const endpoint = "sample_data"
	defer observe(endpoint, time.Now())

	symbols := usecase.DefaultSampleSymbols
	if raw := util.Symbols(c.QueryParam("symbols")); len(raw) > 0 {
		symbols = raw
	}
	n := 0
	if raw := c.QueryParam("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2 || v > maxSamplePoints {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_RANGE",
				Field:   "n",
				Message: "n must be an integer between 2 and " + strconv.Itoa(maxSamplePoints),
			}})
		}
		n = v
	}

	out := make(map[string]models.SampleSeries, len(symbols))
	for _, s := range h.sample.Generate(symbols, n) {
		out[s.Symbol] = s
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *QuantumHandler) QuantumMetrics(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.eng.Metrics())
}

// cached serves a stored response body for an identical request, else
// computes it and stores the result. Cache failures never fail the request.
func (h *QuantumHandler) cached(c echo.Context, endpoint string, req interface{}, compute func() (interface{}, error)) error {
	if h.cache == nil {
		return h.respond(c, endpoint, compute)
	}
	ctx := c.Request().Context()
	key, err := icache.Key(endpoint, req)
	if err != nil {
		return h.respond(c, endpoint, compute)
	}
	if b, ok, err := h.cache.GetBytes(ctx, key); err == nil && ok {
		metrics.CacheLookups.WithLabelValues(endpoint, "hit").Inc()
		return c.JSONBlob(http.StatusOK, b)
	} else if err != nil {
		h.l.Warn("cache get", applogger.String("endpoint", endpoint), applogger.Error(err))
	}
	metrics.CacheLookups.WithLabelValues(endpoint, "miss").Inc()

	res, err := compute()
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	body, err := json.Marshal(xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK), Data: res})
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	h.store(ctx, endpoint, key, body)
	return c.JSONBlob(http.StatusOK, body)
}

func (h *QuantumHandler) store(ctx context.Context, endpoint, key string, body []byte) {
	if err := h.cache.SetBytes(ctx, key, body, h.cacheTTL); err != nil {
		h.l.Warn("cache set", applogger.String("endpoint", endpoint), applogger.Error(err))
	}
}

func (h *QuantumHandler) respond(c echo.Context, endpoint string, compute func() (interface{}, error)) error {
	res, err := compute()
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *QuantumHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	recordError(h.l, endpoint, appErr)
	return xhttp.AppErrorResponse(c, appErr)
}

func observe(endpoint string, start time.Time) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// endpointName turns "/api/analyze/risk-assessment" into "risk_assessment".
func endpointName(path string) string {
	name := path[strings.LastIndexByte(path, '/')+1:]
	return strings.ReplaceAll(name, "-", "_")
}
