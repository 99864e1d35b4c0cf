package api

import (
	"github.com/labstack/echo/v4"

	"QOFA/internal/domain/models"
	"QOFA/internal/usecase"
	xhttp "QOFA/pkg/http"
	applogger "QOFA/pkg/logger"
)

type StatusHandler struct {
	uc *usecase.StatusUseCase
	l  *applogger.Logger
}

func NewStatusHandler(uc *usecase.StatusUseCase, l *applogger.Logger) *StatusHandler {
	if l == nil {
		l = applogger.NewNop()
	}
	return &StatusHandler{uc: uc, l: l}
}

func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/status", h.Create)
	g.GET("/status", h.List)
}

func (h *StatusHandler) Create(c echo.Context) error {
	req := &models.StatusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sc, err := h.uc.Create(c.Request().Context(), req.ClientName)
	if err != nil {
		appErr := toAppError(err)
		recordError(h.l, "status", appErr)
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.CreatedResponse(c, sc)
}

func (h *StatusHandler) List(c echo.Context) error {
	rows, err := h.uc.List(c.Request().Context())
	if err != nil {
		appErr := toAppError(err)
		recordError(h.l, "status", appErr)
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
