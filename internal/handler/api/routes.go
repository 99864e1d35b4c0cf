package api

import (
	"github.com/labstack/echo/v4"

	xhttp "QOFA/pkg/http"
)

const (
	ServiceName    = "QOFA - Quantum Options Flow Analysis API"
	ServiceVersion = "1.0.0"
)

// Routes mounts the /api root and every sub-handler.
type Routes struct {
	handlers []xhttp.Handler
}

func NewRoutes(handlers ...xhttp.Handler) *Routes {
	return &Routes{handlers: handlers}
}

func (r *Routes) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/", root)
	for _, h := range r.handlers {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}
}

func root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{
		"message": ServiceName,
		"version": ServiceVersion,
	})
}
