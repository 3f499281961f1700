// internal/handlers/routes.go
package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServer 라우트와 미들웨어가 등록된 echo 인스턴스
func NewServer(h *APIHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(middleware.Recover())

	RegisterRoutes(e, h)
	return e
}

// RegisterRoutes /api/v1 라우트 등록
func RegisterRoutes(e *echo.Echo, h *APIHandler) {
	api := e.Group("/api/v1")

	api.GET("/health", h.HealthCheck)
	api.GET("/state", h.GetState)
	api.GET("/factsheet", h.GetFactsheet)
	api.GET("/map", h.GetMap)
	api.GET("/history/orders", h.GetOrderHistory)

	api.POST("/order", h.SubmitOrder)
	api.POST("/instant-actions", h.SubmitInstantActions)
	api.POST("/pause", h.Pause)
	api.POST("/resume", h.Resume)
	api.POST("/cancel", h.Cancel)
}
