package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/server/middleware"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo, reg prometheus.Gatherer) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	if reg != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Session routes
	apiRoutes.POST("/sessions", routes.CreateSessionHandler)
	apiRoutes.GET("/sessions/:id", routes.GetSessionHandler)
	apiRoutes.DELETE("/sessions/:id", routes.DeleteSessionHandler)
	apiRoutes.POST("/sessions/:id/reset", routes.ResetSessionHandler)
	apiRoutes.POST("/sessions/:id/company", routes.SelectCompanyHandler)

	// Competitor routes
	apiRoutes.POST("/sessions/:id/competitors/analyze", routes.AnalyzeCompetitorHandler)
	apiRoutes.POST("/sessions/:id/competitors/analyze-all", routes.AnalyzeAllCompetitorsHandler)
	apiRoutes.POST("/sessions/:id/competitors/back", routes.BackToCompetitorsHandler)

	// Chat routes
	apiRoutes.POST("/sessions/:id/chat", routes.ChatHandler)
	apiRoutes.GET("/sessions/:id/chat", routes.GetChatHistoryHandler)

	// Graph routes
	apiRoutes.GET("/sessions/:id/graph", routes.GetGraphHandler)
	apiRoutes.POST("/sessions/:id/graph/export", routes.ExportGraphHandler, middleware.RequirePermission("graph.export"))
}
