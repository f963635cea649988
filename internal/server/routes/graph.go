package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/server/middleware"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/storage"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
)

// GetGraphHandler returns a snapshot of the session graph
func GetGraphHandler(c echo.Context) error {
	s, err := loadSession(c)
	if s == nil {
		return err
	}
	return c.JSON(http.StatusOK, s.GraphSnapshot())
}

// ExportGraphHandler uploads a graph snapshot to object storage
func ExportGraphHandler(c echo.Context) error {
	type exportGraphResponse struct {
		Message string `json:"message"`
		Key     string `json:"key,omitempty"`
		URL     string `json:"url,omitempty"`
	}

	s, err := loadSession(c)
	if s == nil {
		return err
	}

	client := c.(*middleware.AppContext).App.S3
	if client == nil {
		return c.JSON(http.StatusServiceUnavailable, exportGraphResponse{Message: "Object storage is not configured"})
	}

	ctx := c.Request().Context()
	key, err := storage.ExportSnapshot(ctx, client, s.ID(), s.GraphSnapshot())
	if err != nil {
		logger.Error("[Server] Failed to export graph", "session", s.ID(), "err", err)
		return c.JSON(http.StatusInternalServerError, exportGraphResponse{Message: "Internal server error"})
	}

	url, err := storage.GenerateDownloadLink(ctx, client, key)
	if err != nil {
		// The snapshot is stored; the link is optional.
		logger.Warn("[Server] Failed to create download link", "session", s.ID(), "err", err)
	}

	return c.JSON(http.StatusOK, exportGraphResponse{
		Message: "Graph exported successfully",
		Key:     key,
		URL:     url,
	})
}
