package routes

import (
	"context"
	"errors"
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/server/middleware"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

// AnalyzeCompetitorHandler starts the analysis of one competitor in the
// background. Progress is visible through GetSessionHandler.
func AnalyzeCompetitorHandler(c echo.Context) error {
	type analyzeCompetitorBody struct {
		Name string `json:"name" validate:"required"`
	}

	type analyzeCompetitorResponse struct {
		Message    string `json:"message"`
		Competitor string `json:"competitor,omitempty"`
	}

	s, err := loadSession(c)
	if s == nil {
		return err
	}

	data := new(analyzeCompetitorBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeCompetitorResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, analyzeCompetitorResponse{Message: "Invalid request body"})
	}

	if err := s.CheckCompetitor(data.Name); err != nil {
		return writeWorkflowError(c, err)
	}

	ctx := context.WithoutCancel(c.Request().Context())
	c.(*middleware.AppContext).App.Sessions.Go(func() {
		started, err := s.SelectCompetitor(ctx, data.Name)
		if err != nil && !errors.Is(err, workflow.ErrSessionReset) {
			logger.Warn("[Server] Background analysis failed", "session", s.ID(), "competitor", data.Name, "err", err)
			return
		}
		if !started {
			logger.Debug("[Server] Analysis already running", "session", s.ID(), "competitor", data.Name)
		}
	})

	return c.JSON(http.StatusAccepted, analyzeCompetitorResponse{
		Message:    "Analysis started",
		Competitor: data.Name,
	})
}

// AnalyzeAllCompetitorsHandler starts the analysis of every competitor that
// is not analyzed yet.
func AnalyzeAllCompetitorsHandler(c echo.Context) error {
	type analyzeAllBody struct {
		Parallel int `json:"parallel" validate:"omitempty,min=1,max=3"`
	}

	s, err := loadSession(c)
	if s == nil {
		return err
	}

	data := new(analyzeAllBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
	}

	view := s.CurrentState()
	if len(view.Competitors) == 0 {
		return writeWorkflowError(c, workflow.ErrInvalidTransition)
	}

	ctx := context.WithoutCancel(c.Request().Context())
	c.(*middleware.AppContext).App.Sessions.Go(func() {
		if err := s.AnalyzeAll(ctx, data.Parallel); err != nil {
			logger.Warn("[Server] Background analysis failed", "session", s.ID(), "err", err)
		}
	})
	return c.JSON(http.StatusAccepted, messageResponse{Message: "Analysis started"})
}

// BackToCompetitorsHandler leaves the selected competitor view
func BackToCompetitorsHandler(c echo.Context) error {
	s, err := loadSession(c)
	if s == nil {
		return err
	}
	if err := s.BackToCompetitors(); err != nil {
		return writeWorkflowError(c, err)
	}
	return c.JSON(http.StatusOK, s.CurrentState())
}
