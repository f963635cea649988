package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/server/middleware"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/server/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

type messageResponse struct {
	Message string `json:"message"`
}

// pathBinder binds only the path so the request body stays readable for the
// handler's own Bind.
var pathBinder = &echo.DefaultBinder{}

type sessionParams struct {
	SessionID string `param:"id" validate:"required"`
}

// loadSession resolves the :id session of the request for the current user.
// On failure it has already written the response and returns nil.
func loadSession(c echo.Context) (*workflow.Session, error) {
	params := new(sessionParams)
	if err := pathBinder.BindPathParams(c, params); err != nil {
		return nil, c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return nil, c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return nil, c.JSON(http.StatusUnauthorized, messageResponse{Message: "Unauthorized"})
	}

	sessions := c.(*middleware.AppContext).App.Sessions
	s, err := sessions.Get(params.SessionID, user.UserID, middleware.CanViewAll(user))
	if err != nil {
		status, msg := util.StatusFromWorkflowError(err)
		return nil, c.JSON(status, messageResponse{Message: msg})
	}
	return s, nil
}

// writeWorkflowError answers a failed session operation.
func writeWorkflowError(c echo.Context, err error) error {
	status, msg := util.StatusFromWorkflowError(err)
	if status == http.StatusInternalServerError {
		logger.Error("[Server] Session operation failed", "path", c.Path(), "err", err)
	}
	return c.JSON(status, messageResponse{Message: msg})
}

// CreateSessionHandler opens a new session for the current user
func CreateSessionHandler(c echo.Context) error {
	type createSessionResponse struct {
		Message string              `json:"message"`
		Session *workflow.StateView `json:"session,omitempty"`
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, createSessionResponse{Message: "Unauthorized"})
	}

	s, err := c.(*middleware.AppContext).App.Sessions.Create(user.UserID)
	if err != nil {
		logger.Error("[Server] Failed to create session", "err", err)
		return c.JSON(http.StatusInternalServerError, createSessionResponse{Message: "Internal server error"})
	}

	view := s.CurrentState()
	return c.JSON(http.StatusCreated, createSessionResponse{
		Message: "Session created successfully",
		Session: &view,
	})
}

// GetSessionHandler returns the current state of a session
func GetSessionHandler(c echo.Context) error {
	s, err := loadSession(c)
	if s == nil {
		return err
	}
	return c.JSON(http.StatusOK, s.CurrentState())
}

// DeleteSessionHandler cancels the work of a session and forgets it
func DeleteSessionHandler(c echo.Context) error {
	params := new(sessionParams)
	if err := pathBinder.BindPathParams(c, params); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request params"})
	}

	user := c.(*middleware.AppContext).User
	if user == nil {
		return c.JSON(http.StatusUnauthorized, messageResponse{Message: "Unauthorized"})
	}

	sessions := c.(*middleware.AppContext).App.Sessions
	if err := sessions.Delete(params.SessionID, user.UserID, middleware.CanViewAll(user)); err != nil {
		return writeWorkflowError(c, err)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Session deleted successfully"})
}

// ResetSessionHandler discards the graph, reports and chat of a session
func ResetSessionHandler(c echo.Context) error {
	s, err := loadSession(c)
	if s == nil {
		return err
	}
	s.ResetSession(c.Request().Context())
	return c.JSON(http.StatusOK, s.CurrentState())
}
