package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"

	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/query"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

// ChatHandler answers a question about the session's company and competitors
func ChatHandler(c echo.Context) error {
	type chatBody struct {
		Question string `json:"question"`
	}

	type chatResponse struct {
		Answer         string                   `json:"answer"`
		Route          query.Route              `json:"route"`
		Category       query.Category           `json:"category,omitempty"`
		FallbackReason string                   `json:"fallback_reason,omitempty"`
		Subgraph       *query.Subgraph          `json:"subgraph,omitempty"`
		Trace          query.QueryTraceSnapshot `json:"trace"`
	}

	s, err := loadSession(c)
	if s == nil {
		return err
	}

	data := new(chatBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
	}

	trace := query.NewQueryTrace()
	answer, err := s.Chat(c.Request().Context(), data.Question, trace)
	if err != nil {
		return writeWorkflowError(c, err)
	}

	return c.JSON(http.StatusOK, chatResponse{
		Answer:         answer.Text,
		Route:          answer.Route,
		Category:       answer.Classification.Category,
		FallbackReason: answer.FallbackReason,
		Subgraph:       answer.Subgraph,
		Trace:          trace.Snapshot(),
	})
}

// GetChatHistoryHandler returns the chat turns of a session
func GetChatHistoryHandler(c echo.Context) error {
	type chatHistoryResponse struct {
		Turns []workflow.ChatTurn `json:"turns"`
	}

	s, err := loadSession(c)
	if s == nil {
		return err
	}

	turns := s.History()
	if turns == nil {
		turns = []workflow.ChatTurn{}
	}
	return c.JSON(http.StatusOK, chatHistoryResponse{Turns: turns})
}
