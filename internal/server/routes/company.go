package routes

import (
	"net/http"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// SelectCompanyHandler sets the company of a session and discovers its
// competitors. It blocks until discovery finished.
func SelectCompanyHandler(c echo.Context) error {
	type selectCompanyBody struct {
		Name string `json:"name"`
	}

	s, err := loadSession(c)
	if s == nil {
		return err
	}

	data := new(selectCompanyBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
	}

	if err := s.SelectCompany(c.Request().Context(), data.Name); err != nil {
		return writeWorkflowError(c, err)
	}
	return c.JSON(http.StatusOK, s.CurrentState())
}
