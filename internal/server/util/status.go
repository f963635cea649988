package util

import (
	"errors"
	"net/http"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/session"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

// StatusFromWorkflowError maps a session error to the HTTP status and the
// message returned to the client. Unknown errors map to 500.
func StatusFromWorkflowError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, workflow.ErrEmptyCompany),
		errors.Is(err, workflow.ErrInvalidCompany),
		errors.Is(err, workflow.ErrEmptyQuestion):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, workflow.ErrUnknownCompetitor):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, workflow.ErrBusy),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrSessionReset):
		return http.StatusConflict, err.Error()
	case errors.Is(err, workflow.ErrDiscoveryEmpty),
		errors.Is(err, workflow.ErrExtractionEmpty):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
