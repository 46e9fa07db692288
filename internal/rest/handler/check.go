package handler

import (
	"net/http"

	"github.com/sleighlabs/nicelist/internal/checker"
	"github.com/sleighlabs/nicelist/internal/rest/convert"
	"github.com/sleighlabs/nicelist/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// CheckHandler handles the dashboard read endpoint.
type CheckHandler struct {
	checker *checker.Checker
	logger  *zap.Logger
}

// NewCheckHandler creates a new check handler.
func NewCheckHandler(chk *checker.Checker, logger *zap.Logger) *CheckHandler {
	return &CheckHandler{
		checker: chk,
		logger:  logger,
	}
}

// GetCheck runs the pipeline for a handle and returns the dashboard payload.
// Failures map to one status code and a short message; no partial results.
func (h *CheckHandler) GetCheck(w http.ResponseWriter, req bunrouter.Request) error {
	result, err := h.checker.Check(req.Context(), req.Param("handle"))
	if err != nil {
		status := checker.HTTPStatusCode(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Check failed",
				zap.String("handle", req.Param("handle")),
				zap.Error(err))
		}

		return writeError(w, status, err)
	}

	return bunrouter.JSON(w, convert.Check(result))
}

// writeError sends the JSON error body for a mapped status code. Internal
// details are not echoed back for server-side failures.
func writeError(w http.ResponseWriter, status int, err error) error {
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = http.StatusText(status)
	}

	w.WriteHeader(status)

	return bunrouter.JSON(w, types.ErrorResponse{Error: message})
}
