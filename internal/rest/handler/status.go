package handler

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/sleighlabs/nicelist/internal/checker"
	"github.com/sleighlabs/nicelist/internal/rest/convert"
	"github.com/sleighlabs/nicelist/internal/rest/types"
	"github.com/sleighlabs/nicelist/internal/store"
	"github.com/sleighlabs/nicelist/pkg/utils"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// StatusHandler handles the manual override write endpoints.
type StatusHandler struct {
	status *store.Service
	logger *zap.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(status *store.Service, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		status: status,
		logger: logger,
	}
}

// PutStatus sets the stored status and score for a handle directly.
func (h *StatusHandler) PutStatus(w http.ResponseWriter, req bunrouter.Request) error {
	var body types.StatusRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeError(w, http.StatusBadRequest, err)
	}

	handle := utils.NormalizeHandle(body.Handle)
	if handle == "" {
		return writeError(w, http.StatusBadRequest, checker.ErrInvalidHandle)
	}

	record, err := h.status.Set(req.Context(), handle, body.Status, body.Score)
	if err != nil {
		return h.statusError(w, handle, err)
	}

	return bunrouter.JSON(w, convert.Status(record))
}

// PostSwipe applies one swipe to the stored score for a handle.
func (h *StatusHandler) PostSwipe(w http.ResponseWriter, req bunrouter.Request) error {
	var body types.SwipeRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeError(w, http.StatusBadRequest, err)
	}

	handle := utils.NormalizeHandle(body.Handle)
	if handle == "" {
		return writeError(w, http.StatusBadRequest, checker.ErrInvalidHandle)
	}

	record, err := h.status.Swipe(req.Context(), handle, body.Direction)
	if err != nil {
		return h.statusError(w, handle, err)
	}

	return bunrouter.JSON(w, convert.Status(record))
}

func (h *StatusHandler) statusError(w http.ResponseWriter, handle string, err error) error {
	status := checker.HTTPStatusCode(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Status update failed",
			zap.String("handle", handle),
			zap.Error(err))
	}

	return writeError(w, status, err)
}
