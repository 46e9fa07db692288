// Package requestid tags every request with a unique id and logs its outcome.
package requestid

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Header carries the request id back to the caller.
const Header = "X-Request-ID"

// Middleware assigns request ids and emits one access log line per request.
type Middleware struct {
	logger *zap.Logger
}

// New creates the middleware.
func New(logger *zap.Logger) *Middleware {
	return &Middleware{logger: logger.Named("http")}
}

// Wrap is a bunrouter middleware.
func (m *Middleware) Wrap(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		requestID := uuid.New().String()
		w.Header().Set(Header, requestID)

		start := time.Now()
		err := next(w, req)

		m.logger.Info("Handled request",
			zap.String("requestID", requestID),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))

		return err
	}
}
