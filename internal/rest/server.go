// Package rest implements the dashboard's HTTP API.
package rest

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/sleighlabs/nicelist/internal/checker"
	"github.com/sleighlabs/nicelist/internal/rest/handler"
	"github.com/sleighlabs/nicelist/internal/rest/middleware/requestid"
	"github.com/sleighlabs/nicelist/internal/store"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

// Server implements the REST API service.
type Server struct {
	checkHandler  *handler.CheckHandler
	statusHandler *handler.StatusHandler
}

// NewServer creates the REST API handler tree.
func NewServer(chk *checker.Checker, status *store.Service, logger *zap.Logger) http.Handler {
	server := &Server{
		checkHandler:  handler.NewCheckHandler(chk, logger),
		statusHandler: handler.NewStatusHandler(status, logger),
	}

	requestIDMiddleware := requestid.New(logger)

	router := bunrouter.New()

	router.Use(requestIDMiddleware.Wrap).WithGroup("/v1", func(g *bunrouter.Group) {
		g.GET("/checks/:handle", server.checkHandler.GetCheck)
		g.PUT("/status", server.statusHandler.PutStatus)
		g.POST("/swipes", server.statusHandler.PostSwipe)
	})

	// Add gzip compression
	return gzhttp.GzipHandler(router)
}
