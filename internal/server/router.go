// Package server exposes the session API over HTTP with an SSE progress
// stream.
package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/pipeline"
)

// Server holds the HTTP handler state.
type Server struct {
	orch   *pipeline.Orchestrator
	cfg    *common.Config
	logger *zap.Logger
}

// NewRouter wires the gin engine.
func NewRouter(orch *pipeline.Orchestrator, cfg *common.Config, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	s := &Server{orch: orch, cfg: cfg, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = 32 << 20

	api := r.Group("/api")
	{
		api.POST("/sessions", s.upload)
		api.POST("/sessions/:id/analyze", s.analyze)
		api.POST("/sessions/:id/extract", s.extract)
		api.POST("/sessions/:id/cancel", s.cancel)
		api.GET("/sessions", s.listSessions)
		api.GET("/sessions/:id", s.status)
		api.GET("/sessions/:id/artifact", s.artifact)
		api.GET("/sessions/:id/progress", s.progress)
		api.GET("/health", s.health)
		api.GET("/collections/:store", s.listCollections)
		api.GET("/collections/:store/:name/browse", s.browseCollection)
	}
	return r
}

// requestLogger is the access log middleware.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http.request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
		)
	}
}
