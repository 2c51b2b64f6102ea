package api

import (
	"github.com/gin-gonic/gin"

	"mcnemar/internal"
	"mcnemar/internal/analysis"
	"mcnemar/ports"
)

// Server wires the test computer and the result ledger behind an HTTP API.
type Server struct {
	router  *gin.Engine
	handler *TestHandler
	logger  *internal.Logger
}

// NewServer creates the API server. ginMode is one of gin.DebugMode,
// gin.ReleaseMode or gin.TestMode; empty keeps the current mode.
func NewServer(runner *analysis.BatchRunner, ledger ports.ResultLedger, ginMode string) *Server {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	s := &Server{
		router:  gin.Default(),
		handler: NewTestHandler(analysis.NewComputer(), runner, ledger),
		logger:  internal.DefaultLogger.WithComponent("Server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handler.Health)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/tests", s.handler.CreateTest)
		v1.POST("/tests/batch", s.handler.RunBatch)
		v1.GET("/tests", s.handler.ListTests)
		v1.GET("/tests/:id", s.handler.GetTest)
		v1.GET("/tests/:id/report", s.handler.GetTestReport)
	}
}

// Router exposes the underlying engine, mainly for httptest.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("listening on http://%s", addr)
	return s.router.Run(addr)
}
