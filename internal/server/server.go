// Package server wraps http.Server with the gateway's timeouts and a
// graceful-shutdown hook.
package server

import (
	"context"
	"net/http"
	"time"

	"threads-zapier/internal/common/logging"
)

// Server is the gateway's HTTP server.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

// New creates a Server listening on the given port.
func New(port string, handler http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving in a goroutine and returns a channel that receives
// the terminal error, if any.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening",
			logging.Field{Key: "addr", Value: s.httpServer.Addr},
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
