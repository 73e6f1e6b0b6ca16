package server

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Timeouts sized for a local dashboard API: every request is either an
// in-memory mutation or a single upstream quote fetch, so nothing should
// hold a connection for long.
const (
	_readHeaderTimeout = 5 * time.Second
	_readTimeout       = 10 * time.Second
	_writeTimeout      = 15 * time.Second
	_idleTimeout       = time.Minute

	_shutdownTimeout = 10 * time.Second
)

type HTTPServer struct {
	s *http.Server
}

func NewHTTPServer(ctx context.Context, port string, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		s: &http.Server{
			Handler:           handler,
			Addr:              ":" + port,
			ReadHeaderTimeout: _readHeaderTimeout,
			ReadTimeout:       _readTimeout,
			WriteTimeout:      _writeTimeout,
			IdleTimeout:       _idleTimeout,
			BaseContext: func(listener net.Listener) context.Context {
				return ctx
			},
		},
	}
}

func (s *HTTPServer) Start() error {
	return s.s.ListenAndServe()
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.s.Shutdown(ctx)
}

// Run serves until the context is cancelled, then drains in-flight requests
// for at most the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error)
	go func() {
		errCh <- s.Start()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
