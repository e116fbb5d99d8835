// Package server exposes the loader pipeline over HTTP so CI systems can
// request build artifacts without a local install. One POST runs the whole
// pipeline and returns the scripts inline; nothing is written server-side.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	"github.com/tschf/mle-module-loader/pkg/enumerate"
	"github.com/tschf/mle-module-loader/pkg/loader"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8466"

// Options wires the pipeline pieces the API runs.
type Options struct {
	Addr        string            // listen address (default: DefaultAddr)
	Fetcher     loader.Fetcher    // bundle source (required)
	Lister      enumerate.Lister  // dependency expansion (required)
	Registry    entrypoint.Static // entry-point overrides (default: entrypoint.Defaults())
	DirObject   string            // BFILE directory object for create scripts
	ToolVersion string            // stamped into script headers and reports
	Logger      *log.Logger       // request and run logging (default: log.Default())
}

// Server is the HTTP front of the loader.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New validates the options and builds the server around [Handler].
func New(opts Options) (*Server, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("server: fetcher is required")
	}
	if opts.Lister == nil {
		return nil, errors.New("server: lister is required")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              opts.Addr,
			Handler:           Handler(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: opts.Logger,
	}, nil
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
