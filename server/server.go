// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/poiesic/imagecat/run"
	"github.com/poiesic/imagecat/taxonomy"
)

// Controller is the part of run.Runner the API drives.
type Controller interface {
	Start(ctx context.Context, job run.Job) error
	Stop() bool
	Reset() error
	Snapshot() run.Snapshot
}

// Session persists the choices of the most recent run.
type Session interface {
	Remember(job run.Job) error
	Reset() error
}

// Server serves the JSON API.
type Server struct {
	bind     string
	runner   Controller
	taxonomy *taxonomy.Taxonomy
	session  Session
	logger   *slog.Logger

	listener net.Listener
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithSession records started and reset runs in s.
func WithSession(s Session) Option {
	return func(srv *Server) error {
		srv.session = s
		return nil
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		srv.logger = logger.With("component", "api-server")
		return nil
	}
}

// New creates a Server listening on bind once started.
func New(bind string, runner Controller, tax *taxonomy.Taxonomy, opts ...Option) (*Server, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("bind address cannot be empty")
	}
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if tax == nil {
		return nil, errors.New("taxonomy cannot be nil")
	}

	srv := &Server{
		bind:     bind,
		runner:   runner,
		taxonomy: tax,
		logger:   slog.Default().With("component", "api-server"),
	}
	for _, opt := range opts {
		if err := opt(srv); err != nil {
			return nil, err
		}
	}

	srv.server = &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/progress", s.handleProgress)
	mux.HandleFunc("POST /api/process", s.handleProcess)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("POST /api/apply", s.handleApply)
	return mux
}

// Start begins serving in the background. The server shuts down when ctx
// is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", "address", listener.Addr().String())
	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
