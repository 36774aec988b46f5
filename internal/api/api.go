// Package api provides the HTTP server for the enrollment backend.
//
// It exposes the two persistence operations the chat agent depends on:
// creating a user and creating a course order linked to that user, plus a
// listing endpoint for inspection.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/promibe/poshbot/internal/store"
)

// DefaultAddr is the default listen address for the enrollment API.
const DefaultAddr = ":8000"

// Server hosts the enrollment API over a Store.
type Server struct {
	addr string
	st   store.Store
	http *http.Server
}

// Option configures the API server.
type Option func(*Server)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// NewServer creates an API server over the given store.
func NewServer(st store.Store, opts ...Option) *Server {
	s := &Server{addr: DefaultAddr, st: st}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/users", s.usersHandler)
	mux.HandleFunc("/orders", s.ordersHandler)
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler (used in tests).
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run starts the server and blocks until it stops.
func (s *Server) Run() error {
	slog.Info("Enrollment API listening", "addr", s.addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("enrollment API server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down enrollment API")
	return s.http.Shutdown(ctx)
}
