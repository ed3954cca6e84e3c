// Package server receives graded submissions over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/llamicron/lab-grader/internal/domain"
	"github.com/llamicron/lab-grader/internal/ports"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultListLimit    = 100
	shutdownTimeout     = 10 * time.Second
)

// Acceptor stores one posted submission.
type Acceptor interface {
	Execute(ctx context.Context, sub *domain.Submission) error
}

type Server struct {
	accept       Acceptor
	source       ports.SubmissionSource
	maxBodyBytes int64
	log          *slog.Logger
}

type Option func(*Server)

// WithSource enables GET /submissions.
func WithSource(src ports.SubmissionSource) Option {
	return func(s *Server) { s.source = src }
}

func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func New(accept Acceptor, opts ...Option) *Server {
	s := &Server{
		accept:       accept,
		maxBodyBytes: defaultMaxBodyBytes,
		log:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /submit", s.handleSubmit)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /submissions", s.handleList)
	return mux
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
// ready, when non-nil, receives the bound address.
func (s *Server) Serve(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &domain.OpError{Op: "server.listen", Kind: domain.KindExecution, Err: err}
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("server.started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return &domain.OpError{Op: "server.serve", Kind: domain.KindExecution, Err: err}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return &domain.OpError{Op: "server.shutdown", Kind: domain.KindExecution, Err: err}
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return &domain.OpError{Op: "server.serve", Kind: domain.KindExecution, Err: err}
	}
	s.log.Info("server.stopped")
	return nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var sub domain.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "submission too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid submission JSON: "+err.Error())
		return
	}

	if err := s.accept.Execute(r.Context(), &sub); err != nil {
		status := statusFor(err)
		if status >= 500 {
			s.log.Error("server.submit_failed", "remote", r.RemoteAddr, "err", err)
			writeError(w, status, "could not store submission")
			return
		}
		s.log.Warn("server.submit_rejected", "remote", r.RemoteAddr, "err", err)
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": sub.ID, "grade": sub.Grade})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		writeError(w, http.StatusNotFound, "listing is not enabled")
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	subs, err := s.source.List(r.Context(), limit)
	if err != nil {
		s.log.Error("server.list_failed", "err", err)
		writeError(w, http.StatusInternalServerError, "could not read submissions")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func statusFor(err error) int {
	switch {
	case domain.IsKind(err, domain.KindClosed):
		return http.StatusForbidden
	case domain.IsKind(err, domain.KindDuplicate):
		return http.StatusConflict
	case domain.IsKind(err, domain.KindInvalidConfig):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
