// Package server exposes the portal's HTTP API: chat management,
// turn submission with SSE streaming, health and metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hphungg/chatbot-sub000/internal/agent"
	"github.com/hphungg/chatbot-sub000/internal/auth"
	"github.com/hphungg/chatbot-sub000/internal/config"
	"github.com/hphungg/chatbot-sub000/internal/observability"
	"github.com/hphungg/chatbot-sub000/internal/store"
)

// Server is the portal HTTP server.
type Server struct {
	cfg        config.ServerConfig
	store      store.Store
	controller *agent.Controller
	jwt        *auth.JWTService
	logger     *slog.Logger

	turns *turnRegistry
	http  *http.Server
}

// New wires the server. Routes are fixed at construction.
func New(cfg config.ServerConfig, st store.Store, controller *agent.Controller, jwt *auth.JWTService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		store:      st,
		controller: controller,
		jwt:        jwt,
		logger:     logger,
		turns:      newTurnRegistry(),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/chats", s.handleCreateChat)
	api.HandleFunc("GET /api/chats", s.handleListChats)
	api.HandleFunc("DELETE /api/chats/{id}", s.handleDeleteChat)
	api.HandleFunc("GET /api/chats/{id}/messages", s.handleGetMessages)
	api.HandleFunc("POST /api/chats/{id}/messages", s.handleSendMessage)
	api.HandleFunc("GET /api/chats/{id}/stream", s.handleResumeStream)
	mux.Handle("/api/", auth.Middleware(jwt, logger)(api))

	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.withMetrics(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.cfg.Addr())
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if pattern := r.Pattern; pattern != "" {
			route = pattern
		}
		observability.HTTPRequestCounter.WithLabelValues(route, r.Method, strconv.Itoa(rec.code)).Inc()
		observability.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
	})
}
