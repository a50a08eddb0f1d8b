// Package server exposes the question answering pipeline over JSON HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/skipai/podrag/internal/catalog"
	"github.com/skipai/podrag/internal/metrics"
	"github.com/skipai/podrag/internal/models"
	"github.com/skipai/podrag/internal/service"
	"github.com/skipai/podrag/internal/store"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server wires the answer service and catalog into HTTP handlers.
type Server struct {
	answer      *service.AnswerService
	catalog     *catalog.Catalog
	store       store.Store
	completer   service.Completer
	logger      *slog.Logger
	corsOrigins []string
	metrics     *metrics.Collector
	httpServer  *http.Server
}

// New creates a server listening on the given port.
func New(port int, answer *service.AnswerService, cat *catalog.Catalog, s store.Store, completer service.Completer, corsOrigins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		answer:      answer,
		catalog:     cat,
		store:       s,
		completer:   completer,
		logger:      logger,
		corsOrigins: corsOrigins,
	}
	srv.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// SetMetrics attaches a runtime statistics collector; its snapshot is
// included in the debug stats response.
func (s *Server) SetMetrics(c *metrics.Collector) {
	s.metrics = c
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /query", s.handleQuery)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /debug-stats", s.handleDebugStats)
	mux.HandleFunc("GET /test", s.handleTest)

	var h http.Handler = mux
	h = CORSMiddleware(s.corsOrigins)(h)
	h = RequestLogging(s.logger)(h)
	return h
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

type queryRequest struct {
	Question string `json:"question"`
}

type queryResponse struct {
	Answer  string          `json:"answer"`
	Sources []models.Source `json:"sources"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question must not be empty")
		return
	}

	answer, err := s.answer.Ask(r.Context(), req.Question)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Answer: answer.Text, Sources: answer.Sources})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "OK"
	if _, err := s.store.Count(r.Context()); err != nil {
		database = "Not Connected"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"version":      Version,
		"database":     database,
		"cors_origins": s.corsOrigins,
	})
}

func (s *Server) handleDebugStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.logger.Error("debug stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	body := map[string]any{"collection_stats": stats}
	if s.metrics != nil {
		body["runtime_stats"] = s.metrics.Snapshot()
	}
	writeJSON(w, http.StatusOK, body)
}

// handleTest exercises each dependency and reports per-check status.
func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]any)

	if count, err := s.store.Count(r.Context()); err != nil {
		checks["store"] = map[string]any{"status": "error", "error": err.Error()}
	} else {
		checks["store"] = map[string]any{"status": "ok", "total_chunks": count}
	}

	if _, err := s.completer.GenerateWithSystem(r.Context(), "You are a connectivity probe.", "Reply with OK."); err != nil {
		checks["llm"] = map[string]any{"status": "error", "error": err.Error()}
	} else {
		checks["llm"] = map[string]any{"status": "ok"}
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": checks})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
