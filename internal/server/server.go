package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/recordwise/aigate/pkg/cache"
	"github.com/recordwise/aigate/pkg/guard"
	"github.com/recordwise/aigate/pkg/model"
	"github.com/recordwise/aigate/pkg/selector"
)

// Server provides health check and read-only governance API endpoints.
type Server struct {
	guard    *guard.CostGuard
	cache    *cache.Service
	selector *selector.Selector
	mux      *http.ServeMux
	logger   *slog.Logger
}

// NewServer creates an API server.
func NewServer(g *guard.CostGuard, c *cache.Service, sel *selector.Selector, logger *slog.Logger) *Server {
	s := &Server{
		guard:    g,
		cache:    c,
		selector: sel,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/costs", s.handleCosts)
	s.mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/v1/cache/metrics", s.handleCacheMetrics)
	s.mux.HandleFunc("POST /api/v1/models/select", s.handleSelect)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	summary, err := s.guard.DailyCostSummary(ctx, r.URL.Query().Get("user"))
	if err != nil {
		s.logger.Error("read daily costs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := s.guard.Status(ctx)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func (s *Server) handleCacheMetrics(w http.ResponseWriter, r *http.Request) {
	namespaces := s.cache.Namespaces()
	if ns := r.URL.Query().Get("namespace"); ns != "" {
		namespaces = []string{ns}
	}

	metrics := make(map[string]model.CacheMetrics, len(namespaces))
	for _, ns := range namespaces {
		metrics[ns] = s.cache.Metrics(ns)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}

// handleSelect runs a dry-run model selection so operators can inspect
// routing without spending anything.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selector.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TaskType == "" {
		http.Error(w, "task_type is required", http.StatusBadRequest)
		return
	}

	selection := s.selector.Select(req)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(selection)
}
