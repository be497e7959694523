package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/johnrirwin/newsfeed/internal/aggregator"
	"github.com/johnrirwin/newsfeed/internal/logging"
	"github.com/johnrirwin/newsfeed/internal/models"
	"github.com/johnrirwin/newsfeed/internal/ratelimit"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	refreshKey      = "manual-refresh"
)

// Options toggles optional endpoints.
type Options struct {
	EnableManualRefresh bool
	// RefreshCooldown is the minimum time between accepted manual refreshes.
	RefreshCooldown time.Duration
}

type Server struct {
	agg            *aggregator.Aggregator
	logger         *logging.Logger
	opts           Options
	refreshLimiter *ratelimit.Limiter
	server         *http.Server
}

func New(agg *aggregator.Aggregator, logger *logging.Logger, opts Options) *Server {
	if opts.RefreshCooldown <= 0 {
		opts.RefreshCooldown = 2 * time.Minute
	}
	return &Server{
		agg:            agg,
		logger:         logger,
		opts:           opts,
		refreshLimiter: ratelimit.New(opts.RefreshCooldown),
	}
}

// Handler returns the routed API, wrapped in CORS where browsers call it.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/categories", s.corsMiddleware(s.handleGetCategories))
	mux.HandleFunc("/api/items", s.corsMiddleware(s.handleGetItems))
	mux.HandleFunc("/api/headlines", s.corsMiddleware(s.handleGetHeadlines))
	mux.HandleFunc("/api/refresh", s.corsMiddleware(s.handleRefresh))

	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("HTTP API server starting", logging.WithField("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	categories := s.agg.Categories()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"sources":    s.agg.GetSources(),
		"count":      len(categories),
	})
}

func (s *Server) handleGetItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	query := r.URL.Query()
	name := strings.TrimSpace(query.Get("category"))
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_input", "category is required")
		return
	}
	if !s.knownCategory(name) {
		s.writeError(w, http.StatusNotFound, "not_found", "unknown category "+name)
		return
	}

	resp, ok := s.agg.Items(name)
	if !ok {
		// Not refreshed yet.
		resp = models.CategoryResponse{Category: name, Items: []models.FeedItem{}}
	}

	limit, offset := parsePagination(r, defaultPageSize, maxPageSize)
	params := models.FilterParams{
		Source:   query.Get("source"),
		Tag:      query.Get("tag"),
		Query:    query.Get("q"),
		FromDate: query.Get("from"),
		ToDate:   query.Get("to"),
		Limit:    limit,
		Offset:   offset,
	}

	resp.Items, resp.Total = aggregator.Filter(resp.Items, params)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetHeadlines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	resp, ok := s.agg.LatestHeadlines()
	if !ok {
		resp = models.CategoryResponse{Items: []models.FeedItem{}}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	if !s.opts.EnableManualRefresh {
		s.writeError(w, http.StatusForbidden, "refresh_disabled", "Manual refresh is disabled")
		return
	}
	if !s.refreshLimiter.Allow(refreshKey) {
		s.writeError(w, http.StatusTooManyRequests, "rate_limited", "Refresh was requested too recently")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	if err := s.agg.Refresh(ctx); err != nil {
		s.logger.Error("Failed to refresh feeds", logging.WithField("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "refresh_failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Feeds refreshed successfully",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) knownCategory(name string) bool {
	slug := models.CategorySlug(name)
	for _, c := range s.agg.Categories() {
		if models.CategorySlug(c.Name) == slug {
			return true
		}
	}
	return false
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("Failed to encode response", logging.WithField("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

func parsePagination(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}
