// Package api exposes the admin HTTP surface: ad hoc reconciliation
// triggers, holder lookups, run history, health and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"pooldash/internal/observability"
	"pooldash/internal/reconcile"
	"pooldash/internal/storage"
)

// Server routes admin requests to the reconciliation pipeline.
type Server struct {
	router *mux.Router

	reconciler *reconcile.Reconciler
	scheduler  *reconcile.Scheduler

	poolStore   storage.PoolStore
	metricStore storage.HolderMetricStore
	reportStore storage.RunReportStore

	logger *zap.Logger
}

// Options for creating a Server.
type Options struct {
	Reconciler *reconcile.Reconciler
	Scheduler  *reconcile.Scheduler

	PoolStore   storage.PoolStore
	MetricStore storage.HolderMetricStore

	// Optional: enables GET /runs when set.
	ReportStore storage.RunReportStore

	Logger *zap.Logger
}

// NewServer creates a new Server with all routes registered.
func NewServer(opts Options) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		reconciler:  opts.Reconciler,
		scheduler:   opts.Scheduler,
		poolStore:   opts.PoolStore,
		metricStore: opts.MetricStore,
		reportStore: opts.ReportStore,
		logger:      opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc("/reconcile", s.handleReconcileBatch).Methods(http.MethodPost)
	s.router.HandleFunc("/reconcile/{poolID}", s.handleReconcilePool).Methods(http.MethodPost)
	s.router.HandleFunc("/pools/{poolID}/holders", s.handleGetHolders).Methods(http.MethodGet)
	s.router.HandleFunc("/runs", s.handleGetRuns).Methods(http.MethodGet)
}

// Router returns the HTTP handler for mounting in an http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReconcileBatch kicks off a full batch run in the background.
// Returns 409 if a batch is already in flight, whatever surface started
// it: the scheduler serializes all triggers, this handler only reports.
func (s *Server) handleReconcileBatch(w http.ResponseWriter, _ *http.Request) {
	if s.scheduler.Running() {
		s.writeError(w, http.StatusConflict, "batch already running")
		return
	}

	go func() {
		// Detached from the request context: the trigger returns
		// immediately while the batch paces itself.
		result, err := s.scheduler.Run(context.Background())
		if err != nil {
			if errors.Is(err, reconcile.ErrBatchRunning) {
				s.logger.Warn("batch trigger lost the race to another batch")
				return
			}
			s.logger.Error("triggered batch run failed", zap.Error(err))
			return
		}
		s.logger.Info("triggered batch run finished",
			zap.String("run_id", result.RunID),
			zap.Int("updated", result.Updated))
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleReconcilePool(w http.ResponseWriter, r *http.Request) {
	poolID := mux.Vars(r)["poolID"]

	pool, err := s.poolStore.GetByID(r.Context(), poolID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "pool not found")
			return
		}
		s.logger.Error("get pool", zap.String("pool_id", poolID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out, err := s.reconciler.ReconcileOne(r.Context(), pool)
	if err != nil {
		s.logger.Error("reconcile pool", zap.String("pool_id", poolID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"pool_id":   out.PoolID,
		"action":    string(out.Action),
		"count":     out.Count,
		"source":    string(out.Source),
		"truncated": out.Truncated,
	})
}

func (s *Server) handleGetHolders(w http.ResponseWriter, r *http.Request) {
	poolID := mux.Vars(r)["poolID"]

	m, err := s.metricStore.Get(r.Context(), poolID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "no holder metric for pool")
			return
		}
		s.logger.Error("get holder metric", zap.String("pool_id", poolID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"pool_id":       m.PoolID,
		"holders_count": m.HoldersCount,
		"status":        string(m.Status),
		"updated_at":    m.UpdatedAt,
	})
}

func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	if s.reportStore == nil {
		s.writeError(w, http.StatusNotImplemented, "run history not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.reportStore.GetRecent(r.Context(), limit)
	if err != nil {
		s.logger.Error("get recent runs", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
