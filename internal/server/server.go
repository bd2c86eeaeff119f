package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ogulcanaydogan/battery-guardian/pkg/guardian"
	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
)

// StatusSource reports the live engine state.
type StatusSource interface {
	Status() guardian.Status
}

// History answers queries about past check cycles.
type History interface {
	QueryChecks(ctx context.Context, filter model.HistoryFilter) ([]model.CheckRecord, error)
	SummarizeChecks(ctx context.Context, filter model.HistoryFilter) (*model.HistorySummary, error)
}

const defaultChecksLimit = 100

// Server provides health check and status API endpoints.
type Server struct {
	engine  StatusSource
	history History
	mux     *http.ServeMux
	logger  *slog.Logger
}

// NewServer creates an API server. history may be nil when storage is disabled.
func NewServer(engine StatusSource, history History, logger *slog.Logger) *Server {
	s := &Server{
		engine:  engine,
		history: history,
		mux:     http.NewServeMux(),
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/v1/checks", s.handleChecks)
	s.mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status api started", "listen", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status())
}

func (s *Server) handleChecks(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history is disabled", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := model.HistoryFilter{
		Outcome: model.Outcome(r.URL.Query().Get("outcome")),
		Limit:   defaultChecksLimit,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	records, err := s.history.QueryChecks(ctx, filter)
	if err != nil {
		s.logger.Error("query checks", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.CheckRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history is disabled", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	period := model.HistoryPeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = model.PeriodDaily
	}

	start, end := model.PeriodBounds(period)
	filter := model.HistoryFilter{
		Outcome:   model.Outcome(r.URL.Query().Get("outcome")),
		StartTime: start,
		EndTime:   end,
	}

	summary, err := s.history.SummarizeChecks(ctx, filter)
	if err != nil {
		s.logger.Error("summarize checks", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
