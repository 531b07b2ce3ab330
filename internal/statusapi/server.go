// Package statusapi exposes run history and system health over a small
// read-only JSON API for dashboards.
package statusapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/KunevinnDokus/tourism-database-system/internal/domain"
	"github.com/KunevinnDokus/tourism-database-system/internal/orchestrator"
	"github.com/google/uuid"
	"github.com/rs/cors"
)

// StatusSource provides the health snapshot.
type StatusSource interface {
	Status(ctx context.Context) *orchestrator.SystemStatus
}

// RunHistory provides run and changelog lookups.
type RunHistory interface {
	GetRun(ctx context.Context, runID uuid.UUID) (domain.UpdateRun, error)
	RecentRuns(ctx context.Context, days, limit int) ([]domain.UpdateRun, error)
	ChangesByRun(ctx context.Context, runID uuid.UUID) (map[string][]domain.ChangelogEntry, error)
}

// Server serves the status API.
type Server struct {
	http *http.Server
}

// New builds the server with CORS enabled for browser dashboards.
func New(addr string, status StatusSource, history RunHistory) *Server {
	mux := http.NewServeMux()
	h := &handlers{status: status, history: history}
	mux.HandleFunc("GET /api/status", h.systemStatus)
	mux.HandleFunc("GET /api/runs", h.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", h.getRun)
	mux.HandleFunc("GET /api/runs/{id}/changes", h.runChanges)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      corsHandler.Handler(mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	log.Printf("statusapi: listening on %s", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type handlers struct {
	status  StatusSource
	history RunHistory
}

func (h *handlers) systemStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status.Status(r.Context()))
}

func (h *handlers) listRuns(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	limit := queryInt(r, "limit", 50)

	runs, err := h.history.RecentRuns(r.Context(), days, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []domain.UpdateRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *handlers) getRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	run, err := h.history.GetRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *handlers) runChanges(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	changes, err := h.history.ChangesByRun(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("statusapi: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
