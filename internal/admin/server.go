// Package admin exposes the coordinator's operations over a small HTTP API
// for operators. It is deliberately thin: every handler maps onto exactly
// one coordinator call.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/venuekit/backupd/internal/catalog"
	"github.com/venuekit/backupd/internal/coordinator"
)

type Server struct {
	coord *coordinator.Coordinator
	log   zerolog.Logger
	srv   *http.Server
}

func NewServer(addr string, coord *coordinator.Coordinator, logger zerolog.Logger) *Server {
	s := &Server{coord: coord, log: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/health", s.handleHealth)
		r.Get("/backups", s.handleList)
		r.Post("/backups", s.handleCreate)
		r.Post("/restore", s.handleRestore)
		r.Post("/cleanup", s.handleCleanup)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("admin API listening")
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.GetStatus(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy := s.coord.TestConnection(r.Context())
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]bool{"healthy": healthy})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	records, err := s.coord.ListBackups(r.Context(), limit)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backups": records, "count": len(records)})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	record, err := s.coord.CreateBackup(r.Context(), catalog.ProvenanceManual)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	record, err := s.coord.RestoreLatest(r.Context(), force)
	if err != nil {
		writeOpError(w, err)
		return
	}
	if record == nil {
		writeJSON(w, http.StatusOK, map[string]any{"restored": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restored": true, "backup": record})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if err := s.coord.Cleanup(r.Context()); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coordinator.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, coordinator.ErrDatabaseMissing):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
