// SPDX-License-Identifier: BSD-3-Clause

// Package queryserver implements the read-only HTTP surface over a
// Store: GET /air, /light, /water_level, each accepting an optional
// `since` RFC3339 query parameter.
//
// Supplemented from original_source/dataserver and measurement-service,
// which describe an equivalent read-only query surface. The teacher's
// own networked services are connectrpc/gRPC over protobuf, a
// schema-first pipeline with no home for growd's three flat measurement
// structs, so this uses net/http + encoding/json directly — the stdlib
// fallback, justified in DESIGN.md.
package queryserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rorosen/growd/internal/measurement"
)

// Store is the subset of internal/store.Store the query server reads from.
type Store interface {
	AirSince(since int64) []measurement.Air
	LightSince(since int64) []measurement.Light
	WaterLevelSince(since int64) []measurement.WaterLevel
}

// Server serves the read-only query endpoints over a Store.
type Server struct {
	addr   string
	store  Store
	logger *slog.Logger
	srv    *http.Server
}

// New constructs a Server that will listen on addr.
func New(addr string, store Store, logger *slog.Logger) *Server {
	return &Server{addr: addr, store: store, logger: logger}
}

// Run starts listening on s.addr and blocks until ctx is cancelled, then
// shuts the HTTP server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /air", s.handleAir)
	mux.HandleFunc("GET /light", s.handleLight)
	mux.HandleFunc("GET /water_level", s.handleWaterLevel)

	s.srv = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("query server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func since(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return 0, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

func (s *Server) handleAir(w http.ResponseWriter, r *http.Request) {
	since, err := since(r)
	if err != nil {
		http.Error(w, "invalid since parameter: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, s.store.AirSince(since))
}

func (s *Server) handleLight(w http.ResponseWriter, r *http.Request) {
	since, err := since(r)
	if err != nil {
		http.Error(w, "invalid since parameter: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, s.store.LightSince(since))
}

func (s *Server) handleWaterLevel(w http.ResponseWriter, r *http.Request) {
	since, err := since(r)
	if err != nil {
		http.Error(w, "invalid since parameter: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, s.store.WaterLevelSince(since))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
