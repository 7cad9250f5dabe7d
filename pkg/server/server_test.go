package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unionlabs/voyager/pkg/opqueue"
	"github.com/unionlabs/voyager/pkg/plugin"
)

// fakeStore is a minimal in-memory opqueue.Store standing in for
// PostgresStore in tests, counting every item ever enqueued as pending.
type fakeStore struct {
	pending int
}

func (s *fakeStore) Enqueue(ctx context.Context, item opqueue.Item) error {
	s.pending++
	return nil
}
func (s *fakeStore) ClaimNext(ctx context.Context, buckets []string) (*opqueue.Item, error) {
	return nil, nil
}
func (s *fakeStore) MarkDone(ctx context.Context, id uuid.UUID) error { return nil }
func (s *fakeStore) MarkFailed(ctx context.Context, id uuid.UUID, requeue bool, readyAt time.Time) error {
	return nil
}
func (s *fakeStore) Get(ctx context.Context, id uuid.UUID) (*opqueue.Item, error) { return nil, nil }
func (s *fakeStore) PendingCount(ctx context.Context) (int, error)               { return s.pending, nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := &fakeStore{pending: 3}
	queue := opqueue.New(store)
	registry := plugin.NewRegistry()
	return New(Config{Queue: queue, Registry: registry, Buckets: []string{"relay", "submit"}})
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestHandleQueue(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/queue", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if int(body["pending_total"].(float64)) != 3 {
		t.Errorf("pending_total = %v, want 3", body["pending_total"])
	}
}

func TestHandlePluginsListsRegistered(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/plugins", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	plugins, ok := body["plugins"].([]any)
	if !ok || len(plugins) != 0 {
		t.Errorf("plugins = %v, want an empty list", body["plugins"])
	}
}

func TestMetricsEndpointAbsentWithoutRegistry(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != 404 {
		t.Fatalf("status = %d, want 404 when no prometheus.Registry was configured", w.Code)
	}
}
