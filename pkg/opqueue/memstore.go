package opqueue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store, used by tests and by single-process
// deployments that don't need durability across restarts.
type MemStore struct {
	mu          sync.Mutex
	items       map[uuid.UUID]*Item
	lastClaimed map[string]time.Time
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{items: map[uuid.UUID]*Item{}, lastClaimed: map[string]time.Time{}}
}

func (s *MemStore) Enqueue(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := item
	s.items[item.ID] = &cp
	return nil
}

func (s *MemStore) ClaimNext(_ context.Context, buckets []string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := append([]string(nil), buckets...)
	sort.Slice(order, func(i, j int) bool {
		return s.lastClaimed[order[i]].Before(s.lastClaimed[order[j]])
	})

	now := time.Now()
	for _, bucket := range order {
		var best *Item
		for _, it := range s.items {
			if it.Bucket != bucket {
				continue
			}
			if it.Status != StatusPending && it.Status != StatusDeferred {
				continue
			}
			if it.ReadyAt.After(now) {
				continue
			}
			if best == nil || it.ReadyAt.Before(best.ReadyAt) {
				best = it
			}
		}
		if best != nil {
			best.Status = StatusRunning
			best.Attempts++
			best.UpdatedAt = now
			s.lastClaimed[bucket] = now
			cp := *best
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) MarkDone(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[id]; ok {
		it.Status = StatusDone
		it.UpdatedAt = time.Now()
	}
	return nil
}

func (s *MemStore) MarkFailed(_ context.Context, id uuid.UUID, requeue bool, readyAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil
	}
	if requeue {
		it.Status = StatusPending
	} else {
		it.Status = StatusFailed
	}
	it.ReadyAt = readyAt
	it.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) Get(_ context.Context, id uuid.UUID) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

func (s *MemStore) PendingCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if it.Status == StatusPending || it.Status == StatusDeferred || it.Status == StatusRunning {
			n++
		}
	}
	return n, nil
}
