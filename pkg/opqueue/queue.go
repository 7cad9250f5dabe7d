package opqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a queued item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusDeferred  Status = "deferred"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

// Item is a persisted queue entry: an Op plus its bookkeeping. Bucket
// groups items for FIFO-within-bucket / round-robin-across-bucket
// fairness; it is typically the interest filter (or plugin name) that will
// claim the item.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Op        Op        `json:"op"`
	Bucket    string    `json:"bucket"`
	Status    Status    `json:"status"`
	Attempts  int       `json:"attempts"`
	ReadyAt   time.Time `json:"ready_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the persistence contract a Queue runs against. A Postgres
// implementation (store_postgres.go) is the system of record; an optional
// Firestore mirror (store_firestore.go) gives a read-only real-time view
// without competing for writes.
type Store interface {
	Enqueue(ctx context.Context, item Item) error
	// ClaimNext atomically marks one ready item as running and returns it,
	// honoring round-robin fairness across buckets (the
	// bucket least-recently claimed goes first) and FIFO within a bucket.
	ClaimNext(ctx context.Context, buckets []string) (*Item, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, requeue bool, readyAt time.Time) error
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	PendingCount(ctx context.Context) (int, error)
}

// Queue is the in-process façade over a Store: callers enqueue Ops, a
// Worker pool claims and executes them.
type Queue struct {
	mu    sync.Mutex
	store Store

	// lastBucket is allocated by New but read by no Queue method; the
	// round-robin position lives in the Store (MemStore keeps it in memory,
	// PostgresStore in its bucket cursor table).
	lastBucket map[string]time.Time
}

// New returns a Queue backed by store.
func New(store Store) *Queue {
	return &Queue{store: store, lastBucket: map[string]time.Time{}}
}

// Enqueue persists op under bucket, ready immediately.
func (q *Queue) Enqueue(ctx context.Context, op Op, bucket string) error {
	now := time.Now()
	return q.store.Enqueue(ctx, Item{
		ID: op.ID, Op: op, Bucket: bucket, Status: StatusPending,
		ReadyAt: now, CreatedAt: now, UpdatedAt: now,
	})
}

// EnqueueDeferred persists op under bucket, not ready until readyAt.
func (q *Queue) EnqueueDeferred(ctx context.Context, op Op, bucket string, readyAt time.Time) error {
	now := time.Now()
	return q.store.Enqueue(ctx, Item{
		ID: op.ID, Op: op, Bucket: bucket, Status: StatusDeferred,
		ReadyAt: readyAt, CreatedAt: now, UpdatedAt: now,
	})
}

// Claim pulls the next ready item across buckets, or (nil, nil) if none is
// ready.
func (q *Queue) Claim(ctx context.Context, buckets []string) (*Item, error) {
	return q.store.ClaimNext(ctx, buckets)
}

// Complete marks an item done.
func (q *Queue) Complete(ctx context.Context, id uuid.UUID) error {
	return q.store.MarkDone(ctx, id)
}

// Retry marks an item failed; if requeue, it becomes pending again at
// backoff (at-least-once redelivery), otherwise it is terminally failed.
func (q *Queue) Retry(ctx context.Context, id uuid.UUID, requeue bool, backoff time.Duration) error {
	readyAt := time.Now().Add(backoff)
	return q.store.MarkFailed(ctx, id, requeue, readyAt)
}

// PendingCount reports the number of items not yet Done/terminally Failed.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	return q.store.PendingCount(ctx)
}

// Get fetches a single item by id, for inspection (e.g. by pkg/server's
// /queue admin endpoint).
func (q *Queue) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	item, err := q.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("opqueue: get %s: %w", id, err)
	}
	return item, nil
}
