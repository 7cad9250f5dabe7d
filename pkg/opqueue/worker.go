package opqueue

import (
	"context"
	"errors"
	"log"
	"time"
)

// Executor runs a single Op to completion (or to its next suspension
// point) and reports what should happen to it next. Implemented by
// pkg/plugin.Router; kept as an interface here so opqueue never imports
// plugin (plugin imports opqueue for the Op type, not the other way
// around).
type Executor interface {
	// Execute runs op. A returned error with Transient true is retried at
	// backoff; otherwise the op is terminally failed (becomes Op::Noop in
	// the caller's accounting). next, if non-nil, replaces op in the queue
	// under the same bucket (e.g. a Seq advancing to its next child).
	Execute(ctx context.Context, op Op) (next *Op, err error)
}

// TransientError marks an Executor error as retryable (at-least-once
// redelivery) rather than fatal.
type TransientError struct{ Err error }

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

func isTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// WorkerConfig configures a Worker pool, mirroring the interval/check-
// interval split used by this tree's other background scheduler.
type WorkerConfig struct {
	Buckets       []string
	Concurrency   int
	PollInterval  time.Duration
	RetryBackoff  time.Duration
	Logger        *log.Logger
}

// DefaultWorkerConfig returns sane defaults for a single-process deployment.
func DefaultWorkerConfig(buckets []string) WorkerConfig {
	return WorkerConfig{
		Buckets:      buckets,
		Concurrency:  4,
		PollInterval: 500 * time.Millisecond,
		RetryBackoff: 5 * time.Second,
		Logger:       log.New(log.Writer(), "[OpQueue] ", log.LstdFlags),
	}
}

// Worker drains a Queue with a fixed pool of goroutines, following this
// tree's ticker/select background-loop convention.
type Worker struct {
	queue    *Queue
	exec     Executor
	cfg      WorkerConfig
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWorker builds a Worker pool over queue, dispatching each claimed op to
// exec.
func NewWorker(queue *Queue, exec Executor, cfg WorkerConfig) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[OpQueue] ", log.LstdFlags)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	return &Worker{queue: queue, exec: exec, cfg: cfg}
}

// Start launches cfg.Concurrency goroutines, each polling for ready ops
// until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{}, w.cfg.Concurrency)
	for i := 0; i < w.cfg.Concurrency; i++ {
		go w.run(ctx)
	}
}

// Stop signals all worker goroutines to exit and waits for them.
func (w *Worker) Stop() {
	close(w.stopCh)
	for i := 0; i < w.cfg.Concurrency; i++ {
		<-w.doneCh
	}
}

func (w *Worker) run(ctx context.Context) {
	defer func() { w.doneCh <- struct{}{} }()
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) {
	for {
		item, err := w.queue.Claim(ctx, w.cfg.Buckets)
		if err != nil {
			w.cfg.Logger.Printf("claim failed: %v", err)
			return
		}
		if item == nil {
			return
		}
		w.runOne(ctx, *item)
	}
}

func (w *Worker) runOne(ctx context.Context, item Item) {
	next, err := w.exec.Execute(ctx, item.Op)
	if err != nil {
		if isTransient(err) {
			w.cfg.Logger.Printf("op %s (%s) transient failure, retrying: %v", item.ID, item.Op.Kind(), err)
			if rerr := w.queue.Retry(ctx, item.ID, true, w.cfg.RetryBackoff); rerr != nil {
				w.cfg.Logger.Printf("retry bookkeeping failed for %s: %v", item.ID, rerr)
			}
			return
		}
		w.cfg.Logger.Printf("op %s (%s) fatal: %v", item.ID, item.Op.Kind(), err)
		if rerr := w.queue.Retry(ctx, item.ID, false, 0); rerr != nil {
			w.cfg.Logger.Printf("fail bookkeeping failed for %s: %v", item.ID, rerr)
		}
		return
	}
	if next != nil {
		var enqueueErr error
		if next.Defer != nil {
			enqueueErr = w.queue.EnqueueDeferred(ctx, *next, item.Bucket, time.Unix(0, next.Defer.ReadyAt))
		} else {
			enqueueErr = w.queue.Enqueue(ctx, *next, item.Bucket)
		}
		if enqueueErr != nil {
			w.cfg.Logger.Printf("requeue continuation failed for %s: %v", item.ID, enqueueErr)
		}
	}
	if err := w.queue.Complete(ctx, item.ID); err != nil {
		w.cfg.Logger.Printf("complete bookkeeping failed for %s: %v", item.ID, err)
	}
}
