package opqueue

import (
	"context"
	"testing"
	"time"
)

func TestQueueEnqueueAndClaim(t *testing.T) {
	q := New(NewMemStore())
	ctx := context.Background()

	op := Call("evm", "Submit", nil)
	if err := q.Enqueue(ctx, op, "relay"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	count, err := q.PendingCount(ctx)
	if err != nil {
		t.Fatalf("pending count: %v", err)
	}
	if count != 1 {
		t.Fatalf("PendingCount = %d, want 1", count)
	}

	item, err := q.Claim(ctx, []string{"relay"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if item == nil {
		t.Fatal("expected a claimed item, got nil")
	}
	if item.Op.ID != op.ID {
		t.Errorf("claimed op ID = %v, want %v", item.Op.ID, op.ID)
	}

	if err := q.Complete(ctx, item.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestQueueClaimEmptyReturnsNil(t *testing.T) {
	q := New(NewMemStore())
	item, err := q.Claim(context.Background(), []string{"relay"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil claim on an empty queue, got %+v", item)
	}
}

func TestQueueEnqueueDeferredNotImmediatelyClaimable(t *testing.T) {
	q := New(NewMemStore())
	ctx := context.Background()
	op := Call("evm", "Submit", nil)
	if err := q.EnqueueDeferred(ctx, op, "relay", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("enqueue deferred: %v", err)
	}
	item, err := q.Claim(ctx, []string{"relay"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if item != nil {
		t.Error("expected a deferred item not yet ready to not be claimable")
	}
}

func TestQueueRetryRequeuesAfterBackoff(t *testing.T) {
	q := New(NewMemStore())
	ctx := context.Background()
	op := Call("evm", "Submit", nil)
	if err := q.Enqueue(ctx, op, "relay"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	item, err := q.Claim(ctx, []string{"relay"})
	if err != nil || item == nil {
		t.Fatalf("claim: item=%v err=%v", item, err)
	}

	if err := q.Retry(ctx, item.ID, true, time.Hour); err != nil {
		t.Fatalf("retry: %v", err)
	}

	again, err := q.Claim(ctx, []string{"relay"})
	if err != nil {
		t.Fatalf("claim after retry: %v", err)
	}
	if again != nil {
		t.Error("expected the retried item to not be claimable until its backoff elapses")
	}
}
