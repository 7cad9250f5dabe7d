package opqueue

import (
	"context"
	"testing"
	"time"
)

// stubExecutor returns a fixed continuation (or error) for every Execute
// call, letting tests drive Worker.runOne without a real plugin.Router.
type stubExecutor struct {
	next *Op
	err  error
}

func (e *stubExecutor) Execute(context.Context, Op) (*Op, error) {
	return e.next, e.err
}

func TestRunOneHonorsDeferredContinuationReadyAt(t *testing.T) {
	q := New(NewMemStore())
	ctx := context.Background()

	if err := q.Enqueue(ctx, Call("evm", "Submit", nil), "relay"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	item, err := q.Claim(ctx, []string{"relay"})
	if err != nil || item == nil {
		t.Fatalf("claim: item=%v err=%v", item, err)
	}

	retry := Call("evm", "Submit", nil)
	deferred := DeferUntil(retry, time.Now().Add(time.Hour).UnixNano())
	w := NewWorker(q, &stubExecutor{next: &deferred}, DefaultWorkerConfig([]string{"relay"}))

	w.runOne(ctx, *item)

	again, err := q.Claim(ctx, []string{"relay"})
	if err != nil {
		t.Fatalf("claim after runOne: %v", err)
	}
	if again != nil {
		t.Error("expected the Defer-wrapped continuation to not be immediately claimable")
	}
}

func TestRunOneEnqueuesImmediateContinuationNow(t *testing.T) {
	q := New(NewMemStore())
	ctx := context.Background()

	if err := q.Enqueue(ctx, Call("cosmos", "Submit", nil), "relay"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	item, err := q.Claim(ctx, []string{"relay"})
	if err != nil || item == nil {
		t.Fatalf("claim: item=%v err=%v", item, err)
	}

	retry := Call("cosmos", "Submit", nil)
	w := NewWorker(q, &stubExecutor{next: &retry}, DefaultWorkerConfig([]string{"relay"}))

	w.runOne(ctx, *item)

	again, err := q.Claim(ctx, []string{"relay"})
	if err != nil {
		t.Fatalf("claim after runOne: %v", err)
	}
	if again == nil {
		t.Fatal("expected an immediate (non-Defer) continuation to be claimable right away")
	}
	if again.Op.ID != retry.ID {
		t.Errorf("claimed continuation ID = %v, want %v", again.Op.ID, retry.ID)
	}
}
