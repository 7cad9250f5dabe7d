package opqueue

import (
	"context"

	"github.com/google/uuid"
)

// PassFn is a plugin's run_pass hook: given a bucket of ops that matched
// its interest filter on this tick, return the ops it wants run instead —
// fused, reordered, or filtered down, e.g. batching several RecvPacket
// calls bound for the same channel into one multicall. Returning the input
// unchanged is always valid and is what a plugin without anything to fuse
// should do.
type PassFn func(ctx context.Context, ops []Op) ([]Op, error)

// RunPass claims up to limit ready ops from bucket, offers them to fn, and
// replaces them with whatever fn returns: every claimed op is marked done
// and each returned op is enqueued under bucket, so an op fn leaves out of
// its result is removed. If fn errors, the claimed ops are put back as
// pending, so a plugin that errors mid-pass does not destroy work.
func RunPass(ctx context.Context, queue *Queue, bucket string, limit int, fn PassFn) error {
	batch, ids, err := peekBucket(ctx, queue, bucket, limit)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	fused, err := fn(ctx, batch)
	if err != nil {
		for _, id := range ids {
			_ = queue.Retry(ctx, id, true, 0)
		}
		return err
	}

	for _, id := range ids {
		if err := queue.store.MarkDone(ctx, id); err != nil {
			return err
		}
	}
	for _, op := range fused {
		if err := queue.Enqueue(ctx, op, bucket); err != nil {
			return err
		}
	}
	return nil
}

// peekBucket claims (running) up to limit pending ops from bucket so a
// concurrent second pass or worker can't also pick them up mid-fusion.
func peekBucket(ctx context.Context, queue *Queue, bucket string, limit int) ([]Op, []uuid.UUID, error) {
	var ops []Op
	var ids []uuid.UUID
	for i := 0; i < limit; i++ {
		item, err := queue.store.ClaimNext(ctx, []string{bucket})
		if err != nil {
			return nil, nil, err
		}
		if item == nil {
			break
		}
		ops = append(ops, item.Op)
		ids = append(ids, item.ID)
	}
	return ops, ids, nil
}
