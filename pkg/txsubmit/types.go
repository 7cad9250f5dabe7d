package txsubmit

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Message is one datagram to submit, addressed to a key and a target
// contract/module. Multiple Messages destined for the same key within the
// same Seq may be packed into a single outer call when the chain supports
// multicall/tx-with-many-messages.
type Message struct {
	ID      string
	KeyAddr string
	Payload []byte
}

// MessageResult is the per-message outcome of a batched submission: msg1
// succeeds, msg2 reverts and is dropped, msg3 succeeds — the batch itself
// never fails just because one message in it did.
type MessageResult struct {
	MessageID      string
	Success        bool
	Classification Classification
}

// Result is what a Submitter returns for an attempted submission,
// successful or not.
type Result struct {
	TxHash    string
	GasUsed   uint64
	Height    uint64
	PerMsg    []MessageResult
	Submitted bool
}

// InclusionPoller abstracts "has height H produced a receipt for tx" so
// PollForInclusion works identically across EVM and Cosmos backends.
type InclusionPoller interface {
	CurrentHeight(ctx context.Context) (uint64, error)
	TxIncluded(ctx context.Context, txHash string) (included bool, height uint64, err error)
}

// MaxPollAttempts is spec's default N: poll forward at most 6 block
// heights awaiting inclusion before giving up.
const MaxPollAttempts = 6

// PollForInclusion blocks until txHash lands or MaxPollAttempts new block
// heights have passed, whichever comes first.
func PollForInclusion(ctx context.Context, poller InclusionPoller, txHash string, blockTime time.Duration, logger *log.Logger) (uint64, error) {
	if _, err := poller.CurrentHeight(ctx); err != nil {
		return 0, fmt.Errorf("txsubmit: current height: %w", err)
	}

	ticker := time.NewTicker(blockTime)
	defer ticker.Stop()

	for attempt := 0; attempt < MaxPollAttempts; attempt++ {
		included, height, err := poller.TxIncluded(ctx, txHash)
		if err != nil {
			logger.Printf("poll attempt %d for %s: %v", attempt, txHash, err)
		} else if included {
			return height, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
	return 0, ErrInclusionTimeout
}

// Submitter is the interface both chain-specific variants (evm, cosmos)
// implement; pkg/plugin.Router dispatches Call ops of type "Submit" to
// whichever Submitter is registered as a plugin for the target chain.
type Submitter interface {
	Submit(ctx context.Context, keyAddr string, messages []Message) (Result, error)
}
