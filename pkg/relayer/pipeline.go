// Package relayer implements the RelayerPipeline: the six-step path from
// an observed chain event to a submitted datagram. Grounded on this
// tree's orchestration-over-plugins shape (coordinating proof generation,
// batching and anchoring across independently pluggable backends), here
// generalized from "Accumulate block -> anchor" to "IBC event -> datagram".
package relayer

import (
	"context"
	"fmt"
	"log"

	"github.com/unionlabs/voyager/pkg/ibc"
	"github.com/unionlabs/voyager/pkg/opqueue"
)

// ConsensusModule fetches the headers needed to advance a client from its
// current trusted height to (at least) a target height on the
// counterparty chain that client tracks.
type ConsensusModule interface {
	FetchHeaders(ctx context.Context, clientID ibc.ClientId, from, to ibc.Height) (ibc.OrderedHeaders, error)
}

// ProofModule fetches a membership proof for a storage path at an exact
// height — the height a just-submitted MsgUpdateClient will make provable.
type ProofModule interface {
	FetchProof(ctx context.Context, path string, height ibc.Height) (ibc.IbcProof, error)
}

// ClientResolver maps a destination chain + port/channel combination back
// to the client id relaying to it, and reports which chain the client
// tracks.
type ClientResolver interface {
	ResolveClient(ctx context.Context, event ibc.FullIbcEvent) (clientID ibc.ClientId, counterpartyChain ibc.ChainId, err error)
}

// DatagramAssembler builds the final, counterparty-encoded message (plus
// any header updates it depends on) for an event.
type DatagramAssembler interface {
	Assemble(ctx context.Context, event ibc.FullIbcEvent, headers ibc.OrderedHeaders, proof ibc.IbcProof) (opqueue.Op, error)
}

// Pipeline wires one event source to a submission queue: resolve the
// client, fetch headers, assemble MsgUpdateClient(s), fetch a proof at the
// height those updates land on, assemble the target datagram, and enqueue
// Seq([UpdateClient*, TargetMsg]) as a single atomic submission unit.
type Pipeline struct {
	resolver  ClientResolver
	consensus ConsensusModule
	proof     ProofModule
	assembler DatagramAssembler
	queue     *opqueue.Queue
	bucket    string
	logger    *log.Logger
}

// Config collects Pipeline's dependencies.
type Config struct {
	Resolver  ClientResolver
	Consensus ConsensusModule
	Proof     ProofModule
	Assembler DatagramAssembler
	Queue     *opqueue.Queue
	Bucket    string
	Logger    *log.Logger
}

// New builds a Pipeline from cfg.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Resolver == nil || cfg.Consensus == nil || cfg.Proof == nil || cfg.Assembler == nil || cfg.Queue == nil {
		return nil, fmt.Errorf("relayer: all pipeline dependencies are required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "relay"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[RelayerPipeline] ", log.LstdFlags)
	}
	return &Pipeline{
		resolver: cfg.Resolver, consensus: cfg.Consensus, proof: cfg.Proof,
		assembler: cfg.Assembler, queue: cfg.Queue, bucket: cfg.Bucket, logger: cfg.Logger,
	}, nil
}

// Handle runs the full six-step flow for a single observed event and
// enqueues the resulting submission op. It does not wait for the
// submission to land; that is the TxSubmitter's concern once the op
// reaches its bucket.
func (p *Pipeline) Handle(ctx context.Context, event ibc.FullIbcEvent) error {
	clientID, counterpartyChain, err := p.resolver.ResolveClient(ctx, event)
	if err != nil {
		return fmt.Errorf("relayer: resolve client for event on %s: %w", event.ChainId(), err)
	}

	// Fetch headers bringing clientID up to (at least) the height the
	// event was observed at, so the proof fetched below is provable once
	// those headers land.
	headers, err := p.consensus.FetchHeaders(ctx, clientID, ibc.Height{}, eventHeight(event))
	if err != nil {
		return fmt.Errorf("relayer: fetch headers for client %s (tracking %s): %w", clientID, counterpartyChain, err)
	}

	var provableHeight ibc.Height
	if n := len(headers.Headers); n > 0 {
		provableHeight = headers.Headers[n-1].Height
	} else {
		provableHeight = eventHeight(event)
	}

	path := eventCommitmentPath(event)
	proof, err := p.proof.FetchProof(ctx, path, provableHeight)
	if err != nil {
		return fmt.Errorf("relayer: fetch proof at %s for %s: %w", provableHeight, path, err)
	}

	targetOp, err := p.assembler.Assemble(ctx, event, headers, proof)
	if err != nil {
		return fmt.Errorf("relayer: assemble datagram for event on %s: %w", event.ChainId(), err)
	}

	submission := targetOp
	if len(headers.Headers) > 0 {
		updateOps := make([]opqueue.Op, 0, len(headers.Headers)+1)
		for _, h := range headers.Headers {
			payload, err := mustJSON(updateClientPayload{ClientId: clientID, Header: h})
			if err != nil {
				return fmt.Errorf("relayer: marshal update client payload: %w", err)
			}
			updateOps = append(updateOps, opqueue.Call("", "MsgUpdateClient", payload))
		}
		updateOps = append(updateOps, targetOp)
		submission = opqueue.Seq(updateOps...)
	}

	if err := p.queue.Enqueue(ctx, submission, p.bucket); err != nil {
		return fmt.Errorf("relayer: enqueue submission for event on %s: %w", event.ChainId(), err)
	}
	p.logger.Printf("enqueued submission for %s event on chain %s (client=%s, updates=%d)",
		eventKind(event), event.ChainId(), clientID, len(headers.Headers))
	return nil
}

type updateClientPayload struct {
	ClientId ibc.ClientId     `json:"client_id"`
	Header   ibc.EncodedHeader `json:"header"`
}
