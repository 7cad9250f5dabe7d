package relayer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/unionlabs/voyager/pkg/ibc"
	"github.com/unionlabs/voyager/pkg/opqueue"
)

type fakeResolver struct {
	clientID ibc.ClientId
	chainID  ibc.ChainId
	err      error
}

func (f fakeResolver) ResolveClient(ctx context.Context, event ibc.FullIbcEvent) (ibc.ClientId, ibc.ChainId, error) {
	return f.clientID, f.chainID, f.err
}

type fakeConsensus struct {
	headers ibc.OrderedHeaders
	err     error
}

func (f fakeConsensus) FetchHeaders(ctx context.Context, clientID ibc.ClientId, from, to ibc.Height) (ibc.OrderedHeaders, error) {
	return f.headers, f.err
}

type fakeProof struct {
	proof ibc.IbcProof
	err   error
}

func (f fakeProof) FetchProof(ctx context.Context, path string, height ibc.Height) (ibc.IbcProof, error) {
	return f.proof, f.err
}

type fakeAssembler struct {
	op  opqueue.Op
	err error
}

func (f fakeAssembler) Assemble(ctx context.Context, event ibc.FullIbcEvent, headers ibc.OrderedHeaders, proof ibc.IbcProof) (opqueue.Op, error) {
	return f.op, f.err
}

func sendPacketEvent() ibc.FullIbcEvent {
	return ibc.FullIbcEvent{
		SendPacket: &ibc.SendPacketEvent{
			Packet: ibc.Packet{
				Sequence: 1, SourcePort: "transfer", SourceChannel: "channel-0",
				DestinationPort: "transfer", DestinationChannel: "channel-1",
			},
		},
	}
}

func TestPipelineHandleEnqueuesSeqWhenHeadersPresent(t *testing.T) {
	queue := opqueue.New(opqueue.NewMemStore())
	targetOp := opqueue.Call("cosmos.osmosis-1", "MsgRecvPacket", json.RawMessage(`{}`))

	p, err := New(Config{
		Resolver:  fakeResolver{clientID: "07-tendermint-0", chainID: "osmosis-1"},
		Consensus: fakeConsensus{headers: ibc.OrderedHeaders{Headers: []ibc.EncodedHeader{{Height: ibc.Height{RevisionHeight: 100}, Bytes: []byte("header")}}}},
		Proof:     fakeProof{proof: ibc.IbcProof{Height: ibc.Height{RevisionHeight: 100}}},
		Assembler: fakeAssembler{op: targetOp},
		Queue:     queue,
		Bucket:    "relay",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.Handle(context.Background(), sendPacketEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	count, err := queue.PendingCount(context.Background())
	if err != nil {
		t.Fatalf("pending count: %v", err)
	}
	if count != 1 {
		t.Fatalf("PendingCount = %d, want 1", count)
	}

	item, err := queue.Claim(context.Background(), []string{"relay"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if item == nil {
		t.Fatal("expected a claimable item")
	}
	if item.Op.Seq == nil {
		t.Fatal("expected the enqueued op to be a Seq wrapping update-client + target")
	}
	if len(item.Op.Seq.Ops) != 2 {
		t.Fatalf("len(Seq.Ops) = %d, want 2 (one header update + target)", len(item.Op.Seq.Ops))
	}
	if item.Op.Seq.Ops[1].ID != targetOp.ID {
		t.Error("expected the target op to be the last element of the Seq")
	}
}

func TestPipelineHandleEnqueuesBareTargetWhenNoHeadersNeeded(t *testing.T) {
	queue := opqueue.New(opqueue.NewMemStore())
	targetOp := opqueue.Call("cosmos.osmosis-1", "MsgRecvPacket", json.RawMessage(`{}`))

	p, err := New(Config{
		Resolver:  fakeResolver{clientID: "07-tendermint-0", chainID: "osmosis-1"},
		Consensus: fakeConsensus{headers: ibc.OrderedHeaders{}},
		Proof:     fakeProof{},
		Assembler: fakeAssembler{op: targetOp},
		Queue:     queue,
		Bucket:    "relay",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := p.Handle(context.Background(), sendPacketEvent()); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	item, err := queue.Claim(context.Background(), []string{"relay"})
	if err != nil || item == nil {
		t.Fatalf("claim: item=%v err=%v", item, err)
	}
	if item.Op.ID != targetOp.ID {
		t.Error("expected the bare target op to be enqueued directly when no headers were fetched")
	}
}

func TestPipelineHandlePropagatesResolverError(t *testing.T) {
	queue := opqueue.New(opqueue.NewMemStore())
	p, err := New(Config{
		Resolver:  fakeResolver{err: context.DeadlineExceeded},
		Consensus: fakeConsensus{},
		Proof:     fakeProof{},
		Assembler: fakeAssembler{},
		Queue:     queue,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Handle(context.Background(), sendPacketEvent()); err == nil {
		t.Fatal("expected Handle to propagate a resolver error")
	}
}

func TestNewRequiresAllDependencies(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected New to reject a Config missing its dependencies")
	}
}
