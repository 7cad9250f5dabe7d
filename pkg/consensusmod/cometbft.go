// Package consensusmod implements ConsensusModule plugins: chain-specific
// header fetchers the RelayerPipeline calls to advance a client before
// assembling a datagram. The CometBFT module here is grounded on this
// tree's existing cometbft dependency (no package in this tree runs
// consensus itself) and uses it the other way round: as an RPC
// client fetching a counterparty Cosmos-SDK/CometBFT chain's signed
// headers, the direction the relayer actually needs.
package consensusmod

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"

	"github.com/unionlabs/voyager/pkg/ibc"
	"github.com/unionlabs/voyager/pkg/opqueue"
	"github.com/unionlabs/voyager/pkg/plugin"
)

// CometBFTHeader is the wire form of a single signed-header + validator-set
// update a 07-tendermint light client consumes. Encoded as EncodedHeader
// bytes (opaque to the VM) once wrapped for a datagram.
type CometBFTHeader struct {
	SignedHeaderJSON json.RawMessage `json:"signed_header"`
	ValidatorSetJSON json.RawMessage `json:"validator_set"`
}

// Module fetches header chains from a single CometBFT-compatible RPC
// endpoint. One Module instance tracks exactly one counterparty chain;
// the relayer wires one per configured chain (pkg/config's ChainConfig).
type Module struct {
	chainID ibc.ChainId
	client  *rpchttp.HTTP
	logger  *log.Logger
}

// New dials rpcURL for chainID.
func New(chainID ibc.ChainId, rpcURL string) (*Module, error) {
	client, err := rpchttp.New(rpcURL, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("consensusmod: dial %s: %w", rpcURL, err)
	}
	return &Module{
		chainID: chainID,
		client:  client,
		logger:  log.New(log.Writer(), fmt.Sprintf("[ConsensusModule:%s] ", chainID), log.LstdFlags),
	}, nil
}

// FetchHeaders implements relayer.ConsensusModule: it walks commits from
// just after `from` up to `to`, one per height, matching the per-height
// update cadence 07-tendermint light clients expect (no header skipping
// across a validator set change without an intermediate height).
func (m *Module) FetchHeaders(ctx context.Context, clientID ibc.ClientId, from, to ibc.Height) (ibc.OrderedHeaders, error) {
	if to.RevisionHeight <= from.RevisionHeight {
		return ibc.OrderedHeaders{TargetClientId: clientID}, nil
	}

	out := ibc.OrderedHeaders{TargetClientId: clientID}
	for h := from.RevisionHeight + 1; h <= to.RevisionHeight; h++ {
		height := int64(h)
		commit, err := m.client.Commit(ctx, &height)
		if err != nil {
			return ibc.OrderedHeaders{}, fmt.Errorf("consensusmod: fetch commit at height %d on %s: %w", h, m.chainID, err)
		}
		validators, err := m.client.Validators(ctx, &height, nil, nil)
		if err != nil {
			return ibc.OrderedHeaders{}, fmt.Errorf("consensusmod: fetch validators at height %d on %s: %w", h, m.chainID, err)
		}

		signedHeaderJSON, err := json.Marshal(commit.SignedHeader)
		if err != nil {
			return ibc.OrderedHeaders{}, fmt.Errorf("consensusmod: marshal signed header at %d: %w", h, err)
		}
		validatorSetJSON, err := json.Marshal(validators.Validators)
		if err != nil {
			return ibc.OrderedHeaders{}, fmt.Errorf("consensusmod: marshal validator set at %d: %w", h, err)
		}

		headerBytes, err := json.Marshal(CometBFTHeader{SignedHeaderJSON: signedHeaderJSON, ValidatorSetJSON: validatorSetJSON})
		if err != nil {
			return ibc.OrderedHeaders{}, err
		}

		out.Headers = append(out.Headers, ibc.EncodedHeader{
			Height: ibc.Height{RevisionNumber: from.RevisionNumber, RevisionHeight: h},
			Bytes:  headerBytes,
		})
	}
	m.logger.Printf("fetched %d headers for client %s, %s -> %s", len(out.Headers), clientID, from, to)
	return out, nil
}

// Info implements plugin.Plugin so a Module can also be registered
// directly with the router and driven as an ordinary Call op, not just
// invoked by the pipeline's Go-level interface.
func (m *Module) Info() plugin.Info {
	return plugin.Info{
		Name: fmt.Sprintf("consensus-cometbft-%s", m.chainID),
		InterestFilter: plugin.Filter{
			Field:  "call.type",
			Equals: "FetchHeaders",
		},
	}
}

func (m *Module) Call(ctx context.Context, call opqueue.CallOp) (opqueue.Op, error) {
	var args struct {
		ClientId ibc.ClientId `json:"client_id"`
		From     ibc.Height   `json:"from"`
		To       ibc.Height   `json:"to"`
	}
	if err := json.Unmarshal(call.Payload, &args); err != nil {
		return opqueue.Op{}, fmt.Errorf("consensusmod: decode FetchHeaders call: %w", err)
	}
	headers, err := m.FetchHeaders(ctx, args.ClientId, args.From, args.To)
	if err != nil {
		return opqueue.Op{}, err
	}
	payload, err := json.Marshal(headers)
	if err != nil {
		return opqueue.Op{}, err
	}
	return opqueue.Effect("OrderedHeaders", payload), nil
}

func (m *Module) RunPass(_ context.Context, ops []opqueue.Op) ([]opqueue.Op, error) { return ops, nil }

func (m *Module) Callback(_ context.Context, name string, _ opqueue.EffectOp) (opqueue.Op, error) {
	return opqueue.Op{}, fmt.Errorf("consensusmod: no callback named %q", name)
}
