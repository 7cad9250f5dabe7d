// Package cosmos implements txsubmit.Submitter against a Cosmos-SDK chain,
// grounded on the pack's tokenize-x-tx-chain teacher (cmd/txd/cosmoscmd's
// OS-keyring-backed signing identity) generalized from CLI key management
// to a long-running signer, and on cosmos-sdk's own simulate-then-
// broadcast transaction lifecycle.
package cosmos

import (
	"context"
	"errors"
	"fmt"
	"log"

	sdkerrors "cosmossdk.io/errors"
	sdkkeyring "github.com/cosmos/cosmos-sdk/crypto/keyring"

	"github.com/unionlabs/voyager/pkg/txsubmit"
)

// GasAdjustment scales a successful simulation's gas estimate before
// broadcast, the Cosmos-SDK analogue of the EVM submitter's
// GasScaleNumerator/Denominator bump.
const GasAdjustment = 1.3

// TxBroadcaster is the narrow surface this package needs from a live
// Cosmos-SDK RPC/gRPC connection: simulate a tx for gas, broadcast the
// signed bytes, and look up an account's current sequence. Kept as an
// interface (rather than importing client.Context directly) so a
// Submitter can be constructed and unit tested without a live chain.
type TxBroadcaster interface {
	AccountSequence(ctx context.Context, address string) (accountNumber, sequence uint64, err error)
	Simulate(ctx context.Context, signerAddr string, msgs [][]byte, accountNumber, sequence uint64) (gasUsed uint64, err error)
	BroadcastTx(ctx context.Context, signerAddr string, msgs [][]byte, gasLimit uint64, accountNumber, sequence uint64) (txHash, codespace string, code uint32, rawLog string, err error)
}

// Submitter submits IBC datagrams as one Cosmos-SDK tx (one sdk.Msg per
// datagram, batched into a single tx body) signed by a key held in an
// os/file/memory cosmos-sdk keyring.
type Submitter struct {
	broadcaster TxBroadcaster
	keyring     *txsubmit.Keyring
	sdkKeyring  sdkkeyring.Keyring
	chainID     string
	logger      *log.Logger
}

// Config collects Submitter's dependencies.
type Config struct {
	Broadcaster TxBroadcaster
	SDKKeyring  sdkkeyring.Keyring
	ChainID     string
	Logger      *log.Logger
}

// New builds a Submitter from cfg.
func New(cfg Config) *Submitter {
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[TxSubmitter:Cosmos] ", log.LstdFlags)
	}
	return &Submitter{
		broadcaster: cfg.Broadcaster, keyring: txsubmit.NewKeyring(),
		sdkKeyring: cfg.SDKKeyring, chainID: cfg.ChainID, logger: cfg.Logger,
	}
}

// AddKey registers name, an existing record in the underlying sdk
// keyring, as a usable signing identity addressed by its bech32 address.
func (s *Submitter) AddKey(name string) (string, error) {
	record, err := s.sdkKeyring.Key(name)
	if err != nil {
		return "", fmt.Errorf("cosmos: look up key %q: %w", name, err)
	}
	addr, err := record.GetAddress()
	if err != nil {
		return "", fmt.Errorf("cosmos: derive address for %q: %w", name, err)
	}
	bech32Addr := addr.String()
	s.keyring.Add(bech32Addr)
	return bech32Addr, nil
}

// Submit implements txsubmit.Submitter: fetch the account's number and
// sequence from the chain (using the cached sequence instead when it is
// higher), simulate for gas, broadcast, and classify the result
// against spec's Cosmos revert table.
func (s *Submitter) Submit(ctx context.Context, keyAddr string, messages []txsubmit.Message) (txsubmit.Result, error) {
	if len(messages) == 0 {
		return txsubmit.Result{}, txsubmit.ErrBatchEmpty
	}

	entry, err := s.keyring.Lease(ctx, keyAddr)
	if err != nil {
		return txsubmit.Result{}, err
	}
	defer s.keyring.Release(entry)

	accountNumber, sequence, err := s.broadcaster.AccountSequence(ctx, keyAddr)
	if err != nil {
		return txsubmit.Result{}, fmt.Errorf("cosmos: fetch account sequence: %w", err)
	}
	if cached, has := entry.Nonce(); has && cached > sequence {
		sequence = cached
	}

	msgs := make([][]byte, len(messages))
	for i, m := range messages {
		msgs[i] = m.Payload
	}

	gasUsed, simErr := s.broadcaster.Simulate(ctx, keyAddr, msgs, accountNumber, sequence)
	if simErr != nil {
		classification := s.classify(simErr)
		return txsubmit.Result{PerMsg: resultsFromClassification(messages, classification)}, nil
	}
	gasLimit := uint64(float64(gasUsed) * GasAdjustment)

	txHash, codespace, code, rawLog, err := s.broadcaster.BroadcastTx(ctx, keyAddr, msgs, gasLimit, accountNumber, sequence)
	if err != nil {
		classification := s.classify(err)
		return txsubmit.Result{PerMsg: resultsFromClassification(messages, classification)}, nil
	}
	entry.SetNonce(sequence)
	entry.AdvanceNonce()

	classification := txsubmit.ClassifyCosmos(codespace, code, rawLog)
	results := resultsFromClassification(messages, classification)
	return txsubmit.Result{
		TxHash: txHash, GasUsed: gasLimit, PerMsg: results,
		Submitted: true,
	}, nil
}

// classify prefers a registered *sdkerrors.Error's codespace/code pair
// when the simulate/broadcast error carries one (the common case for a
// CheckTx/DeliverTx failure surfaced through cosmos-sdk's error
// registry), falling back to a bare rawLog string match — the only signal
// left once a gRPC layer has flattened the error to text, which is why
// ClassifyCosmos accepts rawLog directly rather than requiring a typed
// error.
func (s *Submitter) classify(err error) txsubmit.Classification {
	var registered *sdkerrors.Error
	if errors.As(err, &registered) {
		return txsubmit.ClassifyCosmos(registered.Codespace(), registered.ABCICode(), err.Error())
	}
	return txsubmit.ClassifyCosmos("", 0, err.Error())
}

func resultsFromClassification(messages []txsubmit.Message, c txsubmit.Classification) []txsubmit.MessageResult {
	out := make([]txsubmit.MessageResult, len(messages))
	for i, m := range messages {
		out[i] = txsubmit.MessageResult{MessageID: m.ID, Success: c.Action == txsubmit.ActionSuccess, Classification: c}
	}
	return out
}
