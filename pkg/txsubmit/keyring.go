// Package txsubmit implements the transaction-submission plugin shared by
// every chain backend: keyring-gated, nonce-managed, gas-estimated,
// multicall-batched submission with revert classification and retry.
// Grounded on this tree's pkg/ethereum (client shape) and
// pkg/execution/nonce_tracker.go (mutex-guarded pending state); the
// concrete wire format lives one level down in txsubmit/evm and
// txsubmit/cosmos.
package txsubmit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// KeyEntry is one signing identity the submitter may use. Opaque beyond its
// address string and a lease token; the EVM/Cosmos submitters keep their
// concrete credentials separately, keyed by the same address.
type KeyEntry struct {
	Address string
	lease   chan struct{} // buffered size 1; a held token is the lease
	nonce    uint64
	hasNonce bool
}

// Keyring holds the set of key-entries a submitter draws from. Each
// submission acquires exactly one key exclusively and releases it on
// completion, so two submissions never race over the same nonce; distinct
// keys submit fully in parallel.
type Keyring struct {
	mu      sync.Mutex
	entries map[string]*KeyEntry
}

// NewKeyring builds an empty keyring.
func NewKeyring() *Keyring {
	return &Keyring{entries: make(map[string]*KeyEntry)}
}

// Add registers address as a usable signing identity. Re-adding an address
// already present is a no-op.
func (k *Keyring) Add(address string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.entries[address]; ok {
		return
	}
	entry := &KeyEntry{Address: address, lease: make(chan struct{}, 1)}
	entry.lease <- struct{}{}
	k.entries[address] = entry
}

// Lease blocks until address's entry is free, then returns it leased. The
// caller must call Release when done. Returns an error if address was never
// added or ctx is cancelled first; cancellation never leaks the token since
// nothing was taken from the channel in that case.
func (k *Keyring) Lease(ctx context.Context, address string) (*KeyEntry, error) {
	k.mu.Lock()
	entry, ok := k.entries[address]
	k.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("txsubmit: unknown key %q", address)
	}

	select {
	case <-entry.lease:
		return entry, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns entry to the pool.
func (k *Keyring) Release(entry *KeyEntry) {
	entry.lease <- struct{}{}
}

// Nonce returns the entry's cached nonce and whether it has ever been set.
func (entry *KeyEntry) Nonce() (uint64, bool) {
	return entry.nonce, entry.hasNonce
}

// SetNonce overwrites the entry's cached nonce, used after a fresh
// on-chain query or a mismatch refresh.
func (entry *KeyEntry) SetNonce(n uint64) {
	entry.nonce = n
	entry.hasNonce = true
}

// AdvanceNonce bumps the cached nonce by one after a successful submit.
func (entry *KeyEntry) AdvanceNonce() {
	entry.nonce++
}

// Addresses returns every registered address, for diagnostics.
func (k *Keyring) Addresses() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, 0, len(k.entries))
	for addr := range k.entries {
		out = append(out, addr)
	}
	return out
}

// LeaseTimeout is a 30s lease deadline. Lease does not apply it itself: a
// Lease call waits for as long as its ctx allows.
const LeaseTimeout = 30 * time.Second
