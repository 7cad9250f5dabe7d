package ibc

import "context"

// Host is the contract the virtual machine runs every step against. It is
// deliberately small: everything the VM needs from a concrete chain
// backend — identifier allocation, KV access, current height/time, and
// hashing — goes through this interface so the step functions stay
// chain-agnostic.
//
// CONCURRENCY: a Host is driven by a single VM step at a time; Commit
// calls for one op never interleave with Read calls for the same op. A
// Host implementation backing multiple concurrent ops (the common case)
// must serialize its own writes; see pkg/opqueue.Worker for how callers
// guarantee this.
type Host interface {
	// Version returns the Host's IbcInterface and IbcVersion for the chain
	// it fronts.
	Version(ctx context.Context) (IbcInterface, IbcVersion, error)

	// Caller returns the identity the current message was submitted by,
	// used for permissioned operations (e.g. channel upgrade proposals).
	Caller(ctx context.Context) (string, error)

	NextClientIdentifier(ctx context.Context, clientType ClientType) (ClientId, error)
	NextConnectionIdentifier(ctx context.Context) (ConnectionId, error)
	NextChannelIdentifier(ctx context.Context) (ChannelId, error)

	// Read fetches the raw value stored at path, or (nil, nil) if absent.
	Read(ctx context.Context, path string) ([]byte, error)

	// Commit buffers a write to path; it is only durable once the owning
	// ChangeSet is applied. Writing nil is equivalent to Delete.
	Commit(ctx context.Context, path string, value []byte) error

	Delete(ctx context.Context, path string) error

	CurrentHeight(ctx context.Context) (Height, error)
	CurrentTimestamp(ctx context.Context) (uint64, error) // unix nanos

	Sha256(data []byte) [32]byte
}

// ChangeSet accumulates the writes produced by a single VM step so they can
// be applied atomically on success and discarded entirely on failure,
// matching the "commit only at step boundaries" requirement.
type ChangeSet struct {
	writes  map[string][]byte
	deletes map[string]struct{}
	order   []string
}

// NewChangeSet returns an empty ChangeSet.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{writes: map[string][]byte{}, deletes: map[string]struct{}{}}
}

// Set records a pending write.
func (c *ChangeSet) Set(path string, value []byte) {
	if _, seen := c.writes[path]; !seen {
		if _, wasDel := c.deletes[path]; !wasDel {
			c.order = append(c.order, path)
		}
	}
	delete(c.deletes, path)
	c.writes[path] = value
}

// Delete records a pending delete.
func (c *ChangeSet) Delete(path string) {
	if _, seen := c.deletes[path]; !seen {
		c.order = append(c.order, path)
	}
	delete(c.writes, path)
	c.deletes[path] = struct{}{}
}

// Apply replays the recorded writes and deletes against host, in the order
// they were recorded. Callers should only Apply after a step has fully
// succeeded.
func (c *ChangeSet) Apply(ctx context.Context, host Host) error {
	for _, path := range c.order {
		if v, ok := c.writes[path]; ok {
			if err := host.Commit(ctx, path, v); err != nil {
				return err
			}
			continue
		}
		if err := host.Delete(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of pending writes and deletes.
func (c *ChangeSet) Len() int { return len(c.order) }
