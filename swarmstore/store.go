// Package swarmstore defines the authenticated key/value contract the swarm
// executor commits state through, plus an in-memory reference
// implementation suitable for tests and single-node operation. A production
// deployment swaps Store for a Merkle-mountain-range-backed engine; nothing
// in this package assumes the in-memory implementation is that engine.
package swarmstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/breadchain/breadchain/internal/digest"
)

// CommitMetadata is the per-commit header the swarm executor writes
// alongside a batch: the block height the batch advanced state to, and the
// store's operation counter sampled before the batch was applied.
type CommitMetadata struct {
	Height uint64
	Start  uint64
}

// Store is the operation set the swarm executor depends on. Get/Update/
// Delete mutate or read the committed KV directly (the executor is
// responsible for staging the writes of valid transactions in its own
// overlay and applying them to Store only once the whole batch has been
// processed); Commit materializes a root over
// the current contents and records meta. Implementations must make Commit
// atomic: either every Update/Delete issued since the last Commit is
// reflected in the new root, or none is.
type Store interface {
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)
	Update(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	Commit(ctx context.Context, meta CommitMetadata) (digest.Digest, error)
	Root(ctx context.Context) (digest.Digest, error)
	OpCount(ctx context.Context) (uint64, error)
	Metadata(ctx context.Context) (CommitMetadata, error)
}

// Memory is an in-memory Store. It is safe for concurrent use, though the
// swarm executor's single-owner contract never requires that safety itself.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	opCount  uint64
	root     digest.Digest
	metadata CommitMetadata
}

// NewMemory returns an empty store with op count 0 and the zero digest as
// its initial root.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Update(_ context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[string(key)] = cp
	m.opCount++
	return nil
}

func (m *Memory) Delete(_ context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	m.opCount++
	return nil
}

// Commit recomputes the root as sha256 over the sorted key/value pairs
// currently held, records meta, and returns the new root. It never fails in
// the in-memory implementation, but returns an error to satisfy Store for
// callers that branch on commit failure.
func (m *Memory) Commit(_ context.Context, meta CommitMetadata) (digest.Digest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([][]byte, 0, len(keys)*2)
	for _, k := range keys {
		parts = append(parts, []byte(k), m.data[k])
	}
	m.root = digest.Sum(parts...)
	m.metadata = meta
	return m.root, nil
}

func (m *Memory) Root(_ context.Context) (digest.Digest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root, nil
}

func (m *Memory) OpCount(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opCount, nil
}

func (m *Memory) Metadata(_ context.Context) (CommitMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metadata, nil
}

// ErrPreconditionViolated reports a caller passing a target height the
// executor cannot reach from the store's committed height in one step; per
// the executor's contract this is always a programming error, never surfaced
// data.
type ErrPreconditionViolated struct {
	CommittedHeight uint64
	RequestedHeight uint64
}

func (e *ErrPreconditionViolated) Error() string {
	return fmt.Sprintf("swarmstore: requested height %d is neither the committed height %d nor committed+1",
		e.RequestedHeight, e.CommittedHeight)
}
