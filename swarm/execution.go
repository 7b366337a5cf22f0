package swarm

import (
	"context"
	"fmt"
	"sort"

	"github.com/breadchain/breadchain/internal/account"
	"github.com/breadchain/breadchain/internal/digest"
	"github.com/breadchain/breadchain/internal/saturating"
	"github.com/breadchain/breadchain/swarmstore"
)

// overlayEntry is one staged write: either a new value or a deletion.
type overlayEntry struct {
	value   []byte
	deleted bool
}

// overlay is the in-memory, key-ordered staging layer above the committed
// store. It gives the executor read-your-writes within a batch while
// keeping the committed store untouched until the whole batch has been
// processed; only valid transactions ever stage entries in it.
type overlay struct {
	entries map[string]overlayEntry
}

func newOverlay() *overlay {
	return &overlay{entries: make(map[string]overlayEntry)}
}

func (o *overlay) set(key []byte, value []byte) {
	o.entries[string(key)] = overlayEntry{value: value}
}

// get resolves key against the overlay first, falling back to the
// committed store if the overlay has no entry for it. An overlay deletion
// resolves to "absent" without consulting the store.
func (o *overlay) get(ctx context.Context, store swarmstore.Store, key []byte) ([]byte, bool, error) {
	if entry, ok := o.entries[string(key)]; ok {
		if entry.deleted {
			return nil, false, nil
		}
		return entry.value, true, nil
	}
	return store.Get(ctx, key)
}

// apply writes every staged entry to store in ascending key order, making
// the batch's effect on the store deterministic regardless of the order
// transactions happened to touch keys in.
func (o *overlay) apply(ctx context.Context, store swarmstore.Store) error {
	keys := make([]string, 0, len(o.entries))
	for k := range o.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		entry := o.entries[k]
		if entry.deleted {
			if err := store.Delete(ctx, []byte(k)); err != nil {
				return fmt.Errorf("swarm: delete %x: %w", k, err)
			}
			continue
		}
		if err := store.Update(ctx, []byte(k), entry.value); err != nil {
			return fmt.Errorf("swarm: update %x: %w", k, err)
		}
	}
	return nil
}

// Result is everything ExecuteStateTransition produced from a batch.
type Result struct {
	StateRoot      digest.Digest
	StateStartOp   uint64
	StateEndOp     uint64
	ProcessedNonce map[account.PublicKey]uint64
	InvalidTxs     []Transaction
}

// ExecuteStateTransition validates and applies batch against store at
// height. height must equal the store's currently committed height
// (re-commit, a no-op beyond re-emitting the root) or committed height + 1;
// any other value is a programming error and panics, per the executor's
// documented precondition.
//
// Errors returned from the KV itself are fatal for the whole batch: the
// node stops committing and the error is surfaced to the caller.
func ExecuteStateTransition(ctx context.Context, store swarmstore.Store, height uint64, batch []Transaction) (Result, error) {
	meta, err := store.Metadata(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("swarm: read metadata: %w", err)
	}
	if height != meta.Height && height != meta.Height+1 {
		panic(&swarmstore.ErrPreconditionViolated{CommittedHeight: meta.Height, RequestedHeight: height})
	}

	startOp, err := store.OpCount(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("swarm: read op count: %w", err)
	}

	ov := newOverlay()
	result := Result{ProcessedNonce: make(map[account.PublicKey]uint64)}

	for _, tx := range batch {
		ok, err := applyTransaction(ctx, store, ov, tx, result.ProcessedNonce)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			result.InvalidTxs = append(result.InvalidTxs, tx)
		}
	}

	if err := ov.apply(ctx, store); err != nil {
		return Result{}, err
	}

	root, err := store.Commit(ctx, swarmstore.CommitMetadata{Height: height, Start: startOp})
	if err != nil {
		return Result{}, fmt.Errorf("swarm: commit: %w", err)
	}
	endOp, err := store.OpCount(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("swarm: read op count: %w", err)
	}

	result.StateRoot = root
	result.StateStartOp = startOp
	result.StateEndOp = endOp
	return result, nil
}

// applyTransaction validates and stages a single transaction. The boolean
// return reports validity; a non-nil error is always a fatal KV error.
func applyTransaction(ctx context.Context, store swarmstore.Store, ov *overlay, tx Transaction, processedNonce map[account.PublicKey]uint64) (bool, error) {
	senderKey := Key{Account: tx.PublicKey}.StorageKey()
	senderRaw, found, err := ov.get(ctx, store, senderKey)
	if err != nil {
		return false, fmt.Errorf("swarm: get sender: %w", err)
	}
	if !found {
		return false, nil
	}
	sender, err := DecodeAccountValue(senderRaw)
	if err != nil {
		return false, fmt.Errorf("swarm: decode sender account: %w", err)
	}
	if sender.Nonce != tx.TxNonce {
		return false, nil
	}

	transfer := tx.Instruction.TransferBread
	if sender.Bread < transfer.Amount {
		return false, nil
	}

	toKey := Key{Account: transfer.To}.StorageKey()
	selfTransfer := tx.PublicKey == transfer.To

	var receiver Account
	if !selfTransfer {
		toRaw, toFound, err := ov.get(ctx, store, toKey)
		if err != nil {
			return false, fmt.Errorf("swarm: get receiver: %w", err)
		}
		if toFound {
			receiver, err = DecodeAccountValue(toRaw)
			if err != nil {
				return false, fmt.Errorf("swarm: decode receiver account: %w", err)
			}
		}
	}

	sender.Nonce = saturating.AddUint64(sender.Nonce, 1)
	sender.Bread -= transfer.Amount
	if selfTransfer {
		sender.Bread += transfer.Amount
		ov.set(senderKey, sender.EncodeValue())
	} else {
		receiver.Bread += transfer.Amount
		ov.set(senderKey, sender.EncodeValue())
		ov.set(toKey, receiver.EncodeValue())
	}
	processedNonce[tx.PublicKey] = saturating.AddUint64(tx.TxNonce, 1)
	return true, nil
}
