package swarm

import (
	"context"
	"testing"

	"github.com/breadchain/breadchain/internal/account"
	"github.com/breadchain/breadchain/swarmstore"
)

func seedAccount(t *testing.T, ctx context.Context, store swarmstore.Store, pk account.PublicKey, acc Account) {
	t.Helper()
	key := Key{Account: pk}.StorageKey()
	if err := store.Update(ctx, key, acc.EncodeValue()); err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func getAccount(t *testing.T, ctx context.Context, store swarmstore.Store, pk account.PublicKey) (Account, bool) {
	t.Helper()
	raw, found, err := store.Get(ctx, Key{Account: pk}.StorageKey())
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !found {
		return Account{}, false
	}
	acc, err := DecodeAccountValue(raw)
	if err != nil {
		t.Fatalf("decode account: %v", err)
	}
	return acc, true
}

// TestS5 reproduces spec scenario S5: A:{nonce=0,bread=10}, B absent, A
// transfers 4 to B at nonce 0. Commits; A becomes {1,6}, B becomes {0,4}.
func TestS5(t *testing.T) {
	ctx := context.Background()
	store := swarmstore.NewMemory()
	alice := pkFor("alice")
	bob := pkFor("bob")
	seedAccount(t, ctx, store, alice, Account{Nonce: 0, Bread: 10})

	rootBefore, _ := store.Root(ctx)

	tx := Transaction{
		TxNonce:     0,
		Instruction: Instruction{TransferBread: TransferBread{Amount: 4, To: bob}},
		PublicKey:   alice,
	}
	result, err := ExecuteStateTransition(ctx, store, 1, []Transaction{tx})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.InvalidTxs) != 0 {
		t.Fatalf("want no invalid txs, got %+v", result.InvalidTxs)
	}

	aliceAcc, _ := getAccount(t, ctx, store, alice)
	if aliceAcc != (Account{Nonce: 1, Bread: 6}) {
		t.Fatalf("want alice={1,6}, got %+v", aliceAcc)
	}
	bobAcc, ok := getAccount(t, ctx, store, bob)
	if !ok || bobAcc != (Account{Nonce: 0, Bread: 4}) {
		t.Fatalf("want bob={0,4}, got %+v ok=%v", bobAcc, ok)
	}
	if result.StateRoot == rootBefore {
		t.Fatalf("state root must change after a committing batch")
	}
}

// TestS6 reproduces spec scenario S6: A:{nonce=0,bread=3}, transfer amount=4
// is invalid; state is unchanged and nonce is not advanced.
func TestS6(t *testing.T) {
	ctx := context.Background()
	store := swarmstore.NewMemory()
	alice := pkFor("alice")
	bob := pkFor("bob")
	seedAccount(t, ctx, store, alice, Account{Nonce: 0, Bread: 3})

	tx := Transaction{
		TxNonce:     0,
		Instruction: Instruction{TransferBread: TransferBread{Amount: 4, To: bob}},
		PublicKey:   alice,
	}
	result, err := ExecuteStateTransition(ctx, store, 1, []Transaction{tx})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.InvalidTxs) != 1 {
		t.Fatalf("want 1 invalid tx, got %d", len(result.InvalidTxs))
	}
	if _, advanced := result.ProcessedNonce[alice]; advanced {
		t.Fatalf("nonce must not advance for an invalid transaction")
	}

	aliceAcc, _ := getAccount(t, ctx, store, alice)
	if aliceAcc != (Account{Nonce: 0, Bread: 3}) {
		t.Fatalf("sender state must be untouched, got %+v", aliceAcc)
	}
	if _, ok := getAccount(t, ctx, store, bob); ok {
		t.Fatalf("receiver must not have been created by an invalid transfer")
	}
}

func TestInvalidTransactionLeavesNoPartialWrites(t *testing.T) {
	ctx := context.Background()
	store := swarmstore.NewMemory()
	alice := pkFor("alice")
	bob := pkFor("bob")
	seedAccount(t, ctx, store, alice, Account{Nonce: 5, Bread: 100})

	// Wrong nonce -> invalid.
	tx := Transaction{
		TxNonce:     0,
		Instruction: Instruction{TransferBread: TransferBread{Amount: 1, To: bob}},
		PublicKey:   alice,
	}
	if _, err := ExecuteStateTransition(ctx, store, 1, []Transaction{tx}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	aliceAcc, _ := getAccount(t, ctx, store, alice)
	if aliceAcc != (Account{Nonce: 5, Bread: 100}) {
		t.Fatalf("sender must be untouched on nonce mismatch, got %+v", aliceAcc)
	}
}

func TestRecommitSameHeightIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := swarmstore.NewMemory()
	alice := pkFor("alice")
	seedAccount(t, ctx, store, alice, Account{Nonce: 0, Bread: 10})

	r1, err := ExecuteStateTransition(ctx, store, 1, nil)
	if err != nil {
		t.Fatalf("execute 1: %v", err)
	}
	r2, err := ExecuteStateTransition(ctx, store, 1, nil)
	if err != nil {
		t.Fatalf("execute 2 (recommit): %v", err)
	}
	if r1.StateRoot != r2.StateRoot {
		t.Fatalf("recommitting the same height with an empty batch must reproduce the same root")
	}
}

func TestHeightMustAdvanceByAtMostOne(t *testing.T) {
	ctx := context.Background()
	store := swarmstore.NewMemory()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on out-of-range height")
		}
	}()
	_, _ = ExecuteStateTransition(ctx, store, 5, nil)
}

func pkFor(seed string) account.PublicKey {
	return account.BytesToPublicKey([]byte(seed))
}
