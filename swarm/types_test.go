package swarm

import (
	"testing"

	"github.com/breadchain/breadchain/internal/account"
)

func TestTransactionEncodeDecodeRoundTrip(t *testing.T) {
	tx := Transaction{
		TxNonce: 4,
		Instruction: Instruction{TransferBread: TransferBread{
			Amount: 10,
			To:     account.BytesToPublicKey([]byte("bob")),
		}},
		PublicKey: account.BytesToPublicKey([]byte("alice")),
		Signature: account.Signature{0x01, 0x02},
	}
	decoded, err := DecodeTransaction(tx.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != tx {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, tx)
	}
}

func TestTransactionDigestExcludesSignature(t *testing.T) {
	base := Transaction{
		TxNonce:     1,
		Instruction: Instruction{TransferBread: TransferBread{Amount: 1, To: account.BytesToPublicKey([]byte("b"))}},
		PublicKey:   account.BytesToPublicKey([]byte("a")),
	}
	resigned := base
	resigned.Signature = account.Signature{0x9}
	if base.Digest() != resigned.Digest() {
		t.Fatalf("digest must not depend on signature")
	}
}

func TestAccountValueRoundTrip(t *testing.T) {
	acc := Account{Nonce: 3, Bread: 77}
	decoded, err := DecodeAccountValue(acc.EncodeValue())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != acc {
		t.Fatalf("want %+v, got %+v", acc, decoded)
	}
}

func TestKeyStorageKeyIsStableAndDistinctPerAccount(t *testing.T) {
	alice := Key{Account: account.BytesToPublicKey([]byte("alice"))}
	bob := Key{Account: account.BytesToPublicKey([]byte("bob"))}

	if string(alice.StorageKey()) != string(alice.StorageKey()) {
		t.Fatalf("storage key must be stable")
	}
	if string(alice.StorageKey()) == string(bob.StorageKey()) {
		t.Fatalf("distinct accounts must hash to distinct storage keys")
	}
}
