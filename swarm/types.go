// Package swarm implements the node role that executes TransferBread
// transactions against an authenticated key/value store, through a
// deterministic in-memory write overlay.
package swarm

import (
	"github.com/breadchain/breadchain/internal/account"
	"github.com/breadchain/breadchain/internal/codec"
	"github.com/breadchain/breadchain/internal/digest"
)

const instructionTransferBreadTag = 0

// TransferBread is the body of a TransferBread instruction: move amount
// bread from the sender to To.
type TransferBread struct {
	Amount uint64
	To     account.PublicKey
}

func (tb TransferBread) encode(w *codec.Writer) {
	w.WriteUint64(tb.Amount)
	w.WriteFixed(tb.To.Bytes())
}

func decodeTransferBread(r *codec.Reader) (TransferBread, error) {
	amount, err := r.ReadUint64()
	if err != nil {
		return TransferBread{}, err
	}
	toBytes, err := r.ReadFixed(account.PublicKeyLength)
	if err != nil {
		return TransferBread{}, err
	}
	return TransferBread{Amount: amount, To: account.BytesToPublicKey(toBytes)}, nil
}

// Instruction wraps the single swarm instruction variant.
type Instruction struct {
	TransferBread TransferBread
}

func (i Instruction) encode(w *codec.Writer) {
	w.WriteByte(instructionTransferBreadTag)
	i.TransferBread.encode(w)
}

func decodeInstruction(r *codec.Reader) (Instruction, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Instruction{}, err
	}
	if tag != instructionTransferBreadTag {
		return Instruction{}, &codec.ErrInvalidEnum{Tag: tag}
	}
	tb, err := decodeTransferBread(r)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{TransferBread: tb}, nil
}

// Transaction is a signed transfer submission. Digest excludes Signature.
type Transaction struct {
	TxNonce     uint64
	Instruction Instruction
	PublicKey   account.PublicKey
	Signature   account.Signature
}

func (t Transaction) Originator() account.PublicKey { return t.PublicKey }
func (t Transaction) Nonce() uint64                 { return t.TxNonce }

func (t Transaction) Digest() digest.Digest {
	var w codec.Writer
	w.WriteUint64(t.TxNonce)
	t.Instruction.encode(&w)
	w.WriteFixed(t.PublicKey.Bytes())
	return digest.Sum(w.Bytes())
}

// Encode writes the full wire representation, signature included.
func (t Transaction) Encode() []byte {
	var w codec.Writer
	w.WriteUint64(t.TxNonce)
	t.Instruction.encode(&w)
	w.WriteFixed(t.PublicKey.Bytes())
	w.WriteFixed(t.Signature.Bytes())
	return w.Bytes()
}

// DecodeTransaction parses a wire-encoded Transaction.
func DecodeTransaction(b []byte) (Transaction, error) {
	r := codec.NewReader(b)
	nonce, err := r.ReadUint64()
	if err != nil {
		return Transaction{}, err
	}
	instr, err := decodeInstruction(r)
	if err != nil {
		return Transaction{}, err
	}
	pkBytes, err := r.ReadFixed(account.PublicKeyLength)
	if err != nil {
		return Transaction{}, err
	}
	sigBytes, err := r.ReadFixed(account.SignatureLength)
	if err != nil {
		return Transaction{}, err
	}
	var sig account.Signature
	copy(sig[:], sigBytes)
	return Transaction{
		TxNonce:     nonce,
		Instruction: instr,
		PublicKey:   account.BytesToPublicKey(pkBytes),
		Signature:   sig,
	}, nil
}

const keyAccountTag = 0

// Key names a storage slot. Only the Account variant exists today; the
// tagged form leaves room for future slot kinds without a wire break.
type Key struct {
	Account account.PublicKey
}

// StorageKey returns sha256(encode(Key)), the physical key used against the
// authenticated KV.
func (k Key) StorageKey() []byte {
	var w codec.Writer
	w.WriteByte(keyAccountTag)
	w.WriteFixed(k.Account.Bytes())
	d := digest.Sum(w.Bytes())
	return d.Bytes()
}

const (
	valueAccountTag        = 0
	valueCommitMetadataTag = 1
)

// Account is the balance/nonce record held at a Key{Account: pk} slot.
type Account struct {
	Nonce uint64
	Bread uint64
}

// EncodeValue writes an Account as a tagged Value body.
func (a Account) EncodeValue() []byte {
	var w codec.Writer
	w.WriteByte(valueAccountTag)
	w.WriteUint64(a.Nonce)
	w.WriteUint64(a.Bread)
	return w.Bytes()
}

// DecodeAccountValue parses a tagged Value body expected to hold an
// Account, failing with codec.ErrInvalidEnum if the tag names something
// else.
func DecodeAccountValue(b []byte) (Account, error) {
	r := codec.NewReader(b)
	tag, err := r.ReadByte()
	if err != nil {
		return Account{}, err
	}
	if tag != valueAccountTag {
		return Account{}, &codec.ErrInvalidEnum{Tag: tag}
	}
	nonce, err := r.ReadUint64()
	if err != nil {
		return Account{}, err
	}
	bread, err := r.ReadUint64()
	if err != nil {
		return Account{}, err
	}
	return Account{Nonce: nonce, Bread: bread}, nil
}
