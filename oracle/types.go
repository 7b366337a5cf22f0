// Package oracle implements the node role that observes block proposals
// from the network, advances nonces for their originators, and finalizes a
// canonical chain by driving an internal/forkchoice.Tree.
package oracle

import (
	"github.com/breadchain/breadchain/internal/account"
	"github.com/breadchain/breadchain/internal/codec"
	"github.com/breadchain/breadchain/internal/digest"
)

// instructionProposeBlockTag discriminates the single oracle instruction variant on the
// wire. It is a byte-sized field even though only one tag is currently
// defined, matching the wire format's tagged-sum convention used elsewhere.
const instructionProposeBlockTag = 0

// MaxBlockTransactions bounds the number of transactions a single Block may
// carry; Block decoding fails once this is exceeded.
const MaxBlockTransactions = 10

// BlockProposal is the body of a ProposeBlock instruction.
type BlockProposal struct {
	BlockHeight uint64
	ParentHash  digest.Digest
	BlockHash   digest.Digest
}

func (p BlockProposal) encode(w *codec.Writer) {
	w.WriteUint64(p.BlockHeight)
	w.WriteDigest(p.ParentHash)
	w.WriteDigest(p.BlockHash)
}

func decodeBlockProposal(r *codec.Reader) (BlockProposal, error) {
	height, err := r.ReadUint64()
	if err != nil {
		return BlockProposal{}, err
	}
	parent, err := r.ReadDigest()
	if err != nil {
		return BlockProposal{}, err
	}
	hash, err := r.ReadDigest()
	if err != nil {
		return BlockProposal{}, err
	}
	return BlockProposal{BlockHeight: height, ParentHash: parent, BlockHash: hash}, nil
}

// Instruction wraps the single oracle instruction variant, ProposeBlock. A
// tagged-sum wrapper is kept even with one variant so the wire format can
// grow additional instructions without a breaking change to Transaction.
type Instruction struct {
	ProposeBlock BlockProposal
}

func (i Instruction) encode(w *codec.Writer) {
	w.WriteByte(instructionProposeBlockTag)
	i.ProposeBlock.encode(w)
}

func decodeInstruction(r *codec.Reader) (Instruction, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return Instruction{}, err
	}
	if tag != instructionProposeBlockTag {
		return Instruction{}, &codec.ErrInvalidEnum{Tag: tag}
	}
	p, err := decodeBlockProposal(r)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{ProposeBlock: p}, nil
}

// Transaction is a signed proposal submission. Digest excludes Signature so
// re-signing the same (nonce, instruction, public key) yields the same
// transaction identity.
type Transaction struct {
	TxNonce     uint64
	Instruction Instruction
	PublicKey   account.PublicKey
	Signature   account.Signature
}

// Originator satisfies mempool.Transaction.
func (t Transaction) Originator() account.PublicKey { return t.PublicKey }

// Nonce satisfies mempool.Transaction.
func (t Transaction) Nonce() uint64 { return t.TxNonce }

// Digest satisfies mempool.Transaction.
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

// Block groups a batch of transactions proposed under one parent/height.
type Block struct {
	Parent       digest.Digest
	Height       uint64
	Transactions []Transaction
}

// Digest is sha256(parent || height_be || concat(tx_digests)). It is
// recomputed on every call; Block does not memoize it at construction or
// decode time.
func (b Block) Digest() digest.Digest {
	parts := make([][]byte, 0, 2+len(b.Transactions))
	parts = append(parts, b.Parent.Bytes())
	var heightBuf [8]byte
	putUint64(heightBuf[:], b.Height)
	parts = append(parts, heightBuf[:])
	for _, tx := range b.Transactions {
		d := tx.Digest()
		parts = append(parts, d.Bytes())
	}
	return digest.Sum(parts...)
}

func putUint64(b []byte, v uint64) {
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
}

// Encode writes parent || varint(height) || varint(len) || txs...
func (b Block) Encode() []byte {
	var w codec.Writer
	w.WriteDigest(b.Parent)
	w.WriteVarint(b.Height)
	w.WriteVarint(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		w.WriteFixed(tx.Encode())
	}
	return w.Bytes()
}

// DecodeBlock parses a wire-encoded Block, rejecting transaction counts
// above MaxBlockTransactions.
func DecodeBlock(b []byte) (Block, error) {
	r := codec.NewReader(b)
	parent, err := r.ReadDigest()
	if err != nil {
		return Block{}, err
	}
	height, err := r.ReadVarint()
	if err != nil {
		return Block{}, err
	}
	n, err := r.ReadVarint()
	if err != nil {
		return Block{}, err
	}
	if n > MaxBlockTransactions {
		return Block{}, codec.ErrRange
	}
	txs := make([]Transaction, 0, n)
	for i := uint64(0); i < n; i++ {
		// Transactions are not individually length-prefixed on the wire;
		// each decode call consumes exactly its own bytes from the shared
		// reader, so back-to-back decodes stay in sync.
		tx, err := decodeTransactionFrom(r)
		if err != nil {
			return Block{}, err
		}
		txs = append(txs, tx)
	}
	return Block{Parent: parent, Height: height, Transactions: txs}, nil
}

func decodeTransactionFrom(r *codec.Reader) (Transaction, error) {
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

// Frame names a finalized frame and the chain head it finalized.
type Frame struct {
	FrameNumber uint64
	ChainHead   digest.Digest
}

func (f Frame) encode(w *codec.Writer) {
	w.WriteUint64(f.FrameNumber)
	w.WriteDigest(f.ChainHead)
}

func decodeFrame(r *codec.Reader) (Frame, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return Frame{}, err
	}
	h, err := r.ReadDigest()
	if err != nil {
		return Frame{}, err
	}
	return Frame{FrameNumber: n, ChainHead: h}, nil
}

const (
	eventBlockMintedTag    = 0
	eventFrameFinalizedTag = 1
)

// MessageEvent is a broadcastable event: either a newly minted block height
// or a newly finalized frame.
type MessageEvent struct {
	BlockMinted    *uint64
	FrameFinalized *Frame
}

// Encode writes tag:u8 || body.
func (e MessageEvent) Encode() []byte {
	var w codec.Writer
	switch {
	case e.BlockMinted != nil:
		w.WriteByte(eventBlockMintedTag)
		w.WriteUint64(*e.BlockMinted)
	case e.FrameFinalized != nil:
		w.WriteByte(eventFrameFinalizedTag)
		e.FrameFinalized.encode(&w)
	}
	return w.Bytes()
}

// DecodeMessageEvent parses a wire-encoded MessageEvent.
func DecodeMessageEvent(b []byte) (MessageEvent, error) {
	r := codec.NewReader(b)
	tag, err := r.ReadByte()
	if err != nil {
		return MessageEvent{}, err
	}
	switch tag {
	case eventBlockMintedTag:
		n, err := r.ReadUint64()
		if err != nil {
			return MessageEvent{}, err
		}
		return MessageEvent{BlockMinted: &n}, nil
	case eventFrameFinalizedTag:
		f, err := decodeFrame(r)
		if err != nil {
			return MessageEvent{}, err
		}
		return MessageEvent{FrameFinalized: &f}, nil
	default:
		return MessageEvent{}, &codec.ErrInvalidEnum{Tag: tag}
	}
}
