package oracle

import (
	"github.com/breadchain/breadchain/internal/account"
	"github.com/breadchain/breadchain/internal/digest"
	"github.com/breadchain/breadchain/internal/forkchoice"
	"github.com/breadchain/breadchain/internal/saturating"
)

// Builder is the oracle's per-originator account: the only state tracked
// outside the fork-choice tree itself.
type Builder struct {
	Nonce uint64
}

// State is the oracle's full mutable state: the builder accounts, the
// fork-choice tree, and the finalization admission counters.
type State struct {
	Builders                map[account.PublicKey]*Builder
	ForkTree                *forkchoice.Tree
	FrameBlockProposalMin   uint64
	FrameBlockProposalCount uint64
}

// NewState constructs a fresh oracle state rooted at genesisHash, requiring
// frameBlockProposalMin successful proposals per finalization attempt.
func NewState(genesisHash digest.Digest, frameBlockProposalMin uint64) *State {
	return &State{
		Builders:              make(map[account.PublicKey]*Builder),
		ForkTree:              forkchoice.New(genesisHash),
		FrameBlockProposalMin: frameBlockProposalMin,
	}
}

// Result is everything ExecuteStateTransition produced from a batch: the
// events to broadcast, the nonce each originator advanced to (for mempool
// compaction via Retain), and any FinalizeFrame attempt that came back
// unsolvable, surfaced to the caller per the executor's error-handling
// contract rather than swallowed.
type Result struct {
	Events             []MessageEvent
	ProcessedNonce     map[account.PublicKey]uint64
	FinalizationErrors []error
}

// ExecuteStateTransition applies batch in order against state, per
// transaction:
//  1. fetch-or-default-construct the originator's Builder; a nonce mismatch
//     invalidates the transaction (skipped entirely, no nonce advance);
//  2. otherwise advance the builder's nonce and record the processed nonce;
//  3. apply the instruction -- for ProposeBlock, attempt fork_tree.Propose;
//     failure still leaves the nonce advance in place (the transaction
//     consumed its nonce even though the proposal itself didn't land);
//  4. once FrameBlockProposalCount reaches FrameBlockProposalMin, attempt
//     FinalizeFrame; success emits FrameFinalized and resets the counter,
//     UnsolvableFork leaves the counter untouched and is appended to
//     Result.FinalizationErrors for the caller to log or act on.
func ExecuteStateTransition(state *State, batch []Transaction) Result {
	result := Result{ProcessedNonce: make(map[account.PublicKey]uint64)}

	for _, tx := range batch {
		pk := tx.PublicKey
		builder, ok := state.Builders[pk]
		if !ok {
			builder = &Builder{}
			state.Builders[pk] = builder
		}
		if builder.Nonce != tx.TxNonce {
			continue
		}
		builder.Nonce = saturating.AddUint64(builder.Nonce, 1)
		result.ProcessedNonce[pk] = saturating.AddUint64(tx.TxNonce, 1)

		p := tx.Instruction.ProposeBlock
		if err := state.ForkTree.Propose(p.BlockHeight, p.ParentHash, p.BlockHash); err == nil {
			state.FrameBlockProposalCount++
		}

		if state.FrameBlockProposalCount >= state.FrameBlockProposalMin {
			frameNumber, head, err := state.ForkTree.FinalizeFrame()
			if err == nil {
				state.FrameBlockProposalCount = 0
				frame := Frame{FrameNumber: frameNumber, ChainHead: head}
				result.Events = append(result.Events, MessageEvent{FrameFinalized: &frame})
			} else {
				// UnsolvableFork: counter retained, a later proposal may
				// break the tie. Surfaced to the caller rather than
				// swallowed.
				result.FinalizationErrors = append(result.FinalizationErrors, err)
			}
		}
	}

	return result
}
