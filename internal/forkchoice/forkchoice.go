// Package forkchoice implements the weighted subtree selector that oracle
// nodes use to finalize a canonical chain over block proposals. A Tree owns
// an in-memory DAG rooted at the genesis block and tracks the last finalized
// head within it; it never persists and never prunes finalized history, so
// it grows with every distinct proposal.
package forkchoice

import (
	"errors"
	"fmt"

	"github.com/breadchain/breadchain/internal/digest"
)

// ErrInvalidParent is returned by Propose when the named parent hash is not
// a known node.
type ErrInvalidParent struct {
	Parent digest.Digest
}

func (e *ErrInvalidParent) Error() string {
	return fmt.Sprintf("forkchoice: invalid parent hash %s", e.Parent)
}

// ErrInvalidHeight is returned by Propose when the proposed height does not
// equal the parent's height plus one.
type ErrInvalidHeight struct {
	Height uint64
}

func (e *ErrInvalidHeight) Error() string {
	return fmt.Sprintf("forkchoice: invalid block height %d", e.Height)
}

// ErrUnsolvableFork is returned by FinalizeFrame when two or more children
// of the current node tie for the highest score, so the heaviest subtree
// cannot be determined uniquely. The tree is left unchanged; a later
// proposal may break the tie.
type ErrUnsolvableFork struct {
	Hash digest.Digest
}

func (e *ErrUnsolvableFork) Error() string {
	return fmt.Sprintf("forkchoice: unsolvable fork at %s", e.Hash)
}

var errNodeNotFound = errors.New("forkchoice: node not found")

// node is a single block proposal in the tree.
type node struct {
	frame  uint64
	height uint64
	parent digest.Digest
	hash   digest.Digest

	score    uint64
	children []digest.Digest
}

func (n *node) isLeaf() bool { return len(n.children) == 0 }

// Tree is a weighted subtree selector rooted at a finalized head. It is not
// safe for concurrent use: the owning actor is the sole caller, matching the
// single-threaded execution model described in the package's design notes.
type Tree struct {
	nodes map[digest.Digest]*node

	finalizedFrame uint64
	finalizedHead  digest.Digest
}

// New installs a root node for genesisHash at frame 0, height 0, and starts
// the tree with finalizedFrame 1 (so the next created node is assigned
// frame 2) and finalizedHead set to the genesis hash.
func New(genesisHash digest.Digest) *Tree {
	root := &node{
		frame:  0,
		height: 0,
		parent: digest.Zero,
		hash:   genesisHash,
	}
	nodes := map[digest.Digest]*node{genesisHash: root}
	return &Tree{
		nodes:          nodes,
		finalizedFrame: 1,
		finalizedHead:  genesisHash,
	}
}

// FinalizedFrame returns the next frame number available to newly created
// nodes, minus one.
func (t *Tree) FinalizedFrame() uint64 { return t.finalizedFrame }

// FinalizedHead returns the digest of the tip of the last finalized path.
func (t *Tree) FinalizedHead() digest.Digest { return t.finalizedHead }

// Propose records a block proposal. If hash already names a known node,
// this is a duplicate proposal and only contributes weight (see Increment);
// otherwise a new node is created as a child of parent.
func (t *Tree) Propose(height uint64, parent, hash digest.Digest) error {
	if _, ok := t.nodes[hash]; ok {
		t.increment(hash)
		return nil
	}
	return t.createNode(height, parent, hash)
}

func (t *Tree) createNode(height uint64, parentHash, hash digest.Digest) error {
	parent, ok := t.nodes[parentHash]
	if !ok {
		return &ErrInvalidParent{Parent: parentHash}
	}
	if height != parent.height+1 {
		return &ErrInvalidHeight{Height: height}
	}

	parent.children = append(parent.children, hash)
	t.nodes[hash] = &node{
		frame:  t.finalizedFrame + 1,
		height: height,
		parent: parentHash,
		hash:   hash,
	}
	t.increment(hash)
	return nil
}

// increment walks from hash toward the root, adding one unit of score to
// the node named by hash and to every ancestor still in the open frame. It stops as soon as it
// reaches the finalized frontier, so a proposal never contributes weight
// past it. The frontier is reached either by frame number (n.frame <=
// t.finalizedFrame, the common case from frame 2 onward, where the
// finalized head's frame equals finalizedFrame) or by hash (current ==
// t.finalizedHead), which is what actually terminates the walk at genesis:
// the root is created at frame 0 while finalizedFrame starts at 1, so the
// frame check alone never matches there and would walk past the root to
// its zero parent.
func (t *Tree) increment(hash digest.Digest) {
	current := hash
	for {
		if current == t.finalizedHead {
			return
		}
		n, ok := t.nodes[current]
		if !ok {
			panic(errNodeNotFound)
		}
		if n.frame <= t.finalizedFrame {
			return
		}
		n.score++
		current = n.parent
	}
}

// FinalizeFrame descends from the finalized head toward the leaves,
// following the single child when there's no fork and the strictly
// heaviest child when there is one. It advances the finalization frontier
// by exactly one frame and returns the new frame number and head. On
// ErrUnsolvableFork the tree is left entirely unchanged.
func (t *Tree) FinalizeFrame() (uint64, digest.Digest, error) {
	current := t.finalizedHead
	for {
		n, ok := t.nodes[current]
		if !ok {
			panic(errNodeNotFound)
		}

		if n.isLeaf() {
			t.finalizedFrame++
			t.finalizedHead = current
			return t.finalizedFrame, t.finalizedHead, nil
		}

		if len(n.children) == 1 {
			current = n.children[0]
			continue
		}

		best, tied := t.heaviestChild(n.children)
		if tied {
			return 0, digest.Digest{}, &ErrUnsolvableFork{Hash: current}
		}
		current = best
	}
}

// heaviestChild returns the child with strictly maximum score, and whether
// two or more children tied for that maximum.
func (t *Tree) heaviestChild(children []digest.Digest) (best digest.Digest, tied bool) {
	bestScore := uint64(0)
	tieCount := 0
	for i, childHash := range children {
		child, ok := t.nodes[childHash]
		if !ok {
			panic(errNodeNotFound)
		}
		switch {
		case i == 0 || child.score > bestScore:
			best = childHash
			bestScore = child.score
			tieCount = 1
		case child.score == bestScore:
			tieCount++
		}
	}
	return best, tieCount > 1
}

// Has reports whether hash names a known node.
func (t *Tree) Has(hash digest.Digest) bool {
	_, ok := t.nodes[hash]
	return ok
}

// Len returns the number of nodes currently held in the tree.
func (t *Tree) Len() int { return len(t.nodes) }
