// Package mempool implements the bounded, per-account transaction pool
// shared by the oracle and swarm actors. It indexes pending transactions by
// originator and nonce, enforces a per-account backlog cap, and yields
// transactions in round-robin-by-account order while honoring nonce
// monotonicity within an account.
package mempool

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/breadchain/breadchain/internal/account"
	"github.com/breadchain/breadchain/internal/digest"
)

// MaxBacklog is the maximum number of distinct nonces tracked for a single
// originator.
const MaxBacklog = 16

// MaxTransactions is the maximum number of transactions held by the pool
// across all originators.
const MaxTransactions = 32_768

// Transaction is the subset of a transaction's surface the pool needs.
// Oracle and swarm transactions both satisfy it.
type Transaction interface {
	Originator() account.PublicKey
	Nonce() uint64
	Digest() digest.Digest
}

// Pool is a per-account, nonce-ordered, bounded FIFO-by-account scheduler.
// It is not safe for concurrent use; the owning actor is its sole caller.
type Pool[T Transaction] struct {
	transactions map[digest.Digest]T
	tracked      map[account.PublicKey]*nonceIndex
	queue        []account.PublicKey

	unique   prometheus.Gauge
	accounts prometheus.Gauge
}

// New creates an empty Pool. If reg is non-nil, the pool's size gauges are
// registered against it under the "mempool" subsystem.
func New[T Transaction](reg prometheus.Registerer) *Pool[T] {
	unique := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "breadchain",
		Subsystem: "mempool",
		Name:      "transactions",
		Help:      "Number of transactions currently held in the mempool.",
	})
	accounts := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "breadchain",
		Subsystem: "mempool",
		Name:      "accounts",
		Help:      "Number of originators with at least one tracked transaction.",
	})
	if reg != nil {
		reg.MustRegister(unique, accounts)
	}
	return &Pool[T]{
		transactions: make(map[digest.Digest]T),
		tracked:      make(map[account.PublicKey]*nonceIndex),
		unique:       unique,
		accounts:     accounts,
	}
}

// Add inserts tx into the pool. It is a no-op if the pool is full, the
// transaction's digest is already tracked, or the originator already has a
// transaction at that nonce. If adding the transaction pushes the
// originator's backlog above MaxBacklog, the furthest-future (largest
// nonce) entry is evicted.
func (p *Pool[T]) Add(tx T) {
	if len(p.transactions) >= MaxTransactions {
		return
	}

	d := tx.Digest()
	if _, ok := p.transactions[d]; ok {
		return
	}

	origin := tx.Originator()
	idx, ok := p.tracked[origin]
	if !ok {
		idx = newNonceIndex()
		p.tracked[origin] = idx
	}
	if !idx.insert(tx.Nonce(), d) {
		// Already tracked at this nonce.
		return
	}
	p.transactions[d] = tx

	if idx.len() > MaxBacklog {
		_, evicted, _ := idx.popLast()
		delete(p.transactions, evicted)
	}

	if idx.len() == 1 {
		p.queue = append(p.queue, origin)
	}

	p.updateMetrics()
}

// Retain drops every tracked transaction for pk with nonce < minNonce. If
// the originator's tracked set becomes empty, the originator is removed
// from tracked (the round-robin queue is not eagerly pruned; Next skips
// stale entries lazily).
func (p *Pool[T]) Retain(pk account.PublicKey, minNonce uint64) {
	idx, ok := p.tracked[pk]
	if !ok {
		return
	}
	for {
		nonce, d, ok := idx.first()
		if !ok {
			break
		}
		if nonce >= minNonce {
			break
		}
		delete(p.transactions, d)
		idx.popFirst()
	}
	if idx.len() == 0 {
		delete(p.tracked, pk)
	}
	p.updateMetrics()
}

// Next pops the next transaction to process in round-robin-by-account
// order, returning false if the pool has nothing pending. Within an
// originator, transactions are always returned in ascending nonce order.
func (p *Pool[T]) Next() (tx T, ok bool) {
	for len(p.queue) > 0 {
		origin := p.queue[0]
		p.queue = p.queue[1:]

		idx, tracked := p.tracked[origin]
		if !tracked {
			// Stale queue entry: this originator's backlog already drained.
			continue
		}
		_, d, popped := idx.popFirst()
		if !popped {
			continue
		}

		if idx.len() > 0 {
			p.queue = append(p.queue, origin)
		} else {
			delete(p.tracked, origin)
		}

		tx, ok = p.transactions[d]
		delete(p.transactions, d)
		p.updateMetrics()
		return tx, ok
	}
	return tx, false
}

// Len returns the total number of transactions currently held.
func (p *Pool[T]) Len() int { return len(p.transactions) }

// AccountCount returns the number of originators with a non-empty backlog.
func (p *Pool[T]) AccountCount() int { return len(p.tracked) }

func (p *Pool[T]) updateMetrics() {
	p.unique.Set(float64(len(p.transactions)))
	p.accounts.Set(float64(len(p.tracked)))
}

// nonceIndex is an ordered map from nonce to transaction digest, kept as a
// sorted slice since a single originator's backlog is capped at
// MaxBacklog+1 entries -- far too small for a tree-backed map to pay for
// itself.
type nonceIndex struct {
	nonces []uint64
	byNonce map[uint64]digest.Digest
}

func newNonceIndex() *nonceIndex {
	return &nonceIndex{byNonce: make(map[uint64]digest.Digest)}
}

func (n *nonceIndex) len() int { return len(n.nonces) }

// insert adds nonce -> d if nonce isn't already tracked. Returns false if
// the nonce was already present.
func (n *nonceIndex) insert(nonce uint64, d digest.Digest) bool {
	if _, exists := n.byNonce[nonce]; exists {
		return false
	}
	i := sort.Search(len(n.nonces), func(i int) bool { return n.nonces[i] >= nonce })
	n.nonces = append(n.nonces, 0)
	copy(n.nonces[i+1:], n.nonces[i:])
	n.nonces[i] = nonce
	n.byNonce[nonce] = d
	return true
}

func (n *nonceIndex) first() (uint64, digest.Digest, bool) {
	if len(n.nonces) == 0 {
		return 0, digest.Digest{}, false
	}
	nonce := n.nonces[0]
	return nonce, n.byNonce[nonce], true
}

func (n *nonceIndex) popFirst() (uint64, digest.Digest, bool) {
	if len(n.nonces) == 0 {
		return 0, digest.Digest{}, false
	}
	nonce := n.nonces[0]
	d := n.byNonce[nonce]
	n.nonces = n.nonces[1:]
	delete(n.byNonce, nonce)
	return nonce, d, true
}

func (n *nonceIndex) popLast() (uint64, digest.Digest, bool) {
	if len(n.nonces) == 0 {
		return 0, digest.Digest{}, false
	}
	last := len(n.nonces) - 1
	nonce := n.nonces[last]
	d := n.byNonce[nonce]
	n.nonces = n.nonces[:last]
	delete(n.byNonce, nonce)
	return nonce, d, true
}
