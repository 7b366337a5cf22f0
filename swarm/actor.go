package swarm

import (
	"context"
	"time"

	"github.com/breadchain/breadchain/internal/actorloop"
	"github.com/breadchain/breadchain/internal/mempool"
	"github.com/breadchain/breadchain/internal/metrics"
	"github.com/breadchain/breadchain/internal/obslog"
	"github.com/breadchain/breadchain/p2p"
	"github.com/breadchain/breadchain/swarmstore"
)

// Config carries the swarm actor's process-level configuration.
type Config struct {
	BlockPeriod time.Duration
}

// Actor drives mempool ingest and periodic batch execution for the swarm
// role. It owns its mempool and store exclusively while running.
type Actor struct {
	cfg       Config
	store     swarmstore.Store
	pool      *mempool.Pool[Transaction]
	transport interface {
		p2p.Receiver
		p2p.Broadcaster
	}
	log          *obslog.Logger
	metrics      *metrics.Executor
	mintedBlocks uint64
}

// NewActor constructs an Actor against store.
func NewActor(cfg Config, store swarmstore.Store, pool *mempool.Pool[Transaction], transport interface {
	p2p.Receiver
	p2p.Broadcaster
}, log *obslog.Logger, m *metrics.Executor) *Actor {
	return &Actor{
		cfg:       cfg,
		store:     store,
		pool:      pool,
		transport: transport,
		log:       log,
		metrics:   m,
	}
}

// Run blocks until ctx is canceled.
func (a *Actor) Run(ctx context.Context) error {
	loop := &actorloop.Loop{
		Period: a.cfg.BlockPeriod,
		Receive: func(ctx context.Context) (any, error) {
			return a.transport.Receive(ctx)
		},
		OnReceive: a.onReceive,
		OnTick:    a.onTick,
	}
	return loop.Run(ctx)
}

func (a *Actor) onReceive(_ context.Context, msg any) {
	payload, ok := msg.([]byte)
	if !ok {
		return
	}
	tx, err := DecodeTransaction(payload)
	if err != nil {
		a.metrics.DecodeErrors.Inc()
		a.log.Warn("dropping undecodable swarm transaction", "error", err)
		return
	}
	a.pool.Add(tx)
}

func (a *Actor) onTick(ctx context.Context) {
	var batch []Transaction
	for {
		tx, ok := a.pool.Next()
		if !ok {
			break
		}
		batch = append(batch, tx)
	}
	a.metrics.BatchSize.Observe(float64(len(batch)))

	meta, err := a.store.Metadata(ctx)
	if err != nil {
		a.log.Error("read store metadata failed", "error", err)
		return
	}

	result, err := ExecuteStateTransition(ctx, a.store, meta.Height+1, batch)
	if err != nil {
		a.log.Error("swarm batch execution failed", "error", err)
		return
	}
	a.metrics.InvalidTxs.Add(float64(len(result.InvalidTxs)))

	a.mintedBlocks++
	minted := a.mintedBlocks
	a.log.Info("minted swarm block",
		"block", minted,
		"state_root", result.StateRoot,
		"processed", len(result.ProcessedNonce),
		"invalid", len(result.InvalidTxs),
	)

	for pk, nextNonce := range result.ProcessedNonce {
		a.pool.Retain(pk, nextNonce)
	}
}
