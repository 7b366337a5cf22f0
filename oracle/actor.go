package oracle

import (
	"context"
	"time"

	"github.com/breadchain/breadchain/internal/account"
	"github.com/breadchain/breadchain/internal/actorloop"
	"github.com/breadchain/breadchain/internal/digest"
	"github.com/breadchain/breadchain/internal/mempool"
	"github.com/breadchain/breadchain/internal/metrics"
	"github.com/breadchain/breadchain/internal/obslog"
	"github.com/breadchain/breadchain/p2p"
)

// Config carries the actor's process-level configuration: the genesis hash
// the fork-choice tree roots at, the block-minting period, and the
// admission threshold for attempting finalization each batch.
type Config struct {
	GenesisBlockHash            [32]byte
	BlockPeriod                 time.Duration
	FinalizeFrameBlockProposalMin uint64
	EventSigner                 account.PublicKey
}

// Actor drives mempool ingest and periodic block minting for the oracle
// role. It owns its mempool and state exclusively; nothing else may mutate
// them while the actor is running.
type Actor struct {
	cfg       Config
	state     *State
	pool      *mempool.Pool[Transaction]
	transport interface {
		p2p.Receiver
		p2p.Broadcaster
	}
	log          *obslog.Logger
	metrics      *metrics.Executor
	mintedBlocks uint64
}

// NewActor constructs an Actor. pool is typically mempool.New[Transaction]
// wired to the same metrics registry as m.
func NewActor(cfg Config, pool *mempool.Pool[Transaction], transport interface {
	p2p.Receiver
	p2p.Broadcaster
}, log *obslog.Logger, m *metrics.Executor) *Actor {
	return &Actor{
		cfg:       cfg,
		state:     NewState(digest.Digest(cfg.GenesisBlockHash), cfg.FinalizeFrameBlockProposalMin),
		pool:      pool,
		transport: transport,
		log:       log,
		metrics:   m,
	}
}

// Run blocks until ctx is canceled, alternating between offering decoded
// inbound transactions to the mempool and, every BlockPeriod, minting a
// block from whatever the mempool yields.
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
		a.log.Warn("dropping undecodable oracle transaction", "error", err)
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

	result := ExecuteStateTransition(a.state, batch)
	for _, evt := range result.Events {
		if evt.FrameFinalized != nil {
			a.metrics.FinalizedFrames.Inc()
		}
	}
	for _, err := range result.FinalizationErrors {
		a.log.Warn("frame finalization attempt failed", "error", err)
	}

	a.mintedBlocks++
	minted := a.mintedBlocks
	if err := a.broadcast(ctx, MessageEvent{BlockMinted: &minted}); err != nil {
		a.log.Warn("broadcast BlockMinted failed", "error", err)
	}
	for _, evt := range result.Events {
		if err := a.broadcast(ctx, evt); err != nil {
			a.log.Warn("broadcast event failed", "error", err)
		}
	}

	for pk, nextNonce := range result.ProcessedNonce {
		a.pool.Retain(pk, nextNonce)
	}
}

func (a *Actor) broadcast(ctx context.Context, evt MessageEvent) error {
	return a.transport.Broadcast(ctx, p2p.All, evt.Encode())
}
