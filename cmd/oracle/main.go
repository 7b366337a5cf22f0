// Command oracle runs a single oracle node: it ingests ProposeBlock
// transactions from its peers, mints a block every block period, and
// finalizes frames via the fork-choice tree once enough proposals land.
//
// Usage:
//
//	oracle [flags]
//
// Flags:
//
//	--genesis       Genesis block hash, hex (default: sha256("breadchain-genesis"))
//	--block-period  Block minting period (default: 2s)
//	--finalize-min  Proposals required before attempting finalization (default: 4)
//	--metrics-addr  Address to serve Prometheus metrics on (default: :9090)
//	--peer-name     This node's name on the in-memory transport (default: node)
//	--version       Print version and exit
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/breadchain/breadchain/internal/config"
	"github.com/breadchain/breadchain/internal/mempool"
	"github.com/breadchain/breadchain/internal/metrics"
	"github.com/breadchain/breadchain/internal/obslog"
	"github.com/breadchain/breadchain/oracle"
	"github.com/breadchain/breadchain/p2p"
)

var version = "v0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, exit, code := config.Parse("oracle", args)
	if exit {
		return code
	}

	log := obslog.New(slog.LevelInfo).Component("oracle")
	log.Info("oracle starting",
		"version", version,
		"genesis", cfg.GenesisBlockHash,
		"block_period", cfg.BlockPeriod,
		"finalize_min", cfg.FinalizeFrameBlockProposalMin,
		"peer_name", cfg.PeerName,
		"metrics_addr", cfg.MetricsAddr,
	)

	reg := prometheus.NewRegistry()
	execMetrics := metrics.NewExecutor(reg, "oracle")

	network := p2p.NewMemoryNetwork()
	transport := network.Join(cfg.PeerName)

	pool := mempool.New[oracle.Transaction](reg)
	actorCfg := oracle.Config{
		GenesisBlockHash:              [32]byte(cfg.GenesisBlockHash),
		BlockPeriod:                   cfg.BlockPeriod,
		FinalizeFrameBlockProposalMin: cfg.FinalizeFrameBlockProposalMin,
		EventSigner:                   cfg.EventSigner,
	}
	actor := oracle.NewActor(actorCfg, pool, transport, log, execMetrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return actor.Run(groupCtx)
	})
	group.Go(func() error {
		return serveMetrics(groupCtx, cfg.MetricsAddr, reg)
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.Error("oracle exited with error", "error", err)
		return 1
	}
	log.Info("oracle shutdown complete")
	return 0
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}
