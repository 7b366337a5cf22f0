// Command swarm runs a single swarm node: it ingests TransferBread
// transactions from its peers and applies them to an authenticated
// key/value store every block period.
//
// Usage:
//
//	swarm [flags]
//
// Flags:
//
//	--block-period  Block execution period (default: 2s)
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
	"github.com/breadchain/breadchain/p2p"
	"github.com/breadchain/breadchain/swarm"
	"github.com/breadchain/breadchain/swarmstore"
)

var version = "v0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, exit, code := config.Parse("swarm", args)
	if exit {
		return code
	}

	log := obslog.New(slog.LevelInfo).Component("swarm")
	log.Info("swarm starting",
		"version", version,
		"block_period", cfg.BlockPeriod,
		"peer_name", cfg.PeerName,
		"metrics_addr", cfg.MetricsAddr,
	)

	reg := prometheus.NewRegistry()
	execMetrics := metrics.NewExecutor(reg, "swarm")

	network := p2p.NewMemoryNetwork()
	transport := network.Join(cfg.PeerName)

	store := swarmstore.NewMemory()
	pool := mempool.New[swarm.Transaction](reg)
	actor := swarm.NewActor(swarm.Config{BlockPeriod: cfg.BlockPeriod}, store, pool, transport, log, execMetrics)

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
		log.Error("swarm exited with error", "error", err)
		return 1
	}
	log.Info("swarm shutdown complete")
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
