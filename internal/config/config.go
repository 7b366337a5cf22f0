// Package config parses the process-level flags shared by cmd/oracle and
// cmd/swarm: a flag-plus-compiled-in-defaults scheme, with no config-file
// parser, matching the teacher's cmd/eth2030 posture.
package config

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/breadchain/breadchain/internal/account"
	"github.com/breadchain/breadchain/internal/digest"
)

// Default values for every node role.
const (
	DefaultBlockPeriod                 = 2 * time.Second
	DefaultFinalizeFrameBlockProposalMin = 4
	DefaultMetricsAddr                 = ":9090"
)

// Config is the full set of process flags both roles accept. cmd/oracle
// and cmd/swarm each use the subset relevant to their role.
type Config struct {
	GenesisBlockHash              digest.Digest
	BlockPeriod                   time.Duration
	FinalizeFrameBlockProposalMin uint64
	EventSigner                   account.PublicKey
	MetricsAddr                   string
	PeerName                      string
}

// Default returns a Config populated with compiled-in defaults.
func Default() Config {
	return Config{
		GenesisBlockHash:              digest.Sum([]byte("breadchain-genesis")),
		BlockPeriod:                   DefaultBlockPeriod,
		FinalizeFrameBlockProposalMin: DefaultFinalizeFrameBlockProposalMin,
		MetricsAddr:                   DefaultMetricsAddr,
		PeerName:                      "node",
	}
}

// Parse parses args (excluding the program name) into a Config seeded with
// Default(). It returns the config, whether the caller should exit
// immediately (e.g. -version or a parse error), and the exit code to use.
func Parse(programName string, args []string) (cfg Config, exit bool, code int) {
	cfg = Default()

	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	var genesisHex string
	fs.StringVar(&genesisHex, "genesis", cfg.GenesisBlockHash.Hex(), "genesis block hash (hex)")
	fs.DurationVar(&cfg.BlockPeriod, "block-period", cfg.BlockPeriod, "block minting period")
	fs.Uint64Var(&cfg.FinalizeFrameBlockProposalMin, "finalize-min", cfg.FinalizeFrameBlockProposalMin, "proposals required before attempting finalization")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve Prometheus metrics on")
	fs.StringVar(&cfg.PeerName, "peer-name", cfg.PeerName, "this node's name on the in-memory transport")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return cfg, true, 2
	}
	if *showVersion {
		fmt.Println("breadchain (development build)")
		return cfg, true, 0
	}

	if genesisHex != cfg.GenesisBlockHash.Hex() {
		raw, err := hex.DecodeString(strings.TrimPrefix(genesisHex, "0x"))
		if err != nil {
			fmt.Printf("invalid -genesis value %q: %v\n", genesisHex, err)
			return cfg, true, 2
		}
		cfg.GenesisBlockHash = digest.BytesToDigest(raw)
	}
	return cfg, false, 0
}
