// Command simagent is the per-agent process entrypoint: given a kind
// (autonomous-miner, regular-user, miner-distributor, block-controller,
// simulation-monitor, or custom) and its RPC endpoints, it runs the
// matching agent.Behavior through the base agent lifecycle until its
// context is canceled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/monerosim/monerosim/agent"
	"github.com/monerosim/monerosim/agent/distributor"
	"github.com/monerosim/monerosim/agent/miner"
	"github.com/monerosim/monerosim/agent/user"
	"github.com/monerosim/monerosim/config"
	"github.com/monerosim/monerosim/logger"
	"github.com/monerosim/monerosim/sharedstate"
	"github.com/monerosim/monerosim/util/panics"
	"github.com/pkg/errors"
)

const (
	exitOK           = 0
	exitConfigError  = 1
	exitRuntimeError = 3
)

var log, _ = logger.Get(logger.SubsystemTags.AGNT)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "simagent: %s\n", err)
		return exitConfigError
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = filepath.Join(cfg.SharedDir, "..", cfg.AgentID+".log")
	}
	if err := logger.InitLogRotator(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "simagent: %s\n", err)
		return exitRuntimeError
	}
	if err := logger.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		fmt.Fprintf(os.Stderr, "simagent: %s\n", err)
		return exitConfigError
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := buildAgent(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simagent: %s\n", err)
		return exitConfigError
	}

	if err := a.Run(ctx); err != nil {
		// a.Run only returns an error for fatal startup failures (daemon
		// or wallet RPC never ready, registration failed); there is no
		// useful work left for this process, so exit rather than return.
		panics.Exit(log, err.Error())
	}
	return exitOK
}

// buildAgent dispatches on cfg.Kind to construct the role-specific
// Behavior (autonomous-miner, regular-user, or miner-distributor),
// then wraps it in the base agent lifecycle. block-controller,
// simulation-monitor, and custom have no built-in Behavior yet and
// are rejected with a clear error.
func buildAgent(cfg *config) (*agent.Agent, error) {
	store := sharedstate.New(cfg.SharedDir)

	agentCfg := agent.Config{
		AgentID:    cfg.AgentID,
		DaemonRPC:  cfg.DaemonRPC,
		WalletRPC:  cfg.WalletRPC,
		SharedDir:  cfg.SharedDir,
		GlobalSeed: cfg.GlobalSeed,
		Attributes: cfg.Attributes,
		HasWallet:  cfg.WalletRPC != "",
	}

	var behavior agent.Behavior
	switch cfg.Kind {
	case "autonomous-miner":
		hashrate, err := attrFloat(cfg.Attributes, "hashrate")
		if err != nil {
			return nil, err
		}
		totalHashrate := uint64(config.DefaultTotalNetworkHashrate)
		if _, ok := cfg.Attributes["total_network_hashrate"]; ok {
			n, err := attrFloat(cfg.Attributes, "total_network_hashrate")
			if err != nil {
				return nil, err
			}
			totalHashrate = uint64(n)
		}
		b, err := miner.New(hashrate, totalHashrate)
		if err != nil {
			return nil, err
		}
		behavior = b

	case "regular-user":
		interval, err := attrDuration(cfg.Attributes, "transaction_interval")
		if err != nil {
			return nil, err
		}
		activityStart, _ := attrDuration(cfg.Attributes, "activity_start_time")
		minAmount, err := attrFloat(cfg.Attributes, "min_tx_amount")
		if err != nil {
			return nil, err
		}
		maxAmount, err := attrFloat(cfg.Attributes, "max_tx_amount")
		if err != nil {
			return nil, err
		}
		behavior = user.New(store, interval, activityStart, minAmount, maxAmount)

	case "miner-distributor":
		behavior = distributor.New(store)

	case "block-controller", "simulation-monitor", "custom":
		return nil, errors.Errorf("simagent: --kind %q has no built-in behavior yet", cfg.Kind)

	default:
		return nil, errors.Errorf("simagent: unknown --kind %q", cfg.Kind)
	}

	return agent.New(agentCfg, behavior)
}
