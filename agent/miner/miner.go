// Package miner implements the autonomous per-agent Poisson mining
// loop. No central controller is consulted; each miner
// decides its own next block-production time from its configured
// hashrate share and the daemon's live difficulty.
package miner

import (
	"context"
	"math"
	"time"

	"github.com/monerosim/monerosim/agent"
	"github.com/monerosim/monerosim/logger"
	"github.com/monerosim/monerosim/registry"
	"github.com/monerosim/monerosim/rpcclient"
	"github.com/pkg/errors"
)

var log, _ = logger.Get(logger.SubsystemTags.MINR)

// fallbackDifficulty is used when get_info fails transiently.
const fallbackDifficulty = 1.0

// notReadyBackoff is the short delay after a not-enough-money or
// wallet-not-ready failure on generate_block.
const notReadyBackoff = 5 * time.Second

// Behavior drives one mining agent. hashrate is a percentage share
// (0, 100] of totalNetworkHashrate hashes/second.
type Behavior struct {
	Hashrate             float64
	TotalNetworkHashrate uint64

	blocksMined uint64
}

// New validates the configured hashrate and returns a mining
// Behavior, or an error if it's out of range: it refuses to start
// rather than silently clamping.
func New(hashrate float64, totalNetworkHashrate uint64) (*Behavior, error) {
	if hashrate <= 0 || hashrate > 100 {
		return nil, errors.Errorf("miner: hashrate must be in (0, 100], got %v", hashrate)
	}
	if totalNetworkHashrate == 0 {
		return nil, errors.New("miner: total_network_hashrate must be positive")
	}
	return &Behavior{Hashrate: hashrate, TotalNetworkHashrate: totalNetworkHashrate}, nil
}

// Role identifies this behavior in the agent registry.
func (b *Behavior) Role() registry.Role { return registry.RoleMiner }

// Iterate runs one Poisson mining step: compute the effective rate
// from live difficulty, draw an exponential inter-arrival time, sleep
// it, then mine exactly one block.
func (b *Behavior) Iterate(ctx context.Context, a *agent.Agent) (time.Duration, error) {
	difficulty := b.currentDifficulty(ctx, a)
	wait := drawWaitDuration(b.Hashrate, b.TotalNetworkHashrate, difficulty, a.Rand.Float64())

	select {
	case <-ctx.Done():
		return 0, nil
	case <-time.After(wait):
	}

	_, err := a.Wallet.GetBalance(ctx) // cheap liveness check before spending effort on generate_block
	if err != nil {
		log.Warnf("miner %s: wallet unavailable before mining attempt: %s", a.Config.AgentID, err)
	}

	result, err := a.Daemon.GenerateBlocks(ctx, a.Address)
	if err != nil {
		if rpcclient.IsSemantic(err, rpcclient.SemNotEnoughMoney) || rpcclient.IsSemantic(err, rpcclient.SemWalletNotReady) {
			log.Debugf("miner %s: not ready to mine yet: %s", a.Config.AgentID, err)
			return notReadyBackoff, nil
		}
		log.Warnf("miner %s: generate_block failed: %s", a.Config.AgentID, err)
		return 0, nil
	}

	b.blocksMined++
	log.Infof("miner %s: mined block(s) %v (total %d)", a.Config.AgentID, result.Blocks, b.blocksMined)
	return 0, nil
}

// drawWaitDuration implements the per-agent Poisson arrival draw from
// step 2: lambda = (hashrate/100) * H / difficulty,
// T = -ln(1-u)/lambda, for a uniform draw u in [0, 1).
func drawWaitDuration(hashrate float64, totalNetworkHashrate uint64, difficulty, u float64) time.Duration {
	lambda := (hashrate / 100) * float64(totalNetworkHashrate) / difficulty
	waitSeconds := -math.Log(1-u) / lambda
	return time.Duration(waitSeconds * float64(time.Second))
}

// currentDifficulty reads live difficulty from the daemon, falling
// back to 1 on transient failure.
func (b *Behavior) currentDifficulty(ctx context.Context, a *agent.Agent) float64 {
	info, err := a.Daemon.GetInfo(ctx)
	if err != nil {
		log.Warnf("miner %s: get_info failed, assuming difficulty %v: %s", a.Config.AgentID, fallbackDifficulty, err)
		return fallbackDifficulty
	}
	if info.Difficulty <= 0 {
		return fallbackDifficulty
	}
	return float64(info.Difficulty)
}

// Finalize is a no-op: the miner keeps no state that needs flushing.
func (b *Behavior) Finalize(ctx context.Context, a *agent.Agent) {}
