// Package distributor implements the miner distributor that
// bootstraps the economy by seeding spendable funds into
// distribution-eligible recipients before regular users try to
// transact.
package distributor

import (
	"context"
	"time"

	"github.com/monerosim/monerosim/agent"
	"github.com/monerosim/monerosim/btcjson"
	"github.com/monerosim/monerosim/discovery"
	"github.com/monerosim/monerosim/logger"
	"github.com/monerosim/monerosim/registry"
	"github.com/monerosim/monerosim/rpcclient"
	"github.com/monerosim/monerosim/sharedstate"
	"github.com/monerosim/monerosim/util"
	"github.com/pkg/errors"
)

var log, _ = logger.Get(logger.SubsystemTags.DIST)

var errNotEnoughMoney = errors.New("distributor: insufficient unlocked balance on source miner")

// FundingStatusFile is the shared-store key the distributor writes
// its per-recipient outcomes to.7.
const FundingStatusFile = "initial_funding_status.json"

// CoinbaseMaturityWait is the fixed wait for coinbase outputs to clear
// the network's 30-confirmation maturity rule at the default block
// pace. This is an intentional constant, not a tunable derived from
// scenario parameters.
const CoinbaseMaturityWait = 65 * time.Minute

// maxTransferRetries bounds per-recipient retry attempts on a
// recoverable failure.
const maxTransferRetries = 3

const retryDelay = 10 * time.Second

// fundingAmount is the per-recipient amount distributed in the main
// pass; fallbackAmount is used on the smaller-amount retry pass.
const (
	fundingAmount   = 10.0
	fallbackAmount  = 1.0
	fallbackMinBlocks = 10
)

// FundingOutcome is one recipient's distribution result.
type FundingOutcome struct {
	AgentID string `json:"agent_id"`
	Funded  bool   `json:"funded"`
	TxHash  string `json:"tx_hash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Behavior drives the distributor agent. It performs its entire job
// in Iterate's first call and then goes dormant, since distribution is
// a one-shot bootstrap rather than a recurring behavior.
type Behavior struct {
	discovery *discovery.Client
	done      bool
}

// New returns a distributor Behavior bound to a discovery client
// constructed over the given shared store.
func New(store *sharedstate.Store) *Behavior {
	return &Behavior{discovery: discovery.New(store)}
}

// Role identifies this behavior in the agent registry.
func (b *Behavior) Role() registry.Role { return registry.RoleDistributor }

// Iterate runs the one-shot bootstrap pass on first call, then sleeps
// indefinitely (re-checked only on shutdown).
func (b *Behavior) Iterate(ctx context.Context, a *agent.Agent) (time.Duration, error) {
	if b.done {
		return time.Hour, nil
	}
	b.done = true

	miner, ok, err := b.findFundedMiner(ctx)
	if err != nil || !ok {
		log.Warnf("distributor %s: no funded miner found yet", a.Config.AgentID)
		return time.Hour, nil
	}

	select {
	case <-ctx.Done():
		return 0, nil
	case <-time.After(CoinbaseMaturityWait):
	}

	outcomes := b.distribute(ctx, a, miner.WalletAddress, fundingAmount)
	funded := countFunded(outcomes)

	if funded == 0 {
		log.Warnf("distributor %s: zero recipients funded, waiting %d more blocks before retrying with a smaller amount", a.Config.AgentID, fallbackMinBlocks)
		if err := b.waitForBlocks(ctx, a, fallbackMinBlocks); err != nil {
			log.Warnf("distributor %s: abandoning fallback retry: %s", a.Config.AgentID, err)
			if err := a.Store.Write(ctx, FundingStatusFile, outcomes); err != nil {
				log.Warnf("distributor %s: failed to write funding status: %s", a.Config.AgentID, err)
			}
			return time.Hour, nil
		}
		retryMiner, ok, err := b.findFundedMiner(ctx)
		if err != nil || !ok {
			log.Warnf("distributor %s: no funded miner found on fallback retry", a.Config.AgentID)
		} else {
			outcomes = b.distribute(ctx, a, retryMiner.WalletAddress, fallbackAmount)
		}
	}

	if err := a.Store.Write(ctx, FundingStatusFile, outcomes); err != nil {
		log.Warnf("distributor %s: failed to write funding status: %s", a.Config.AgentID, err)
	}
	return time.Hour, nil
}

// findFundedMiner polls the miner registry for a miner with a
// published wallet address.
func (b *Behavior) findFundedMiner(ctx context.Context) (discovery.Agent, bool, error) {
	const (
		maxAttempts = 30
		pollDelay   = 10 * time.Second
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		miners, err := b.discovery.ListMiners(ctx)
		if err != nil {
			return discovery.Agent{}, false, err
		}
		if len(miners) > 0 {
			return miners[0], true, nil
		}
		select {
		case <-ctx.Done():
			return discovery.Agent{}, false, ctx.Err()
		case <-time.After(pollDelay):
		}
	}
	return discovery.Agent{}, false, nil
}

// waitForBlocks polls the daemon until at least n additional blocks
// have landed since the call began, or ctx is done.
func (b *Behavior) waitForBlocks(ctx context.Context, a *agent.Agent, n int) error {
	const pollDelay = 10 * time.Second

	start, err := a.Daemon.GetHeight(ctx)
	if err != nil {
		return errors.Wrap(err, "distributor: get_height before fallback wait")
	}
	target := start.Height + uint64(n)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollDelay):
		}
		info, err := a.Daemon.GetHeight(ctx)
		if err != nil {
			log.Warnf("distributor %s: get_height failed while waiting for fallback blocks: %s", a.Config.AgentID, err)
			continue
		}
		if info.Height >= target {
			return nil
		}
	}
}

// distribute enumerates distribution-eligible recipients and attempts
// to fund each from the distributor's own wallet.
func (b *Behavior) distribute(ctx context.Context, a *agent.Agent, minerAddress string, coins float64) []FundingOutcome {
	recipients, err := b.discovery.ListDistributionEligible(ctx)
	if err != nil {
		log.Warnf("distributor %s: could not list recipients: %s", a.Config.AgentID, err)
		return nil
	}

	var outcomes []FundingOutcome
	for _, recipient := range recipients {
		if recipient.WalletAddress == "" || recipient.WalletAddress == minerAddress {
			continue
		}
		outcome := b.fundRecipient(ctx, a, recipient.AgentID, recipient.WalletAddress, coins)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (b *Behavior) fundRecipient(ctx context.Context, a *agent.Agent, agentID, address string, coins float64) FundingOutcome {
	amount, err := util.NewAmount(coins)
	if err != nil {
		return FundingOutcome{AgentID: agentID, Funded: false, Error: err.Error()}
	}

	var lastErr error
	for attempt := 0; attempt <= maxTransferRetries; attempt++ {
		balance, err := a.Wallet.GetBalance(ctx)
		if err != nil {
			lastErr = err
		} else if balance.UnlockedBalance < uint64(amount) {
			lastErr = errNotEnoughMoney
		} else {
			dest := []btcjson.Destination{{Address: address, Amount: uint64(amount)}}
			result, err := a.Wallet.Transfer(ctx, dest)
			if err == nil {
				return FundingOutcome{AgentID: agentID, Funded: true, TxHash: result.TxHash}
			}
			lastErr = err
			if !recoverable(err) {
				break
			}
		}

		select {
		case <-ctx.Done():
			return FundingOutcome{AgentID: agentID, Funded: false, Error: ctx.Err().Error()}
		case <-time.After(retryDelay):
		}
	}

	log.Warnf("distributor %s: giving up funding %s: %s", a.Config.AgentID, agentID, lastErr)
	return FundingOutcome{AgentID: agentID, Funded: false, Error: lastErr.Error()}
}

func recoverable(err error) bool {
	return rpcclient.IsSemantic(err, rpcclient.SemNotEnoughMoney) ||
		rpcclient.IsSemantic(err, rpcclient.SemWalletNotReady) ||
		rpcclient.IsTransport(err)
}

func countFunded(outcomes []FundingOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Funded {
			n++
		}
	}
	return n
}

// Finalize is a no-op.
func (b *Behavior) Finalize(ctx context.Context, a *agent.Agent) {}
