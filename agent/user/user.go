// Package user implements a regular transaction-emitting
// participant. Each iteration picks a recipient and amount, submits a
// transfer, and sleeps for its configured interval plus jitter.
package user

import (
	"context"
	"math/rand"
	"time"

	"github.com/monerosim/monerosim/agent"
	"github.com/monerosim/monerosim/btcjson"
	"github.com/monerosim/monerosim/discovery"
	"github.com/monerosim/monerosim/logger"
	"github.com/monerosim/monerosim/registry"
	"github.com/monerosim/monerosim/rpcclient"
	"github.com/monerosim/monerosim/sharedstate"
	"github.com/monerosim/monerosim/util"
)

var log, _ = logger.Get(logger.SubsystemTags.USER)

// TransactionsFile is the shared-store append-log every submitted
// transfer is recorded to.
const TransactionsFile = "transactions.json"

// jitterFraction bounds the ± jitter applied to TransactionInterval
// so agents sleeping on the same interval don't wake in lockstep.
const jitterFraction = 0.2

// TransactionRecord is one entry appended to transactions.json.
type TransactionRecord struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	AtomicAmount uint64 `json:"atomic_amount"`
	TxHash    string    `json:"tx_hash"`
	Timestamp time.Time `json:"timestamp"`
}

// Behavior drives one regular-user agent.
type Behavior struct {
	Interval          time.Duration
	ActivityStartTime time.Duration
	MinTxAmount       float64
	MaxTxAmount       float64

	discovery *discovery.Client
	startedAt time.Time
}

// New returns a user Behavior bound to a discovery client constructed
// over the given shared store.
func New(store *sharedstate.Store, interval, activityStart time.Duration, minAmount, maxAmount float64) *Behavior {
	return &Behavior{
		Interval:          interval,
		ActivityStartTime: activityStart,
		MinTxAmount:       minAmount,
		MaxTxAmount:       maxAmount,
		discovery:         discovery.New(store),
		startedAt:         time.Now(),
	}
}

// Role identifies this behavior in the agent registry.
func (b *Behavior) Role() registry.Role { return registry.RoleRegularUser }

// Iterate runs one transaction-emission step.
func (b *Behavior) Iterate(ctx context.Context, a *agent.Agent) (time.Duration, error) {
	interval := b.jitteredInterval(a.Rand)

	if time.Since(b.startedAt) < b.ActivityStartTime {
		return interval, nil
	}

	balance, err := a.Wallet.GetBalance(ctx)
	if err != nil {
		log.Warnf("user %s: get_balance failed: %s", a.Config.AgentID, err)
		return interval, nil
	}

	amount, err := util.NewAmount(b.MinTxAmount + a.Rand.Float64()*(b.MaxTxAmount-b.MinTxAmount))
	if err != nil {
		return interval, nil
	}
	if uint64(amount) > balance.UnlockedBalance {
		log.Debugf("user %s: insufficient unlocked balance for a %s transfer", a.Config.AgentID, amount)
		return interval, nil
	}

	recipient, ok, err := b.pickRecipient(ctx, a)
	if err != nil || !ok {
		return interval, nil
	}

	dest := []btcjson.Destination{{Address: recipient, Amount: uint64(amount)}}
	result, err := a.Wallet.Transfer(ctx, dest)
	if err != nil {
		b.classifyTransferFailure(a, err)
		return interval, nil
	}

	record := TransactionRecord{
		From:         a.Address,
		To:           recipient,
		AtomicAmount: uint64(amount),
		TxHash:       result.TxHash,
		Timestamp:    time.Now(),
	}
	if err := a.Store.AppendList(ctx, TransactionsFile, record); err != nil {
		log.Warnf("user %s: failed to record transaction: %s", a.Config.AgentID, err)
	}
	return interval, nil
}

func (b *Behavior) classifyTransferFailure(a *agent.Agent, err error) {
	switch {
	case rpcclient.IsSemantic(err, rpcclient.SemNotEnoughMoney):
		log.Debugf("user %s: insufficient funds for transfer", a.Config.AgentID)
	case rpcclient.IsSemantic(err, rpcclient.SemInvalidAddress):
		log.Warnf("user %s: recipient address rejected: %s", a.Config.AgentID, err)
	case rpcclient.IsTransport(err):
		log.Debugf("user %s: connection error, retrying next iteration: %s", a.Config.AgentID, err)
	default:
		log.Warnf("user %s: transfer failed: %s", a.Config.AgentID, err)
	}
}

// pickRecipient chooses a uniformly random transaction-capable agent,
// excluding self.6.
func (b *Behavior) pickRecipient(ctx context.Context, a *agent.Agent) (string, bool, error) {
	candidates, err := b.discovery.ListDistributionEligible(ctx)
	if err != nil {
		return "", false, err
	}

	eligible := candidates[:0:0]
	for _, c := range candidates {
		if c.AgentID == a.Config.AgentID || c.WalletAddress == "" {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return "", false, nil
	}
	return eligible[a.Rand.Intn(len(eligible))].WalletAddress, true, nil
}

func (b *Behavior) jitteredInterval(r *rand.Rand) time.Duration {
	jitter := (r.Float64()*2 - 1) * jitterFraction
	return time.Duration(float64(b.Interval) * (1 + jitter))
}

// Finalize is a no-op.
func (b *Behavior) Finalize(ctx context.Context, a *agent.Agent) {}
