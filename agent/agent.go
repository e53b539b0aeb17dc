package agent

import (
	"context"
	"math/rand"
	"time"

	"github.com/monerosim/monerosim/logger"
	"github.com/monerosim/monerosim/registry"
	"github.com/monerosim/monerosim/rpcclient"
	"github.com/monerosim/monerosim/sharedstate"
	"github.com/monerosim/monerosim/util"
	"github.com/monerosim/monerosim/util/panics"
	"github.com/pkg/errors"
)

var log, _ = logger.Get(logger.SubsystemTags.AGNT)

// DaemonReadinessTimeout bounds how long Run waits for the daemon RPC
// endpoint before failing fast.
const DaemonReadinessTimeout = 120 * time.Second

// WalletReadinessTimeout bounds the wallet RPC readiness wait.
const WalletReadinessTimeout = 120 * time.Second

const walletPassword = ""

// Behavior is the per-role contract a base Agent drives. Iterate is
// called repeatedly until the context is canceled; it returns the
// simulated-time interval the framework should sleep before the next
// call. Finalize runs once on shutdown.
type Behavior interface {
	Role() registry.Role
	Iterate(ctx context.Context, a *Agent) (time.Duration, error)
	Finalize(ctx context.Context, a *Agent)
}

// Agent is the base lifecycle skeleton described in : it
// owns the daemon/wallet RPC clients, the per-agent RNG, and the
// shared-state handle, and drives a Behavior's iteration loop.
type Agent struct {
	Config   Config
	Daemon   *rpcclient.Client
	Wallet   *rpcclient.Client
	Store    *sharedstate.Store
	Rand     *rand.Rand
	Address  string

	behavior Behavior
}

// New constructs an Agent, seeding its RNG deterministically:
// agent_seed = global_seed + stable_hash(agent_id).
func New(cfg Config, behavior Behavior) (*Agent, error) {
	daemon, err := rpcclient.New(&rpcclient.ConnConfig{Host: cfg.DaemonRPC, DisableTLS: true})
	if err != nil {
		return nil, errors.Wrap(err, "agent: daemon client")
	}

	seed := util.AgentSeed(cfg.GlobalSeed, cfg.AgentID)
	return &Agent{
		Config:   cfg,
		Daemon:   daemon,
		Store:    sharedstate.New(cfg.SharedDir),
		Rand:     rand.New(rand.NewSource(seed)),
		behavior: behavior,
	}, nil
}

// Run executes the full lifecycle: readiness waits, wallet
// open-or-create, registration, the iteration loop, and shutdown. It
// returns a non-nil error only for fatal startup failures; runtime
// iteration errors are logged and swallowed rather than aborting the
// agent.
func (a *Agent) Run(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, DaemonReadinessTimeout)
	err := a.Daemon.WaitUntilReady(waitCtx, DaemonReadinessTimeout)
	cancel()
	if err != nil {
		return errors.Wrap(err, "agent: daemon never became ready")
	}

	if a.Config.HasWallet {
		wallet, err := rpcclient.New(&rpcclient.ConnConfig{Host: a.Config.WalletRPC, DisableTLS: true})
		if err != nil {
			return errors.Wrap(err, "agent: wallet client")
		}
		a.Wallet = wallet

		waitCtx, cancel = context.WithTimeout(ctx, WalletReadinessTimeout)
		err = a.Wallet.WaitUntilReady(waitCtx, WalletReadinessTimeout)
		cancel()
		if err != nil {
			return errors.Wrap(err, "agent: wallet RPC never became ready")
		}

		if err := a.openOrCreateWallet(ctx); err != nil {
			return errors.Wrap(err, "agent: could not open or create wallet")
		}
	}

	if err := a.register(ctx); err != nil {
		return errors.Wrap(err, "agent: could not register identity")
	}

	a.loop(ctx)
	a.behavior.Finalize(ctx, a)
	return nil
}

// openOrCreateWallet implements step 4: attempt
// open_wallet first; on wallet-not-found, create it; any other error
// is fatal. The resulting address is read back from the wallet, never
// fabricated.
func (a *Agent) openOrCreateWallet(ctx context.Context) error {
	filename := a.Config.AgentID + "_wallet"

	err := a.Wallet.OpenWallet(ctx, filename, walletPassword)
	if err != nil {
		if !rpcclient.IsSemantic(err, rpcclient.SemWalletNotFound) {
			return err
		}
		log.Infof("agent %s: wallet %s not found, creating", a.Config.AgentID, filename)
		if err := a.Wallet.CreateWallet(ctx, filename, walletPassword, "English"); err != nil {
			return err
		}
	}

	result, err := a.Wallet.GetAddress(ctx)
	if err != nil {
		return errors.Wrap(err, "agent: get_address")
	}
	a.Address = result.Address
	return nil
}

// register publishes this agent's self-description to the shared
// store.
func (a *Agent) register(ctx context.Context) error {
	desc := registry.SelfDescription{
		AgentID:       a.Config.AgentID,
		Role:          a.behavior.Role(),
		WalletAddress: a.Address,
		PublishedAt:   time.Now(),
		Attributes:    a.Config.Attributes,
	}
	filename := registry.SelfDescriptionFile(a.Config.AgentID, a.behavior.Role())
	return a.Store.Write(ctx, filename, desc)
}

// defaultIterationBackoff is used when an iteration fails and the
// behavior gave no interval back.
const defaultIterationBackoff = 5 * time.Second

// loop runs the behavior's Iterate repeatedly until ctx is canceled,
// sleeping the returned interval between calls. Panics inside a single
// iteration are recovered and logged via panics.Recover rather than
// taking the agent down.
func (a *Agent) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		interval, err := a.safeIterate(ctx)
		if err != nil {
			log.Warnf("agent %s: iteration error: %s", a.Config.AgentID, err)
			if interval <= 0 {
				interval = defaultIterationBackoff
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (a *Agent) safeIterate(ctx context.Context) (interval time.Duration, err error) {
	defer func() {
		if r := recover(); r != nil {
			panics.Recover(log, r)
			err = errors.Errorf("panic: %v", r)
		}
	}()
	return a.behavior.Iterate(ctx, a)
}
