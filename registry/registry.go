// Package registry defines the runtime-visible directories the
// orchestrator publishes at plan time and agents later augment with
// their own facts (wallet addresses, self-descriptions) as they come
// online.
package registry

import (
	"context"
	"sort"
	"time"

	"github.com/monerosim/monerosim/sharedstate"
)

const (
	// AgentRegistryFile is the shared-store key for the AgentRegistry.
	AgentRegistryFile = "agent_registry.json"
	// MinerRegistryFile is the shared-store key for the MinerRegistry.
	MinerRegistryFile = "miners.json"
)

// Role identifies an agent's behavior class.
type Role string

const (
	RoleMiner           Role = "autonomous-miner"
	RoleRegularUser     Role = "regular-user"
	RoleDistributor     Role = "miner-distributor"
	RoleMonitor         Role = "simulation-monitor"
	RoleBlockController Role = "block-controller"
	RoleCustom          Role = "custom"
)

// AgentEntry is one AgentRegistry row: everything a peer needs to
// reach and classify this agent.
type AgentEntry struct {
	AgentID         string            `json:"agent_id"`
	Role            Role              `json:"role"`
	IP              string            `json:"ip"`
	DaemonRPC       string            `json:"daemon_rpc"`
	WalletRPC       string            `json:"wallet_rpc,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	WalletAddress   string            `json:"wallet_address,omitempty"`
}

// AgentRegistry is the full agent directory, published once at plan
// time and individually augmented by agents with their wallet address.
type AgentRegistry struct {
	Agents map[string]AgentEntry `json:"agents"`
}

// MinerEntry is one MinerRegistry row.
type MinerEntry struct {
	AgentID       string  `json:"agent_id"`
	IP            string  `json:"ip"`
	HashrateShare float64 `json:"hashrate_share"`
	WalletAddress string  `json:"wallet_address,omitempty"`
}

// MinerRegistry is the mining-cohort subset view.
type MinerRegistry struct {
	Miners map[string]MinerEntry `json:"miners"`
}

// Builder accumulates entries in sorted-by-agent-id order before
// writing, so published registries are reproducible across runs.
type Builder struct {
	agents map[string]AgentEntry
	miners map[string]MinerEntry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{agents: map[string]AgentEntry{}, miners: map[string]MinerEntry{}}
}

// AddAgent registers one host's AgentRegistry entry.
func (b *Builder) AddAgent(entry AgentEntry) {
	b.agents[entry.AgentID] = entry
}

// AddMiner registers one host's MinerRegistry entry. Callers should
// also call AddAgent for the same host with Role: RoleMiner.
func (b *Builder) AddMiner(entry MinerEntry) {
	b.miners[entry.AgentID] = entry
}

// sortedAgentIDs returns the builder's agent ids in ascending order.
func (b *Builder) sortedAgentIDs() []string {
	ids := make([]string, 0, len(b.agents))
	for id := range b.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Build materializes the AgentRegistry and MinerRegistry from the
// accumulated entries, in stable agent-id order.
func (b *Builder) Build() (AgentRegistry, MinerRegistry) {
	agentReg := AgentRegistry{Agents: map[string]AgentEntry{}}
	minerReg := MinerRegistry{Miners: map[string]MinerEntry{}}

	for _, id := range b.sortedAgentIDs() {
		agentReg.Agents[id] = b.agents[id]
	}
	minerIDs := make([]string, 0, len(b.miners))
	for id := range b.miners {
		minerIDs = append(minerIDs, id)
	}
	sort.Strings(minerIDs)
	for _, id := range minerIDs {
		minerReg.Miners[id] = b.miners[id]
	}
	return agentReg, minerReg
}

// Publish writes both registries to the shared store.
func Publish(ctx context.Context, store *sharedstate.Store, agents AgentRegistry, miners MinerRegistry) error {
	if err := store.Write(ctx, AgentRegistryFile, agents); err != nil {
		return err
	}
	return store.Write(ctx, MinerRegistryFile, miners)
}

// Load reads the AgentRegistry and MinerRegistry back from the shared
// store. Either may be absent early in a run; callers get a zero-value
// registry and present=false in that case.
func Load(ctx context.Context, store *sharedstate.Store) (AgentRegistry, bool, MinerRegistry, bool, error) {
	var agents AgentRegistry
	agentsPresent, err := store.Read(ctx, AgentRegistryFile, &agents)
	if err != nil {
		return AgentRegistry{}, false, MinerRegistry{}, false, err
	}

	var miners MinerRegistry
	minersPresent, err := store.Read(ctx, MinerRegistryFile, &miners)
	if err != nil {
		return agents, agentsPresent, MinerRegistry{}, false, err
	}
	return agents, agentsPresent, miners, minersPresent, nil
}

// SelfDescription is the per-agent fact file every agent writes at
// startup (`{agent_id}_{miner|user}_info.json`).
type SelfDescription struct {
	AgentID       string            `json:"agent_id"`
	Role          Role              `json:"role"`
	WalletAddress string            `json:"wallet_address"`
	PublishedAt   time.Time         `json:"published_at"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// SelfDescriptionFile returns the shared-store key for an agent's
// self-description, given its role.
func SelfDescriptionFile(agentID string, role Role) string {
	kind := "user"
	if role == RoleMiner {
		kind = "miner"
	}
	return agentID + "_" + kind + "_info.json"
}
