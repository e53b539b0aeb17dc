// Package discovery is a pure reader over the agent registry and
// per-agent fact files. It never writes, and re-reads on every call
// so behaviors see the latest state each iteration.
package discovery

import (
	"context"
	"sort"

	"github.com/monerosim/monerosim/config"
	"github.com/monerosim/monerosim/registry"
	"github.com/monerosim/monerosim/sharedstate"
)

// Client resolves agent identities and roles against a shared store.
type Client struct {
	store *sharedstate.Store
}

// New returns a discovery Client bound to store.
func New(store *sharedstate.Store) *Client {
	return &Client{store: store}
}

// Agent is the enriched view discovery hands callers: the registry
// entry plus whatever the agent has since published about itself.
type Agent struct {
	registry.AgentEntry
}

func (c *Client) load(ctx context.Context) (registry.AgentRegistry, error) {
	agents, _, _, _, err := registry.Load(ctx, c.store)
	return agents, err
}

// enrich overlays the latest self-description onto a registry entry,
// most importantly its wallet address, which isn't known until the
// owning agent publishes it.
func (c *Client) enrich(ctx context.Context, entry registry.AgentEntry) registry.AgentEntry {
	var desc registry.SelfDescription
	present, err := c.store.Read(ctx, registry.SelfDescriptionFile(entry.AgentID, entry.Role), &desc)
	if err != nil || !present {
		return entry
	}
	if desc.WalletAddress != "" {
		entry.WalletAddress = desc.WalletAddress
	}
	return entry
}

// ListMiners returns every agent with role=miner and a published
// wallet address, ordered by agent id.
func (c *Client) ListMiners(ctx context.Context) ([]Agent, error) {
	agents, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []Agent
	for _, id := range sortedIDs(agents) {
		entry := agents.Agents[id]
		if entry.Role != registry.RoleMiner {
			continue
		}
		entry = c.enrich(ctx, entry)
		if entry.WalletAddress == "" {
			continue
		}
		out = append(out, Agent{entry})
	}
	return out, nil
}

// ListDistributionEligible returns every agent whose
// can_receive_distributions attribute parses true.
func (c *Client) ListDistributionEligible(ctx context.Context) ([]Agent, error) {
	agents, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []Agent
	for _, id := range sortedIDs(agents) {
		entry := agents.Agents[id]
		if !config.ParseBool(entry.Attributes["can_receive_distributions"]) {
			continue
		}
		out = append(out, Agent{c.enrich(ctx, entry)})
	}
	return out, nil
}

// ListByRole returns every agent with the given role.
func (c *Client) ListByRole(ctx context.Context, role registry.Role) ([]Agent, error) {
	agents, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []Agent
	for _, id := range sortedIDs(agents) {
		entry := agents.Agents[id]
		if entry.Role != role {
			continue
		}
		out = append(out, Agent{c.enrich(ctx, entry)})
	}
	return out, nil
}

// Resolve returns one agent's endpoint bundle by id.
func (c *Client) Resolve(ctx context.Context, agentID string) (Agent, bool, error) {
	agents, err := c.load(ctx)
	if err != nil {
		return Agent{}, false, err
	}
	entry, ok := agents.Agents[agentID]
	if !ok {
		return Agent{}, false, nil
	}
	return Agent{c.enrich(ctx, entry)}, true, nil
}

func sortedIDs(agents registry.AgentRegistry) []string {
	ids := make([]string, 0, len(agents.Agents))
	for id := range agents.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
