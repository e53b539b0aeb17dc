package registry

import (
	"context"
	"testing"

	"github.com/monerosim/monerosim/sharedstate"
	"github.com/stretchr/testify/require"
)

func TestBuilderSortsByAgentID(t *testing.T) {
	b := NewBuilder()
	b.AddAgent(AgentEntry{AgentID: "miners-1", Role: RoleMiner})
	b.AddAgent(AgentEntry{AgentID: "miners-0", Role: RoleMiner})
	b.AddMiner(MinerEntry{AgentID: "miners-1", HashrateShare: 30})
	b.AddMiner(MinerEntry{AgentID: "miners-0", HashrateShare: 70})

	require.Equal(t, []string{"miners-0", "miners-1"}, b.sortedAgentIDs())

	agents, miners := b.Build()
	require.Len(t, agents.Agents, 2)
	require.Len(t, miners.Miners, 2)
	require.Equal(t, float64(70), miners.Miners["miners-0"].HashrateShare)
}

func TestPublishAndLoadRoundTrips(t *testing.T) {
	store := sharedstate.New(t.TempDir())
	ctx := context.Background()

	b := NewBuilder()
	b.AddAgent(AgentEntry{AgentID: "miners-0", Role: RoleMiner, IP: "10.0.0.2"})
	b.AddMiner(MinerEntry{AgentID: "miners-0", IP: "10.0.0.2", HashrateShare: 100})
	agents, miners := b.Build()

	require.NoError(t, Publish(ctx, store, agents, miners))

	loadedAgents, agentsPresent, loadedMiners, minersPresent, err := Load(ctx, store)
	require.NoError(t, err)
	require.True(t, agentsPresent)
	require.True(t, minersPresent)
	require.Equal(t, "10.0.0.2", loadedAgents.Agents["miners-0"].IP)
	require.Equal(t, float64(100), loadedMiners.Miners["miners-0"].HashrateShare)
}

func TestLoadAbsentRegistriesAreNotPresent(t *testing.T) {
	store := sharedstate.New(t.TempDir())
	_, agentsPresent, _, minersPresent, err := Load(context.Background(), store)
	require.NoError(t, err)
	require.False(t, agentsPresent)
	require.False(t, minersPresent)
}

func TestSelfDescriptionFileNamesByRole(t *testing.T) {
	require.Equal(t, "miners-0_miner_info.json", SelfDescriptionFile("miners-0", RoleMiner))
	require.Equal(t, "users-0_user_info.json", SelfDescriptionFile("users-0", RoleRegularUser))
}
