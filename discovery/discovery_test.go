package discovery

import (
	"context"
	"testing"

	"github.com/monerosim/monerosim/registry"
	"github.com/monerosim/monerosim/sharedstate"
	"github.com/stretchr/testify/require"
)

func seedRegistry(t *testing.T, store *sharedstate.Store) {
	t.Helper()
	b := registry.NewBuilder()
	b.AddAgent(registry.AgentEntry{AgentID: "miners-0", Role: registry.RoleMiner})
	b.AddAgent(registry.AgentEntry{AgentID: "miners-1", Role: registry.RoleMiner})
	b.AddAgent(registry.AgentEntry{
		AgentID:    "users-0",
		Role:       registry.RoleRegularUser,
		Attributes: map[string]string{"can_receive_distributions": "true"},
	})
	b.AddMiner(registry.MinerEntry{AgentID: "miners-0"})
	b.AddMiner(registry.MinerEntry{AgentID: "miners-1"})
	agents, miners := b.Build()
	require.NoError(t, registry.Publish(context.Background(), store, agents, miners))
}

func TestListMinersRequiresPublishedWalletAddress(t *testing.T) {
	store := sharedstate.New(t.TempDir())
	seedRegistry(t, store)
	ctx := context.Background()

	client := New(store)

	miners, err := client.ListMiners(ctx)
	require.NoError(t, err)
	require.Empty(t, miners, "miners without a self-description yet should not be listed")

	desc := registry.SelfDescription{AgentID: "miners-0", Role: registry.RoleMiner, WalletAddress: "addr-0"}
	require.NoError(t, store.Write(ctx, registry.SelfDescriptionFile("miners-0", registry.RoleMiner), desc))

	miners, err = client.ListMiners(ctx)
	require.NoError(t, err)
	require.Len(t, miners, 1)
	require.Equal(t, "miners-0", miners[0].AgentID)
	require.Equal(t, "addr-0", miners[0].WalletAddress)
}

func TestListDistributionEligible(t *testing.T) {
	store := sharedstate.New(t.TempDir())
	seedRegistry(t, store)

	client := New(store)
	eligible, err := client.ListDistributionEligible(context.Background())
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	require.Equal(t, "users-0", eligible[0].AgentID)
}

func TestResolveUnknownAgent(t *testing.T) {
	store := sharedstate.New(t.TempDir())
	seedRegistry(t, store)

	client := New(store)
	_, ok, err := client.Resolve(context.Background(), "nonexistent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListByRoleOrdersByAgentID(t *testing.T) {
	store := sharedstate.New(t.TempDir())
	seedRegistry(t, store)

	client := New(store)
	miners, err := client.ListByRole(context.Background(), registry.RoleMiner)
	require.NoError(t, err)
	require.Len(t, miners, 2)
	require.Equal(t, "miners-0", miners[0].AgentID)
	require.Equal(t, "miners-1", miners[1].AgentID)
}
