package sharedstate

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

type fact struct {
	AgentID string `json:"agent_id"`
	Address string `json:"address"`
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	want := fact{AgentID: "miner-0", Address: "addr123"}
	require.NoError(t, store.Write(ctx, "miner-0_miner_info.json", want))

	var got fact
	present, err := store.Read(ctx, "miner-0_miner_info.json", &got)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, want, got)
}

func TestReadAbsentFile(t *testing.T) {
	store := New(t.TempDir())
	var got fact
	present, err := store.Read(context.Background(), "does_not_exist.json", &got)
	require.NoError(t, err)
	require.False(t, present)
}

func TestReadMalformedFileTreatedAsAbsent(t *testing.T) {
	store := New(t.TempDir())
	require.NoError(t, os.WriteFile(store.path("bad.json"), []byte("{not json"), 0644))

	var got fact
	present, err := store.Read(context.Background(), "bad.json", &got)
	require.NoError(t, err)
	require.False(t, present)
}

func TestAppendListAccumulates(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.AppendList(ctx, "transactions.json", fact{AgentID: "a"}))
	require.NoError(t, store.AppendList(ctx, "transactions.json", fact{AgentID: "b"}))

	var got []fact
	present, err := store.Read(ctx, "transactions.json", &got)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, []fact{{AgentID: "a"}, {AgentID: "b"}}, got)
}
