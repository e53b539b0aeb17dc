package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/monerosim/monerosim/registry"
	"github.com/monerosim/monerosim/sharedstate"
	"github.com/stretchr/testify/require"
)

// fakeRPCServer answers get_info/get_address/open_wallet/create_wallet
// with canned results, just enough to drive an Agent through New,
// WaitUntilReady, and openOrCreateWallet.
func fakeRPCServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/json_rpc", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64 `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result interface{}
		switch req.Method {
		case "get_info":
			result = map[string]interface{}{"height": 10, "difficulty": 100, "status": "OK", "synchronized": true}
		case "get_address":
			result = map[string]interface{}{"address": "fakeaddr-0"}
		case "open_wallet":
			result = map[string]interface{}{}
		default:
			result = map[string]interface{}{}
		}
		raw, err := json.Marshal(result)
		require.NoError(t, err)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": json.RawMessage(raw)}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})
	return httptest.NewServer(mux)
}

type noopBehavior struct {
	iterated chan struct{}
}

func (b *noopBehavior) Role() registry.Role { return registry.RoleRegularUser }

func (b *noopBehavior) Iterate(ctx context.Context, a *Agent) (time.Duration, error) {
	select {
	case b.iterated <- struct{}{}:
	default:
	}
	return time.Hour, nil
}

func (b *noopBehavior) Finalize(ctx context.Context, a *Agent) {}

func hostOf(server *httptest.Server) string {
	return server.URL[len("http://"):]
}

func TestAgentRunRegistersAndOpensWallet(t *testing.T) {
	daemon := fakeRPCServer(t)
	defer daemon.Close()
	wallet := fakeRPCServer(t)
	defer wallet.Close()

	shared := t.TempDir()
	cfg := Config{
		AgentID:    "users-0",
		DaemonRPC:  hostOf(daemon),
		WalletRPC:  hostOf(wallet),
		SharedDir:  shared,
		GlobalSeed: 1,
		HasWallet:  true,
	}
	behavior := &noopBehavior{iterated: make(chan struct{}, 1)}
	a, err := New(cfg, behavior)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case <-behavior.iterated:
	case <-time.After(4 * time.Second):
		t.Fatal("behavior never iterated")
	}
	cancel()
	require.NoError(t, <-done)

	require.Equal(t, "fakeaddr-0", a.Address)

	store := sharedstate.New(shared)
	var desc registry.SelfDescription
	present, err := store.Read(context.Background(), registry.SelfDescriptionFile("users-0", registry.RoleRegularUser), &desc)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, "fakeaddr-0", desc.WalletAddress)
}
