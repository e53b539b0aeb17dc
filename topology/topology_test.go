package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func graphWithSelfLoops(nodes []Node) *Graph {
	g := &Graph{Nodes: nodes}
	for _, n := range nodes {
		g.Edges = append(g.Edges, Edge{A: n.ID, B: n.ID})
	}
	return g
}

func TestValidateRejectsMissingSelfLoop(t *testing.T) {
	g := &Graph{Nodes: []Node{{ID: "n0", Address: "10.0.0.1"}}}
	require.Error(t, g.Validate())
}

func TestValidateRejectsMissingAddress(t *testing.T) {
	g := graphWithSelfLoops([]Node{{ID: "n0"}})
	require.Error(t, g.Validate())
}

func TestValidateAccepts(t *testing.T) {
	g := graphWithSelfLoops([]Node{{ID: "n0", Address: "10.0.0.1"}})
	require.NoError(t, g.Validate())
}

func TestDistributeRoundRobin(t *testing.T) {
	g := graphWithSelfLoops([]Node{{ID: "n0", Address: "10.0.0.1"}, {ID: "n1", Address: "10.0.0.2"}})
	assignment := g.Distribute([]string{"a", "b", "c", "d"})
	require.Equal(t, "n0", assignment["a"].ID)
	require.Equal(t, "n1", assignment["b"].ID)
	require.Equal(t, "n0", assignment["c"].ID)
	require.Equal(t, "n1", assignment["d"].ID)
}

func TestPeerWiringStarUsesFirstHostAsHub(t *testing.T) {
	ips := map[string]string{"a": "10.0.0.1", "b": "10.0.0.2", "c": "10.0.0.3"}
	wiring := PeerWiring([]string{"a", "b", "c"}, ips, PeerStar)
	require.Empty(t, wiring["a"])
	require.Equal(t, []PeerFlag{{Address: "10.0.0.1", Exclusive: true}}, wiring["b"])
}

func TestPeerWiringDynamicHasNoPeers(t *testing.T) {
	ips := map[string]string{"a": "10.0.0.1", "b": "10.0.0.2"}
	wiring := PeerWiring([]string{"a", "b"}, ips, PeerDynamic)
	require.Empty(t, wiring["a"])
	require.Empty(t, wiring["b"])
}

func TestPeerWiringMeshListsEveryOther(t *testing.T) {
	ips := map[string]string{"a": "10.0.0.1", "b": "10.0.0.2", "c": "10.0.0.3"}
	wiring := PeerWiring([]string{"a", "b", "c"}, ips, PeerMesh)
	require.Len(t, wiring["a"], 2)
}
