// Package topology implements parsing and validating the topology
// graph, distributing agents across its nodes, and computing
// each host's peer-wiring flags under the configured peer mode.
package topology

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// Node is one topology-graph node, TopologyGraph node
// attributes.
type Node struct {
	ID         string  `json:"id"`
	AS         string  `json:"as,omitempty"`
	Address    string  `json:"ip,omitempty"`
	Bandwidth  string  `json:"bandwidth,omitempty"`
	Location   string  `json:"location,omitempty"`
	PacketLoss float64 `json:"packet_loss,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
}

// Edge is one topology-graph edge.
type Edge struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Latency    string  `json:"latency,omitempty"`
	Bandwidth  string  `json:"bandwidth,omitempty"`
	PacketLoss float64 `json:"packet_loss,omitempty"`
}

// Graph is the parsed topology-graph input.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Load reads and parses a topology-graph JSON file, then validates it.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "topology: read %s", path)
	}
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, errors.Wrapf(err, "topology: parse %s", path)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate enforces TopologyGraph invariants: every node
// carries an address, and every node carries a self-loop (an edge from
// itself to itself), which the simulator requires to model local
// traffic.
func (g *Graph) Validate() error {
	selfLoop := map[string]bool{}
	for _, e := range g.Edges {
		if e.A == e.B {
			selfLoop[e.A] = true
		}
	}

	for _, n := range g.Nodes {
		if n.Address == "" {
			return errors.Errorf("topology: node %q has no address", n.ID)
		}
		if !selfLoop[n.ID] {
			return errors.Errorf("topology: node %q is missing its required self-loop edge", n.ID)
		}
	}
	return nil
}

// sortedNodes returns a copy of Nodes sorted by ID, for deterministic
// distribution.
func (g *Graph) sortedNodes() []Node {
	nodes := append([]Node(nil), g.Nodes...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// Distribute assigns each of the given (sorted) agent ids to a node,
// proportionally to node weight if any node declares one, otherwise
// round-robin.9.
func (g *Graph) Distribute(agentIDs []string) map[string]Node {
	nodes := g.sortedNodes()
	if len(nodes) == 0 {
		return nil
	}

	hasWeights := false
	totalWeight := 0.0
	for _, n := range nodes {
		if n.Weight > 0 {
			hasWeights = true
		}
		totalWeight += n.Weight
	}

	assignment := make(map[string]Node, len(agentIDs))
	ids := append([]string(nil), agentIDs...)
	sort.Strings(ids)

	if !hasWeights || totalWeight <= 0 {
		for i, id := range ids {
			assignment[id] = nodes[i%len(nodes)]
		}
		return assignment
	}

	// Proportional distribution: give each node floor(weight share *
	// len(ids)) slots, then round-robin assign any remainder.
	counts := make([]int, len(nodes))
	assignedSoFar := 0
	for i, n := range nodes {
		counts[i] = int(float64(len(ids)) * n.Weight / totalWeight)
		assignedSoFar += counts[i]
	}
	remainder := len(ids) - assignedSoFar
	for i := 0; remainder > 0; i = (i + 1) % len(nodes) {
		counts[i]++
		remainder--
	}

	idx := 0
	for i, n := range nodes {
		for c := 0; c < counts[i] && idx < len(ids); c++ {
			assignment[ids[idx]] = n
			idx++
		}
	}
	for idx < len(ids) {
		assignment[ids[idx]] = nodes[idx%len(nodes)]
		idx++
	}
	return assignment
}

// PeerMode names one of peer-wiring strategies.
type PeerMode string

const (
	PeerStar    PeerMode = "star"
	PeerMesh    PeerMode = "mesh"
	PeerRing    PeerMode = "ring"
	PeerDAG     PeerMode = "dag"
	PeerDynamic PeerMode = "dynamic"
)

// MaxMeshPeers bounds the Mesh mode's per-host peer count.
const MaxMeshPeers = 8

// RingDegree is the number of successors each host peers with in Ring
// mode.
const RingDegree = 2

// DAGDepth is the number of predecessors each host peers with in DAG
// mode.
const DAGDepth = 2

// PeerFlag is one `--add-exclusive-node` / `--add-priority-node`
// daemon argument.9.
type PeerFlag struct {
	Address   string
	Exclusive bool
}

// PeerWiring computes every host's peer flags for the given ordered
// host ids (hostID -> IP), under mode.
func PeerWiring(hostIDs []string, ips map[string]string, mode PeerMode) map[string][]PeerFlag {
	ordered := append([]string(nil), hostIDs...)
	sort.Strings(ordered)

	result := make(map[string][]PeerFlag, len(ordered))
	for _, id := range ordered {
		result[id] = nil
	}
	if len(ordered) == 0 {
		return result
	}

	switch mode {
	case PeerStar:
		hub := ordered[0]
		for _, id := range ordered[1:] {
			result[id] = []PeerFlag{{Address: ips[hub], Exclusive: true}}
		}
	case PeerMesh:
		for _, id := range ordered {
			var peers []PeerFlag
			for _, other := range ordered {
				if other == id || len(peers) >= MaxMeshPeers {
					continue
				}
				peers = append(peers, PeerFlag{Address: ips[other], Exclusive: true})
			}
			result[id] = peers
		}
	case PeerRing:
		n := len(ordered)
		for i, id := range ordered {
			var peers []PeerFlag
			for k := 1; k <= RingDegree && k < n; k++ {
				next := ordered[(i+k)%n]
				peers = append(peers, PeerFlag{Address: ips[next], Exclusive: true})
			}
			result[id] = peers
		}
	case PeerDAG:
		for i, id := range ordered {
			var peers []PeerFlag
			for k := 1; k <= DAGDepth && i-k >= 0; k++ {
				pred := ordered[i-k]
				peers = append(peers, PeerFlag{Address: ips[pred], Exclusive: true})
			}
			result[id] = peers
		}
	case PeerDynamic:
		// No peers wired at plan time; the daemon discovers peers itself.
	}
	return result
}
