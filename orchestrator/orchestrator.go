// Package orchestrator implements the top-level simulation-build
// pipeline: load and validate the scenario, seed determinism, distribute agents
// across a topology (or a flat network), allocate IPs, build and
// publish the registries, plan every host's process manifest, and
// write the simulator's launch manifest.
package orchestrator

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/monerosim/monerosim/config"
	"github.com/monerosim/monerosim/ipalloc"
	"github.com/monerosim/monerosim/logger"
	"github.com/monerosim/monerosim/planner"
	"github.com/monerosim/monerosim/registry"
	"github.com/monerosim/monerosim/sharedstate"
	"github.com/monerosim/monerosim/topology"
	"github.com/pkg/errors"
)

var log, _ = logger.Get(logger.SubsystemTags.ORCH)

// basePort is the first RPC port handed to generated hosts; each host
// gets basePort+2*index for its daemon and +1 for its wallet.
const basePort = 18080

// SimulatorManifest is the top-level artifact written to the output
// directory: one process manifest per host, plus the shared directory
// every agent will be pointed at.
type SimulatorManifest struct {
	SharedDir string                          `json:"shared_dir"`
	Hosts     map[string]*planner.HostManifest `json:"hosts"`
}

// Run executes the full orchestrator pipeline, writing the simulator
// manifest and registries to outputDir.
func Run(ctx context.Context, scenarioPath, outputDir string) error {
	scenario, err := config.Load(scenarioPath)
	if err != nil {
		return wrapErr(ErrKindConfig, errors.Wrap(err, "orchestrator: load scenario"))
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return wrapErr(ErrKindFilesystem, errors.Wrap(err, "orchestrator: create output dir"))
	}
	sharedDir := filepath.Join(outputDir, "shared")
	if err := os.MkdirAll(sharedDir, 0755); err != nil {
		return wrapErr(ErrKindFilesystem, errors.Wrap(err, "orchestrator: create shared dir"))
	}
	store := sharedstate.New(sharedDir)

	hostIDs, cohortOf := expandHosts(scenario)

	var graph *topology.Graph
	if scenario.Network.IsTopologyBased() {
		graph, err = topology.Load(scenario.Network.Topology)
		if err != nil {
			return wrapErr(ErrKindConfig, errors.Wrap(err, "orchestrator: load topology"))
		}
	}

	assignment := map[string]topology.Node{}
	if graph != nil {
		assignment = graph.Distribute(hostIDs)
	}

	allocator, err := buildAllocator(scenario, graph)
	if err != nil {
		return wrapErr(ErrKindConfig, errors.Wrap(err, "orchestrator: build IP allocator"))
	}

	ips := make(map[string]string, len(hostIDs))
	for _, id := range hostIDs {
		node := assignment[id]
		ip, err := allocator.Allocate(id, node.AS, node.Address)
		if err != nil {
			return wrapErr(ErrKindConfig, errors.Wrapf(err, "orchestrator: allocate IP for %s", id))
		}
		ips[id] = ip
	}

	peerWiring := map[string][]topology.PeerFlag{}
	if scenario.Network.PeerMode != "" {
		peerWiring = topology.PeerWiring(hostIDs, ips, topology.PeerMode(scenario.Network.PeerMode))
	}

	builder := registry.NewBuilder()
	for i, id := range hostIDs {
		cohort := cohortOf[id]
		role := roleFor(cohort)
		daemonPort, walletPort := portsFor(i)
		builder.AddAgent(registry.AgentEntry{
			AgentID:    id,
			Role:       role,
			IP:         ips[id],
			DaemonRPC:  fmt.Sprintf("%s:%d", ips[id], daemonPort),
			WalletRPC:  walletRPCString(cohort, ips[id], walletPort),
			Attributes: flattenAttributes(cohort.Attributes),
		})
		if role == registry.RoleMiner {
			builder.AddMiner(registry.MinerEntry{AgentID: id, IP: ips[id], HashrateShare: cohort.Attributes.Hashrate})
		}
	}
	agentReg, minerReg := builder.Build()
	if err := registry.Publish(ctx, store, agentReg, minerReg); err != nil {
		return wrapErr(ErrKindFilesystem, errors.Wrap(err, "orchestrator: publish registries"))
	}

	manifest := SimulatorManifest{SharedDir: sharedDir, Hosts: map[string]*planner.HostManifest{}}
	for i, id := range hostIDs {
		cohort := cohortOf[id]
		daemonPort, walletPort := portsFor(i)
		spec := planner.HostSpec{
			HostID:          id,
			IP:              ips[id],
			Cohort:          cohort,
			AgentKind:       string(roleFor(cohort)),
			DaemonRPCPort:   daemonPort,
			P2PPort:         daemonPort + 1000,
			WalletRPCPort:   walletPort,
			SharedDir:       sharedDir,
			GlobalSeed:      scenario.General.Seed,
			PeerFlags:       peerWiring[id],
			CohortStart:     0,
			ScenarioEnd:     scenario.General.StopTime,
			FreshBlockchain: scenario.General.FreshBlockchain,
		}
		hostManifest, err := planner.Plan(spec)
		if err != nil {
			wrapped := errors.Wrapf(err, "orchestrator: plan host %s", id)
			var binErr *planner.BinaryError
			if stderrors.As(err, &binErr) {
				return wrapErr(ErrKindBinary, wrapped)
			}
			return wrapErr(ErrKindConfig, wrapped)
		}
		manifest.Hosts[id] = hostManifest
	}

	if err := writeManifest(outputDir, manifest); err != nil {
		return wrapErr(ErrKindFilesystem, err)
	}
	return nil
}

// expandHosts deterministically names every host `{cohort}-{n}` for
// n in [0, count), iterating cohorts in sorted order so the result is
// stable across runs.
func expandHosts(scenario *config.Scenario) ([]string, map[string]config.CohortSpec) {
	cohortNames := make([]string, 0, len(scenario.Agents))
	for name := range scenario.Agents {
		cohortNames = append(cohortNames, name)
	}
	sort.Strings(cohortNames)

	var hostIDs []string
	cohortOf := map[string]config.CohortSpec{}
	for _, name := range cohortNames {
		cohort := scenario.Agents[name]
		for i := 0; i < cohort.Count; i++ {
			id := fmt.Sprintf("%s-%d", name, i)
			hostIDs = append(hostIDs, id)
			cohortOf[id] = cohort
		}
	}
	return hostIDs, cohortOf
}

func buildAllocator(scenario *config.Scenario, graph *topology.Graph) (*ipalloc.Allocator, error) {
	if graph == nil {
		return ipalloc.NewFlat("")
	}
	nodes := make([]ipalloc.NodeAddress, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		nodes = append(nodes, ipalloc.NodeAddress{NodeID: n.ID, AS: n.AS, Address: n.Address})
	}
	if allHaveAS(nodes) {
		return ipalloc.NewASAware(nodes)
	}
	return ipalloc.NewFlat("")
}

func allHaveAS(nodes []ipalloc.NodeAddress) bool {
	for _, n := range nodes {
		if n.AS == "" {
			return false
		}
	}
	return len(nodes) > 0
}

func roleFor(cohort config.CohortSpec) registry.Role {
	switch {
	case cohort.Attributes.IsMiner:
		return registry.RoleMiner
	case strings.Contains(cohort.MiningScript, "distributor"):
		return registry.RoleDistributor
	case cohort.UserScript != "":
		return registry.RoleRegularUser
	default:
		return registry.RoleCustom
	}
}

func portsFor(index int) (daemonPort, walletPort int) {
	daemonPort = basePort + index*2
	walletPort = daemonPort + 1
	return
}

func walletRPCString(cohort config.CohortSpec, ip string, port int) string {
	if cohort.Wallet == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d", ip, port)
}

func flattenAttributes(attrs config.Attributes) map[string]string {
	out := map[string]string{}
	for k, v := range attrs.Extra {
		out[k] = v
	}
	out["is_miner"] = fmt.Sprintf("%t", attrs.IsMiner)
	out["can_receive_distributions"] = fmt.Sprintf("%t", attrs.CanReceiveDistributions)
	if attrs.Hashrate > 0 {
		out["hashrate"] = fmt.Sprintf("%v", attrs.Hashrate)
	}
	return out
}

func writeManifest(outputDir string, manifest SimulatorManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Wrap(err, "orchestrator: marshal manifest")
	}
	path := filepath.Join(outputDir, "manifest.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "orchestrator: write manifest")
	}
	log.Infof("orchestrator: wrote manifest for %d hosts to %s", len(manifest.Hosts), path)
	return nil
}
