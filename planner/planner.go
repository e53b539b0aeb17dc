// Package planner builds the per-host process manifest the simulator
// launches from — binary-path
// resolution and validation, phase expansion with its defaults, argv
// and environment construction, and the fixed process ordering
// (wallet-data prep, daemon phases, wallet phases, agent script).
package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/monerosim/monerosim/config"
	"github.com/monerosim/monerosim/topology"
	"github.com/monerosim/monerosim/util"
	"github.com/pkg/errors"
)

// walletPrepDelay and agentScriptDelay are small framework-level start
// offsets from the cohort start. The wallet-data prep step itself
// starts at the cohort start with no delay; walletPrepDelay is the
// default start of wallet phase 0, so the wallet starts after the
// prep step. agentScriptDelay is the start of the agent script.
const (
	walletPrepDelay  = 1 * time.Second
	agentScriptDelay = 2 * time.Second
)

// ExpectedFinalState names how a process is expected to end.
type ExpectedFinalState string

const (
	ExpectedExit     ExpectedFinalState = "exited"
	ExpectedSignaled ExpectedFinalState = "signaled: SIGTERM"
)

// ProcessStep is one entry in a host's ordered process manifest.
type ProcessStep struct {
	Kind               string             `json:"kind"`
	Path               string             `json:"path"`
	Args               []string           `json:"args,omitempty"`
	Env                map[string]string  `json:"env,omitempty"`
	StartTime          time.Duration      `json:"start_time"`
	StopTime           *time.Duration     `json:"stop_time,omitempty"`
	ExpectedFinalState ExpectedFinalState `json:"expected_final_state"`
}

// HostManifest is the full ordered process list for one simulated
// host.
type HostManifest struct {
	HostID    string        `json:"host_id"`
	IP        string        `json:"ip"`
	Processes []ProcessStep `json:"processes"`
}

// HostSpec is everything the planner needs to build one host's
// manifest.
type HostSpec struct {
	HostID          string
	IP              string
	Cohort          config.CohortSpec
	AgentKind       string
	DaemonRPCPort   int
	P2PPort         int
	WalletRPCPort   int
	SharedDir       string
	GlobalSeed      int64
	PeerFlags       []topology.PeerFlag
	CohortStart     time.Duration
	ScenarioEnd     time.Duration
	FreshBlockchain bool
}

// Plan builds one host's process manifest, validating every binary
// path along the way. Validation failures are fatal at plan time:
// no partial manifest is returned.
func Plan(spec HostSpec) (*HostManifest, error) {
	manifest := &HostManifest{HostID: spec.HostID, IP: spec.IP}

	manifest.Processes = append(manifest.Processes, ProcessStep{
		Kind:               "wallet_data_prep",
		Path:               "rm",
		Args:               []string{"-rf", walletDataDir(spec.HostID)},
		StartTime:          spec.CohortStart,
		ExpectedFinalState: ExpectedExit,
	})

	daemonPhases, err := expandPhases(spec.Cohort.Daemon.Phases, spec.CohortStart, spec.ScenarioEnd)
	if err != nil {
		return nil, errors.Wrapf(err, "planner: host %s daemon", spec.HostID)
	}
	for i, phase := range daemonPhases {
		step, err := daemonStep(spec, phase, i == len(daemonPhases)-1)
		if err != nil {
			return nil, errors.Wrapf(err, "planner: host %s daemon phase %d", spec.HostID, phase.Index)
		}
		manifest.Processes = append(manifest.Processes, step)
	}

	if spec.Cohort.Wallet != nil {
		walletPhases, err := expandPhases(spec.Cohort.Wallet.Phases, spec.CohortStart+walletPrepDelay, spec.ScenarioEnd)
		if err != nil {
			return nil, errors.Wrapf(err, "planner: host %s wallet", spec.HostID)
		}
		for i, phase := range walletPhases {
			step, err := walletStep(spec, phase, i == 0, i == len(walletPhases)-1)
			if err != nil {
				return nil, errors.Wrapf(err, "planner: host %s wallet phase %d", spec.HostID, phase.Index)
			}
			manifest.Processes = append(manifest.Processes, step)
		}
	}

	if spec.Cohort.UserScript != "" || spec.Cohort.MiningScript != "" {
		manifest.Processes = append(manifest.Processes, agentScriptStep(spec))
	}

	return manifest, nil
}

// expandPhases fills in the defaults BinaryPhase glossary
// entry names: phase 0's start defaults to cohortStart, and the final
// phase's stop defaults to scenarioEnd.
func expandPhases(phases []config.BinaryPhase, cohortStart, scenarioEnd time.Duration) ([]config.BinaryPhase, error) {
	if len(phases) == 0 {
		return nil, errors.New("no phases")
	}
	out := append([]config.BinaryPhase(nil), phases...)
	if !out[0].HasStart {
		out[0].Start, out[0].HasStart = cohortStart, true
	}
	last := len(out) - 1
	if !out[last].HasStop {
		out[last].Stop, out[last].HasStop = scenarioEnd, true
	}
	return out, nil
}

func daemonStep(spec HostSpec, phase config.BinaryPhase, isFinal bool) (ProcessStep, error) {
	path, err := resolveAndValidateBinary(phase.Path)
	if err != nil {
		return ProcessStep{}, err
	}

	args := []string{
		fmt.Sprintf("--rpc-bind-port=%d", spec.DaemonRPCPort),
		fmt.Sprintf("--p2p-bind-port=%d", spec.P2PPort),
		"--regtest",
		"--fixed-difficulty=1",
		fmt.Sprintf("--data-dir=%s", daemonDataDir(spec.HostID)),
		"--log-level=1",
	}
	for _, peer := range spec.PeerFlags {
		flag := "--add-priority-node"
		if peer.Exclusive {
			flag = "--add-exclusive-node"
		}
		args = append(args, fmt.Sprintf("%s=%s", flag, peer.Address))
	}
	args = append(args, phase.Args...)

	env := mergedEnv(spec, phase.Env)

	state := ExpectedExit
	if !isFinal {
		state = ExpectedSignaled
	}

	step := ProcessStep{
		Kind:               fmt.Sprintf("daemon_%d", phase.Index),
		Path:               path,
		Args:               args,
		Env:                env,
		StartTime:          phase.Start,
		ExpectedFinalState: state,
	}
	if phase.HasStop {
		stop := phase.Stop
		step.StopTime = &stop
	}
	return step, nil
}

func walletStep(spec HostSpec, phase config.BinaryPhase, isFirst, isFinal bool) (ProcessStep, error) {
	path, err := resolveAndValidateBinary(phase.Path)
	if err != nil {
		return ProcessStep{}, err
	}

	args := []string{
		fmt.Sprintf("--rpc-bind-port=%d", spec.WalletRPCPort),
		fmt.Sprintf("--daemon-address=127.0.0.1:%d", spec.DaemonRPCPort),
		fmt.Sprintf("--wallet-dir=%s", walletDataDir(spec.HostID)),
		"--disable-rpc-login",
	}
	if isFirst && spec.FreshBlockchain {
		args = append(args, "--fresh-wallet")
	}
	args = append(args, phase.Args...)

	env := mergedEnv(spec, phase.Env)

	state := ExpectedExit
	if !isFinal {
		state = ExpectedSignaled
	}

	step := ProcessStep{
		Kind:               fmt.Sprintf("wallet_%d", phase.Index),
		Path:               path,
		Args:               args,
		Env:                env,
		StartTime:          phase.Start,
		ExpectedFinalState: state,
	}
	if phase.HasStop {
		stop := phase.Stop
		step.StopTime = &stop
	}
	return step, nil
}

func agentScriptStep(spec HostSpec) ProcessStep {
	script := spec.Cohort.MiningScript
	if script == "" {
		script = spec.Cohort.UserScript
	}

	env := mergedEnv(spec, nil)
	env["SHARED_DIR"] = spec.SharedDir
	env["AGENT_ID"] = spec.HostID
	env["HOST_IP"] = spec.IP
	env["DAEMON_RPC"] = fmt.Sprintf("127.0.0.1:%d", spec.DaemonRPCPort)
	if spec.Cohort.Wallet != nil {
		env["WALLET_RPC"] = fmt.Sprintf("127.0.0.1:%d", spec.WalletRPCPort)
	}
	for k, v := range spec.Cohort.Attributes.Extra {
		env["ATTR_"+k] = v
	}

	return ProcessStep{
		Kind:               "agent_script",
		Path:               script,
		Args:               agentScriptArgs(spec),
		StartTime:          spec.CohortStart + agentScriptDelay,
		ExpectedFinalState: ExpectedExit,
		Env:                env,
	}
}

// agentScriptArgs builds the cmd/simagent command line for one host:
// its kind, identity, and RPC endpoints as flags, plus one --attr per
// scenario attribute so simagent can reconstruct the cohort's
// config.Attributes without reading the scenario file itself.
func agentScriptArgs(spec HostSpec) []string {
	args := []string{
		fmt.Sprintf("--kind=%s", spec.AgentKind),
		fmt.Sprintf("--agent-id=%s", spec.HostID),
		fmt.Sprintf("--daemon-rpc=127.0.0.1:%d", spec.DaemonRPCPort),
		fmt.Sprintf("--shared-dir=%s", spec.SharedDir),
		fmt.Sprintf("--seed=%d", spec.GlobalSeed),
	}
	if spec.Cohort.Wallet != nil {
		args = append(args, fmt.Sprintf("--wallet-rpc=127.0.0.1:%d", spec.WalletRPCPort))
	}
	args = append(args, attrArgs(spec.Cohort.Attributes)...)
	return args
}

// attrArgs renders a cohort's typed Attributes back into --attr
// key=value flags using the same keys config.parseAttributes reads,
// so the round trip through a spawned simagent process is lossless.
func attrArgs(attrs config.Attributes) []string {
	var args []string
	add := func(key, value string) {
		args = append(args, fmt.Sprintf("--attr=%s=%s", key, value))
	}

	add("is_miner", fmt.Sprintf("%t", attrs.IsMiner))
	add("can_receive_distributions", fmt.Sprintf("%t", attrs.CanReceiveDistributions))
	if attrs.IsMiner || attrs.Hashrate > 0 {
		add("hashrate", fmt.Sprintf("%v", attrs.Hashrate))
	}
	if attrs.TransactionInterval > 0 {
		add("transaction_interval", attrs.TransactionInterval.String())
	}
	if attrs.MinTxAmount > 0 {
		add("min_tx_amount", fmt.Sprintf("%v", attrs.MinTxAmount))
	}
	if attrs.MaxTxAmount > 0 {
		add("max_tx_amount", fmt.Sprintf("%v", attrs.MaxTxAmount))
	}
	if attrs.ActivityStartTime > 0 {
		add("activity_start_time", attrs.ActivityStartTime.String())
	}
	if attrs.TotalNetworkHashrate > 0 {
		add("total_network_hashrate", fmt.Sprintf("%d", attrs.TotalNetworkHashrate))
	}

	keys := make([]string, 0, len(attrs.Extra))
	for k := range attrs.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, attrs.Extra[k])
	}
	return args
}

// mergedEnv builds the deterministic-critical environment overlay
// every process inherits: SIMULATION_SEED and a fixed hash seed, plus
// the phase's own env extras on top.
func mergedEnv(spec HostSpec, extra map[string]string) map[string]string {
	env := map[string]string{
		"SIMULATION_SEED": fmt.Sprintf("%d", spec.GlobalSeed),
		"PYTHONHASHSEED":  "0",
	}
	for k, v := range extra {
		env[k] = v
	}
	return env
}

// BinaryError reports that a binary named in the scenario could not
// be resolved to an executable file. Callers can errors.As for this
// type to distinguish a bad binary path from a malformed scenario.
type BinaryError struct {
	Ref  string
	Path string
	err  error
}

func (e *BinaryError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("planner: binary %q (resolved to %s) is missing or not executable", e.Ref, e.Path)
}

func (e *BinaryError) Unwrap() error { return e.err }

// resolveAndValidateBinary resolves ref to an absolute binary path
// and rejects it before scheduling if it is missing or non-executable.
func resolveAndValidateBinary(ref string) (string, error) {
	path, err := util.ResolveBinaryPath(ref)
	if err != nil {
		return "", &BinaryError{Ref: ref, Path: path, err: err}
	}
	if !util.IsExecutableFile(path) {
		return "", &BinaryError{Ref: ref, Path: path}
	}
	return path, nil
}

func daemonDataDir(hostID string) string  { return "/tmp/monerosim/" + hostID + "/daemon" }
func walletDataDir(hostID string) string  { return "/tmp/monerosim/" + hostID + "/wallet" }

// SortHostIDs returns host ids in stable sorted order, so every
// intermediate table built from them is reproducible across runs.
func SortHostIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
