package planner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/monerosim/monerosim/config"
	"github.com/stretchr/testify/require"
)

func fakeExecutable(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestPlanOrdersWalletPrepDaemonWalletAgent(t *testing.T) {
	daemonBin := fakeExecutable(t, "monerod")
	walletBin := fakeExecutable(t, "monero-wallet-rpc")

	spec := HostSpec{
		HostID: "miner-0",
		IP:     "10.0.0.2",
		Cohort: config.CohortSpec{
			Daemon:       config.BinarySpec{Phases: []config.BinaryPhase{{Index: 0, Path: daemonBin}}},
			Wallet:       &config.BinarySpec{Phases: []config.BinaryPhase{{Index: 0, Path: walletBin}}},
			MiningScript: "monerosim/agent/miner",
			Attributes:   config.Attributes{IsMiner: true, Hashrate: 12.5},
		},
		AgentKind:     "autonomous-miner",
		DaemonRPCPort: 18081,
		WalletRPCPort: 18082,
		SharedDir:     "/tmp/shared",
		GlobalSeed:    42,
		ScenarioEnd:   10 * time.Minute,
	}

	manifest, err := Plan(spec)
	require.NoError(t, err)
	require.Len(t, manifest.Processes, 4)
	require.Equal(t, "wallet_data_prep", manifest.Processes[0].Kind)
	require.Equal(t, "daemon_0", manifest.Processes[1].Kind)
	require.Equal(t, "wallet_0", manifest.Processes[2].Kind)
	require.Equal(t, "agent_script", manifest.Processes[3].Kind)
	require.Equal(t, ExpectedExit, manifest.Processes[1].ExpectedFinalState)

	agentArgs := manifest.Processes[3].Args
	require.Contains(t, agentArgs, "--kind=autonomous-miner")
	require.Contains(t, agentArgs, "--agent-id=miner-0")
	require.Contains(t, agentArgs, "--daemon-rpc=127.0.0.1:18081")
	require.Contains(t, agentArgs, "--wallet-rpc=127.0.0.1:18082")
	require.Contains(t, agentArgs, "--shared-dir=/tmp/shared")
	require.Contains(t, agentArgs, "--seed=42")
	require.Contains(t, agentArgs, "--attr=is_miner=true")
	require.Contains(t, agentArgs, "--attr=hashrate=12.5")
}

func TestPlanRejectsMissingBinary(t *testing.T) {
	spec := HostSpec{
		HostID: "miner-0",
		Cohort: config.CohortSpec{
			Daemon: config.BinarySpec{Phases: []config.BinaryPhase{{Index: 0, Path: "/no/such/binary"}}},
		},
		ScenarioEnd: time.Minute,
	}
	_, err := Plan(spec)
	require.Error(t, err)
}

func TestPlanPhasedDaemonSetsSignaledState(t *testing.T) {
	bin0 := fakeExecutable(t, "monerod-old")
	bin1 := fakeExecutable(t, "monerod-new")

	spec := HostSpec{
		HostID: "upgrader-0",
		Cohort: config.CohortSpec{
			Daemon: config.BinarySpec{Phases: []config.BinaryPhase{
				{Index: 0, Path: bin0, HasStop: true, Stop: time.Hour},
				{Index: 1, Path: bin1, HasStart: true, Start: 90 * time.Minute},
			}},
		},
		ScenarioEnd: 3 * time.Hour,
	}

	manifest, err := Plan(spec)
	require.NoError(t, err)
	require.Equal(t, ExpectedSignaled, manifest.Processes[1].ExpectedFinalState)
	require.Equal(t, ExpectedExit, manifest.Processes[2].ExpectedFinalState)
	require.NotNil(t, manifest.Processes[1].StopTime)
	require.Equal(t, time.Hour, *manifest.Processes[1].StopTime)
}
