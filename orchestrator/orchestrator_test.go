package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))
	return path
}

func TestRunEndToEnd(t *testing.T) {
	binDir := t.TempDir()
	daemonBin := fakeExecutable(t, binDir, "monerod")
	walletBin := fakeExecutable(t, binDir, "monero-wallet-rpc")

	scenarioYAML := `
general:
  stop_time: 10m
  seed: 42
network:
  type: 1_gbit_switch
agents:
  miners:
    count: 2
    daemon: ` + daemonBin + `
    wallet: ` + walletBin + `
    mining_script: monerosim/agent/miner
    attributes:
      is_miner: "true"
      hashrate: "50"
`
	scenarioPath := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(scenarioYAML), 0644))

	outputDir := t.TempDir()
	require.NoError(t, Run(context.Background(), scenarioPath, outputDir))

	data, err := os.ReadFile(filepath.Join(outputDir, "manifest.json"))
	require.NoError(t, err)

	var manifest SimulatorManifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	require.Len(t, manifest.Hosts, 2)
	require.Contains(t, manifest.Hosts, "miners-0")
	require.Contains(t, manifest.Hosts, "miners-1")

	registryData, err := os.ReadFile(filepath.Join(outputDir, "shared", "miners.json"))
	require.NoError(t, err)
	require.Contains(t, string(registryData), "miners-0")
}

// TestRunIsDeterministic runs the same scenario through the full
// pipeline twice, into the same output directory, and requires the
// written manifests to be byte-for-byte identical.
func TestRunIsDeterministic(t *testing.T) {
	binDir := t.TempDir()
	daemonBin := fakeExecutable(t, binDir, "monerod")
	walletBin := fakeExecutable(t, binDir, "monero-wallet-rpc")

	scenarioYAML := `
general:
  stop_time: 10m
  seed: 42
network:
  type: 1_gbit_switch
agents:
  miners:
    count: 2
    daemon: ` + daemonBin + `
    wallet: ` + walletBin + `
    mining_script: monerosim/agent/miner
    attributes:
      is_miner: "true"
      hashrate: "50"
  users:
    count: 2
    daemon: ` + daemonBin + `
    wallet: ` + walletBin + `
    user_script: monerosim/agent/user
    attributes:
      transaction_interval: 30s
      min_tx_amount: "0.1"
      max_tx_amount: "1.0"
`
	scenarioPath := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(scenarioYAML), 0644))

	// Re-run into the same output directory so the embedded shared-dir
	// path is identical across runs; only the pipeline's own determinism
	// is under test here, not t.TempDir()'s allocation.
	outputDir := t.TempDir()
	manifestPath := filepath.Join(outputDir, "manifest.json")

	require.NoError(t, Run(context.Background(), scenarioPath, outputDir))
	first, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), scenarioPath, outputDir))
	second, err := os.ReadFile(manifestPath)
	require.NoError(t, err)

	require.Equal(t, string(first), string(second), "manifest must be byte-for-byte identical across runs of the same scenario")
}
