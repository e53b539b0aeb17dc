package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStableHashIsDeterministic(t *testing.T) {
	a := StableHash("miner-0")
	b := StableHash("miner-0")
	require.Equal(t, a, b)

	c := StableHash("miner-1")
	require.NotEqual(t, a, c)
}

func TestAgentSeedIsDeterministic(t *testing.T) {
	s1 := AgentSeed(42, "miner-0")
	s2 := AgentSeed(42, "miner-0")
	require.Equal(t, s1, s2)

	s3 := AgentSeed(43, "miner-0")
	require.NotEqual(t, s1, s3)
}
