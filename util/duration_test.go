package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDurationAccepts(t *testing.T) {
	tests := map[string]time.Duration{
		"30s":    30 * time.Second,
		"5m":     5 * time.Minute,
		"1h":     time.Hour,
		"2h30m":  2*time.Hour + 30*time.Minute,
		"3600s":  3600 * time.Second,
	}
	for s, want := range tests {
		got, err := ParseDuration(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got, s)
	}
}

func TestParseDurationRejects(t *testing.T) {
	for _, s := range []string{"10 minutes", "", "abc", "10"} {
		_, err := ParseDuration(s)
		require.Error(t, err, s)
	}
}
