// Package agent implements base agent lifecycle: the
// startup, readiness, identification, and shutdown behavior shared by
// every participant, so that role-specific packages only implement
// Behavior.
package agent

import (
	"github.com/monerosim/monerosim/config"
)

// Config is the per-process configuration for one agent, assembled
// from the cmd/simagent CLI surface.
type Config struct {
	AgentID    string
	DaemonRPC  string
	WalletRPC  string
	SharedDir  string
	GlobalSeed int64
	Attributes map[string]string
	HasWallet  bool
}

// AttrBool parses one of this agent's attributes as a scenario
// boolean, per config.ParseBool's rule.
func (c Config) AttrBool(key string) bool {
	return config.ParseBool(c.Attributes[key])
}
