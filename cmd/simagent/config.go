package main

import (
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// attrFlag accumulates repeated --attr key=value flags into a map.
type attrFlag map[string]string

func (a *attrFlag) UnmarshalFlag(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return errors.Errorf("simagent: --attr must be key=value, got %q", value)
	}
	if *a == nil {
		*a = attrFlag{}
	}
	(*a)[parts[0]] = parts[1]
	return nil
}

// config is the per-agent process's command-line surface.
type config struct {
	Kind          string   `long:"kind" description:"Agent behavior: autonomous-miner, regular-user, miner-distributor, block-controller, simulation-monitor, or custom" required:"true"`
	AgentID       string   `long:"agent-id" description:"This agent's stable identifier" required:"true"`
	DaemonRPC     string   `long:"daemon-rpc" description:"host:port of this agent's daemon RPC endpoint" required:"true"`
	WalletRPC     string   `long:"wallet-rpc" description:"host:port of this agent's wallet RPC endpoint"`
	SharedDir     string   `long:"shared-dir" description:"Path to the orchestrator's shared state directory" required:"true"`
	GlobalSeed    int64    `long:"seed" description:"Global simulation seed"`
	Attributes    attrFlag `long:"attr" description:"Agent attribute as key=value, repeatable"`
	DebugLevel    string   `long:"debuglevel" description:"Logging level" default:"info"`
	LogFile       string   `long:"logfile" description:"Path to the log file"`
}

func parseConfig() (*config, error) {
	cfg := &config{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.Parse(); err != nil {
		return nil, errors.Wrap(err, "simagent: parse command line")
	}
	return cfg, nil
}
