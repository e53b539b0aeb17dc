package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// config is the orchestrator's command-line surface.
type config struct {
	ScenarioPath string `long:"config" short:"c" description:"Path to the scenario file" required:"true"`
	OutputDir    string `long:"output" short:"o" description:"Directory to write the manifest and shared state to" required:"true"`
	DebugLevel   string `long:"debuglevel" description:"Logging level: trace, debug, info, warn, error, critical" default:"info"`
	LogFile      string `long:"logfile" description:"Path to the log file"`
}

func parseConfig() (*config, error) {
	cfg := &config{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.Parse(); err != nil {
		return nil, errors.Wrap(err, "monerosim: parse command line")
	}
	return cfg, nil
}
