// Package config parses and validates the scenario file, a
// hierarchical input document describing the simulation to build:
// duration, seed, network shape, and agent cohorts.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/monerosim/monerosim/logger"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var log, _ = logger.Get(logger.SubsystemTags.PLAN)

// Scenario is the top-level input to the orchestrator.
type Scenario struct {
	General General
	Network Network
	Agents  map[string]CohortSpec
}

// General holds scenario-wide settings.
type General struct {
	StopTime        time.Duration
	Seed            int64
	LogLevel        string
	FreshBlockchain bool
}

// Network describes the simulated network, either a flat shared
// medium or a reference to a topology graph.
type Network struct {
	Type      string
	Topology  string
	PeerMode  string
	Bandwidth string
}

// IsTopologyBased reports whether the network section names a
// topology graph file rather than a flat shared medium.
func (n Network) IsTopologyBased() bool {
	return n.Topology != ""
}

// Attributes is the typed view of a cohort's free-form attribute map:
// a small set of well-known typed fields plus an opaque Extra map for
// everything a behavior script interprets on its own.
type Attributes struct {
	IsMiner                  bool
	Hashrate                 float64
	CanReceiveDistributions  bool
	TransactionInterval      time.Duration
	MinTxAmount              float64
	MaxTxAmount              float64
	ActivityStartTime        time.Duration
	TotalNetworkHashrate     uint64
	Extra                    map[string]string
}

// DefaultTotalNetworkHashrate is the baseline H (hashes/second) used
// when a cohort doesn't declare total_network_hashrate.
const DefaultTotalNetworkHashrate = 1000000

// ParseBool parses a scenario boolean attribute: true/false, 1/0,
// yes/no, on/off, case-insensitively. Invalid or empty input parses as
// false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func parseAttributes(raw map[string]interface{}) (Attributes, error) {
	attrs := Attributes{
		TotalNetworkHashrate: DefaultTotalNetworkHashrate,
		Extra:                map[string]string{},
	}

	for key, value := range raw {
		str := toStringValue(value)
		switch key {
		case "is_miner":
			attrs.IsMiner = ParseBool(str)
		case "hashrate":
			f, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return Attributes{}, errors.Wrapf(err, "attribute hashrate %q", str)
			}
			attrs.Hashrate = f
		case "can_receive_distributions":
			attrs.CanReceiveDistributions = ParseBool(str)
		case "transaction_interval":
			d, err := time.ParseDuration(str)
			if err != nil {
				return Attributes{}, errors.Wrapf(err, "attribute transaction_interval %q", str)
			}
			attrs.TransactionInterval = d
		case "min_tx_amount":
			f, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return Attributes{}, errors.Wrapf(err, "attribute min_tx_amount %q", str)
			}
			attrs.MinTxAmount = f
		case "max_tx_amount":
			f, err := strconv.ParseFloat(str, 64)
			if err != nil {
				return Attributes{}, errors.Wrapf(err, "attribute max_tx_amount %q", str)
			}
			attrs.MaxTxAmount = f
		case "activity_start_time":
			d, err := time.ParseDuration(str)
			if err != nil {
				return Attributes{}, errors.Wrapf(err, "attribute activity_start_time %q", str)
			}
			attrs.ActivityStartTime = d
		case "total_network_hashrate":
			u, err := strconv.ParseUint(str, 10, 64)
			if err != nil {
				return Attributes{}, errors.Wrapf(err, "attribute total_network_hashrate %q", str)
			}
			attrs.TotalNetworkHashrate = u
		default:
			attrs.Extra[key] = str
		}
	}

	if attrs.IsMiner && (attrs.Hashrate <= 0 || attrs.Hashrate > 100) {
		return Attributes{}, errors.Errorf("hashrate must be in (0, 100], got %v", attrs.Hashrate)
	}
	return attrs, nil
}

// BinaryPhase is one execution interval of a daemon or wallet binary
// within a single host's lifetime.
type BinaryPhase struct {
	Index    int
	Path     string
	Args     []string
	Env      map[string]string
	Start    time.Duration
	HasStart bool
	Stop     time.Duration
	HasStop  bool
}

// BinarySpec is the ordered set of phases a cohort runs a daemon or
// wallet binary through. A single-binary shorthand with no phase
// suffix is normalized into a one-element spec at parse time.
type BinarySpec struct {
	Phases []BinaryPhase
}

// CohortSpec is one named group of agents sharing a launch profile.
type CohortSpec struct {
	Count        int
	Daemon       BinarySpec
	Wallet       *BinarySpec
	UserScript   string
	MiningScript string
	Attributes   Attributes
}

// Load reads and parses the scenario file at path, then validates its
// cross-field invariants.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read scenario file %s", path)
	}

	var raw struct {
		General struct {
			StopTime        string `yaml:"stop_time"`
			Seed            int64  `yaml:"seed"`
			LogLevel        string `yaml:"log_level"`
			FreshBlockchain bool   `yaml:"fresh_blockchain"`
		} `yaml:"general"`
		Network struct {
			Type      string `yaml:"type"`
			Topology  string `yaml:"topology"`
			PeerMode  string `yaml:"peer_mode"`
			Bandwidth string `yaml:"bandwidth"`
		} `yaml:"network"`
		Agents map[string]map[string]interface{} `yaml:"agents"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "config: parse scenario file %s", path)
	}

	stopTime, err := parseDurationField(raw.General.StopTime)
	if err != nil {
		return nil, errors.Wrap(err, "config: general.stop_time")
	}

	scenario := &Scenario{
		General: General{
			StopTime:        stopTime,
			Seed:            raw.General.Seed,
			LogLevel:        raw.General.LogLevel,
			FreshBlockchain: raw.General.FreshBlockchain,
		},
		Network: Network{
			Type:      raw.Network.Type,
			Topology:  raw.Network.Topology,
			PeerMode:  raw.Network.PeerMode,
			Bandwidth: raw.Network.Bandwidth,
		},
		Agents: make(map[string]CohortSpec),
	}

	for name, rawCohort := range raw.Agents {
		cohort, err := decodeCohort(rawCohort)
		if err != nil {
			return nil, errors.Wrapf(err, "config: agents.%s", name)
		}
		scenario.Agents[name] = cohort
	}

	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return scenario, nil
}

func parseDurationField(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("duration is required")
	}
	return parseDuration(s)
}

// parseDuration duplicates util.ParseDuration's grammar without
// introducing an import cycle (config is imported by util's callers'
// callers in the orchestrator, not the reverse, but duplicating three
// lines here is simpler than threading a dependency through).
func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func decodeCohort(raw map[string]interface{}) (CohortSpec, error) {
	var cohort CohortSpec

	count, err := toInt(raw["count"])
	if err != nil {
		return CohortSpec{}, errors.Wrap(err, "count")
	}
	cohort.Count = count
	cohort.UserScript = toStringValue(raw["user_script"])
	cohort.MiningScript = toStringValue(raw["mining_script"])

	daemon, err := parseBinarySpec(raw, "daemon")
	if err != nil {
		return CohortSpec{}, errors.Wrap(err, "daemon")
	}
	if daemon == nil {
		return CohortSpec{}, errors.New("missing daemon")
	}
	cohort.Daemon = *daemon

	wallet, err := parseBinarySpec(raw, "wallet")
	if err != nil {
		return CohortSpec{}, errors.Wrap(err, "wallet")
	}
	cohort.Wallet = wallet

	attrRaw, _ := raw["attributes"].(map[string]interface{})
	attrs, err := parseAttributes(attrRaw)
	if err != nil {
		return CohortSpec{}, err
	}
	cohort.Attributes = attrs

	return cohort, nil
}

// parseBinarySpec builds a BinarySpec for the given key prefix
// ("daemon" or "wallet") out of a cohort's raw key/value map. Accepts
// either the single-binary shorthand (a plain string under prefix) or
// the phase-keyed form (`<prefix>_0`, `<prefix>_0_args`, …). Returns
// nil if neither form is present, which is valid for an optional
// wallet.
func parseBinarySpec(raw map[string]interface{}, prefix string) (*BinarySpec, error) {
	phaseIndices := map[int]bool{}
	for key := range raw {
		if key == prefix || !strings.HasPrefix(key, prefix+"_") {
			continue
		}
		rest := strings.TrimPrefix(key, prefix+"_")
		numPart := rest
		if idx := strings.IndexByte(rest, '_'); idx >= 0 {
			numPart = rest[:idx]
		}
		n, err := strconv.Atoi(numPart)
		if err != nil {
			continue
		}
		phaseIndices[n] = true
	}

	if len(phaseIndices) == 0 {
		path := toStringValue(raw[prefix])
		if path == "" {
			return nil, nil
		}
		return &BinarySpec{Phases: []BinaryPhase{{Index: 0, Path: path}}}, nil
	}

	indices := make([]int, 0, len(phaseIndices))
	for n := range phaseIndices {
		indices = append(indices, n)
	}
	sort.Ints(indices)

	phases := make([]BinaryPhase, 0, len(indices))
	for i, n := range indices {
		if n != i {
			return nil, errors.Errorf("phase indices must be consecutive from 0, got %v", indices)
		}
		phase := BinaryPhase{Index: n, Path: toStringValue(raw[fmt.Sprintf("%s_%d", prefix, n)])}
		if phase.Path == "" {
			return nil, errors.Errorf("phase %d missing binary path", n)
		}

		if argsRaw, ok := raw[fmt.Sprintf("%s_%d_args", prefix, n)]; ok {
			phase.Args = toStringSlice(argsRaw)
		}
		if envRaw, ok := raw[fmt.Sprintf("%s_%d_env", prefix, n)].(map[string]interface{}); ok {
			phase.Env = map[string]string{}
			for k, v := range envRaw {
				phase.Env[k] = toStringValue(v)
			}
		}
		if startRaw, ok := raw[fmt.Sprintf("%s_%d_start", prefix, n)]; ok {
			d, err := time.ParseDuration(toStringValue(startRaw))
			if err != nil {
				return nil, errors.Wrapf(err, "phase %d start", n)
			}
			phase.Start, phase.HasStart = d, true
		}
		if stopRaw, ok := raw[fmt.Sprintf("%s_%d_stop", prefix, n)]; ok {
			d, err := time.ParseDuration(toStringValue(stopRaw))
			if err != nil {
				return nil, errors.Wrapf(err, "phase %d stop", n)
			}
			phase.Stop, phase.HasStop = d, true
		}
		phases = append(phases, phase)
	}
	return &BinarySpec{Phases: phases}, nil
}

// minPhaseGap is the recommended minimum gap between a phase's stop
// and the next phase's start; violations are warned-on, not fatal.
const minPhaseGap = 30 * time.Second

// Validate checks the cross-field invariants that must hold before a
// scenario can be planned: fatal at plan time, with no partial
// manifest emitted.
func (s *Scenario) Validate() error {
	if s.General.StopTime <= 0 {
		return errors.New("config: general.stop_time must be positive")
	}
	if !s.Network.IsTopologyBased() && s.Network.Type == "" {
		return errors.New("config: network must set either type or topology")
	}
	switch s.Network.PeerMode {
	case "", "star", "mesh", "ring", "dag", "dynamic":
	default:
		return errors.Errorf("config: unsupported peer_mode %q", s.Network.PeerMode)
	}

	for name, cohort := range s.Agents {
		if cohort.Count <= 0 {
			return errors.Errorf("config: cohort %q: count must be positive", name)
		}
		if err := validatePhases(cohort.Daemon.Phases); err != nil {
			return errors.Wrapf(err, "config: cohort %q: daemon", name)
		}
		if cohort.Wallet != nil {
			if err := validatePhases(cohort.Wallet.Phases); err != nil {
				return errors.Wrapf(err, "config: cohort %q: wallet", name)
			}
		}
		if cohort.Attributes.IsMiner && cohort.MiningScript == "" {
			return errors.Errorf("config: cohort %q: is_miner set without mining_script", name)
		}
	}
	return nil
}

func validatePhases(phases []BinaryPhase) error {
	for i := 0; i+1 < len(phases); i++ {
		cur, next := phases[i], phases[i+1]
		if !cur.HasStop || !next.HasStart {
			continue
		}
		if cur.Stop >= next.Start {
			return errors.Errorf("phase %d stop (%s) must precede phase %d start (%s)", cur.Index, cur.Stop, next.Index, next.Start)
		}
		if next.Start-cur.Stop < minPhaseGap && log != nil {
			log.Warnf("phase %d->%d gap %s is below the recommended %s", cur.Index, next.Index, next.Start-cur.Stop, minPhaseGap)
		}
	}
	return nil
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case string:
		return strconv.Atoi(t)
	case nil:
		return 0, errors.New("missing value")
	default:
		return 0, errors.Errorf("cannot convert %T to int", v)
	}
}

func toStringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toStringSlice(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = toStringValue(e)
		}
		return out
	case string:
		return strings.Fields(t)
	default:
		return nil
	}
}
