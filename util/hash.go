package util

import "hash/fnv"

// StableHash returns a fixed, non-randomized hash of s. Go's built-in
// map iteration order and string hashing are both randomized per
// process by design (hash/maphash is explicitly seeded from a runtime
// random source), so neither can back the
// agent_seed = global_seed + stable_hash(agent_id) construction, which
// must produce the same value on every run and every machine.
// FNV-1a is the standard library's one allocation-free, dependency-free
// hash with no seeding step, making it the natural fit here; no
// third-party hash library appears anywhere in the example pack to
// suggest an ecosystem alternative.
func StableHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// AgentSeed derives a per-agent deterministic RNG seed from the global
// simulation seed and the agent's id.
func AgentSeed(globalSeed int64, agentID string) int64 {
	return globalSeed + int64(StableHash(agentID))
}
