package alloc

import (
	"hash/fnv"
	"math/rand"
)

// RunKey uniquely identifies a reproducible allocation run.
// Two runs with the same RunKey and identical inputs MUST produce
// identical assignments.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

const (
	// SubsystemRooms is the RNG subsystem for room tie-breaking.
	SubsystemRooms = "rooms"

	// SubsystemNurses is the RNG subsystem reserved for nurse selection.
	// Nurse tie-breaks are currently fully deterministic (load, recency,
	// lexicographic ID) so this stream is unused, but deriving it keeps
	// the room stream stable if randomized rotation is ever added.
	SubsystemNurses = "nurses"
)

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation: masterSeed XOR fnv1a64(subsystemName). Isolating streams means
// adding a random draw to one subsystem cannot perturb another subsystem's
// sequence between versions.
//
// Thread-safety: NOT thread-safe. The allocation pipeline is single-pass and
// single-goroutine; callers must not share this across goroutines.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
