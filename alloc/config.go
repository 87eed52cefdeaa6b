package alloc

import "time"

// RunConfig groups the knobs of one batch allocation run. Zero values fall
// back to the documented defaults at the point of use.
type RunConfig struct {
	Seed             int64         // master seed for tie-break RNG
	SlotMinutes      int           // nurse visit granularity (15, 20, or 30)
	MaxPatients      int           // cap on patients allocated per run (default 25)
	StartIndex       int           // first CSV row to allocate (batched runs)
	ModelCallTimeout time.Duration // per-model-call deadline (default 30s)
	GapResetHours    float64       // max tolerated coverage gap before a warning (default one slot)
}

// DefaultMaxPatients caps a single run's batch when RunConfig.MaxPatients
// is zero.
const DefaultMaxPatients = 25

// DefaultModelCallTimeout bounds one model invocation. The models here are
// in-process coefficient evaluations, but the orchestrator still enforces
// the deadline so swapping in a remote model service cannot hang a run.
const DefaultModelCallTimeout = 30 * time.Second

// NewRunConfig builds a RunConfig applying defaults for zero values.
func NewRunConfig(seed int64, slotMinutes, maxPatients, startIndex int) RunConfig {
	cfg := RunConfig{
		Seed:             seed,
		SlotMinutes:      slotMinutes,
		MaxPatients:      maxPatients,
		StartIndex:       startIndex,
		ModelCallTimeout: DefaultModelCallTimeout,
	}
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = DefaultSlotMinutes
	}
	if cfg.MaxPatients <= 0 {
		cfg.MaxPatients = DefaultMaxPatients
	}
	if cfg.GapResetHours <= 0 {
		cfg.GapResetHours = float64(cfg.SlotMinutes) / 60.0
	}
	return cfg
}
