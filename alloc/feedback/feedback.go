// Package feedback converts nurse-reported overload and missed-visit
// reports into per-nurse load biases consumed by the next allocation run.
package feedback

import (
	"time"
)

// DefaultLookback is the trailing window an entry must fall in to count
// toward the bias.
const DefaultLookback = 7 * 24 * time.Hour

// Bias deltas. One overwhelmed shift adds OverwhelmedDelta; each missed
// visit adds MissedVisitDelta, capped at MissedVisitsCap per entry so a
// single bad shift cannot dominate a nurse's score indefinitely.
const (
	OverwhelmedDelta = 1.0
	MissedVisitDelta = 1.0
	MissedVisitsCap  = 3
)

// Entry is one nurse-submitted feedback record. Entries are append-only:
// they are aggregated to compute bias, never mutated.
type Entry struct {
	ID           string    `json:"id"`
	NurseID      string    `json:"nurse_id"`
	ShiftDate    time.Time `json:"shift_date"`
	Overwhelmed  bool      `json:"overwhelmed"`
	MissedVisits int       `json:"missed_visits"`
	Comment      string    `json:"comment"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// ComputeLoadBias aggregates qualifying entries into an additive,
// non-negative load bias per nurse. Only entries whose shift date falls
// within the trailing lookback window ending at asOf count; multiple
// qualifying entries for the same nurse sum.
func ComputeLoadBias(entries []Entry, asOf time.Time, lookback time.Duration) map[string]float64 {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	cutoff := asOf.Add(-lookback)

	bias := make(map[string]float64)
	for _, e := range entries {
		if e.ShiftDate.Before(cutoff) || e.ShiftDate.After(asOf) {
			continue
		}
		delta := 0.0
		if e.Overwhelmed {
			delta += OverwhelmedDelta
		}
		missed := e.MissedVisits
		if missed > MissedVisitsCap {
			missed = MissedVisitsCap
		}
		if missed > 0 {
			delta += float64(missed) * MissedVisitDelta
		}
		if delta > 0 {
			bias[e.NurseID] += delta
		}
	}
	return bias
}
