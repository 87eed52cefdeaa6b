// Builds the nurse visit schedule for occupied rooms: the occupancy window
// is tiled with fixed-size slots across the 12-hour horizon, and each slot
// goes to the least-loaded qualified nurse who is free everywhere on her
// cross-room timeline.

package alloc

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/wardsched/wardsched/alloc/events"
)

// SchedulingHorizonHours bounds nurse scheduling: only the 12 hours
// following admission are covered, whatever the length of stay.
const SchedulingHorizonHours = 12.0

// DefaultSlotMinutes is the visit granularity when the scenario does not
// set one.
const DefaultSlotMinutes = 30

// CoverageGap records a maximal run of contiguous slots within a room's
// occupancy window that no eligible nurse could take. Gaps are reported,
// never thrown: partial coverage is a valid terminal state for a slot.
type CoverageGap struct {
	RoomID string  `json:"room"`
	Start  float64 `json:"start"`
	Stop   float64 `json:"stop"`
}

// NurseAllocator schedules visit blocks for occupied rooms. It owns the
// cross-room timeline and a run-wide assignment sequence used for the
// least-recently-assigned tie-break; one allocator instance serves the
// whole run so that rooms scheduled later see all earlier assignments.
type NurseAllocator struct {
	timeline    *NurseTimeline
	slotMinutes int
	emitter     *events.Emitter
	seq         int
}

// NewNurseAllocator creates an allocator with the given visit granularity
// (15, 20, or 30 minutes; 30 when zero).
func NewNurseAllocator(slotMinutes int, emitter *events.Emitter) *NurseAllocator {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	return &NurseAllocator{
		timeline:    NewNurseTimeline(),
		slotMinutes: slotMinutes,
		emitter:     emitter,
	}
}

// Timeline exposes the cross-room timeline for view building.
func (na *NurseAllocator) Timeline() *NurseTimeline {
	return na.timeline
}

// Schedule tiles the room's occupancy window (clipped to the 12-hour
// horizon) with visit slots and assigns each to a nurse. Returns the
// blocks in slot order plus any coverage gaps.
//
// Selection per slot: lowest effective load (base + bias + run-local),
// ties broken by least-recently-assigned, then lexicographic ID. The
// nurse who covered the immediately preceding slot in this room is passed
// over when another eligible nurse exists, so rooms see multiple faces
// across a stay.
func (na *NurseAllocator) Schedule(room *Room, roster []*Nurse) ([]NurseVisitBlock, []CoverageGap) {
	if !room.Occupied() {
		return nil, nil
	}
	na.emitter.Emit(events.NurseSchedulingStart, map[string]any{"room_id": room.ID})

	windowStart := room.Start
	if windowStart < 0 {
		windowStart = 0
	}
	windowStop := room.Stop
	if windowStop > SchedulingHorizonHours {
		windowStop = SchedulingHorizonHours
	}

	slotHours := float64(na.slotMinutes) / 60.0
	var blocks []NurseVisitBlock
	var gaps []CoverageGap
	prevNurse := ""

	// Index-based stepping avoids accumulating float error over many
	// 20-minute (1/3 hour) slots.
	for i := 0; ; i++ {
		start := windowStart + float64(i)*slotHours
		if start >= windowStop-1e-9 {
			break
		}
		stop := start + slotHours
		if stop > windowStop {
			stop = windowStop // truncate at the shift/horizon boundary
		}
		nurse := na.pick(room, roster, start, stop, prevNurse)
		if nurse == nil {
			// Consecutive uncoverable slots merge into one gap so the
			// reported span reflects how long the room is actually dark.
			if n := len(gaps); n > 0 && gaps[n-1].Stop >= start-1e-9 {
				gaps[n-1].Stop = stop
			} else {
				gaps = append(gaps, CoverageGap{RoomID: room.ID, Start: start, Stop: stop})
			}
			logrus.Warnf("room %s: no eligible nurse for slot [%.2f, %.2f), leaving gap", room.ID, start, stop)
			prevNurse = ""
			continue
		}
		block := NurseVisitBlock{NurseID: nurse.ID, RoomID: room.ID, Start: start, Stop: stop}
		na.timeline.Add(block)
		nurse.recordAssignment(na.seq)
		na.seq++
		blocks = append(blocks, block)
		prevNurse = nurse.ID
	}

	na.emitter.Emit(events.NurseSchedulingComplete, map[string]any{
		"room_id": room.ID,
		"blocks":  len(blocks),
		"gaps":    len(gaps),
	})
	return blocks, gaps
}

// pick selects the nurse for one slot, or nil when nobody qualified is
// free. prevNurse is deprioritized but remains a last resort.
func (na *NurseAllocator) pick(room *Room, roster []*Nurse, start, stop float64, prevNurse string) *Nurse {
	var eligible []*Nurse
	for _, n := range roster {
		if !n.Qualified(room.Category) {
			continue
		}
		if !na.timeline.Free(n.ID, start, stop) {
			continue
		}
		eligible = append(eligible, n)
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].EffectiveLoad() != eligible[j].EffectiveLoad() {
			return eligible[i].EffectiveLoad() < eligible[j].EffectiveLoad()
		}
		if eligible[i].lastAssigned != eligible[j].lastAssigned {
			return eligible[i].lastAssigned < eligible[j].lastAssigned
		}
		return eligible[i].ID < eligible[j].ID
	})

	best := eligible[0]
	if best.ID == prevNurse && len(eligible) > 1 {
		best = eligible[1]
	}
	return best
}
