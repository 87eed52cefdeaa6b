// The Orchestrator drives one batch run through its stages: score every
// patient, assign rooms in CSV order, then schedule nurses for every
// occupied room. A run either completes with a full result set (waitlist
// entries and coverage gaps are valid, visible outcomes) or fails outright
// on a configuration or model error; there is no partial commit.

package alloc

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wardsched/wardsched/alloc/events"
)

// RunState is the orchestrator's stage machine. Transitions are strictly
// forward: Idle → ScoringPatients → AssigningRooms → SchedulingNurses →
// Complete, with Failed reachable from any working stage.
type RunState string

const (
	StateIdle             RunState = "Idle"
	StateScoringPatients  RunState = "ScoringPatients"
	StateAssigningRooms   RunState = "AssigningRooms"
	StateSchedulingNurses RunState = "SchedulingNurses"
	StateComplete         RunState = "Complete"
	StateFailed           RunState = "Failed"
)

// Orchestrator executes batch allocation runs.
type Orchestrator struct {
	cfg     RunConfig
	scorer  *RiskScorer
	emitter *events.Emitter

	state RunState
}

// NewOrchestrator creates an orchestrator ready to run one batch.
func NewOrchestrator(cfg RunConfig, scorer *RiskScorer, emitter *events.Emitter) *Orchestrator {
	return &Orchestrator{cfg: cfg, scorer: scorer, emitter: emitter, state: StateIdle}
}

// State returns the current run stage.
func (o *Orchestrator) State() RunState {
	return o.state
}

func (o *Orchestrator) transition(next RunState) {
	logrus.Infof("run %s: %s -> %s", o.emitter.RunID(), o.state, next)
	o.state = next
}

// Run executes the batch against the given context. On error the run is
// Failed and no output views are produced.
func (o *Orchestrator) Run(ctx context.Context, ac *AllocationContext) (*Result, error) {
	o.emitter.Emit(events.PipelineStart, map[string]any{
		"patients": len(ac.Patients),
		"rooms":    len(ac.Rooms),
		"nurses":   len(ac.Nurses),
		"seed":     o.cfg.Seed,
	})

	if err := o.scorePatients(ctx, ac); err != nil {
		o.transition(StateFailed)
		return nil, err
	}

	rng := NewPartitionedRNG(NewRunKey(o.cfg.Seed))
	o.assignRooms(ac, rng)

	nurseAlloc, gaps := o.scheduleNurses(ac)

	o.transition(StateComplete)
	result := BuildResult(o.emitter.RunID(), ac, nurseAlloc, gaps)
	o.emitter.Emit(events.PipelineComplete, map[string]any{
		"assigned":      result.AssignedCount(),
		"waitlisted":    len(result.WaitlistView),
		"visit_blocks":  result.VisitBlockCount(),
		"coverage_gaps": len(result.CoverageGaps),
	})
	return result, nil
}

// scorePatients runs the two-stage scorer over every patient in CSV order.
// A single model failure or timeout is fatal for the whole run: silently
// partial risk output is clinically unsafe.
func (o *Orchestrator) scorePatients(ctx context.Context, ac *AllocationContext) error {
	o.transition(StateScoringPatients)
	timeout := o.cfg.ModelCallTimeout
	if timeout <= 0 {
		timeout = DefaultModelCallTimeout
	}
	for _, p := range ac.Patients {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err := o.scorer.Score(callCtx, p)
		cancel()
		if err != nil {
			return fmt.Errorf("scoring patient %s: %w", p.ID, err)
		}
	}
	return nil
}

// assignRooms processes patients in CSV order, committing a room or a
// waitlist entry for each patient that needs a bed. After the pass it
// retries the waitlist opportunistically in priority order; within a
// single run rooms only fill, but chained state may hold rooms that a
// ReleaseRoom call freed before the retry.
func (o *Orchestrator) assignRooms(ac *AllocationContext, rng *PartitionedRNG) {
	o.transition(StateAssigningRooms)
	roomAlloc := NewRoomAllocator(rng)

	for _, p := range ac.Patients {
		o.emitter.Emit(events.PatientStart, map[string]any{"patient_id": p.ID})
		if p.State != PatientScored {
			o.emitter.Emit(events.PatientComplete, map[string]any{
				"patient_id": p.ID, "outcome": "no_bed",
			})
			continue
		}
		o.placeOrWaitlist(ac, roomAlloc, p)
	}

	o.retryWaitlist(ac, roomAlloc)
}

func (o *Orchestrator) placeOrWaitlist(ac *AllocationContext, roomAlloc *RoomAllocator, p *Patient) {
	if room := roomAlloc.Assign(p, ac.Rooms); room != nil {
		ac.CommitAssignment(p, room)
		o.emitter.Emit(events.PatientComplete, map[string]any{
			"patient_id": p.ID, "outcome": "assigned", "room_id": room.ID,
		})
		return
	}
	ac.EnqueueWaitlist(p)
	o.emitter.Emit(events.PatientComplete, map[string]any{
		"patient_id": p.ID, "outcome": "waitlisted",
	})
}

// retryWaitlist drains the waitlist once in priority order, re-enqueueing
// patients that remain infeasible. Relative order among survivors is
// preserved by the priority queue itself.
func (o *Orchestrator) retryWaitlist(ac *AllocationContext, roomAlloc *RoomAllocator) {
	pending := make([]*WaitlistEntry, 0, ac.Waitlist.Len())
	for ac.Waitlist.Len() > 0 {
		pending = append(pending, ac.Waitlist.Dequeue())
	}
	for _, entry := range pending {
		p := patientByID(ac.Patients, entry.PatientID)
		if p == nil {
			continue
		}
		if room := roomAlloc.Assign(p, ac.Rooms); room != nil {
			ac.CommitAssignment(p, room)
			o.emitter.Emit(events.PatientComplete, map[string]any{
				"patient_id": p.ID, "outcome": "assigned", "room_id": room.ID, "retried": true,
			})
			continue
		}
		ac.Waitlist.Enqueue(p)
	}
}

// scheduleNurses runs only after every room assignment is finalized, so the
// schedule carries no ordering bias from the assignment pass. Every
// occupied room — including rooms carried occupied from a chained run —
// gets a visit schedule. Gaps wider than the configured reset buffer emit
// a validation warning.
func (o *Orchestrator) scheduleNurses(ac *AllocationContext) (*NurseAllocator, []CoverageGap) {
	o.transition(StateSchedulingNurses)
	nurseAlloc := NewNurseAllocator(o.cfg.SlotMinutes, o.emitter)

	var all []CoverageGap
	for _, room := range ac.OccupiedRooms() {
		_, gaps := nurseAlloc.Schedule(room, ac.Nurses)
		all = append(all, gaps...)
		for _, g := range gaps {
			if g.Stop-g.Start > o.cfg.GapResetHours+1e-9 {
				o.emitter.Emit(events.ValidationWarning, map[string]any{
					"room_id": g.RoomID,
					"reason":  fmt.Sprintf("coverage gap [%.2f, %.2f) exceeds reset buffer %.2fh", g.Start, g.Stop, o.cfg.GapResetHours),
				})
			}
		}
	}
	return nurseAlloc, all
}

func patientByID(patients []*Patient, id string) *Patient {
	for _, p := range patients {
		if p.ID == id {
			return p
		}
	}
	return nil
}
