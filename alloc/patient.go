// Defines the Patient struct that models one incoming patient in a batch run.
// Tracks raw clinical features, derived risk outputs, and room assignment.

package alloc

import (
	"fmt"
)

// Unassigned is the sentinel for hour offsets and LOS values that have not
// been set. Patients and rooms start with Start/Stop = Unassigned.
const Unassigned = -1.0

// RiskCategory is the clinical severity tier used to gate room and nurse
// eligibility. Isolation is tracked separately on the patient because it
// compounds with any severity tier.
type RiskCategory string

const (
	CategoryGeneral     RiskCategory = "General"
	CategoryObservation RiskCategory = "Observation"
	CategoryCritical    RiskCategory = "Critical"
)

// Severity returns the ordering used by the waitlist: higher = more urgent.
func (c RiskCategory) Severity() int {
	switch c {
	case CategoryCritical:
		return 3
	case CategoryObservation:
		return 2
	case CategoryGeneral:
		return 1
	default:
		return 0
	}
}

// PatientState represents the lifecycle state of a patient within a run.
type PatientState string

const (
	PatientPending    PatientState = "pending"    // loaded, not yet scored
	PatientScored     PatientState = "scored"     // risk outputs set
	PatientNoBed      PatientState = "no_bed"     // below bed-need threshold
	PatientAssigned   PatientState = "assigned"   // holds a room
	PatientWaitlisted PatientState = "waitlisted" // no feasible room
)

// Patient models a single patient's lifecycle in a batch allocation run.
// Mutated only by the Risk Scorer (probability, LOS, category) and the
// Room Allocator (room, window); immutable afterwards within a run.
type Patient struct {
	ID       string         // encounter identifier from the CSV
	RowIndex int            // 0-based CSV row, also the arrival order
	Features FeatureVector  // raw clinical features keyed by column name

	State              PatientState
	BedNeedProbability float64      // model 1 output, 0..1
	LengthOfStayHours  float64      // model 2 output; Unassigned when not needing a bed
	Category           RiskCategory
	Isolation          bool // infection-control flag, compounds with Category

	RoomID string  // assigned room; empty until assigned
	Start  float64 // horizon-relative hour offset; Unassigned until assigned
	Stop   float64
}

// NeedsBed reports whether the bed-need gate passed for this patient.
func (p *Patient) NeedsBed() bool {
	return p.State != PatientPending && p.State != PatientNoBed
}

// RequiredRoomCategory maps the patient's risk tier and isolation flag to
// the room category that may hold them. Isolation dominates severity.
func (p *Patient) RequiredRoomCategory() RoomCategory {
	if p.Isolation {
		return RoomIsolation
	}
	if p.Category == CategoryCritical {
		return RoomICU
	}
	return RoomGeneral
}

func (p Patient) String() string {
	return fmt.Sprintf("Patient(ID: %s, State: %s, Prob: %.3f, Category: %s, Room: %q)",
		p.ID, p.State, p.BedNeedProbability, p.Category, p.RoomID)
}

// FeatureVector holds one patient's raw CSV cells keyed by column name.
// Values are kept as strings; encoding to model inputs happens in the
// scorer against the artifact's feature schema.
type FeatureVector map[string]string
