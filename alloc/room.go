package alloc

import "fmt"

// RoomCategory tags what a room is configured to hold. Isolation covers both
// isolation and negative-pressure spaces; the distinction does not change
// eligibility so it is not modeled separately.
type RoomCategory string

const (
	RoomGeneral   RoomCategory = "General"
	RoomICU       RoomCategory = "ICU"
	RoomIsolation RoomCategory = "Isolation"
)

// RequiredCertifications returns the certification set a nurse must hold to
// cover a room of this category. General rooms accept any certified nurse,
// expressed here as an empty requirement.
func (c RoomCategory) RequiredCertifications() []string {
	switch c {
	case RoomICU:
		return []string{CertICU}
	case RoomIsolation:
		return []string{CertIsolation}
	default:
		return nil
	}
}

// Accepts reports whether a room of this category may hold a patient that
// requires the given category. Requirements are hard: an Isolation patient
// only fits an Isolation room, a Critical patient only an ICU room.
func (c RoomCategory) Accepts(required RoomCategory) bool {
	return c == required
}

// Room models one bed space. Capacity is one patient at a time; the
// occupancy window is Start/Stop in horizon-relative hours, Unassigned
// when the room is free. Rooms are created from the roster and reused
// across runs (batch chaining restores their windows).
type Room struct {
	ID       string
	Floor    int
	Category RoomCategory

	Start float64 // occupancy window start; Unassigned when free
	Stop  float64 // occupancy window stop; Unassigned when free

	PatientID string // occupant; empty when free
}

// Occupied reports whether the room currently holds a patient.
func (r *Room) Occupied() bool {
	return r.Stop > 0
}

// NextAvailable returns the hour offset at which the room frees up:
// 0 for a free room, otherwise the end of the current occupancy.
func (r *Room) NextAvailable() float64 {
	if !r.Occupied() {
		return 0
	}
	return r.Stop
}

// Overlaps reports whether the room's occupancy window overlaps [start, stop).
func (r *Room) Overlaps(start, stop float64) bool {
	if !r.Occupied() {
		return false
	}
	return r.Start < stop && start < r.Stop
}

// Release clears the occupancy window. Used when a stay ends between
// batch runs and by the orchestrator's waitlist retry path.
func (r *Room) Release() {
	r.Start = Unassigned
	r.Stop = Unassigned
	r.PatientID = ""
}

func (r Room) String() string {
	return fmt.Sprintf("Room(ID: %s, Floor: %d, Category: %s, Window: [%.1f, %.1f))",
		r.ID, r.Floor, r.Category, r.Start, r.Stop)
}
