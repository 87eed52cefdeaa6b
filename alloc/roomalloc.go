// Assigns patients needing a bed to specific rooms under category and
// occupancy constraints, with a floor round-robin and seeded-random
// tie-break. Infeasible patients go to the waitlist instead of failing
// the batch.

package alloc

import (
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
)

// RoomAllocator matches one patient at a time against the room pool.
// It alternates assignments across the two lowest floors holding eligible
// rooms to spread load, then breaks remaining ties uniformly at random
// among the earliest-available candidates using the run's seeded RNG, so
// identical seed and inputs reproduce identical assignments.
type RoomAllocator struct {
	rng *rand.Rand

	// lastFloor is the floor that received the previous assignment,
	// or -1 before the first one.
	lastFloor int
}

// NewRoomAllocator creates an allocator drawing tie-breaks from the rooms
// RNG subsystem.
func NewRoomAllocator(rng *PartitionedRNG) *RoomAllocator {
	return &RoomAllocator{
		rng:       rng.ForSubsystem(SubsystemRooms),
		lastFloor: -1,
	}
}

// Assign books a room for the patient or returns nil when no eligible room
// is free for the patient's required window [0, LOS). The chosen room's
// occupancy window is updated in place; patient fields are set by the
// caller so that assignment state stays in one place (the context).
func (ra *RoomAllocator) Assign(p *Patient, rooms []*Room) *Room {
	required := p.RequiredRoomCategory()
	stop := p.LengthOfStayHours

	var eligible []*Room
	for _, r := range rooms {
		if !r.Category.Accepts(required) {
			continue
		}
		if r.Overlaps(0, stop) {
			continue
		}
		eligible = append(eligible, r)
	}
	if len(eligible) == 0 {
		logrus.Infof("patient %s: no eligible %s room free, waitlisting", p.ID, required)
		return nil
	}

	candidates := ra.preferFloor(eligible)
	candidates = earliestAvailable(candidates)

	chosen := candidates[ra.rng.Intn(len(candidates))]
	chosen.Start = 0
	chosen.Stop = stop
	chosen.PatientID = p.ID
	ra.lastFloor = chosen.Floor
	logrus.Infof("patient %s -> room %s (floor %d, %s) for %.0fh", p.ID, chosen.ID, chosen.Floor, chosen.Category, stop)
	return chosen
}

// preferFloor narrows candidates to one floor when the eligible set spans
// the two lowest floors: whichever of the pair did not take the previous
// assignment goes first (round-robin). Single-floor sets pass through.
func (ra *RoomAllocator) preferFloor(eligible []*Room) []*Room {
	floors := distinctFloors(eligible)
	if len(floors) < 2 {
		return eligible
	}
	lo, hi := floors[0], floors[1]
	want := lo
	if ra.lastFloor == lo {
		want = hi
	}
	var narrowed []*Room
	for _, r := range eligible {
		if r.Floor == want {
			narrowed = append(narrowed, r)
		}
	}
	if len(narrowed) == 0 {
		return eligible
	}
	return narrowed
}

// earliestAvailable keeps the candidates whose next-available slot is
// minimal. With single-occupancy windows starting at 0 this is usually all
// free rooms, but chained runs carry partial windows forward.
func earliestAvailable(rooms []*Room) []*Room {
	best := rooms[0].NextAvailable()
	for _, r := range rooms[1:] {
		if na := r.NextAvailable(); na < best {
			best = na
		}
	}
	var out []*Room
	for _, r := range rooms {
		if r.NextAvailable() == best {
			out = append(out, r)
		}
	}
	return out
}

// distinctFloors returns the sorted distinct floor numbers of the rooms.
func distinctFloors(rooms []*Room) []int {
	seen := make(map[int]bool)
	var floors []int
	for _, r := range rooms {
		if !seen[r.Floor] {
			seen[r.Floor] = true
			floors = append(floors, r.Floor)
		}
	}
	sort.Ints(floors)
	return floors
}
