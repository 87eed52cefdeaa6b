// The AllocationContext is the explicit mutable state of one batch run:
// rooms, nurses, waitlist, and the patient-to-room ledger. All assignment
// mutations flow through it so the one-assignment-per-patient and
// no-double-booking invariants are enforced in a single place.

package alloc

import (
	"fmt"
)

// AllocationContext carries the shared mutable resources of a run. The
// pipeline is single-threaded, so sequential processing — not locks —
// protects this state; a concurrent redesign would need to hand ownership
// to a single allocation goroutine before reusing it.
type AllocationContext struct {
	Patients []*Patient
	Rooms    []*Room
	Nurses   []*Nurse
	Waitlist *Waitlist

	roomsByID  map[string]*Room
	nursesByID map[string]*Nurse
	assigned   map[string]string // patient ID -> room ID
}

// NewAllocationContext wires the run state together and applies the load
// bias map to the roster.
func NewAllocationContext(patients []*Patient, rooms []*Room, nurses []*Nurse, bias map[string]float64) *AllocationContext {
	ctx := &AllocationContext{
		Patients:   patients,
		Rooms:      rooms,
		Nurses:     nurses,
		Waitlist:   NewWaitlist(),
		roomsByID:  make(map[string]*Room, len(rooms)),
		nursesByID: make(map[string]*Nurse, len(nurses)),
		assigned:   make(map[string]string),
	}
	for _, r := range rooms {
		ctx.roomsByID[r.ID] = r
	}
	for _, n := range nurses {
		n.LoadBias = bias[n.ID]
		ctx.nursesByID[n.ID] = n
	}
	return ctx
}

// Room returns the room with the given ID, or nil.
func (c *AllocationContext) Room(id string) *Room {
	return c.roomsByID[id]
}

// Nurse returns the nurse with the given ID, or nil.
func (c *AllocationContext) Nurse(id string) *Nurse {
	return c.nursesByID[id]
}

// CommitAssignment finalizes a room booking made by the RoomAllocator:
// the patient gets the room and window, the ledger records it. A patient
// assigned twice, or a room already committed to another patient, is an
// internal invariant breach and panics.
func (c *AllocationContext) CommitAssignment(p *Patient, r *Room) {
	if prev, ok := c.assigned[p.ID]; ok {
		panic(fmt.Sprintf("patient %s assigned twice: %s then %s", p.ID, prev, r.ID))
	}
	if r.PatientID != "" && r.PatientID != p.ID {
		panic(fmt.Sprintf("room %s double-booked: %s and %s", r.ID, r.PatientID, p.ID))
	}
	p.RoomID = r.ID
	p.Start = r.Start
	p.Stop = r.Stop
	p.State = PatientAssigned
	c.assigned[p.ID] = r.ID
}

// EnqueueWaitlist records an infeasible patient on the waitlist. A patient
// that already holds a room must never also be waitlisted.
func (c *AllocationContext) EnqueueWaitlist(p *Patient) *WaitlistEntry {
	if room, ok := c.assigned[p.ID]; ok {
		panic(fmt.Sprintf("patient %s waitlisted while holding room %s", p.ID, room))
	}
	p.State = PatientWaitlisted
	return c.Waitlist.Enqueue(p)
}

// ReleaseRoom frees a room (a stay ended between runs or an occupant was
// discharged) and returns it so the caller can retry the waitlist head.
// Unknown IDs return nil.
func (c *AllocationContext) ReleaseRoom(id string) *Room {
	r := c.roomsByID[id]
	if r == nil {
		return nil
	}
	if r.PatientID != "" {
		delete(c.assigned, r.PatientID)
	}
	r.Release()
	return r
}

// OccupiedRooms returns the rooms holding a patient, in roster order.
// This includes rooms carried over occupied from a previous chained run.
func (c *AllocationContext) OccupiedRooms() []*Room {
	var out []*Room
	for _, r := range c.Rooms {
		if r.Occupied() {
			out = append(out, r)
		}
	}
	return out
}

// AssignedRoom returns the room ID committed to the patient, if any.
func (c *AllocationContext) AssignedRoom(patientID string) (string, bool) {
	id, ok := c.assigned[patientID]
	return id, ok
}
