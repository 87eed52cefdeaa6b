package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocationContext_BiasAppliedToRoster(t *testing.T) {
	nurses := []*Nurse{NewNurse("n1", []string{CertGeneral}, 1), NewNurse("n2", []string{CertGeneral}, 0)}
	ac := NewAllocationContext(nil, nil, nurses, map[string]float64{"n1": 2.5})

	assert.Equal(t, 3.5, ac.Nurse("n1").EffectiveLoad())
	assert.Equal(t, 0.0, ac.Nurse("n2").EffectiveLoad())
}

func TestAllocationContext_CommitInvariants(t *testing.T) {
	room := freeRoom("101", 1, RoomGeneral)
	other := freeRoom("102", 1, RoomGeneral)
	p := scoredPatient("p1", CategoryGeneral, 24)
	ac := NewAllocationContext([]*Patient{p}, []*Room{room, other}, nil, nil)

	room.Start, room.Stop, room.PatientID = 0, 24, "p1"
	ac.CommitAssignment(p, room)
	assert.Equal(t, PatientAssigned, p.State)
	assert.Equal(t, "101", p.RoomID)

	// A second room for the same patient is a programming error
	assert.Panics(t, func() { ac.CommitAssignment(p, other) })

	// So is committing another patient into a held room
	q := scoredPatient("p2", CategoryGeneral, 24)
	assert.Panics(t, func() { ac.CommitAssignment(q, room) })

	// And waitlisting a patient that holds a room
	assert.Panics(t, func() { ac.EnqueueWaitlist(p) })
}

func TestAllocationContext_ReleaseRoomClearsLedger(t *testing.T) {
	room := freeRoom("101", 1, RoomGeneral)
	p := scoredPatient("p1", CategoryGeneral, 24)
	ac := NewAllocationContext([]*Patient{p}, []*Room{room}, nil, nil)

	room.Start, room.Stop, room.PatientID = 0, 24, "p1"
	ac.CommitAssignment(p, room)
	require.True(t, room.Occupied())

	released := ac.ReleaseRoom("101")
	require.Same(t, room, released)
	assert.False(t, room.Occupied())
	_, held := ac.AssignedRoom("p1")
	assert.False(t, held)

	// Unknown rooms are a no-op
	assert.Nil(t, ac.ReleaseRoom("nope"))
}
