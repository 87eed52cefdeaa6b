package alloc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardsched/wardsched/alloc/events"
)

// orchestratorArtifact gates on acuity alone: sigmoid(-2 + acuity), so
// acuity 0 fails the gate and acuity 3 passes with probability ~0.73.
func orchestratorArtifact() *ModelArtifact {
	return &ModelArtifact{
		Version: "test",
		Features: []FeatureSpec{
			{Name: "acuity", Kind: FeatureNumeric},
			{Name: markerSepsis, Kind: FeatureCategorical, Categories: binaryCategories()},
			{Name: markerInfectious, Kind: FeatureCategorical, Categories: binaryCategories()},
		},
		BedNeed:      CoefficientModel{Intercept: -2, Weights: map[string]float64{"acuity": 1}},
		LengthOfStay: CoefficientModel{Intercept: 24, Weights: map[string]float64{"acuity": 30}},
	}
}

func intakeRow(id string, row int, fv FeatureVector) *Patient {
	return &Patient{ID: id, RowIndex: row, Features: fv, State: PatientPending, LengthOfStayHours: Unassigned, Start: Unassigned, Stop: Unassigned}
}

func mixedBatch() []*Patient {
	return []*Patient{
		intakeRow("critical", 0, FeatureVector{"acuity": "3", markerSepsis: "1"}),
		intakeRow("observation", 1, FeatureVector{"acuity": "3"}),
		intakeRow("walkout", 2, FeatureVector{"acuity": "0"}),
	}
}

func smallWard() []*Room {
	return []*Room{
		freeRoom("101", 1, RoomGeneral),
		freeRoom("102", 1, RoomGeneral),
		freeRoom("301", 3, RoomICU),
	}
}

func smallRoster() []*Nurse {
	return []*Nurse{
		NewNurse("n1", []string{CertGeneral, CertICU}, 0),
		NewNurse("n2", []string{CertGeneral}, 0),
	}
}

func runBatch(t *testing.T, seed int64, patients []*Patient, rooms []*Room, nurses []*Nurse) (*Result, *AllocationContext, *events.MemorySink) {
	t.Helper()
	sink := events.NewMemorySink(0)
	emitter := events.NewEmitter("test-run", sink, events.LogSink{})
	ac := NewAllocationContext(patients, rooms, nurses, nil)
	orch := NewOrchestrator(NewRunConfig(seed, 30, 0, 0), NewRiskScorer(orchestratorArtifact(), emitter), emitter)

	result, err := orch.Run(context.Background(), ac)
	require.NoError(t, err)
	require.Equal(t, StateComplete, orch.State())
	return result, ac, sink
}

func TestOrchestrator_MixedBatchEndToEnd(t *testing.T) {
	// GIVEN three patients (critical, observation, below-gate) and a ward
	// with two general rooms and one ICU room
	result, ac, sink := runBatch(t, 42, mixedBatch(), smallWard(), smallRoster())

	// THEN the critical patient lands in the ICU room, the observation
	// patient in a general room, and the below-gate patient has no bed
	byID := map[string]PatientView{}
	for _, pv := range result.Patients {
		byID[pv.PatientID] = pv
	}
	assert.Equal(t, "301", byID["critical"].RoomID)
	assert.Contains(t, []string{"101", "102"}, byID["observation"].RoomID)
	assert.Equal(t, string(PatientNoBed), byID["walkout"].State)
	assert.Equal(t, "", byID["walkout"].RoomID)

	assert.Equal(t, 2, result.AssignedCount())
	assert.Empty(t, result.WaitlistView)

	// Every occupied room received a visit schedule
	assert.True(t, result.VisitBlockCount() > 0)
	for _, room := range ac.OccupiedRooms() {
		covered := false
		for _, nv := range result.Nurses {
			for _, b := range nv.Visits {
				if b.RoomID == room.ID {
					covered = true
				}
			}
		}
		assert.True(t, covered, "occupied room %s has no visit blocks", room.ID)
	}

	// Event stream frames the run
	evs := sink.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, events.PipelineStart, evs[0].Type)
	assert.Equal(t, events.PipelineComplete, evs[len(evs)-1].Type)
	assert.Len(t, sink.ByType(events.PatientStart), 3)
	assert.Len(t, sink.ByType(events.PatientComplete), 3)
}

func TestOrchestrator_EachPatientAssignedAtMostOnce(t *testing.T) {
	_, ac, _ := runBatch(t, 42, mixedBatch(), smallWard(), smallRoster())

	roomsOf := map[string]string{}
	for _, p := range ac.Patients {
		if p.State != PatientAssigned {
			continue
		}
		roomID, ok := ac.AssignedRoom(p.ID)
		require.True(t, ok)
		for other, r := range roomsOf {
			assert.NotEqual(t, r, roomID, "patients %s and %s share room %s", other, p.ID, r)
		}
		roomsOf[p.ID] = roomID
	}
}

func TestOrchestrator_FullWardFeedsWaitlistInPriorityOrder(t *testing.T) {
	// GIVEN a ward whose only ICU room is already occupied and a single
	// free general room
	icu := freeRoom("301", 3, RoomICU)
	icu.Start, icu.Stop, icu.PatientID = 0, 72, "carryover"
	rooms := []*Room{icu, freeRoom("101", 1, RoomGeneral)}

	patients := []*Patient{
		intakeRow("obs-1", 0, FeatureVector{"acuity": "3"}),
		intakeRow("obs-2", 1, FeatureVector{"acuity": "3"}),
		intakeRow("crit-1", 2, FeatureVector{"acuity": "3", markerSepsis: "1"}),
	}

	result, _, _ := runBatch(t, 42, patients, rooms, smallRoster())

	// THEN the general room went to the first observation patient and the
	// waitlist ranks the critical patient first despite arriving last
	require.Len(t, result.WaitlistView, 2)
	assert.Equal(t, "crit-1", result.WaitlistView[0].PatientID)
	assert.Equal(t, 1, result.WaitlistView[0].Rank)
	assert.Equal(t, "obs-2", result.WaitlistView[1].PatientID)

	// The pre-occupied ICU room was still nurse-covered
	covered := false
	for _, nv := range result.Nurses {
		for _, b := range nv.Visits {
			if b.RoomID == "301" {
				covered = true
			}
		}
	}
	assert.True(t, covered, "carried-over occupancy must still be scheduled")
}

func TestOrchestrator_AmpleCapacityPlacesAllThreeDistinctly(t *testing.T) {
	// GIVEN three gate-passing patients and more compatible free rooms
	// than patients
	patients := []*Patient{
		intakeRow("a", 0, FeatureVector{"acuity": "3"}),
		intakeRow("b", 1, FeatureVector{"acuity": "3"}),
		intakeRow("c", 2, FeatureVector{"acuity": "3", markerSepsis: "1"}),
	}
	rooms := []*Room{
		freeRoom("101", 1, RoomGeneral), freeRoom("102", 1, RoomGeneral),
		freeRoom("201", 2, RoomGeneral), freeRoom("301", 3, RoomICU),
		freeRoom("302", 3, RoomICU),
	}

	result, _, _ := runBatch(t, 42, patients, rooms, smallRoster())

	// THEN everyone holds a distinct room and nobody waits
	assert.Equal(t, 3, result.AssignedCount())
	assert.Empty(t, result.WaitlistView)
	held := map[string]bool{}
	for _, pv := range result.Patients {
		require.NotEmpty(t, pv.RoomID, "patient %s has no room", pv.PatientID)
		assert.False(t, held[pv.RoomID], "room %s assigned twice", pv.RoomID)
		held[pv.RoomID] = true
	}
}

func TestOrchestrator_UncoveredRoomWarnsPastResetBuffer(t *testing.T) {
	// GIVEN a carried-over ICU occupancy of 1.5 hours and a roster with
	// nobody ICU-certified, so every slot in the window goes dark
	icu := freeRoom("301", 3, RoomICU)
	icu.Start, icu.Stop, icu.PatientID = 0, 1.5, "carryover"
	rooms := []*Room{icu}
	patients := []*Patient{intakeRow("walkout", 0, FeatureVector{"acuity": "0"})}
	roster := []*Nurse{NewNurse("general", []string{CertGeneral}, 0)}

	result, _, sink := runBatch(t, 42, patients, rooms, roster)

	// THEN the contiguous dark window reports as one gap three times the
	// half-hour reset buffer, and that overrun raises a warning
	require.Len(t, result.CoverageGaps, 1)
	assert.Equal(t, CoverageGap{RoomID: "301", Start: 0, Stop: 1.5}, result.CoverageGaps[0])

	warnings := sink.ByType(events.ValidationWarning)
	require.NotEmpty(t, warnings, "an uncovered window wider than the reset buffer must warn")
	assert.Equal(t, "301", warnings[0].Data["room_id"])
}

func TestOrchestrator_SlotSizedGapDoesNotWarn(t *testing.T) {
	// A single dark slot sits exactly at the reset buffer and stays quiet
	na := NewNurseAllocator(30, nil)
	na.Timeline().Add(NurseVisitBlock{NurseID: "iso", RoomID: "elsewhere", Start: 0.5, Stop: 1})
	iso := NewNurse("iso", []string{CertGeneral, CertIsolation}, 0)
	room := occupiedRoom("401", RoomIsolation, 0, 1.5)
	_, gaps := na.Schedule(room, []*Nurse{iso})
	require.Len(t, gaps, 1)

	buffer := NewRunConfig(42, 30, 0, 0).GapResetHours
	assert.False(t, gaps[0].Stop-gaps[0].Start > buffer+1e-9,
		"a one-slot gap must not exceed the one-slot reset buffer")
}

func TestOrchestrator_SameSeedReproducesAssignments(t *testing.T) {
	run := func() map[string]string {
		result, _, _ := runBatch(t, 7, mixedBatch(), smallWard(), smallRoster())
		out := map[string]string{}
		for _, pv := range result.Patients {
			out[pv.PatientID] = pv.RoomID
		}
		return out
	}

	assert.Equal(t, run(), run(), "identical seed and inputs must reproduce identical assignments")
}

func TestOrchestrator_ReleaseThenRetryPlacesWaitlistHead(t *testing.T) {
	// GIVEN a completed run that waitlisted a critical patient
	icu := freeRoom("301", 3, RoomICU)
	icu.Start, icu.Stop, icu.PatientID = 0, 72, "carryover"
	rooms := []*Room{icu}
	patients := []*Patient{intakeRow("crit-1", 0, FeatureVector{"acuity": "3", markerSepsis: "1"})}

	_, ac, _ := runBatch(t, 42, patients, rooms, smallRoster())
	require.Equal(t, 1, ac.Waitlist.Len())

	// WHEN the occupant leaves and the head is retried manually
	released := ac.ReleaseRoom("301")
	require.NotNil(t, released)
	entry := ac.Waitlist.Dequeue()
	p := patients[0]
	require.Equal(t, p.ID, entry.PatientID)

	ra := NewRoomAllocator(NewPartitionedRNG(NewRunKey(42)))
	room := ra.Assign(p, ac.Rooms)
	require.NotNil(t, room)
	ac.CommitAssignment(p, room)

	// THEN the patient holds the freed room
	assert.Equal(t, PatientAssigned, p.State)
	assert.Equal(t, "301", p.RoomID)
}
