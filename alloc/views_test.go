package alloc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutput_ProducesAllDocuments(t *testing.T) {
	// GIVEN a finished run
	result, _, _ := runBatch(t, 42, mixedBatch(), smallWard(), smallRoster())
	dir := filepath.Join(t.TempDir(), "out")

	// WHEN output is written
	require.NoError(t, result.WriteOutput(dir))

	// THEN all four documents exist and the full document round-trips
	for _, name := range []string{"final_allocations.json", "patient_view.json", "nurse_view.json", "hospital_space.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "missing %s", name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "final_allocations.json"))
	require.NoError(t, err)
	var back Result
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, result.RunID, back.RunID)
	assert.Len(t, back.Patients, len(result.Patients))
}

func TestHospitalSpace_ChainsOccupancyIntoNextRun(t *testing.T) {
	// GIVEN a first run that filled the ICU room
	result, _, _ := runBatch(t, 42, mixedBatch(), smallWard(), smallRoster())
	dir := t.TempDir()
	require.NoError(t, result.WriteOutput(dir))

	// WHEN a fresh ward roster resumes from hospital_space.json
	views, err := LoadHospitalSpace(filepath.Join(dir, "hospital_space.json"))
	require.NoError(t, err)
	fresh := smallWard()
	ApplyHospitalSpace(fresh, views)

	// THEN the previously assigned rooms carry their windows and occupants
	byID := map[string]*Room{}
	for _, r := range fresh {
		byID[r.ID] = r
	}
	assert.True(t, byID["301"].Occupied())
	assert.Equal(t, "critical", byID["301"].PatientID)

	occupied := 0
	for _, r := range fresh {
		if r.Occupied() {
			occupied++
		}
	}
	assert.Equal(t, 2, occupied)
}

func TestLoadHospitalSpace_MissingOrMalformed(t *testing.T) {
	_, err := LoadHospitalSpace(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.IsType(t, &ConfigError{}, err)

	bad := filepath.Join(t.TempDir(), "space.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadHospitalSpace(bad)
	require.Error(t, err)
	assert.IsType(t, &ConfigError{}, err)
}

func TestApplyHospitalSpace_UnknownRoomsDropped(t *testing.T) {
	rooms := []*Room{freeRoom("101", 1, RoomGeneral)}
	ApplyHospitalSpace(rooms, []RoomView{
		{RoomID: "demolished", PatientID: "ghost", Start: 0, Stop: 24},
		{RoomID: "101", PatientID: "p1", Start: 0, Stop: 12},
	})

	assert.True(t, rooms[0].Occupied())
	assert.Equal(t, "p1", rooms[0].PatientID)
}
