package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var asOf = time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)

func shiftsAgo(days int) time.Time {
	return asOf.AddDate(0, 0, -days)
}

func TestComputeLoadBias_SumsDeltasPerNurse(t *testing.T) {
	// GIVEN one overwhelmed shift and one shift with two missed visits for
	// the same nurse, plus an overwhelmed shift for another
	entries := []Entry{
		{NurseID: "n1", ShiftDate: shiftsAgo(1), Overwhelmed: true},
		{NurseID: "n1", ShiftDate: shiftsAgo(2), MissedVisits: 2},
		{NurseID: "n2", ShiftDate: shiftsAgo(3), Overwhelmed: true, MissedVisits: 1},
	}

	bias := ComputeLoadBias(entries, asOf, DefaultLookback)

	assert.Equal(t, 3.0, bias["n1"])
	assert.Equal(t, 2.0, bias["n2"])
}

func TestComputeLoadBias_MissedVisitsCappedPerEntry(t *testing.T) {
	entries := []Entry{
		{NurseID: "n1", ShiftDate: shiftsAgo(1), MissedVisits: 10},
	}

	bias := ComputeLoadBias(entries, asOf, DefaultLookback)
	assert.Equal(t, float64(MissedVisitsCap), bias["n1"])
}

func TestComputeLoadBias_OnlyLookbackWindowCounts(t *testing.T) {
	entries := []Entry{
		{NurseID: "stale", ShiftDate: shiftsAgo(8), Overwhelmed: true},
		{NurseID: "future", ShiftDate: asOf.Add(time.Hour), Overwhelmed: true},
		{NurseID: "fresh", ShiftDate: shiftsAgo(6), Overwhelmed: true},
	}

	bias := ComputeLoadBias(entries, asOf, DefaultLookback)

	assert.NotContains(t, bias, "stale")
	assert.NotContains(t, bias, "future")
	assert.Equal(t, 1.0, bias["fresh"])
}

func TestComputeLoadBias_QuietShiftsContributeNothing(t *testing.T) {
	entries := []Entry{
		{NurseID: "n1", ShiftDate: shiftsAgo(1), Comment: "all fine"},
	}

	bias := ComputeLoadBias(entries, asOf, DefaultLookback)
	assert.Empty(t, bias, "entries without overload signals must not appear at all")
}
