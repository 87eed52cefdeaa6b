package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_AppendGeneratesIDAndTimestamps(t *testing.T) {
	s := openTestStore(t)

	stored, err := s.Append(Entry{NurseID: "n1", ShiftDate: asOf, Overwhelmed: true})
	require.NoError(t, err)

	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.SubmittedAt.IsZero())
}

func TestStore_WindowRoundTripsEntries(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(Entry{ID: "e1", NurseID: "n1", ShiftDate: shiftsAgo(2), MissedVisits: 2, Comment: "double coverage"})
	require.NoError(t, err)
	_, err = s.Append(Entry{ID: "e2", NurseID: "n2", ShiftDate: shiftsAgo(1), Overwhelmed: true})
	require.NoError(t, err)

	entries, err := s.Window(asOf, DefaultLookback)
	require.NoError(t, err)

	// Oldest first
	require.Len(t, entries, 2)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, 2, entries[0].MissedVisits)
	assert.Equal(t, "double coverage", entries[0].Comment)
	assert.True(t, entries[1].Overwhelmed)
	assert.Equal(t, shiftsAgo(2).Unix(), entries[0].ShiftDate.Unix())
}

func TestStore_WindowExcludesStaleEntries(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(Entry{ID: "stale", NurseID: "n1", ShiftDate: shiftsAgo(30), Overwhelmed: true})
	require.NoError(t, err)
	_, err = s.Append(Entry{ID: "fresh", NurseID: "n1", ShiftDate: shiftsAgo(1), Overwhelmed: true})
	require.NoError(t, err)

	entries, err := s.Window(asOf, DefaultLookback)
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].ID)
}

func TestStore_LoadBiasMatchesComputeOverWindow(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(Entry{NurseID: "n1", ShiftDate: shiftsAgo(1), Overwhelmed: true, MissedVisits: 2})
	require.NoError(t, err)
	_, err = s.Append(Entry{NurseID: "n1", ShiftDate: shiftsAgo(30), Overwhelmed: true})
	require.NoError(t, err)

	bias, err := s.LoadBias(asOf, DefaultLookback)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"n1": 3.0}, bias)
}

func TestStore_DuplicateIDRejected(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Append(Entry{ID: "dup", NurseID: "n1", ShiftDate: time.Now()})
	require.NoError(t, err)
	_, err = s.Append(Entry{ID: "dup", NurseID: "n1", ShiftDate: time.Now()})
	assert.Error(t, err, "append-only log must reject id reuse")
}
