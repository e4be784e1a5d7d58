package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborlight/rota/pkg/db"
)

func TestFindLatestRotation(t *testing.T) {
	rotations := []db.Rotation{
		{ID: "r1", Start: "2025-01-05"},
		{ID: "r3", Start: "2025-03-02"},
		{ID: "r2", Start: "2025-02-02"},
	}

	latest := findLatestRotation(rotations)

	require.NotNil(t, latest)
	assert.Equal(t, "r3", latest.ID)
}

func TestFindLatestRotation_Empty(t *testing.T) {
	assert.Nil(t, findLatestRotation([]db.Rotation{}))
}

func TestFindPreviousRotation(t *testing.T) {
	rotations := []db.Rotation{
		{ID: "r1", Start: "2025-01-05"},
		{ID: "r2", Start: "2025-02-02"},
		{ID: "r3", Start: "2025-03-02"},
	}

	previous := findPreviousRotation(rotations, &rotations[2])

	require.NotNil(t, previous)
	assert.Equal(t, "r2", previous.ID)
}

func TestFindPreviousRotation_TargetIsFirst(t *testing.T) {
	rotations := []db.Rotation{
		{ID: "r1", Start: "2025-01-05"},
		{ID: "r2", Start: "2025-02-02"},
	}

	assert.Nil(t, findPreviousRotation(rotations, &rotations[0]))
}

func TestFindPreviousRotation_IgnoresLaterRotations(t *testing.T) {
	rotations := []db.Rotation{
		{ID: "r1", Start: "2025-01-05"},
		{ID: "r2", Start: "2025-02-02"},
		{ID: "r3", Start: "2025-03-02"},
	}

	previous := findPreviousRotation(rotations, &rotations[1])

	require.NotNil(t, previous)
	assert.Equal(t, "r1", previous.ID)
}

func TestCalculateShiftDates(t *testing.T) {
	dates, err := calculateShiftDates("2025-01-05", 3)

	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), dates[0])
	assert.Equal(t, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), dates[1])
	assert.Equal(t, time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC), dates[2])
}

func TestCalculateShiftDates_BadStartDate(t *testing.T) {
	_, err := calculateShiftDates("05/01/2025", 3)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rota start date")
}

func TestFilterAllocationsByRotaID(t *testing.T) {
	allocations := []db.Allocation{
		{ID: "a1", RotaID: "r1"},
		{ID: "a2", RotaID: "r2"},
		{ID: "a3", RotaID: "r1"},
	}

	filtered := filterAllocationsByRotaID(allocations, "r1")

	require.Len(t, filtered, 2)
	assert.Equal(t, "a1", filtered[0].ID)
	assert.Equal(t, "a3", filtered[1].ID)
}

func TestFilterActiveVolunteers(t *testing.T) {
	volunteers := []db.Volunteer{
		{ID: "v1", Status: db.StatusActive},
		{ID: "v2", Status: db.StatusInactive},
		{ID: "v3", Status: db.StatusActive},
	}

	active := filterActiveVolunteers(volunteers)

	require.Len(t, active, 2)
	assert.Equal(t, "v1", active[0].ID)
	assert.Equal(t, "v3", active[1].ID)
}
