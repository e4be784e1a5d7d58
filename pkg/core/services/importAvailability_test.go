package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harborlight/rota/pkg/db"
)

type mockImportStore struct {
	rotations         []db.Rotation
	volunteers        []db.Volunteer
	insertedResponses []db.AvailabilityResponse
	insertErr         error
}

func (m *mockImportStore) GetRotations(ctx context.Context) ([]db.Rotation, error) {
	return m.rotations, nil
}

func (m *mockImportStore) GetVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	return m.volunteers, nil
}

func (m *mockImportStore) InsertAvailabilityResponses(ctx context.Context, responses []db.AvailabilityResponse) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.insertedResponses = append(m.insertedResponses, responses...)
	return nil
}

func writeAvailabilityFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "availability.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func importStoreFixture() *mockImportStore {
	return &mockImportStore{
		rotations: []db.Rotation{
			{ID: "r1", Start: "2025-01-05", ShiftCount: 3},
		},
		volunteers: []db.Volunteer{
			{ID: "v1", Status: db.StatusActive},
			{ID: "v2", Status: db.StatusActive},
		},
	}
}

func TestImportAvailability_Success(t *testing.T) {
	store := importStoreFixture()
	path := writeAvailabilityFile(t, `
responses:
  - volunteerId: v1
    responded: true
    unavailableDates:
      - "2025-01-12"
  - volunteerId: v2
    responded: false
`)

	result, err := ImportAvailability(context.Background(), store, zap.NewNop(), path)

	require.NoError(t, err)
	assert.Equal(t, "r1", result.RotaID)
	assert.Equal(t, 2, result.ImportedCount)
	assert.Equal(t, 1, result.RespondedCount)

	require.Len(t, store.insertedResponses, 2)
	first := store.insertedResponses[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "r1", first.RotaID)
	assert.Equal(t, "v1", first.VolunteerID)
	assert.True(t, first.Responded)
	assert.Equal(t, []string{"2025-01-12"}, first.UnavailableDates)

	second := store.insertedResponses[1]
	assert.Equal(t, "v2", second.VolunteerID)
	assert.False(t, second.Responded)
	assert.Empty(t, second.UnavailableDates)
}

func TestImportAvailability_NoRotations(t *testing.T) {
	store := &mockImportStore{}
	path := writeAvailabilityFile(t, "responses:\n  - volunteerId: v1\n")

	_, err := ImportAvailability(context.Background(), store, zap.NewNop(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rotations found")
}

func TestImportAvailability_UnknownVolunteer(t *testing.T) {
	store := importStoreFixture()
	path := writeAvailabilityFile(t, `
responses:
  - volunteerId: ghost
    responded: true
`)

	_, err := ImportAvailability(context.Background(), store, zap.NewNop(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "volunteer ghost not found on roster")
	assert.Empty(t, store.insertedResponses)
}

func TestImportAvailability_DuplicateVolunteer(t *testing.T) {
	store := importStoreFixture()
	path := writeAvailabilityFile(t, `
responses:
  - volunteerId: v1
    responded: true
  - volunteerId: v1
    responded: false
`)

	_, err := ImportAvailability(context.Background(), store, zap.NewNop(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate response for volunteer v1")
}

func TestImportAvailability_DateOutsideRota(t *testing.T) {
	store := importStoreFixture()
	path := writeAvailabilityFile(t, `
responses:
  - volunteerId: v1
    responded: true
    unavailableDates:
      - "2025-06-01"
`)

	_, err := ImportAvailability(context.Background(), store, zap.NewNop(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "date 2025-06-01 is not a shift date")
}

func TestImportAvailability_EmptyFile(t *testing.T) {
	store := importStoreFixture()
	path := writeAvailabilityFile(t, "responses: []\n")

	_, err := ImportAvailability(context.Background(), store, zap.NewNop(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no responses")
}

func TestImportAvailability_MissingFile(t *testing.T) {
	store := importStoreFixture()

	_, err := ImportAvailability(context.Background(), store, zap.NewNop(), filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read availability file")
}

func TestImportAvailability_TargetsLatestRota(t *testing.T) {
	store := importStoreFixture()
	store.rotations = append(store.rotations, db.Rotation{ID: "r2", Start: "2025-02-02", ShiftCount: 2})
	path := writeAvailabilityFile(t, `
responses:
  - volunteerId: v1
    responded: true
    unavailableDates:
      - "2025-02-09"
`)

	result, err := ImportAvailability(context.Background(), store, zap.NewNop(), path)

	require.NoError(t, err)
	assert.Equal(t, "r2", result.RotaID)
}
