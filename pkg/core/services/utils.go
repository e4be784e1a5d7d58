package services

import (
	"fmt"
	"time"

	"github.com/harborlight/rota/pkg/db"
)

// findLatestRotation returns the rotation with the most recent start
// date. Start dates are YYYY-MM-DD so string comparison orders them.
func findLatestRotation(rotations []db.Rotation) *db.Rotation {
	if len(rotations) == 0 {
		return nil
	}

	latest := &rotations[0]
	for i := range rotations {
		if rotations[i].Start > latest.Start {
			latest = &rotations[i]
		}
	}
	return latest
}

// findPreviousRotation returns the rotation immediately before the
// target, nil when the target is the first
func findPreviousRotation(rotations []db.Rotation, targetRota *db.Rotation) *db.Rotation {
	var previous *db.Rotation
	for i := range rotations {
		rota := &rotations[i]
		if rota.ID == targetRota.ID {
			continue
		}
		if rota.Start >= targetRota.Start {
			continue
		}
		if previous == nil || rota.Start > previous.Start {
			previous = rota
		}
	}
	return previous
}

// calculateShiftDates expands a rotation into its weekly shift dates
func calculateShiftDates(start string, shiftCount int) ([]time.Time, error) {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rota start date: %w", err)
	}

	shiftDates := make([]time.Time, shiftCount)
	for i := 0; i < shiftCount; i++ {
		shiftDates[i] = startDate.AddDate(0, 0, 7*i)
	}
	return shiftDates, nil
}

// filterAllocationsByRotaID keeps only the allocations belonging to the
// given rota
func filterAllocationsByRotaID(allocations []db.Allocation, rotaID string) []db.Allocation {
	filtered := make([]db.Allocation, 0)
	for _, allocation := range allocations {
		if allocation.RotaID == rotaID {
			filtered = append(filtered, allocation)
		}
	}
	return filtered
}

// filterActiveVolunteers keeps only roster volunteers who can be
// allocated
func filterActiveVolunteers(volunteers []db.Volunteer) []db.Volunteer {
	filtered := make([]db.Volunteer, 0, len(volunteers))
	for _, v := range volunteers {
		if v.Status == db.StatusActive {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
