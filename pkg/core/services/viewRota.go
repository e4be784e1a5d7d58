package services

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/harborlight/rota/pkg/db"
)

// ViewRotaShift is one shift of a stored rota, assembled for display
type ViewRotaShift struct {
	Date          string
	TeamLead      string
	Volunteers    []string
	CustomEntries []string
}

// ViewRotaResult contains a stored rota ready for display
type ViewRotaResult struct {
	Rotation *db.Rotation
	Shifts   []ViewRotaShift
}

// ViewRotaStore defines the database operations needed for viewing a
// rota
type ViewRotaStore interface {
	GetRotations(ctx context.Context) ([]db.Rotation, error)
	GetVolunteers(ctx context.Context) ([]db.Volunteer, error)
	GetAllocations(ctx context.Context) ([]db.Allocation, error)
}

// ViewRota assembles the latest allocated rota's shifts from stored
// allocations. When rotaID is non-empty that rota is shown instead.
func ViewRota(ctx context.Context, database ViewRotaStore, logger *zap.Logger, rotaID string) (*ViewRotaResult, error) {
	rotations, err := database.GetRotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rotations: %w", err)
	}
	if len(rotations) == 0 {
		return nil, fmt.Errorf("no rotations found - please define a rota first")
	}

	var targetRota *db.Rotation
	if rotaID != "" {
		for i := range rotations {
			if rotations[i].ID == rotaID {
				targetRota = &rotations[i]
				break
			}
		}
		if targetRota == nil {
			return nil, fmt.Errorf("rotation %s not found", rotaID)
		}
	} else {
		// Latest rota that has actually been allocated
		var allocated []db.Rotation
		for _, r := range rotations {
			if r.AllocatedDatetime != "" {
				allocated = append(allocated, r)
			}
		}
		if len(allocated) == 0 {
			return nil, fmt.Errorf("no allocated rotations found - please run allocateRota first")
		}
		targetRota = findLatestRotation(allocated)
	}

	logger.Debug("Viewing rota",
		zap.String("id", targetRota.ID),
		zap.String("start", targetRota.Start))

	volunteers, err := database.GetVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteers: %w", err)
	}
	volunteersByID := make(map[string]db.Volunteer, len(volunteers))
	for _, v := range volunteers {
		volunteersByID[v.ID] = v
	}

	allAllocations, err := database.GetAllocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch allocations: %w", err)
	}
	allocations := filterAllocationsByRotaID(allAllocations, targetRota.ID)
	if len(allocations) == 0 {
		return nil, fmt.Errorf("no allocations found for rota %s", targetRota.ID)
	}

	shiftDates, err := calculateShiftDates(targetRota.Start, targetRota.ShiftCount)
	if err != nil {
		return nil, err
	}

	allocationsByDate := make(map[string][]db.Allocation)
	for _, a := range allocations {
		allocationsByDate[a.ShiftDate] = append(allocationsByDate[a.ShiftDate], a)
	}

	shifts := make([]ViewRotaShift, 0, len(shiftDates))
	for _, date := range shiftDates {
		dateStr := date.Format("2006-01-02")
		shift := ViewRotaShift{Date: dateStr}

		for _, a := range allocationsByDate[dateStr] {
			switch {
			case a.CustomEntry != "":
				shift.CustomEntries = append(shift.CustomEntries, a.CustomEntry)
			case a.Role == string(db.RoleTeamLead):
				shift.TeamLead = volunteerDisplayName(volunteersByID, a.VolunteerID)
			default:
				shift.Volunteers = append(shift.Volunteers, volunteerDisplayName(volunteersByID, a.VolunteerID))
			}
		}

		sort.Strings(shift.Volunteers)
		sort.Strings(shift.CustomEntries)
		shifts = append(shifts, shift)
	}

	return &ViewRotaResult{
		Rotation: targetRota,
		Shifts:   shifts,
	}, nil
}

func volunteerDisplayName(volunteersByID map[string]db.Volunteer, volunteerID string) string {
	if v, ok := volunteersByID[volunteerID]; ok {
		return v.FirstName + " " + v.LastName
	}
	return volunteerID
}
