package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/harborlight/rota/internal/config"
	"github.com/harborlight/rota/pkg/core/allocator"
	"github.com/harborlight/rota/pkg/core/allocator/criteria"
	"github.com/harborlight/rota/pkg/db"
)

const (
	// Built-in ranking weights for volunteer group prioritization

	// WeightCurrentRotaUrgency scores how hard a group is to schedule
	// within this rota. Difficult groups are allocated first so they get
	// the shifts they can actually make.
	WeightCurrentRotaUrgency = 1

	// WeightOverallFrequencyFairness scores how far behind its target
	// frequency a group is, counting previous rotas.
	WeightOverallFrequencyFairness = 1

	// WeightPromoteGroup bumps multi-member groups over individuals.
	// Group size does not affect the score.
	WeightPromoteGroup = 1

	// Criterion weights: the first value scales group ranking, the second
	// scales shift selection

	WeightShiftSizeGroup    = 2.0
	WeightShiftSizeAffinity = 2.0

	WeightTeamLeadGroup    = 0.5
	WeightTeamLeadAffinity = 2.0

	WeightMaleBalanceGroup    = 0.5
	WeightMaleBalanceAffinity = 1.0

	WeightNoDoubleShiftsAffinity = 1.0

	WeightShiftSpreadAffinity = 0.5
)

// AllocateRotaResult contains the allocation results
type AllocateRotaResult struct {
	RotaID              string
	RotaStart           string
	ShiftCount          int
	ShiftDates          []time.Time
	Success             bool
	Saved               bool
	AllocatedShifts     []*allocator.Shift
	ValidationErrors    []allocator.ShiftValidationError
	UnderutilizedGroups []*allocator.VolunteerGroup
}

// AllocateRotaStore defines the database operations needed for
// allocating a rota
type AllocateRotaStore interface {
	GetRotations(ctx context.Context) ([]db.Rotation, error)
	GetVolunteers(ctx context.Context) ([]db.Volunteer, error)
	GetAvailabilityResponses(ctx context.Context) ([]db.AvailabilityResponse, error)
	GetAllocations(ctx context.Context) ([]db.Allocation, error)
	InsertAllocations(ctx context.Context, allocations []db.Allocation) error
	SetRotationAllocatedDatetime(ctx context.Context, rotaID string, datetime time.Time) error
}

// AllocateRota runs the allocation engine against the latest rota.
// With dryRun the result is never saved; with forceCommit it is saved
// even when validation fails.
func AllocateRota(
	ctx context.Context,
	database AllocateRotaStore,
	cfg *config.Config,
	logger *zap.Logger,
	dryRun bool,
	forceCommit bool,
) (*AllocateRotaResult, error) {
	logger.Debug("Starting allocateRota",
		zap.Bool("dry_run", dryRun),
		zap.Bool("force_commit", forceCommit))

	rotations, err := database.GetRotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rotations: %w", err)
	}
	if len(rotations) == 0 {
		return nil, fmt.Errorf("no rotations found - please define a rota first")
	}

	targetRota := findLatestRotation(rotations)
	logger.Debug("Using latest rota",
		zap.String("id", targetRota.ID),
		zap.String("start", targetRota.Start),
		zap.Int("shift_count", targetRota.ShiftCount))

	shiftDates, err := calculateShiftDates(targetRota.Start, targetRota.ShiftCount)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetching availability responses")
	allResponses, err := database.GetAvailabilityResponses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability responses: %w", err)
	}

	responsesForRota := make([]db.AvailabilityResponse, 0, len(allResponses))
	for _, r := range allResponses {
		if r.RotaID == targetRota.ID {
			responsesForRota = append(responsesForRota, r)
		}
	}
	logger.Debug("Filtered responses for target rota", zap.Int("count", len(responsesForRota)))

	if len(responsesForRota) == 0 {
		return nil, fmt.Errorf("no availability responses found for rota %s - please run importAvailability first", targetRota.ID)
	}

	logger.Debug("Fetching volunteers")
	allVolunteers, err := database.GetVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteers: %w", err)
	}

	activeVolunteers := filterActiveVolunteers(allVolunteers)
	logger.Debug("Active volunteers",
		zap.Int("total", len(allVolunteers)),
		zap.Int("active", len(activeVolunteers)))

	allocatorVolunteers := convertToAllocatorVolunteers(activeVolunteers)

	availability := convertAvailabilityResponses(responsesForRota, shiftDates)

	shiftDateStrings := make([]string, len(shiftDates))
	for i, date := range shiftDates {
		shiftDateStrings[i] = date.Format("2006-01-02")
	}

	logger.Debug("Building historical shifts")
	historicalShifts, err := buildHistoricalShifts(ctx, database, rotations, targetRota, allocatorVolunteers, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build historical shifts: %w", err)
	}
	logger.Debug("Built historical shifts", zap.Int("count", len(historicalShifts)))

	allocationCriteria := []allocator.Criterion{
		criteria.NewShiftSizeCriterion(WeightShiftSizeGroup, WeightShiftSizeAffinity),
		criteria.NewTeamLeadCriterion(WeightTeamLeadGroup, WeightTeamLeadAffinity),
		criteria.NewMaleBalanceCriterion(WeightMaleBalanceGroup, WeightMaleBalanceAffinity),
		criteria.NewNoDoubleShiftsCriterion(0, WeightNoDoubleShiftsAffinity),
		criteria.NewShiftSpreadCriterion(WeightShiftSpreadAffinity),
	}

	logger.Debug("Converting rota overrides", zap.Int("count", len(cfg.RotaOverrides)))
	allocatorOverrides, err := convertRotaOverrides(cfg.RotaOverrides, shiftDates, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to convert rota overrides: %w", err)
	}

	allocConfig := allocator.AllocationConfig{
		Criteria:                       allocationCriteria,
		MaxAllocationFrequency:         cfg.MaxAllocationFrequency,
		HistoricalShifts:               historicalShifts,
		Volunteers:                     allocatorVolunteers,
		Availability:                   availability,
		ShiftDates:                     shiftDateStrings,
		DefaultShiftSize:               cfg.DefaultShiftSize,
		Overrides:                      allocatorOverrides,
		WeightCurrentRotaUrgency:       WeightCurrentRotaUrgency,
		WeightOverallFrequencyFairness: WeightOverallFrequencyFairness,
		WeightPromoteGroup:             WeightPromoteGroup,
	}

	logger.Info("Running allocation algorithm")
	outcome, err := allocator.Allocate(allocConfig)
	if err != nil {
		return nil, fmt.Errorf("allocation failed: %w", err)
	}

	logger.Info("Allocation completed",
		zap.Bool("success", outcome.Success),
		zap.Int("validation_errors", len(outcome.ValidationErrors)),
		zap.Int("underutilized_groups", len(outcome.UnderutilizedGroups)))

	for _, verr := range outcome.ValidationErrors {
		logger.Warn("Validation error",
			zap.String("criterion", verr.CriterionName),
			zap.Int("shift_index", verr.ShiftIndex),
			zap.String("shift_date", verr.ShiftDate),
			zap.String("description", verr.Description))
	}

	shouldSave := !dryRun && (outcome.Success || forceCommit)

	if shouldSave {
		logger.Info("Saving allocations to database",
			zap.Bool("success", outcome.Success),
			zap.Bool("forced", forceCommit && !outcome.Success))
		dbAllocations := convertToDBAllocations(targetRota.ID, outcome.State.Shifts)
		if err := database.InsertAllocations(ctx, dbAllocations); err != nil {
			return nil, fmt.Errorf("failed to save allocations: %w", err)
		}
		if err := database.SetRotationAllocatedDatetime(ctx, targetRota.ID, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to mark rotation allocated: %w", err)
		}
		logger.Info("Allocations saved", zap.Int("count", len(dbAllocations)))
	} else if dryRun {
		logger.Info("Dry run mode - allocations not saved")
	} else {
		logger.Warn("Allocation unsuccessful - not saving to database (use --force-commit to save anyway)")
	}

	return &AllocateRotaResult{
		RotaID:              targetRota.ID,
		RotaStart:           targetRota.Start,
		ShiftCount:          targetRota.ShiftCount,
		ShiftDates:          shiftDates,
		Success:             outcome.Success,
		Saved:               shouldSave,
		AllocatedShifts:     outcome.State.Shifts,
		ValidationErrors:    outcome.ValidationErrors,
		UnderutilizedGroups: outcome.UnderutilizedGroups,
	}, nil
}

// convertAvailabilityResponses turns stored responses into the
// allocator's availability format, mapping unavailable dates to shift
// indices. Dates not in the rota are ignored; imports are validated
// against the rota so a mismatch here means the rota changed since.
func convertAvailabilityResponses(responses []db.AvailabilityResponse, shiftDates []time.Time) []allocator.VolunteerAvailability {
	indexByDate := make(map[string]int, len(shiftDates))
	for i, date := range shiftDates {
		indexByDate[date.Format("2006-01-02")] = i
	}

	availability := make([]allocator.VolunteerAvailability, 0, len(responses))
	for _, resp := range responses {
		unavailableIndices := make([]int, 0, len(resp.UnavailableDates))
		for _, date := range resp.UnavailableDates {
			if idx, ok := indexByDate[date]; ok {
				unavailableIndices = append(unavailableIndices, idx)
			}
		}

		availability = append(availability, allocator.VolunteerAvailability{
			VolunteerID:             resp.VolunteerID,
			HasResponded:            resp.Responded,
			UnavailableShiftIndices: unavailableIndices,
		})
	}

	return availability
}

// convertToAllocatorVolunteers converts roster records to the
// allocator's volunteer type
func convertToAllocatorVolunteers(volunteers []db.Volunteer) []allocator.Volunteer {
	result := make([]allocator.Volunteer, len(volunteers))
	for i, vol := range volunteers {
		result[i] = allocator.Volunteer{
			ID:         vol.ID,
			FirstName:  vol.FirstName,
			LastName:   vol.LastName,
			Gender:     vol.Gender,
			IsTeamLead: vol.Role == db.RoleTeamLead,
			GroupKey:   vol.GroupKey,
		}
	}
	return result
}

// convertToDBAllocations flattens allocated shifts into database
// allocation records
func convertToDBAllocations(rotaID string, shifts []*allocator.Shift) []db.Allocation {
	allocations := make([]db.Allocation, 0)

	for _, shift := range shifts {
		for _, group := range shift.AllocatedGroups {
			for _, member := range group.Members {
				// The designated team lead gets their own record below
				if shift.TeamLead != nil && member.ID == shift.TeamLead.ID {
					continue
				}

				allocations = append(allocations, db.Allocation{
					ID:          uuid.New().String(),
					RotaID:      rotaID,
					ShiftDate:   shift.Date,
					Role:        string(db.RoleVolunteer),
					VolunteerID: member.ID,
				})
			}
		}

		if shift.TeamLead != nil {
			allocations = append(allocations, db.Allocation{
				ID:          uuid.New().String(),
				RotaID:      rotaID,
				ShiftDate:   shift.Date,
				Role:        string(db.RoleTeamLead),
				VolunteerID: shift.TeamLead.ID,
			})
		}

		for _, customEntry := range shift.CustomPreallocations {
			allocations = append(allocations, db.Allocation{
				ID:          uuid.New().String(),
				RotaID:      rotaID,
				ShiftDate:   shift.Date,
				Role:        string(db.RoleVolunteer),
				CustomEntry: customEntry,
			})
		}
	}

	return allocations
}

// convertRotaOverrides turns config overrides into allocator overrides,
// expanding each rrule into a date predicate over the rota's range
func convertRotaOverrides(configOverrides []config.RotaOverride, shiftDates []time.Time, logger *zap.Logger) ([]allocator.ShiftOverride, error) {
	result := make([]allocator.ShiftOverride, 0, len(configOverrides))

	var rotaStart, rotaEnd time.Time
	if len(shiftDates) > 0 {
		rotaStart = shiftDates[0]
		rotaEnd = shiftDates[len(shiftDates)-1]
	}

	for i, override := range configOverrides {
		rule, err := rrule.StrToRRule(override.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for override %d: %w", i, err)
		}

		ruleForClosure := rule
		appliesTo := func(dateStr string) bool {
			// Search a week past each end of the rota so boundary shifts
			// still match
			searchStart := rotaStart.AddDate(0, 0, -7)
			searchEnd := rotaEnd.AddDate(0, 0, 7)

			ruleForClosure.DTStart(searchStart)

			for _, occurrence := range ruleForClosure.Between(searchStart, searchEnd, true) {
				if occurrence.Format("2006-01-02") == dateStr {
					return true
				}
			}
			return false
		}

		result = append(result, allocator.ShiftOverride{
			AppliesTo:                appliesTo,
			ShiftSize:                override.ShiftSize,
			CustomPreallocations:     override.CustomPreallocations,
			Closed:                   override.Closed,
			PreallocatedVolunteerIDs: override.PreallocatedVolunteerIDs,
			PreallocatedTeamLeadID:   override.PreallocatedTeamLeadID,
		})

		logger.Debug("Converted override",
			zap.Int("index", i),
			zap.String("rrule", override.RRule),
			zap.Bool("closed", override.Closed),
			zap.Bool("has_shift_size", override.ShiftSize != nil),
			zap.Int("custom_preallocations", len(override.CustomPreallocations)),
			zap.Int("preallocated_volunteers", len(override.PreallocatedVolunteerIDs)))
	}

	return result, nil
}

// buildHistoricalShifts reconstructs the previous rota's shifts from its
// stored allocations, for frequency fairness and cross-rota adjacency.
// Only Date and AllocatedGroups are populated. Inactive volunteers and
// custom entries are dropped.
func buildHistoricalShifts(
	ctx context.Context,
	database AllocateRotaStore,
	allRotations []db.Rotation,
	targetRota *db.Rotation,
	activeVolunteers []allocator.Volunteer,
	logger *zap.Logger,
) ([]*allocator.Shift, error) {
	previousRota := findPreviousRotation(allRotations, targetRota)
	if previousRota == nil {
		logger.Info("No previous rota found, historical shifts will be empty")
		return []*allocator.Shift{}, nil
	}

	logger.Debug("Found previous rota",
		zap.String("id", previousRota.ID),
		zap.String("start", previousRota.Start))

	allAllocations, err := database.GetAllocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch allocations: %w", err)
	}

	previousRotaAllocations := filterAllocationsByRotaID(allAllocations, previousRota.ID)
	if len(previousRotaAllocations) == 0 {
		logger.Info("No allocations found in previous rota")
		return []*allocator.Shift{}, nil
	}

	volunteersByID := make(map[string]allocator.Volunteer)
	for _, vol := range activeVolunteers {
		volunteersByID[vol.ID] = vol
	}

	allocationsByDate := make(map[string][]db.Allocation)
	for _, allocation := range previousRotaAllocations {
		if allocation.VolunteerID == "" {
			continue
		}
		if _, isActive := volunteersByID[allocation.VolunteerID]; !isActive {
			continue
		}
		allocationsByDate[allocation.ShiftDate] = append(allocationsByDate[allocation.ShiftDate], allocation)
	}

	// Shift order matters for cross-rota adjacency, so walk the previous
	// rota's dates in sequence rather than ranging over the map
	previousDates, err := calculateShiftDates(previousRota.Start, previousRota.ShiftCount)
	if err != nil {
		return nil, err
	}

	historicalShifts := make([]*allocator.Shift, 0, len(previousDates))
	for _, date := range previousDates {
		dateStr := date.Format("2006-01-02")
		allocations, ok := allocationsByDate[dateStr]
		if !ok {
			continue
		}

		// Individuals carry an empty GroupKey; synthesise the same key the
		// engine uses so their history matches up
		volunteersByGroup := make(map[string][]allocator.Volunteer)
		for _, allocation := range allocations {
			volunteer := volunteersByID[allocation.VolunteerID]
			groupKey := volunteer.GroupKey
			if groupKey == "" {
				groupKey = "individual_" + volunteer.ID
			}
			volunteersByGroup[groupKey] = append(volunteersByGroup[groupKey], volunteer)
		}

		allocatedGroups := make([]*allocator.VolunteerGroup, 0, len(volunteersByGroup))
		for groupKey, members := range volunteersByGroup {
			allocatedGroups = append(allocatedGroups, allocator.BuildVolunteerGroup(groupKey, members))
		}

		historicalShifts = append(historicalShifts, &allocator.Shift{
			Date:            dateStr,
			AllocatedGroups: allocatedGroups,
		})
	}

	return historicalShifts, nil
}
