package allocator

import (
	"slices"
	"sort"
)

// Allocator drives one rota generation with a configured criterion set
type Allocator struct {
	criteria []Criterion
	state    *RotaState
}

// AllocationConfig is everything one allocation run needs. Dates,
// availability and overrides arrive pre-resolved; the engine does no IO.
type AllocationConfig struct {
	// Criteria to apply during allocation, in evaluation order
	Criteria []Criterion

	// MaxAllocationFrequency is the ratio of shifts any one group may take,
	// in (0, 1]
	MaxAllocationFrequency float64

	// HistoricalShifts from previous rotas; only Date and AllocatedGroups
	// are consulted
	HistoricalShifts []*Shift

	// Volunteers is the full roster under consideration
	Volunteers []Volunteer

	// Availability responses, one per volunteer who was asked
	Availability []VolunteerAvailability

	// ShiftDates for the current rota, in order
	ShiftDates []string

	// DefaultShiftSize is the target ordinary-volunteer count per shift,
	// before overrides
	DefaultShiftSize int

	// Overrides customise individual shifts by date
	Overrides []ShiftOverride

	// Built-in ranking weights (see calculateGroupRankingScore)
	WeightCurrentRotaUrgency       float64
	WeightOverallFrequencyFairness float64
	WeightPromoteGroup             float64
}

// AllocationOutcome is the result of a run. A run with validation errors
// is still a valid run: the caller inspects the errors and decides
// whether to keep the rota.
type AllocationOutcome struct {
	// State is the final rota state
	State *RotaState

	// Success is true iff ValidationErrors is empty
	Success bool

	// UnderutilizedGroups were allocated at least once but had room for
	// more, sorted by GroupKey
	UnderutilizedGroups []*VolunteerGroup

	// ValidationErrors from core invariants and every criterion
	ValidationErrors []ShiftValidationError
}

// Allocate runs the greedy main loop: pop the highest-ranked group, place
// it on its best shift, re-insert or exhaust, until the pool is empty or
// every shift is full. Hard errors (impossible inputs) come back as the
// second return; everything else lands in the outcome.
func Allocate(config AllocationConfig) (*AllocationOutcome, error) {
	a, err := InitAllocation(config)
	if err != nil {
		return nil, err
	}

	// Forced preallocations go in before anything else, regardless of
	// availability
	if err := a.ApplyPreallocations(a.state); err != nil {
		return nil, err
	}

	// Preallocations may have pushed groups to their cap; re-rank and
	// exhaust those before the loop starts
	RankVolunteerGroups(a.state, a.criteria, config.MaxAllocationFrequency)

	volunteers := a.state.VolunteerState
	maxAllocationCount := a.state.MaxAllocationCount()

	groupsToKeep := make([]*VolunteerGroup, 0, len(volunteers.VolunteerGroups))
	for _, group := range volunteers.VolunteerGroups {
		if len(group.AllocatedShiftIndices) >= min(len(group.AvailableShiftIndices), maxAllocationCount) {
			a.exhaustGroup(group)
		} else {
			groupsToKeep = append(groupsToKeep, group)
		}
	}
	volunteers.VolunteerGroups = groupsToKeep

	for {
		if len(volunteers.VolunteerGroups) == 0 {
			break
		}

		group := volunteers.VolunteerGroups[0]
		volunteers.VolunteerGroups = volunteers.VolunteerGroups[1:]

		bestShift := a.findBestShift(group)
		if bestShift == nil {
			a.exhaustGroup(group)
			continue
		}

		groupExhausted := a.allocateGroupToShift(group, bestShift)
		if !groupExhausted {
			a.reinsertGroup(group)
		}

		if a.allShiftsFull() {
			break
		}
	}

	return a.buildOutcome(), nil
}

// findBestShift returns the open, valid shift with the highest affinity
// for the group, or nil if none scores above zero. Ties go to the lowest
// index so identical inputs give identical rotas.
func (a *Allocator) findBestShift(group *VolunteerGroup) *Shift {
	var bestShift *Shift
	var bestAffinity float64

	for _, shift := range a.state.Shifts {
		if shift.Closed {
			continue
		}
		if shift.IsFull() {
			continue
		}
		if !IsShiftValidForGroup(a.state, group, shift, a.criteria) {
			continue
		}

		affinity := CalculateShiftAffinity(a.state, group, shift, a.criteria)
		if affinity > bestAffinity {
			bestAffinity = affinity
			bestShift = shift
		}
	}

	return bestShift
}

// allocateGroupToShift mutates both sides of the assignment and reports
// whether the group is now exhausted
func (a *Allocator) allocateGroupToShift(group *VolunteerGroup, shift *Shift) bool {
	shift.AllocatedGroups = append(shift.AllocatedGroups, group)

	// Keep allocated indices sorted as we grow them
	idx, _ := slices.BinarySearch(group.AllocatedShiftIndices, shift.Index)
	group.AllocatedShiftIndices = slices.Insert(group.AllocatedShiftIndices, idx, shift.Index)

	if group.HasTeamLead && shift.TeamLead == nil {
		for _, member := range group.Members {
			if member.IsTeamLead {
				shift.TeamLead = &member
				break
			}
		}
	}

	shift.MaleCount += group.MaleCount

	if len(group.AllocatedShiftIndices) >= min(len(group.AvailableShiftIndices), a.state.MaxAllocationCount()) {
		a.exhaustGroup(group)
		return true
	}
	return false
}

func (a *Allocator) exhaustGroup(group *VolunteerGroup) {
	a.state.VolunteerState.ExhaustedVolunteerGroups[group] = true
}

// allShiftsFull reports whether the loop can stop early. Closed shifts
// never need filling.
func (a *Allocator) allShiftsFull() bool {
	for _, shift := range a.state.Shifts {
		if shift.Closed {
			continue
		}
		if !shift.IsFull() {
			return false
		}
	}
	return true
}

// reinsertGroup re-scores a single group and slots it back into the
// ranked list: the first position where it strictly outranks the
// incumbent, so equal scores preserve existing order. Linear scan; the
// pool is at most a few hundred groups.
func (a *Allocator) reinsertGroup(group *VolunteerGroup) {
	score := calculateGroupRankingScore(a.state, group, a.criteria, a.state.MaxAllocationFrequency)

	volunteers := a.state.VolunteerState

	insertIdx := len(volunteers.VolunteerGroups)
	for i, other := range volunteers.VolunteerGroups {
		otherScore := calculateGroupRankingScore(a.state, other, a.criteria, a.state.MaxAllocationFrequency)
		if score > otherScore {
			insertIdx = i
			break
		}
	}

	volunteers.VolunteerGroups = slices.Insert(volunteers.VolunteerGroups, insertIdx, group)
}

// buildOutcome assembles the final report: validation results and the
// groups that still had room
func (a *Allocator) buildOutcome() *AllocationOutcome {
	outcome := &AllocationOutcome{
		State:               a.state,
		UnderutilizedGroups: []*VolunteerGroup{},
		ValidationErrors:    []ShiftValidationError{},
	}

	if a.state == nil {
		outcome.Success = false
		return outcome
	}

	maxAllocationCount := a.state.MaxAllocationCount()

	isUnderutilized := func(group *VolunteerGroup) bool {
		allocated := len(group.AllocatedShiftIndices)
		return allocated > 0 &&
			allocated < len(group.AvailableShiftIndices) &&
			allocated < maxAllocationCount
	}

	for _, group := range a.state.VolunteerState.VolunteerGroups {
		if isUnderutilized(group) {
			outcome.UnderutilizedGroups = append(outcome.UnderutilizedGroups, group)
		}
	}
	for group := range a.state.VolunteerState.ExhaustedVolunteerGroups {
		if isUnderutilized(group) {
			outcome.UnderutilizedGroups = append(outcome.UnderutilizedGroups, group)
		}
	}

	// The exhausted set is a map; sort so outcomes are reproducible
	sort.Slice(outcome.UnderutilizedGroups, func(i, j int) bool {
		return outcome.UnderutilizedGroups[i].GroupKey < outcome.UnderutilizedGroups[j].GroupKey
	})

	outcome.ValidationErrors = ValidateRotaState(a.state, a.criteria)
	outcome.Success = len(outcome.ValidationErrors) == 0

	return outcome
}
