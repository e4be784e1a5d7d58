package allocator

import (
	"fmt"
	"sort"
)

// ValidateRotaState checks a finished rota against the engine's core
// invariants and every criterion's own requirements. The errors come
// back in a stable order: core invariants first, then criteria in their
// configured order.
func ValidateRotaState(state *RotaState, criteria []Criterion) []ShiftValidationError {
	errors := validateCoreInvariants(state)

	for _, criterion := range criteria {
		errors = append(errors, criterion.ValidateRotaState(state)...)
	}

	return errors
}

// validateCoreInvariants checks the structural invariants that hold
// regardless of which criteria were configured: allocation caps,
// duplicate and unavailable allocations, index bookkeeping, male count
// bookkeeping and closed shifts staying empty.
func validateCoreInvariants(state *RotaState) []ShiftValidationError {
	errors := []ShiftValidationError{}

	maxAllocationCount := state.MaxAllocationCount()
	groups := collectAllGroups(state.VolunteerState)

	for _, group := range groups {
		if len(group.AllocatedShiftIndices) > maxAllocationCount {
			errors = append(errors, ShiftValidationError{
				ShiftIndex:    -1,
				CriterionName: "CoreInvariant",
				Description: fmt.Sprintf("group '%s' is allocated to %d shifts but max is %d",
					group.GroupKey, len(group.AllocatedShiftIndices), maxAllocationCount),
			})
		}
	}

	// Actual shift membership per group, for cross-checking the group's
	// own index bookkeeping
	actualIndices := make(map[*VolunteerGroup][]int)

	for _, shift := range state.Shifts {
		if shift.Closed {
			if len(shift.AllocatedGroups) > 0 {
				errors = append(errors, ShiftValidationError{
					ShiftIndex:    shift.Index,
					ShiftDate:     shift.Date,
					CriterionName: "CoreInvariant",
					Description: fmt.Sprintf("shift %d is closed but has %d allocated groups",
						shift.Index, len(shift.AllocatedGroups)),
				})
			}
			if shift.TeamLead != nil {
				errors = append(errors, ShiftValidationError{
					ShiftIndex:    shift.Index,
					ShiftDate:     shift.Date,
					CriterionName: "CoreInvariant",
					Description: fmt.Sprintf("shift %d is closed but has a team lead assigned",
						shift.Index),
				})
			}
			if len(shift.CustomPreallocations) > 0 {
				errors = append(errors, ShiftValidationError{
					ShiftIndex:    shift.Index,
					ShiftDate:     shift.Date,
					CriterionName: "CoreInvariant",
					Description: fmt.Sprintf("shift %d is closed but has %d custom preallocations",
						shift.Index, len(shift.CustomPreallocations)),
				})
			}
		}

		seen := make(map[*VolunteerGroup]bool, len(shift.AllocatedGroups))
		actualMaleCount := 0

		for _, group := range shift.AllocatedGroups {
			if seen[group] {
				errors = append(errors, ShiftValidationError{
					ShiftIndex:    shift.Index,
					ShiftDate:     shift.Date,
					CriterionName: "CoreInvariant",
					Description: fmt.Sprintf("group '%s' is allocated multiple times to the same shift",
						group.GroupKey),
				})
			}
			seen[group] = true

			if !group.IsAvailable(shift.Index) {
				errors = append(errors, ShiftValidationError{
					ShiftIndex:    shift.Index,
					ShiftDate:     shift.Date,
					CriterionName: "CoreInvariant",
					Description: fmt.Sprintf("group '%s' is allocated to shift %d but is not available for it",
						group.GroupKey, shift.Index),
				})
			}

			actualIndices[group] = append(actualIndices[group], shift.Index)
			actualMaleCount += group.MaleCount
		}

		if shift.MaleCount != actualMaleCount {
			errors = append(errors, ShiftValidationError{
				ShiftIndex:    shift.Index,
				ShiftDate:     shift.Date,
				CriterionName: "CoreInvariant",
				Description: fmt.Sprintf("shift %d MaleCount field is %d but actual male count from groups is %d",
					shift.Index, shift.MaleCount, actualMaleCount),
			})
		}
	}

	for _, group := range groups {
		actual := actualIndices[group]
		sort.Ints(actual)

		if !equalIntSlices(group.AllocatedShiftIndices, actual) {
			errors = append(errors, ShiftValidationError{
				ShiftIndex:    -1,
				CriterionName: "CoreInvariant",
				Description: fmt.Sprintf("group '%s' AllocatedShiftIndices %v does not match actual shift allocations %v",
					group.GroupKey, group.AllocatedShiftIndices, actual),
			})
		}
	}

	return errors
}

// collectAllGroups returns active plus exhausted groups in GroupKey
// order so validation errors are emitted deterministically
func collectAllGroups(volunteers *VolunteerState) []*VolunteerGroup {
	groups := make([]*VolunteerGroup, 0,
		len(volunteers.VolunteerGroups)+len(volunteers.ExhaustedVolunteerGroups))
	groups = append(groups, volunteers.VolunteerGroups...)

	exhausted := make([]*VolunteerGroup, 0, len(volunteers.ExhaustedVolunteerGroups))
	for group := range volunteers.ExhaustedVolunteerGroups {
		exhausted = append(exhausted, group)
	}
	sort.Slice(exhausted, func(i, j int) bool {
		return exhausted[i].GroupKey < exhausted[j].GroupKey
	})

	return append(groups, exhausted...)
}

func equalIntSlices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
