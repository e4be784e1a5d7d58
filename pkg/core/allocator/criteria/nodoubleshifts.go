package criteria

import (
	"fmt"

	"github.com/harborlight/rota/pkg/core/allocator"
)

// NoDoubleShiftsCriterion stops groups working back-to-back shifts.
//
// Validity: a pairing is invalid when the group already holds the shift
// immediately before or after, including the final shift of the previous
// rota when considering the first shift of this one.
//
// Affinity: prefers the allocations that knock out the fewest of the
// group's remaining options, since every placement forbids its
// neighbours.
type NoDoubleShiftsCriterion struct {
	groupWeight    float64
	affinityWeight float64
}

func NewNoDoubleShiftsCriterion(groupWeight, affinityWeight float64) *NoDoubleShiftsCriterion {
	return &NoDoubleShiftsCriterion{
		groupWeight:    groupWeight,
		affinityWeight: affinityWeight,
	}
}

func (c *NoDoubleShiftsCriterion) Name() string {
	return "NoDoubleShifts"
}

func (c *NoDoubleShiftsCriterion) PromoteVolunteerGroup(state *allocator.RotaState, group *allocator.VolunteerGroup) float64 {
	return 0
}

func (c *NoDoubleShiftsCriterion) IsShiftValid(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) bool {
	shiftIndex := shift.Index

	// The rota boundary counts: last shift of the previous rota is
	// adjacent to the first shift of this one
	if shiftIndex == 0 && wasAllocatedToLastHistoricalShift(state, group) {
		return false
	}

	if shiftIndex > 0 && group.IsAllocated(shiftIndex-1) {
		return false
	}
	if shiftIndex < len(state.Shifts)-1 && group.IsAllocated(shiftIndex+1) {
		return false
	}

	return true
}

func (c *NoDoubleShiftsCriterion) CalculateShiftAffinity(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) float64 {
	shiftIndex := shift.Index
	totalShifts := len(state.Shifts)

	historicalAdjacent := wasAllocatedToLastHistoricalShift(state, group)

	// isValidOption reports whether shift i is a live option for the group
	// under the adjacency rule as things stand
	isValidOption := func(i int) bool {
		if !group.IsAvailable(i) || group.IsAllocated(i) {
			return false
		}
		if i == 0 && historicalAdjacent {
			return false
		}
		if i > 0 && group.IsAllocated(i-1) {
			return false
		}
		if i < totalShifts-1 && group.IsAllocated(i+1) {
			return false
		}
		return true
	}

	currentlyValidCount := 0
	remainingValidCount := 0
	for i := 0; i < totalShifts; i++ {
		if i == shiftIndex {
			continue
		}
		if !isValidOption(i) {
			continue
		}
		currentlyValidCount++

		// Placing the group on shiftIndex forbids its neighbours
		if i != shiftIndex-1 && i != shiftIndex+1 {
			remainingValidCount++
		}
	}

	if currentlyValidCount == 0 {
		return 0
	}

	// The fraction of options that survive this placement. 1.0 costs the
	// group nothing; 0.0 strands it.
	return float64(remainingValidCount) / float64(currentlyValidCount)
}

func (c *NoDoubleShiftsCriterion) GroupWeight() float64 {
	return c.groupWeight
}

func (c *NoDoubleShiftsCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *NoDoubleShiftsCriterion) ValidateRotaState(state *allocator.RotaState) []allocator.ShiftValidationError {
	var errors []allocator.ShiftValidationError

	for i := 0; i < len(state.Shifts); i++ {
		shift := state.Shifts[i]

		currentGroups := make(map[string]bool)
		for _, group := range shift.AllocatedGroups {
			currentGroups[group.GroupKey] = true
		}

		if i > 0 {
			for _, prevGroup := range state.Shifts[i-1].AllocatedGroups {
				if currentGroups[prevGroup.GroupKey] {
					errors = append(errors, allocator.ShiftValidationError{
						ShiftIndex:    shift.Index,
						ShiftDate:     shift.Date,
						CriterionName: c.Name(),
						Description:   fmt.Sprintf("Group '%s' is allocated to adjacent shifts %d and %d", prevGroup.GroupKey, i-1, i),
					})
				}
			}
		}

		if i == 0 && len(state.HistoricalShifts) > 0 {
			lastHistoricalShift := state.HistoricalShifts[len(state.HistoricalShifts)-1]
			for _, historicalGroup := range lastHistoricalShift.AllocatedGroups {
				if currentGroups[historicalGroup.GroupKey] {
					errors = append(errors, allocator.ShiftValidationError{
						ShiftIndex:    shift.Index,
						ShiftDate:     shift.Date,
						CriterionName: c.Name(),
						Description:   fmt.Sprintf("Group '%s' is allocated to last historical shift and first shift of new rota (double shift across rota boundary)", historicalGroup.GroupKey),
					})
				}
			}
		}
	}

	return errors
}

// wasAllocatedToLastHistoricalShift reports whether the group worked the
// final shift of the previous rota
func wasAllocatedToLastHistoricalShift(state *allocator.RotaState, group *allocator.VolunteerGroup) bool {
	if len(state.HistoricalShifts) == 0 {
		return false
	}
	lastHistoricalShift := state.HistoricalShifts[len(state.HistoricalShifts)-1]
	for _, allocatedGroup := range lastHistoricalShift.AllocatedGroups {
		if allocatedGroup.GroupKey == group.GroupKey {
			return true
		}
	}
	return false
}
