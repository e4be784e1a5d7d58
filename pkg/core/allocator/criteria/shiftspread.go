package criteria

import (
	"github.com/harborlight/rota/pkg/core/allocator"
)

// ShiftSpreadCriterion spaces a group's shifts out over time instead of
// clustering them at one end of the rota.
//
// Validity: none, every shift is acceptable.
//
// Affinity: higher for shifts far from the group's nearest existing
// allocation, counting the group's most recent shift in the previous
// rota as well.
type ShiftSpreadCriterion struct {
	affinityWeight float64
}

// NewShiftSpreadCriterion builds the criterion. Group weight is fixed
// at 0; spreading says nothing about queue order.
func NewShiftSpreadCriterion(affinityWeight float64) *ShiftSpreadCriterion {
	return &ShiftSpreadCriterion{
		affinityWeight: affinityWeight,
	}
}

func (c *ShiftSpreadCriterion) Name() string {
	return "ShiftSpread"
}

func (c *ShiftSpreadCriterion) PromoteVolunteerGroup(state *allocator.RotaState, group *allocator.VolunteerGroup) float64 {
	return 0
}

func (c *ShiftSpreadCriterion) IsShiftValid(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) bool {
	return true
}

func (c *ShiftSpreadCriterion) CalculateShiftAffinity(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) float64 {
	shiftIndex := shift.Index
	totalShifts := len(state.Shifts)

	lastHistoricalIndex := c.getLastHistoricalIndex(state, group)

	// The furthest apart two allocations could be: from the group's last
	// historical shift to the end of this rota, or within this rota alone
	// when there is no history
	var maxDistance int
	if lastHistoricalIndex >= 0 {
		maxDistance = (len(state.HistoricalShifts) - lastHistoricalIndex - 1) + totalShifts
	} else {
		maxDistance = totalShifts - 1
	}

	if maxDistance == 0 {
		// One shift; there is nothing to spread
		return 0.5
	}

	minDistance := maxDistance
	if lastHistoricalIndex >= 0 {
		minDistance = (len(state.HistoricalShifts) - lastHistoricalIndex - 1) + shiftIndex + 1
	}

	for _, allocatedIndex := range group.AllocatedShiftIndices {
		distance := shiftIndex - allocatedIndex
		if distance < 0 {
			distance = -distance
		}
		if distance < minDistance {
			minDistance = distance
		}
	}

	// Nearest existing allocation as a fraction of the furthest possible:
	// a shift right next to one the group holds scores near 0, a shift at
	// the opposite end scores near 1
	return float64(minDistance) / float64(maxDistance)
}

// getLastHistoricalIndex finds the most recent previous-rota shift the
// group worked, -1 if none
func (c *ShiftSpreadCriterion) getLastHistoricalIndex(state *allocator.RotaState, group *allocator.VolunteerGroup) int {
	for i := len(state.HistoricalShifts) - 1; i >= 0; i-- {
		for _, allocatedGroup := range state.HistoricalShifts[i].AllocatedGroups {
			if allocatedGroup.GroupKey == group.GroupKey {
				return i
			}
		}
	}
	return -1
}

func (c *ShiftSpreadCriterion) GroupWeight() float64 {
	return 0
}

func (c *ShiftSpreadCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *ShiftSpreadCriterion) ValidateRotaState(state *allocator.RotaState) []allocator.ShiftValidationError {
	return nil
}
