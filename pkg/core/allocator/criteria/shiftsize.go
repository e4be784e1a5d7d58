package criteria

import (
	"fmt"

	"github.com/harborlight/rota/pkg/core/allocator"
)

// ShiftSizeCriterion keeps shifts at their target size and steers
// volunteers toward the shifts hardest to fill.
//
// Validity: a pairing is invalid when the group's ordinary volunteers
// would push the shift past its size. Team leads occupy their own slot
// and never count.
//
// Affinity: higher for shifts whose remaining capacity is large
// relative to the volunteers still able to take them. When the pool
// cannot fill the whole rota, switches to spreading: shifts at or past
// their expected fill score zero and emptier shifts get a boost.
type ShiftSizeCriterion struct {
	groupWeight    float64
	affinityWeight float64
}

func NewShiftSizeCriterion(groupWeight, affinityWeight float64) *ShiftSizeCriterion {
	return &ShiftSizeCriterion{
		groupWeight:    groupWeight,
		affinityWeight: affinityWeight,
	}
}

func (c *ShiftSizeCriterion) Name() string {
	return "ShiftSize"
}

func (c *ShiftSizeCriterion) PromoteVolunteerGroup(state *allocator.RotaState, group *allocator.VolunteerGroup) float64 {
	return 0
}

func (c *ShiftSizeCriterion) IsShiftValid(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) bool {
	return shift.RemainingCapacity() >= group.OrdinaryVolunteerCount()
}

func (c *ShiftSizeCriterion) CalculateShiftAffinity(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) float64 {
	// A team-lead-only group takes no ordinary slot, so size has no opinion
	if group.OrdinaryVolunteerCount() == 0 {
		return 0
	}

	remainingAvailableVolunteers := shift.RemainingAvailableVolunteers(state)
	if remainingAvailableVolunteers == 0 {
		return 0
	}

	// How much capacity must still be filled, per volunteer able to fill it.
	// A shift needing 5 with 5 candidates left scores 1.0; the same shift
	// with 50 candidates scores 0.1.
	urgency := float64(shift.RemainingCapacity()) / float64(remainingAvailableVolunteers)
	if urgency > 1.0 {
		urgency = 1.0
	}
	if urgency < 0 {
		urgency = 0
	}

	// Short pool: a complete rota is impossible, so stop racing to fill
	// shifts and spread instead. A shift at its expected fill gets nothing
	// more from this criterion; shifts below it are boosted by their deficit.
	if state.IsResourceConstrained() && shift.Size > 0 {
		expectedFill := state.ExpectedFillPerShift()
		currentFill := float64(shift.CurrentSize())

		if currentFill >= expectedFill {
			return 0
		}

		deficitRatio := (expectedFill - currentFill) / expectedFill
		affinity := urgency * (1.0 + deficitRatio)
		if affinity > 1.0 {
			affinity = 1.0
		}
		return affinity
	}

	return urgency
}

func (c *ShiftSizeCriterion) GroupWeight() float64 {
	return c.groupWeight
}

func (c *ShiftSizeCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *ShiftSizeCriterion) ValidateRotaState(state *allocator.RotaState) []allocator.ShiftValidationError {
	var errors []allocator.ShiftValidationError

	for _, shift := range state.Shifts {
		// Closed shifts are allowed to stay empty
		if shift.Closed {
			continue
		}

		currentSize := shift.CurrentSize()
		if currentSize < shift.Size {
			errors = append(errors, allocator.ShiftValidationError{
				ShiftIndex:    shift.Index,
				ShiftDate:     shift.Date,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Shift is underfilled: has %d volunteers but size is %d", currentSize, shift.Size),
			})
		} else if currentSize > shift.Size {
			errors = append(errors, allocator.ShiftValidationError{
				ShiftIndex:    shift.Index,
				ShiftDate:     shift.Date,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Shift is overfilled: has %d volunteers but size is %d", currentSize, shift.Size),
			})
		}
	}

	return errors
}
