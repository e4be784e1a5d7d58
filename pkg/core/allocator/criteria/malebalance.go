package criteria

import (
	"fmt"

	"github.com/harborlight/rota/pkg/core/allocator"
)

// MaleBalanceCriterion gets at least one male volunteer onto every open
// shift and spreads the male volunteers across the rota.
//
// Validity: an all-female group may not take the final slots of a shift
// that still has no male, since that would lock the shift out of
// compliance.
//
// Affinity: male-carrying groups are pulled toward the shifts with the
// fewest available males. Groups without males get no opinion.
//
// Promotion: male-carrying groups rank ahead so the scarce males are
// placed while shifts still have room.
type MaleBalanceCriterion struct {
	groupWeight    float64
	affinityWeight float64
}

func NewMaleBalanceCriterion(groupWeight, affinityWeight float64) *MaleBalanceCriterion {
	return &MaleBalanceCriterion{
		groupWeight:    groupWeight,
		affinityWeight: affinityWeight,
	}
}

func (c *MaleBalanceCriterion) Name() string {
	return "MaleBalance"
}

func (c *MaleBalanceCriterion) PromoteVolunteerGroup(state *allocator.RotaState, group *allocator.VolunteerGroup) float64 {
	if group.MaleCount > 0 {
		return 1.0
	}
	return 0
}

func (c *MaleBalanceCriterion) IsShiftValid(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) bool {
	if group.MaleCount > 0 {
		return true
	}
	if shift.MaleCount > 0 {
		return true
	}

	// A shift is only complete once its team lead slot is taken too, so a
	// group that leaves that slot open cannot be the one that fills it
	if shift.TeamLead == nil && !group.HasTeamLead {
		return true
	}

	// Block a male-less group from taking the last ordinary slots of a
	// male-less shift
	wouldFillShift := group.OrdinaryVolunteerCount() >= shift.RemainingCapacity()

	return !wouldFillShift
}

func (c *MaleBalanceCriterion) CalculateShiftAffinity(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) float64 {
	if group.MaleCount == 0 {
		return 0
	}

	remainingMaleVolunteers := shift.RemainingAvailableMaleVolunteers(state)

	// A male-less shift needs a male outright; each male already placed
	// halves the need, floored at 0.1 so extra males still spread out
	need := 1.0
	if shift.MaleCount > 0 {
		need = 1.0 - (float64(shift.MaleCount) * 0.5)
		if need < 0.1 {
			need = 0.1
		}
	}

	// Scarcer male availability makes the shift more urgent for this group
	return need / max(float64(remainingMaleVolunteers), 1)
}

func (c *MaleBalanceCriterion) GroupWeight() float64 {
	return c.groupWeight
}

func (c *MaleBalanceCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *MaleBalanceCriterion) ValidateRotaState(state *allocator.RotaState) []allocator.ShiftValidationError {
	var errors []allocator.ShiftValidationError

	for _, shift := range state.Shifts {
		if shift.Closed {
			continue
		}

		if shift.MaleCount == 0 {
			errors = append(errors, allocator.ShiftValidationError{
				ShiftIndex:    shift.Index,
				ShiftDate:     shift.Date,
				CriterionName: c.Name(),
				Description:   fmt.Sprintf("Shift has no male volunteers (has %d males)", shift.MaleCount),
			})
		}
	}

	return errors
}
