package criteria

import (
	"fmt"

	"github.com/harborlight/rota/pkg/core/allocator"
)

// TeamLeadCriterion gets exactly one team lead onto every open shift.
//
// Validity: a group carrying a team lead cannot join a shift that
// already has one.
//
// Affinity: team-lead groups are pulled toward the shifts with the
// fewest team leads left to cover them. Groups without a team lead get
// no opinion.
//
// Promotion: team-lead groups rank ahead of the rest so the scarce
// leads are placed before ordinary volunteers eat the capacity.
type TeamLeadCriterion struct {
	groupWeight    float64
	affinityWeight float64
}

func NewTeamLeadCriterion(groupWeight, affinityWeight float64) *TeamLeadCriterion {
	return &TeamLeadCriterion{
		groupWeight:    groupWeight,
		affinityWeight: affinityWeight,
	}
}

func (c *TeamLeadCriterion) Name() string {
	return "TeamLead"
}

func (c *TeamLeadCriterion) PromoteVolunteerGroup(state *allocator.RotaState, group *allocator.VolunteerGroup) float64 {
	if group.HasTeamLead {
		return 1.0
	}
	return 0
}

func (c *TeamLeadCriterion) IsShiftValid(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) bool {
	if group.HasTeamLead && shift.TeamLead != nil {
		return false
	}
	return true
}

func (c *TeamLeadCriterion) CalculateShiftAffinity(state *allocator.RotaState, group *allocator.VolunteerGroup, shift *allocator.Shift) float64 {
	if !group.HasTeamLead {
		return 0
	}
	if shift.TeamLead != nil {
		return 0
	}

	remainingTeamLeads := shift.RemainingAvailableTeamLeads(state)
	if remainingTeamLeads == 0 {
		return 0
	}

	// The last team lead who can cover a shift scores 1.0 for it; a shift
	// with plenty of candidate leads scores low
	return 1.0 / float64(remainingTeamLeads)
}

func (c *TeamLeadCriterion) GroupWeight() float64 {
	return c.groupWeight
}

func (c *TeamLeadCriterion) AffinityWeight() float64 {
	return c.affinityWeight
}

func (c *TeamLeadCriterion) ValidateRotaState(state *allocator.RotaState) []allocator.ShiftValidationError {
	var errors []allocator.ShiftValidationError

	for _, shift := range state.Shifts {
		if shift.Closed {
			continue
		}

		if shift.TeamLead == nil {
			errors = append(errors, allocator.ShiftValidationError{
				ShiftIndex:    shift.Index,
				ShiftDate:     shift.Date,
				CriterionName: c.Name(),
				Description:   "Shift has no team lead",
			})
			continue
		}

		// Any other team lead on the shift is occupying an ordinary slot
		for _, group := range shift.AllocatedGroups {
			for _, member := range group.Members {
				if member.IsTeamLead && member.ID != shift.TeamLead.ID {
					errors = append(errors, allocator.ShiftValidationError{
						ShiftIndex:    shift.Index,
						ShiftDate:     shift.Date,
						CriterionName: c.Name(),
						Description:   fmt.Sprintf("Shift has team lead (%s %s) as ordinary volunteer", member.FirstName, member.LastName),
					})
				}
			}
		}
	}

	return errors
}
