package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harborlight/rota/pkg/core/allocator"
)

func TestMaleBalanceCriterion_Name(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)
	assert.Equal(t, "MaleBalance", criterion.Name())
}

func TestMaleBalanceCriterion_Weights(t *testing.T) {
	criterion := NewMaleBalanceCriterion(0.5, 1.0)
	assert.Equal(t, 0.5, criterion.GroupWeight())
	assert.Equal(t, 1.0, criterion.AffinityWeight())
}

func TestMaleBalanceCriterion_PromoteVolunteerGroup(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)
	state := &allocator.RotaState{}

	assert.Equal(t, 1.0, criterion.PromoteVolunteerGroup(state, &allocator.VolunteerGroup{MaleCount: 1}))
	assert.Equal(t, 1.0, criterion.PromoteVolunteerGroup(state, &allocator.VolunteerGroup{MaleCount: 2}))
	assert.Equal(t, 0.0, criterion.PromoteVolunteerGroup(state, &allocator.VolunteerGroup{MaleCount: 0}))
}

func TestMaleBalanceCriterion_IsShiftValid_GroupWithMales(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)
	state := &allocator.RotaState{}

	group := &allocator.VolunteerGroup{
		MaleCount: 1,
		Members:   []allocator.Volunteer{{ID: "v1", Gender: "Male"}},
	}
	shift := &allocator.Shift{Size: 1}

	assert.True(t, criterion.IsShiftValid(state, group, shift),
		"a male-carrying group can always join")
}

func TestMaleBalanceCriterion_IsShiftValid_ShiftAlreadyHasMale(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)
	state := &allocator.RotaState{}

	group := &allocator.VolunteerGroup{
		Members: []allocator.Volunteer{{ID: "v1", Gender: "Female"}},
	}
	shift := &allocator.Shift{Size: 1, MaleCount: 1}

	assert.True(t, criterion.IsShiftValid(state, group, shift))
}

func TestMaleBalanceCriterion_IsShiftValid_BlocksFillingMalelessShift(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)
	state := &allocator.RotaState{}

	// One remaining slot, no males on the shift, shift already has a lead:
	// an all-female group taking that slot would lock the shift out
	group := &allocator.VolunteerGroup{
		Members: []allocator.Volunteer{{ID: "v1", Gender: "Female"}},
	}
	shift := &allocator.Shift{
		Size:     1,
		TeamLead: &allocator.Volunteer{ID: "tl1", IsTeamLead: true},
	}

	assert.False(t, criterion.IsShiftValid(state, group, shift))
}

func TestMaleBalanceCriterion_IsShiftValid_AllowsPartialFill(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)
	state := &allocator.RotaState{}

	// Two slots left; a single female volunteer leaves room for a male
	group := &allocator.VolunteerGroup{
		Members: []allocator.Volunteer{{ID: "v1", Gender: "Female"}},
	}
	shift := &allocator.Shift{
		Size:     2,
		TeamLead: &allocator.Volunteer{ID: "tl1", IsTeamLead: true},
	}

	assert.True(t, criterion.IsShiftValid(state, group, shift))
}

func TestMaleBalanceCriterion_IsShiftValid_OpenTeamLeadSlotKeepsShiftIncomplete(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)
	state := &allocator.RotaState{}

	// No lead assigned yet and this group carries none: the shift cannot
	// be completed by this allocation, so the male check is deferred
	group := &allocator.VolunteerGroup{
		Members: []allocator.Volunteer{{ID: "v1", Gender: "Female"}},
	}
	shift := &allocator.Shift{Size: 1}

	assert.True(t, criterion.IsShiftValid(state, group, shift))
}

func TestMaleBalanceCriterion_Affinity_MalelessGroupHasNoOpinion(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)

	group := &allocator.VolunteerGroup{
		Members: []allocator.Volunteer{{ID: "v1", Gender: "Female"}},
	}
	state := stateWithGroups(group)
	shift := &allocator.Shift{Size: 2, AvailableGroups: []*allocator.VolunteerGroup{group}}

	assert.Equal(t, 0.0, criterion.CalculateShiftAffinity(state, group, shift))
}

func TestMaleBalanceCriterion_Affinity_MalelessShiftIsUrgent(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)

	group := &allocator.VolunteerGroup{
		GroupKey:  "group_a",
		MaleCount: 1,
		Members:   []allocator.Volunteer{{ID: "v1", Gender: "Male"}},
	}
	state := stateWithGroups(group)

	// This group holds the only remaining male
	shift := &allocator.Shift{
		Size:            2,
		AvailableGroups: []*allocator.VolunteerGroup{group},
	}

	// need 1.0 / 1 remaining male
	assert.Equal(t, 1.0, criterion.CalculateShiftAffinity(state, group, shift))
}

func TestMaleBalanceCriterion_Affinity_PlacedMalesReduceNeed(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)

	group := &allocator.VolunteerGroup{
		GroupKey:  "group_a",
		MaleCount: 1,
		Members:   []allocator.Volunteer{{ID: "v1", Gender: "Male"}},
	}
	state := stateWithGroups(group)

	oneMale := &allocator.Shift{
		Size:            4,
		MaleCount:       1,
		AvailableGroups: []*allocator.VolunteerGroup{group},
	}
	threeMales := &allocator.Shift{
		Size:            4,
		MaleCount:       3,
		AvailableGroups: []*allocator.VolunteerGroup{group},
	}

	// one male placed: need 0.5; three males: floored at 0.1
	assert.Equal(t, 0.5, criterion.CalculateShiftAffinity(state, group, oneMale))
	assert.InDelta(t, 0.1, criterion.CalculateShiftAffinity(state, group, threeMales), 0.0001)
}

func TestMaleBalanceCriterion_Affinity_AbundantMalesLowerUrgency(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)

	groups := make([]*allocator.VolunteerGroup, 4)
	for i := range groups {
		groups[i] = &allocator.VolunteerGroup{
			MaleCount: 1,
			Members:   []allocator.Volunteer{{Gender: "Male"}},
		}
	}
	state := stateWithGroups(groups...)

	shift := &allocator.Shift{
		Size:            4,
		AvailableGroups: groups,
	}

	// need 1.0 spread over 4 candidate males
	assert.Equal(t, 0.25, criterion.CalculateShiftAffinity(state, groups[0], shift))
}

func TestMaleBalanceCriterion_ValidateRotaState(t *testing.T) {
	criterion := NewMaleBalanceCriterion(1.0, 1.0)

	state := &allocator.RotaState{
		Shifts: []*allocator.Shift{
			{Index: 0, Date: "2025-01-05", MaleCount: 1},
			{Index: 1, Date: "2025-01-12", MaleCount: 0},
			{Index: 2, Date: "2025-01-19", MaleCount: 0, Closed: true},
		},
	}

	errors := criterion.ValidateRotaState(state)

	assert.Len(t, errors, 1, "only the open male-less shift is flagged")
	assert.Equal(t, 1, errors[0].ShiftIndex)
	assert.Equal(t, "MaleBalance", errors[0].CriterionName)
	assert.Contains(t, errors[0].Description, "no male volunteers")
}
