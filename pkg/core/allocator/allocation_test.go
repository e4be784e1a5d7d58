package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockCriterion is a fixed-value criterion for exercising the engine
// without real policy logic.
type mockCriterion struct {
	name           string
	affinityValue  float64
	affinityWeight float64
	groupPromotion float64
	groupWeight    float64
}

func (m *mockCriterion) Name() string { return m.name }

func (m *mockCriterion) PromoteVolunteerGroup(state *RotaState, group *VolunteerGroup) float64 {
	return m.groupPromotion
}

func (m *mockCriterion) IsShiftValid(state *RotaState, group *VolunteerGroup, shift *Shift) bool {
	return true
}

func (m *mockCriterion) CalculateShiftAffinity(state *RotaState, group *VolunteerGroup, shift *Shift) float64 {
	return m.affinityValue
}

func (m *mockCriterion) ValidateRotaState(state *RotaState) []ShiftValidationError {
	return nil
}

func (m *mockCriterion) GroupWeight() float64 { return m.groupWeight }

func (m *mockCriterion) AffinityWeight() float64 { return m.affinityWeight }

// mockCriterionWithValidity extends mockCriterion to allow controlling IsShiftValid
type mockCriterionWithValidity struct {
	mockCriterion
	isValid bool
}

func (m *mockCriterionWithValidity) IsShiftValid(state *RotaState, group *VolunteerGroup, shift *Shift) bool {
	return m.isValid
}

func twoShiftState() *RotaState {
	return &RotaState{
		Shifts: []*Shift{
			{Index: 0, Date: "2025-03-02"},
			{Index: 1, Date: "2025-03-09"},
		},
	}
}

func TestIsShiftValidForGroup_GroupNotAvailable(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{1},
		AllocatedShiftIndices: []int{},
	}

	valid := IsShiftValidForGroup(state, group, state.Shifts[0], []Criterion{})
	assert.False(t, valid, "Should return false for unavailable shift")
}

func TestIsShiftValidForGroup_GroupAlreadyAllocated(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0, 1},
		AllocatedShiftIndices: []int{0},
	}

	valid := IsShiftValidForGroup(state, group, state.Shifts[0], []Criterion{})
	assert.False(t, valid, "Should return false for already allocated shift")
}

func TestIsShiftValidForGroup_CriterionVeto(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0},
		AllocatedShiftIndices: []int{},
	}

	veto := &mockCriterionWithValidity{
		mockCriterion: mockCriterion{name: "veto", affinityValue: 1.0, affinityWeight: 1.0},
		isValid:       false,
	}

	valid := IsShiftValidForGroup(state, group, state.Shifts[0], []Criterion{veto})
	assert.False(t, valid, "Any criterion veto should make the pairing invalid")
}

func TestIsShiftValidForGroup_AllValid(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0},
		AllocatedShiftIndices: []int{},
	}

	criteria := []Criterion{
		&mockCriterionWithValidity{
			mockCriterion: mockCriterion{name: "first", affinityValue: 0.5, affinityWeight: 2.0},
			isValid:       true,
		},
		&mockCriterionWithValidity{
			mockCriterion: mockCriterion{name: "second", affinityValue: 0.5, affinityWeight: 2.0},
			isValid:       true,
		},
	}

	valid := IsShiftValidForGroup(state, group, state.Shifts[0], criteria)
	assert.True(t, valid)
}

func TestCalculateShiftAffinity_GroupNotAvailable(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{1},
		AllocatedShiftIndices: []int{},
	}

	affinity := CalculateShiftAffinity(state, group, state.Shifts[0], []Criterion{})
	assert.Equal(t, 0.0, affinity, "Should return 0 for unavailable shift")
}

func TestCalculateShiftAffinity_GroupAlreadyAllocated(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0, 1},
		AllocatedShiftIndices: []int{0},
	}

	affinity := CalculateShiftAffinity(state, group, state.Shifts[0], []Criterion{})
	assert.Equal(t, 0.0, affinity, "Should return 0 for already allocated shift")
}

func TestCalculateShiftAffinity_InvalidShift(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0},
		AllocatedShiftIndices: []int{},
	}

	veto := &mockCriterionWithValidity{
		mockCriterion: mockCriterion{name: "veto", affinityValue: 1.0, affinityWeight: 1.0},
		isValid:       false,
	}

	affinity := CalculateShiftAffinity(state, group, state.Shifts[0], []Criterion{veto})
	assert.Equal(t, 0.0, affinity, "Vetoed pairing should carry zero affinity")
}

func TestCalculateShiftAffinity_NoCriteria(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0},
		AllocatedShiftIndices: []int{},
	}

	affinity := CalculateShiftAffinity(state, group, state.Shifts[0], []Criterion{})
	assert.Equal(t, 0.0, affinity)
}

func TestCalculateShiftAffinity_WeightedSum(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0},
		AllocatedShiftIndices: []int{},
	}

	criteria := []Criterion{
		&mockCriterion{name: "strong", affinityValue: 0.8, affinityWeight: 10.0},
		&mockCriterion{name: "weak", affinityValue: 0.5, affinityWeight: 5.0},
	}

	affinity := CalculateShiftAffinity(state, group, state.Shifts[0], criteria)

	// (0.8 * 10.0) + (0.5 * 5.0) = 10.5
	assert.Equal(t, 10.5, affinity)
}

func TestCalculateShiftAffinity_ZeroContributions(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0},
		AllocatedShiftIndices: []int{},
	}

	criteria := []Criterion{
		&mockCriterion{name: "high", affinityValue: 1.0, affinityWeight: 10.0},
		&mockCriterion{name: "none", affinityValue: 0.0, affinityWeight: 5.0},
		&mockCriterion{name: "mid", affinityValue: 0.5, affinityWeight: 2.0},
	}

	affinity := CalculateShiftAffinity(state, group, state.Shifts[0], criteria)

	// (1.0 * 10.0) + (0.0 * 5.0) + (0.5 * 2.0) = 11.0
	assert.Equal(t, 11.0, affinity)
}

func TestCalculateShiftAffinity_SingleVetoZeroesEverything(t *testing.T) {
	state := twoShiftState()

	group := &VolunteerGroup{
		GroupKey:              "group_a",
		AvailableShiftIndices: []int{0},
		AllocatedShiftIndices: []int{},
	}

	criteria := []Criterion{
		&mockCriterionWithValidity{
			mockCriterion: mockCriterion{name: "keen", affinityValue: 1.0, affinityWeight: 10.0},
			isValid:       true,
		},
		&mockCriterionWithValidity{
			mockCriterion: mockCriterion{name: "veto", affinityValue: 1.0, affinityWeight: 10.0},
			isValid:       false,
		},
	}

	affinity := CalculateShiftAffinity(state, group, state.Shifts[0], criteria)
	assert.Equal(t, 0.0, affinity, "A single veto should zero the whole sum")
}

func fullWeekAvailability(ids ...string) []VolunteerAvailability {
	availability := make([]VolunteerAvailability, 0, len(ids))
	for _, id := range ids {
		availability = append(availability, VolunteerAvailability{
			VolunteerID:             id,
			HasResponded:            true,
			UnavailableShiftIndices: []int{},
		})
	}
	return availability
}

func TestAllocate_ClosedShiftStaysEmpty(t *testing.T) {
	config := AllocationConfig{
		Volunteers: []Volunteer{
			{ID: "v1", FirstName: "Priya", LastName: "Nair", Gender: "Female", IsTeamLead: true},
			{ID: "v2", FirstName: "Owen", LastName: "Hart", Gender: "Male"},
			{ID: "v3", FirstName: "Marco", LastName: "Silva", Gender: "Male"},
			{ID: "v4", FirstName: "Ruth", LastName: "Adler", Gender: "Female"},
		},
		Availability: fullWeekAvailability("v1", "v2", "v3", "v4"),
		ShiftDates:   []string{"2025-02-02", "2025-02-09", "2025-02-16"},
		Overrides: []ShiftOverride{
			{
				AppliesTo: func(date string) bool { return date == "2025-02-09" },
				Closed:    true,
			},
		},
		DefaultShiftSize:       2,
		MaxAllocationFrequency: 1.0,
		HistoricalShifts:       []*Shift{},
		Criteria: []Criterion{
			&mockCriterion{name: "test", affinityValue: 1.0, affinityWeight: 1.0},
		},
		WeightCurrentRotaUrgency:       1.0,
		WeightOverallFrequencyFairness: 1.0,
		WeightPromoteGroup:             1.0,
	}

	outcome, err := Allocate(config)
	assert.NoError(t, err)
	assert.NotNil(t, outcome)

	assert.True(t, outcome.State.Shifts[1].Closed)
	assert.Empty(t, outcome.State.Shifts[1].AllocatedGroups, "Closed shift should have no allocated groups")
	assert.Nil(t, outcome.State.Shifts[1].TeamLead)

	assert.NotEmpty(t, outcome.State.Shifts[0].AllocatedGroups)
	assert.NotEmpty(t, outcome.State.Shifts[2].AllocatedGroups)

	assert.True(t, outcome.Success, "An empty closed shift is not a validation failure")
}

func TestAllocate_MultipleClosedShifts(t *testing.T) {
	config := AllocationConfig{
		Volunteers: []Volunteer{
			{ID: "v1", FirstName: "Priya", LastName: "Nair", Gender: "Female", IsTeamLead: true},
			{ID: "v2", FirstName: "Owen", LastName: "Hart", Gender: "Male"},
			{ID: "v3", FirstName: "Marco", LastName: "Silva", Gender: "Male"},
			{ID: "v4", FirstName: "Ruth", LastName: "Adler", Gender: "Female"},
		},
		Availability: fullWeekAvailability("v1", "v2", "v3", "v4"),
		ShiftDates:   []string{"2025-02-02", "2025-02-09", "2025-02-16", "2025-02-23"},
		Overrides: []ShiftOverride{
			{
				AppliesTo: func(date string) bool {
					return date == "2025-02-09" || date == "2025-02-23"
				},
				Closed: true,
			},
		},
		DefaultShiftSize:       2,
		MaxAllocationFrequency: 1.0,
		HistoricalShifts:       []*Shift{},
		Criteria: []Criterion{
			&mockCriterion{name: "test", affinityValue: 1.0, affinityWeight: 1.0},
		},
		WeightCurrentRotaUrgency:       1.0,
		WeightOverallFrequencyFairness: 1.0,
		WeightPromoteGroup:             1.0,
	}

	outcome, err := Allocate(config)
	assert.NoError(t, err)
	assert.NotNil(t, outcome)

	assert.True(t, outcome.State.Shifts[1].Closed)
	assert.Empty(t, outcome.State.Shifts[1].AllocatedGroups)
	assert.True(t, outcome.State.Shifts[3].Closed)
	assert.Empty(t, outcome.State.Shifts[3].AllocatedGroups)

	assert.NotEmpty(t, outcome.State.Shifts[0].AllocatedGroups)
	assert.NotEmpty(t, outcome.State.Shifts[2].AllocatedGroups)

	assert.True(t, outcome.Success)
}

func TestAllocate_RespectsMaxAllocationFrequency(t *testing.T) {
	config := AllocationConfig{
		Volunteers: []Volunteer{
			{ID: "v1", FirstName: "Priya", LastName: "Nair", Gender: "Female"},
			{ID: "v2", FirstName: "Owen", LastName: "Hart", Gender: "Male"},
		},
		Availability:           fullWeekAvailability("v1", "v2"),
		ShiftDates:             []string{"2025-02-02", "2025-02-09", "2025-02-16", "2025-02-23"},
		DefaultShiftSize:       1,
		MaxAllocationFrequency: 0.5, // cap of 2 shifts each
		HistoricalShifts:       []*Shift{},
		Criteria: []Criterion{
			&mockCriterion{name: "test", affinityValue: 1.0, affinityWeight: 1.0},
		},
		WeightCurrentRotaUrgency:       1.0,
		WeightOverallFrequencyFairness: 1.0,
		WeightPromoteGroup:             1.0,
	}

	outcome, err := Allocate(config)
	assert.NoError(t, err)

	counts := map[string]int{}
	for _, shift := range outcome.State.Shifts {
		for _, group := range shift.AllocatedGroups {
			for _, member := range group.Members {
				counts[member.ID]++
			}
		}
	}

	for id, count := range counts {
		assert.LessOrEqual(t, count, 2, "volunteer %s exceeded the allocation cap", id)
	}
}
