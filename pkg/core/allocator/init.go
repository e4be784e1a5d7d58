package allocator

import (
	"fmt"
	"sort"
)

// VolunteerAvailability is one volunteer's availability response
type VolunteerAvailability struct {
	VolunteerID  string
	HasResponded bool
	// UnavailableShiftIndices are the shifts this volunteer ruled out.
	// Only meaningful when HasResponded is true.
	UnavailableShiftIndices []int
}

// InitVolunteerGroupsInput is the raw material for building the group pool
type InitVolunteerGroupsInput struct {
	Volunteers []Volunteer

	Availability []VolunteerAvailability

	// TotalShifts in the current rota
	TotalShifts int

	// HistoricalShifts for per-group historical allocation counts
	HistoricalShifts []*Shift
}

// InitVolunteerGroups partitions the roster into groups, derives per-group
// metadata and filters out groups that cannot take part.
//
// Availability logic:
//   - a group has responded if ANY member responded
//   - a group is unavailable on a shift if ANY responding member ruled it out
//   - non-responding members contribute nothing either way
//
// Groups with more than one team lead are an error. Groups where nobody
// responded, or with no availability left, are silently discarded. The
// surviving groups are sorted by GroupKey so runs are deterministic.
func InitVolunteerGroups(input InitVolunteerGroupsInput) (*VolunteerState, error) {
	availabilityMap := make(map[string]VolunteerAvailability, len(input.Availability))
	for _, avail := range input.Availability {
		availabilityMap[avail.VolunteerID] = avail
	}

	// Partition volunteers by GroupKey; individuals get a synthesised key
	groupMap := make(map[string][]Volunteer)
	for _, volunteer := range input.Volunteers {
		groupKey := volunteer.GroupKey
		if groupKey == "" {
			groupKey = "individual_" + volunteer.ID
		}
		groupMap[groupKey] = append(groupMap[groupKey], volunteer)
	}

	groups := make([]*VolunteerGroup, 0, len(groupMap))

	for groupKey, members := range groupMap {
		teamLeadCount := 0
		maleCount := 0

		for _, member := range members {
			if member.IsTeamLead {
				teamLeadCount++
			}
			if member.Gender == GenderMale {
				maleCount++
			}
		}

		if teamLeadCount > 1 {
			memberNames := make([]string, len(members))
			for i, member := range members {
				memberNames[i] = member.FirstName + " " + member.LastName
			}
			return nil, fmt.Errorf("group '%s' has %d team leads (max 1 allowed): %v",
				groupKey, teamLeadCount, memberNames)
		}

		groupHasResponded := false
		unavailableSet := make(map[int]bool)

		for _, member := range members {
			memberAvail, exists := availabilityMap[member.ID]
			if !exists {
				continue
			}

			if memberAvail.HasResponded {
				groupHasResponded = true

				for _, shiftIdx := range memberAvail.UnavailableShiftIndices {
					unavailableSet[shiftIdx] = true
				}
			}
		}

		if !groupHasResponded {
			continue
		}

		// Available on every shift no responding member ruled out
		availableShiftIndices := make([]int, 0, input.TotalShifts)
		for shiftIdx := 0; shiftIdx < input.TotalShifts; shiftIdx++ {
			if !unavailableSet[shiftIdx] {
				availableShiftIndices = append(availableShiftIndices, shiftIdx)
			}
		}

		if len(availableShiftIndices) == 0 {
			continue
		}

		groups = append(groups, &VolunteerGroup{
			GroupKey:                  groupKey,
			Members:                   members,
			AvailableShiftIndices:     availableShiftIndices,
			AllocatedShiftIndices:     []int{},
			HistoricalAllocationCount: calculateHistoricalAllocationCount(groupKey, input.HistoricalShifts),
			HasTeamLead:               teamLeadCount == 1,
			MaleCount:                 maleCount,
		})
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("no valid volunteer groups after initialization")
	}

	// Map iteration order is randomised; sort by key so downstream
	// behaviour is reproducible
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].GroupKey < groups[j].GroupKey
	})

	return &VolunteerState{
		VolunteerGroups:          groups,
		ExhaustedVolunteerGroups: make(map[*VolunteerGroup]bool),
	}, nil
}

// calculateHistoricalAllocationCount counts the prior-rota shifts a group
// appeared in, once per shift
func calculateHistoricalAllocationCount(groupKey string, historicalShifts []*Shift) int {
	count := 0
	for _, shift := range historicalShifts {
		for _, allocatedGroup := range shift.AllocatedGroups {
			if allocatedGroup.GroupKey == groupKey {
				count++
				break
			}
		}
	}
	return count
}

// BuildVolunteerGroup assembles a group record from known members, for
// callers reconstructing historical shifts from stored allocations
func BuildVolunteerGroup(groupKey string, members []Volunteer) *VolunteerGroup {
	if groupKey == "" && len(members) > 0 {
		groupKey = "individual_" + members[0].ID
	}

	hasTeamLead := false
	maleCount := 0
	for _, member := range members {
		if member.IsTeamLead {
			hasTeamLead = true
		}
		if member.Gender == GenderMale {
			maleCount++
		}
	}

	return &VolunteerGroup{
		GroupKey:    groupKey,
		Members:     members,
		HasTeamLead: hasTeamLead,
		MaleCount:   maleCount,
	}
}

// ShiftOverride customises the shifts whose dates its predicate matches
type ShiftOverride struct {
	// AppliesTo reports whether this override applies to the given shift
	// date. Callers expand recurrence rules into this predicate; the engine
	// never parses rule strings.
	AppliesTo func(date string) bool

	// ShiftSize replaces the default size when set. If several overrides
	// match one date, the last match wins.
	ShiftSize *int

	// CustomPreallocations are opaque entries that occupy slots without
	// being roster volunteers. Accumulated across all matching overrides.
	CustomPreallocations []string

	// Closed excludes the shift from allocation entirely and discards any
	// preallocations on it
	Closed bool

	// PreallocatedVolunteerIDs force roster volunteers onto the shift as
	// ordinary volunteers before the main loop runs
	PreallocatedVolunteerIDs []string

	// PreallocatedTeamLeadID forces a roster volunteer in as team lead
	PreallocatedTeamLeadID string
}

// InitShiftsInput is the data needed to materialise the rota's shifts
type InitShiftsInput struct {
	ShiftDates []string

	DefaultShiftSize int

	Overrides []ShiftOverride

	// VolunteerState supplies the groups for each shift's AvailableGroups
	VolunteerState *VolunteerState
}

// InitShifts materialises one Shift per date, applies overrides in order
// and indexes which groups are available for each shift. Closed shifts
// keep their size for display but lose their preallocations and get no
// available groups.
func InitShifts(input InitShiftsInput) ([]*Shift, error) {
	shifts := make([]*Shift, len(input.ShiftDates))

	for i, date := range input.ShiftDates {
		shiftSize := input.DefaultShiftSize
		closed := false
		var customPreallocations []string
		var preallocatedVolunteerIDs []string
		preallocatedTeamLeadID := ""

		for _, override := range input.Overrides {
			if !override.AppliesTo(date) {
				continue
			}

			if override.ShiftSize != nil {
				shiftSize = *override.ShiftSize
			}
			customPreallocations = append(customPreallocations, override.CustomPreallocations...)
			preallocatedVolunteerIDs = append(preallocatedVolunteerIDs, override.PreallocatedVolunteerIDs...)
			if override.PreallocatedTeamLeadID != "" {
				preallocatedTeamLeadID = override.PreallocatedTeamLeadID
			}
			if override.Closed {
				closed = true
			}
		}

		if closed {
			customPreallocations = nil
			preallocatedVolunteerIDs = nil
			preallocatedTeamLeadID = ""
		}

		availableGroups := make([]*VolunteerGroup, 0)
		if !closed {
			for _, group := range input.VolunteerState.VolunteerGroups {
				if group.IsAvailable(i) {
					availableGroups = append(availableGroups, group)
				}
			}
		}

		shifts[i] = &Shift{
			Date:                     date,
			Index:                    i,
			Size:                     shiftSize,
			AllocatedGroups:          []*VolunteerGroup{},
			CustomPreallocations:     customPreallocations,
			TeamLead:                 nil,
			MaleCount:                0,
			AvailableGroups:          availableGroups,
			Closed:                   closed,
			PreallocatedVolunteerIDs: preallocatedVolunteerIDs,
			PreallocatedTeamLeadID:   preallocatedTeamLeadID,
		}
	}

	return shifts, nil
}

// calculateCapacityMetrics sizes the pool against the rota: how many
// ordinary slot-fills the groups can supply, how many slots the engine
// must fill (custom preallocations already hold theirs), and how many
// shifts are open at all.
func calculateCapacityMetrics(volunteerState *VolunteerState, shifts []*Shift, maxAllocationCount int) (totalCapacity, totalSlotsNeeded, openShiftCount int) {
	for _, group := range volunteerState.VolunteerGroups {
		allocations := min(maxAllocationCount, len(group.AvailableShiftIndices))
		totalCapacity += allocations * group.OrdinaryVolunteerCount()
	}

	for _, shift := range shifts {
		if shift.Closed {
			continue
		}
		openShiftCount++
		totalSlotsNeeded += max(shift.Size-len(shift.CustomPreallocations), 0)
	}

	return totalCapacity, totalSlotsNeeded, openShiftCount
}

// weightOrDefault treats an unset ranking weight as 1
func weightOrDefault(weight float64) float64 {
	if weight == 0 {
		return 1
	}
	return weight
}

// InitAllocation validates the config and assembles a ready-to-run
// Allocator: groups built and ranked, shifts materialised, capacity
// metrics computed. Ranking weights left at zero default to 1.
func InitAllocation(config AllocationConfig) (Allocator, error) {
	if len(config.ShiftDates) == 0 {
		return Allocator{}, fmt.Errorf("no shift dates provided")
	}
	if len(config.Volunteers) == 0 {
		return Allocator{}, fmt.Errorf("no volunteers provided")
	}
	if config.DefaultShiftSize < 0 {
		return Allocator{}, fmt.Errorf("default shift size must be non-negative, got %d", config.DefaultShiftSize)
	}
	if config.MaxAllocationFrequency <= 0 || config.MaxAllocationFrequency > 1 {
		return Allocator{}, fmt.Errorf("max allocation frequency must be between 0 and 1, got %.2f", config.MaxAllocationFrequency)
	}

	volunteerState, err := InitVolunteerGroups(InitVolunteerGroupsInput{
		Volunteers:       config.Volunteers,
		Availability:     config.Availability,
		TotalShifts:      len(config.ShiftDates),
		HistoricalShifts: config.HistoricalShifts,
	})
	if err != nil {
		return Allocator{}, err
	}

	shifts, err := InitShifts(InitShiftsInput{
		ShiftDates:       config.ShiftDates,
		DefaultShiftSize: config.DefaultShiftSize,
		Overrides:        config.Overrides,
		VolunteerState:   volunteerState,
	})
	if err != nil {
		return Allocator{}, err
	}

	state := &RotaState{
		Shifts:                         shifts,
		VolunteerState:                 volunteerState,
		HistoricalShifts:               config.HistoricalShifts,
		MaxAllocationFrequency:         config.MaxAllocationFrequency,
		WeightCurrentRotaUrgency:       weightOrDefault(config.WeightCurrentRotaUrgency),
		WeightOverallFrequencyFairness: weightOrDefault(config.WeightOverallFrequencyFairness),
		WeightPromoteGroup:             weightOrDefault(config.WeightPromoteGroup),
	}

	state.TotalVolunteerCapacity, state.TotalSlotsNeeded, state.OpenShiftCount =
		calculateCapacityMetrics(volunteerState, shifts, state.MaxAllocationCount())

	RankVolunteerGroups(state, config.Criteria, config.MaxAllocationFrequency)

	return Allocator{
		criteria: config.Criteria,
		state:    state,
	}, nil
}
