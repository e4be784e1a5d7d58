package allocator

import (
	"fmt"
	"slices"
)

// ApplyPreallocations places forced allocations from shift overrides
// before the main loop runs. Preallocated volunteers are allocated
// regardless of their availability response; their availability is
// extended to cover the shift so the final state stays consistent.
// Closed shifts ignore their preallocations.
func (a *Allocator) ApplyPreallocations(state *RotaState) error {
	for _, shift := range state.Shifts {
		if shift.Closed {
			continue
		}

		if shift.PreallocatedTeamLeadID != "" {
			group, volunteer := findGroupByVolunteerID(state.VolunteerState, shift.PreallocatedTeamLeadID)
			if group == nil {
				return fmt.Errorf("preallocated volunteer not found: %s", shift.PreallocatedTeamLeadID)
			}
			if !volunteer.IsTeamLead {
				return fmt.Errorf("preallocated team lead %s is not marked as team lead", shift.PreallocatedTeamLeadID)
			}

			a.preallocateGroup(group, shift)
			shift.TeamLead = volunteer
		}

		for _, volunteerID := range shift.PreallocatedVolunteerIDs {
			group, _ := findGroupByVolunteerID(state.VolunteerState, volunteerID)
			if group == nil {
				return fmt.Errorf("preallocated volunteer not found: %s", volunteerID)
			}

			a.preallocateGroup(group, shift)
		}
	}

	return nil
}

// preallocateGroup force-allocates a group to a shift, skipping the
// usual validity checks. No-op if the group already holds the shift.
func (a *Allocator) preallocateGroup(group *VolunteerGroup, shift *Shift) {
	if group.IsAllocated(shift.Index) {
		return
	}

	// Forced allocations override availability; record it so allocation
	// counts and availability stay in agreement
	if !group.IsAvailable(shift.Index) {
		idx, _ := slices.BinarySearch(group.AvailableShiftIndices, shift.Index)
		group.AvailableShiftIndices = slices.Insert(group.AvailableShiftIndices, idx, shift.Index)
		shift.AvailableGroups = append(shift.AvailableGroups, group)
	}

	shift.AllocatedGroups = append(shift.AllocatedGroups, group)

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
}

// findGroupByVolunteerID looks a volunteer up across active and
// exhausted groups, returning the owning group and the member record
func findGroupByVolunteerID(volunteers *VolunteerState, volunteerID string) (*VolunteerGroup, *Volunteer) {
	for _, group := range volunteers.VolunteerGroups {
		for i := range group.Members {
			if group.Members[i].ID == volunteerID {
				return group, &group.Members[i]
			}
		}
	}
	for group := range volunteers.ExhaustedVolunteerGroups {
		for i := range group.Members {
			if group.Members[i].ID == volunteerID {
				return group, &group.Members[i]
			}
		}
	}
	return nil, nil
}
