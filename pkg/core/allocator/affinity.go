package allocator

// IsShiftValidForGroup reports whether a group may be allocated to a
// shift at all. False when the shift is closed or full, the group is not
// available for it or already on it, or any criterion vetoes the pairing.
func IsShiftValidForGroup(state *RotaState, group *VolunteerGroup, shift *Shift, criteria []Criterion) bool {
	if shift.Closed {
		return false
	}
	if shift.IsFull() {
		return false
	}
	if !group.IsAvailable(shift.Index) {
		return false
	}
	if group.IsAllocated(shift.Index) {
		return false
	}

	for _, criterion := range criteria {
		if !criterion.IsShiftValid(state, group, shift) {
			return false
		}
	}

	return true
}

// CalculateShiftAffinity scores how well a shift suits a group: 0 for
// invalid pairings, otherwise the weighted sum of every criterion's
// affinity. Higher is better.
func CalculateShiftAffinity(state *RotaState, group *VolunteerGroup, shift *Shift, criteria []Criterion) float64 {
	if !IsShiftValidForGroup(state, group, shift, criteria) {
		return 0
	}

	totalAffinity := 0.0
	for _, criterion := range criteria {
		totalAffinity += criterion.CalculateShiftAffinity(state, group, shift) * criterion.AffinityWeight()
	}

	return totalAffinity
}
