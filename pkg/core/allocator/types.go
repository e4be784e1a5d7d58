package allocator

import "slices"

// Gender constants
const (
	GenderMale = "Male"
)

// VolunteerState manages the volunteer groups and tracks exhaustion status
type VolunteerState struct {
	// VolunteerGroups still in the running, ordered by current ranking score
	VolunteerGroups []*VolunteerGroup

	// ExhaustedVolunteerGroups tracks groups removed from the ranking.
	// A group is exhausted once it has been allocated to every shift it can
	// take, or has hit the max allocation count. One-way within a run.
	ExhaustedVolunteerGroups map[*VolunteerGroup]bool
}

// RotaState is the complete allocation state for one run
type RotaState struct {
	// Shifts being filled, ordered by index
	Shifts []*Shift

	// VolunteerState manages volunteer groups and exhaustion tracking
	VolunteerState *VolunteerState

	// HistoricalShifts from previous rotas (read-only; only Date and
	// AllocatedGroups are meaningful)
	HistoricalShifts []*Shift

	// MaxAllocationFrequency is the ratio of shifts any one group may be
	// allocated (e.g. 0.33 = a third of the rota). The absolute cap is
	// floor(len(Shifts) * MaxAllocationFrequency).
	MaxAllocationFrequency float64

	// Built-in ranking weights
	WeightCurrentRotaUrgency       float64
	WeightOverallFrequencyFairness float64
	WeightPromoteGroup             float64

	// Capacity metrics, computed once at init.
	// TotalVolunteerCapacity is the number of ordinary slot-fills the pool
	// can supply; TotalSlotsNeeded is the number of slots the engine itself
	// has to fill across open shifts; OpenShiftCount excludes closed shifts.
	TotalVolunteerCapacity int
	TotalSlotsNeeded       int
	OpenShiftCount         int
}

// MaxAllocationCount returns the maximum number of shifts a single group
// can be allocated to in this rota
func (rs *RotaState) MaxAllocationCount() int {
	return int(float64(len(rs.Shifts)) * rs.MaxAllocationFrequency)
}

// IsResourceConstrained reports whether the pool cannot fill every open
// shift to its target size. Criteria use this to switch from "fill shifts
// completely" to "spread volunteers evenly".
func (rs *RotaState) IsResourceConstrained() bool {
	return rs.TotalVolunteerCapacity < rs.TotalSlotsNeeded
}

// ExpectedFillPerShift returns the fair share of volunteers per open shift
// given the pool's total capacity
func (rs *RotaState) ExpectedFillPerShift() float64 {
	if rs.OpenShiftCount == 0 {
		return 0
	}
	return float64(rs.TotalVolunteerCapacity) / float64(rs.OpenShiftCount)
}

// VolunteerGroup is a unit of co-allocation: a couple, a family, or a
// single volunteer. Groups are shared by reference between the ranked
// list, the shifts they are allocated to, and the exhausted set.
type VolunteerGroup struct {
	// GroupKey uniquely identifies the group. Individuals get a synthesised
	// "individual_<id>" key during init.
	GroupKey string

	// Members in this group. At most one member is a team lead.
	Members []Volunteer

	// AvailableShiftIndices are the shifts this group can be assigned to, sorted
	AvailableShiftIndices []int

	// AllocatedShiftIndices are the shifts this group has been assigned to,
	// sorted, always a subset of AvailableShiftIndices
	AllocatedShiftIndices []int

	// HistoricalAllocationCount is how many prior-rota shifts this group
	// appeared in, counted once per shift
	HistoricalAllocationCount int

	// HasTeamLead is true if any member is a team lead
	HasTeamLead bool

	// MaleCount is the number of male members (team leads included)
	MaleCount int
}

// Volunteer is an immutable roster record
type Volunteer struct {
	ID         string
	FirstName  string
	LastName   string
	Gender     string
	IsTeamLead bool
	GroupKey   string
}

// Shift is a single dated assignment slot
type Shift struct {
	// Date in display form
	Date string

	// Index is the 0-based position in the current rota
	Index int

	// Size is the target number of ordinary volunteers. The team lead is
	// additional and never counts toward Size.
	Size int

	// AllocatedGroups references the groups assigned so far
	AllocatedGroups []*VolunteerGroup

	// CustomPreallocations are opaque identifiers from overrides. They count
	// toward Size but carry no gender or role semantics.
	CustomPreallocations []string

	// TeamLead is the team-lead volunteer once assigned (nil until then).
	// Does not count toward Size.
	TeamLead *Volunteer

	// MaleCount is the number of male volunteers allocated via
	// AllocatedGroups. Custom preallocations never contribute.
	MaleCount int

	// AvailableGroups references every group whose availability covers this
	// shift (populated during init; empty for closed shifts)
	AvailableGroups []*VolunteerGroup

	// Closed shifts appear in the rota but are never filled
	Closed bool

	// PreallocatedVolunteerIDs are roster volunteers forced onto this shift
	// as ordinary volunteers before the main loop runs
	PreallocatedVolunteerIDs []string

	// PreallocatedTeamLeadID is a roster volunteer forced in as team lead
	PreallocatedTeamLeadID string
}

// CurrentSize returns the number of ordinary volunteers currently occupying
// this shift, custom preallocations included
func (s *Shift) CurrentSize() int {
	size := len(s.CustomPreallocations)
	for _, group := range s.AllocatedGroups {
		for _, member := range group.Members {
			if !member.IsTeamLead {
				size++
			}
		}
	}
	return size
}

// IsFull returns true once the shift has reached its target size
func (s *Shift) IsFull() bool {
	return s.CurrentSize() >= s.Size
}

// RemainingCapacity returns how many more ordinary volunteers this shift
// can still take
func (s *Shift) RemainingCapacity() int {
	return max(s.Size-s.CurrentSize(), 0)
}

// buildAllocatedGroupSet indexes the groups already on this shift for
// O(1) membership checks
func (s *Shift) buildAllocatedGroupSet() map[*VolunteerGroup]bool {
	allocatedSet := make(map[*VolunteerGroup]bool, len(s.AllocatedGroups))
	for _, group := range s.AllocatedGroups {
		allocatedSet[group] = true
	}
	return allocatedSet
}

// RemainingAvailableVolunteers counts the ordinary volunteers this shift
// could still draw on: members of groups that are available here, not
// exhausted, not already on the shift, and small enough to fit in the
// remaining capacity. The ShiftSize affinity treats a shift with few
// remaining candidates as more urgent.
func (s *Shift) RemainingAvailableVolunteers(state *RotaState) int {
	count := 0
	remainingCapacity := s.RemainingCapacity()
	allocatedSet := s.buildAllocatedGroupSet()

	for _, group := range s.AvailableGroups {
		if state.VolunteerState.ExhaustedVolunteerGroups[group] {
			continue
		}
		if allocatedSet[group] {
			continue
		}

		ordinary := group.OrdinaryVolunteerCount()

		// Groups too large to fit can never fill this shift
		if ordinary > remainingCapacity {
			continue
		}

		count += ordinary
	}

	return count
}

// RemainingAvailableTeamLeads counts the team-lead-bearing groups this
// shift could still draw on (available, not exhausted, not already here)
func (s *Shift) RemainingAvailableTeamLeads(state *RotaState) int {
	count := 0
	allocatedSet := s.buildAllocatedGroupSet()

	for _, group := range s.AvailableGroups {
		if state.VolunteerState.ExhaustedVolunteerGroups[group] {
			continue
		}
		if allocatedSet[group] {
			continue
		}
		if group.HasTeamLead {
			count++
		}
	}

	return count
}

// RemainingAvailableMaleVolunteers counts the male volunteers this shift
// could still draw on, with the same exclusions as
// RemainingAvailableVolunteers
func (s *Shift) RemainingAvailableMaleVolunteers(state *RotaState) int {
	count := 0
	remainingCapacity := s.RemainingCapacity()
	allocatedSet := s.buildAllocatedGroupSet()

	for _, group := range s.AvailableGroups {
		if state.VolunteerState.ExhaustedVolunteerGroups[group] {
			continue
		}
		if allocatedSet[group] {
			continue
		}
		if group.OrdinaryVolunteerCount() > remainingCapacity {
			continue
		}

		count += group.MaleCount
	}

	return count
}

// IsAvailable returns true if the group can be assigned to the given shift
func (vg *VolunteerGroup) IsAvailable(shiftIndex int) bool {
	return slices.Contains(vg.AvailableShiftIndices, shiftIndex)
}

// IsAllocated returns true if the group already holds the given shift
func (vg *VolunteerGroup) IsAllocated(shiftIndex int) bool {
	return slices.Contains(vg.AllocatedShiftIndices, shiftIndex)
}

// TotalAllocationCount returns historical plus current-rota allocations
func (vg *VolunteerGroup) TotalAllocationCount() int {
	return vg.HistoricalAllocationCount + len(vg.AllocatedShiftIndices)
}

// OrdinaryVolunteerCount returns the number of non-team-lead members
func (vg *VolunteerGroup) OrdinaryVolunteerCount() int {
	count := 0
	for _, member := range vg.Members {
		if !member.IsTeamLead {
			count++
		}
	}
	return count
}

// DesiredRemainingAllocations returns how many more shifts this group
// would need to hit the target frequency across all rotas seen so far:
//
//	floor((historicalShifts + currentShifts) * targetFrequency)
//	  - allocations to date
//
// Negative results mean the group is ahead of its target.
func (vg *VolunteerGroup) DesiredRemainingAllocations(totalHistoricalShifts, totalCurrentShifts int, targetFrequency float64) int {
	totalShifts := totalHistoricalShifts + totalCurrentShifts
	targetAllocations := int(float64(totalShifts) * targetFrequency)
	return targetAllocations - vg.TotalAllocationCount()
}
