package allocator

// ShiftValidationError reports one constraint violation in a final rota
// state. ShiftIndex is -1 for errors that span shifts.
type ShiftValidationError struct {
	ShiftIndex    int
	ShiftDate     string
	CriterionName string
	Description   string
}

// Criterion is a pluggable allocation policy. A criterion influences
// which groups are ranked first, which shifts they land on, and what the
// finished rota is checked against. Implementations read state but never
// mutate it, and must tolerate being asked about pairings they consider
// invalid (return 0 affinity rather than panic).
//
// Adding a criterion means adding one implementation; the engine itself
// never changes.
type Criterion interface {
	// Name is a stable identifier, used in validation errors
	Name() string

	// PromoteVolunteerGroup adjusts the group's ranking. Returns a value in
	// [-1, 1]; it is multiplied by GroupWeight and added to the score.
	// Positive values move the group toward the front of the queue.
	PromoteVolunteerGroup(state *RotaState, group *VolunteerGroup) float64

	// IsShiftValid is a hard constraint: returning false vetoes the pairing
	// no matter what any other criterion says.
	IsShiftValid(state *RotaState, group *VolunteerGroup, shift *Shift) bool

	// CalculateShiftAffinity is a soft preference in [0, 1], multiplied by
	// AffinityWeight and summed across criteria. Return 0 when the criterion
	// has no opinion.
	CalculateShiftAffinity(state *RotaState, group *VolunteerGroup, shift *Shift) float64

	// ValidateRotaState checks the finished rota against this criterion's
	// requirements. Runs after allocation; never panics.
	ValidateRotaState(state *RotaState) []ShiftValidationError

	// GroupWeight scales PromoteVolunteerGroup contributions
	GroupWeight() float64

	// AffinityWeight scales CalculateShiftAffinity contributions
	AffinityWeight() float64
}
