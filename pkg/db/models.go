package db

// Role is a volunteer's role on the roster
type Role string

const (
	RoleTeamLead  Role = "Team lead"
	RoleVolunteer Role = "Service volunteer"
)

func (r Role) IsValid() bool {
	return r == RoleTeamLead || r == RoleVolunteer
}

// Volunteer statuses. Only active volunteers take part in allocation.
const (
	StatusActive   = "Active"
	StatusInactive = "Inactive"
)

// Rotation is a database rotation record: a block of weekly shifts
type Rotation struct {
	ID         string
	Start      string // date, YYYY-MM-DD
	ShiftCount int
	// AllocatedDatetime is set when a rota has been allocated and saved,
	// RFC3339. Empty for unallocated rotas.
	AllocatedDatetime string
}

// Volunteer is a database roster record
type Volunteer struct {
	ID        string
	FirstName string
	LastName  string
	Gender    string
	Role      Role
	Status    string
	// GroupKey links volunteers who are always allocated together. Empty
	// for individuals.
	GroupKey string
}

// AvailabilityResponse is one volunteer's imported availability for one
// rota. A row with Responded false records that the volunteer was asked
// but never answered.
type AvailabilityResponse struct {
	ID          string
	RotaID      string
	VolunteerID string
	Responded   bool
	// UnavailableDates are shift dates (YYYY-MM-DD) the volunteer ruled out
	UnavailableDates []string
}

// Allocation is a database allocation record: one volunteer (or custom
// entry) on one shift. Exactly one of VolunteerID and CustomEntry is set.
type Allocation struct {
	ID          string
	RotaID      string
	ShiftDate   string
	Role        string
	VolunteerID string
	CustomEntry string
}
