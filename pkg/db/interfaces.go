package db

import (
	"context"
	"time"
)

// RotationStore defines the rotation database operations
type RotationStore interface {
	GetRotations(ctx context.Context) ([]Rotation, error)
	InsertRotation(ctx context.Context, rotation *Rotation) error
	SetRotationAllocatedDatetime(ctx context.Context, rotaID string, datetime time.Time) error
}

// VolunteerStore defines the roster database operations
type VolunteerStore interface {
	GetVolunteers(ctx context.Context) ([]Volunteer, error)
	InsertVolunteers(ctx context.Context, volunteers []Volunteer) error
}

// AvailabilityStore defines the availability response database operations
type AvailabilityStore interface {
	GetAvailabilityResponses(ctx context.Context) ([]AvailabilityResponse, error)
	InsertAvailabilityResponses(ctx context.Context, responses []AvailabilityResponse) error
}

// AllocationStore defines the allocation database operations
type AllocationStore interface {
	GetAllocations(ctx context.Context) ([]Allocation, error)
	InsertAllocations(ctx context.Context, allocations []Allocation) error
}

// Database is the full set of database operations, implemented by
// postgres.DB
type Database interface {
	RotationStore
	VolunteerStore
	AvailabilityStore
	AllocationStore
}
