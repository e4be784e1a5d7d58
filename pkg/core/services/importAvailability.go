package services

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/harborlight/rota/pkg/db"
)

// availabilityFile is the YAML document importAvailability reads
type availabilityFile struct {
	Responses []availabilityFileEntry `yaml:"responses"`
}

type availabilityFileEntry struct {
	VolunteerID      string   `yaml:"volunteerId"`
	Responded        bool     `yaml:"responded"`
	UnavailableDates []string `yaml:"unavailableDates,omitempty"`
}

// ImportAvailabilityResult summarises an availability import
type ImportAvailabilityResult struct {
	RotaID         string
	ImportedCount  int
	RespondedCount int
}

// ImportAvailabilityStore defines the database operations needed for
// importing availability
type ImportAvailabilityStore interface {
	GetRotations(ctx context.Context) ([]db.Rotation, error)
	GetVolunteers(ctx context.Context) ([]db.Volunteer, error)
	InsertAvailabilityResponses(ctx context.Context, responses []db.AvailabilityResponse) error
}

// ImportAvailability reads availability responses from a YAML file and
// stores them against the latest rota. Every volunteer ID must exist on
// the roster and every unavailable date must be one of the rota's shift
// dates.
func ImportAvailability(
	ctx context.Context,
	database ImportAvailabilityStore,
	logger *zap.Logger,
	path string,
) (*ImportAvailabilityResult, error) {
	logger.Debug("Starting importAvailability", zap.String("path", path))

	rotations, err := database.GetRotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rotations: %w", err)
	}
	if len(rotations) == 0 {
		return nil, fmt.Errorf("no rotations found - please define a rota first")
	}

	targetRota := findLatestRotation(rotations)
	logger.Debug("Importing against latest rota",
		zap.String("id", targetRota.ID),
		zap.String("start", targetRota.Start))

	shiftDates, err := calculateShiftDates(targetRota.Start, targetRota.ShiftCount)
	if err != nil {
		return nil, err
	}
	validDates := make(map[string]bool, len(shiftDates))
	for _, date := range shiftDates {
		validDates[date.Format("2006-01-02")] = true
	}

	volunteers, err := database.GetVolunteers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch volunteers: %w", err)
	}
	volunteerIDs := make(map[string]bool, len(volunteers))
	for _, v := range volunteers {
		volunteerIDs[v.ID] = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read availability file: %w", err)
	}

	var file availabilityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse availability file: %w", err)
	}
	if len(file.Responses) == 0 {
		return nil, fmt.Errorf("availability file contains no responses")
	}

	seen := make(map[string]bool, len(file.Responses))
	responses := make([]db.AvailabilityResponse, 0, len(file.Responses))
	respondedCount := 0

	for i, entry := range file.Responses {
		if entry.VolunteerID == "" {
			return nil, fmt.Errorf("responses[%d] has no volunteerId", i)
		}
		if !volunteerIDs[entry.VolunteerID] {
			return nil, fmt.Errorf("responses[%d]: volunteer %s not found on roster", i, entry.VolunteerID)
		}
		if seen[entry.VolunteerID] {
			return nil, fmt.Errorf("responses[%d]: duplicate response for volunteer %s", i, entry.VolunteerID)
		}
		seen[entry.VolunteerID] = true

		for _, date := range entry.UnavailableDates {
			if !validDates[date] {
				return nil, fmt.Errorf("responses[%d]: date %s is not a shift date of rota %s", i, date, targetRota.ID)
			}
		}

		if entry.Responded {
			respondedCount++
		}

		responses = append(responses, db.AvailabilityResponse{
			ID:               uuid.New().String(),
			RotaID:           targetRota.ID,
			VolunteerID:      entry.VolunteerID,
			Responded:        entry.Responded,
			UnavailableDates: entry.UnavailableDates,
		})
	}

	if err := database.InsertAvailabilityResponses(ctx, responses); err != nil {
		return nil, fmt.Errorf("failed to save availability responses: %w", err)
	}

	logger.Info("Availability imported",
		zap.String("rota_id", targetRota.ID),
		zap.Int("imported", len(responses)),
		zap.Int("responded", respondedCount))

	return &ImportAvailabilityResult{
		RotaID:         targetRota.ID,
		ImportedCount:  len(responses),
		RespondedCount: respondedCount,
	}, nil
}
