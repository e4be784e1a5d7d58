package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborlight/rota/pkg/db"
)

// RotaResult is the result of defining a new rota
type RotaResult struct {
	Rotation   *db.Rotation
	ShiftDates []time.Time
}

// DefineRota creates the next rota with the given number of weekly
// shifts. The new rota starts on the first Sunday after the latest
// existing rota ends, or next Sunday when there is no rota yet.
func DefineRota(ctx context.Context, database db.RotationStore, logger *zap.Logger, shiftCount int) (*RotaResult, error) {
	if shiftCount <= 0 {
		return nil, fmt.Errorf("shift count must be positive, got %d", shiftCount)
	}

	logger.Debug("Defining new rota", zap.Int("shift_count", shiftCount))

	rotations, err := database.GetRotations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rotations: %w", err)
	}
	logger.Debug("Found existing rotations", zap.Int("count", len(rotations)))

	var startDate time.Time
	if len(rotations) == 0 {
		startDate = nextSunday(time.Now())
		logger.Info("No existing rotations found, starting from next Sunday", zap.Time("start_date", startDate))
	} else {
		latestRota := findLatestRotation(rotations)
		logger.Debug("Latest rotation found",
			zap.String("id", latestRota.ID),
			zap.String("start", latestRota.Start),
			zap.Int("shift_count", latestRota.ShiftCount))

		latestStart, err := time.Parse("2006-01-02", latestRota.Start)
		if err != nil {
			return nil, fmt.Errorf("failed to parse latest rota start date: %w", err)
		}

		// Shifts are weekly, so the latest rota ends shift_count weeks in
		latestEnd := latestStart.AddDate(0, 0, 7*latestRota.ShiftCount)
		startDate = nextSundayAfter(latestEnd)
		logger.Debug("Calculated start date from latest rotation",
			zap.Time("latest_end", latestEnd),
			zap.Time("new_start", startDate))
	}

	rotation := &db.Rotation{
		ID:         uuid.New().String(),
		Start:      startDate.Format("2006-01-02"),
		ShiftCount: shiftCount,
	}

	if err := database.InsertRotation(ctx, rotation); err != nil {
		return nil, fmt.Errorf("failed to insert rotation: %w", err)
	}

	shiftDates := make([]time.Time, shiftCount)
	for i := 0; i < shiftCount; i++ {
		shiftDates[i] = startDate.AddDate(0, 0, 7*i)
	}

	logger.Debug("Rotation created successfully",
		zap.String("rotation_id", rotation.ID),
		zap.Int("shift_count", shiftCount),
		zap.String("first_shift", shiftDates[0].Format("2006-01-02")),
		zap.String("last_shift", shiftDates[len(shiftDates)-1].Format("2006-01-02")))

	return &RotaResult{
		Rotation:   rotation,
		ShiftDates: shiftDates,
	}, nil
}

// nextSunday returns the Sunday strictly after the given date
func nextSunday(from time.Time) time.Time {
	normalized := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	daysUntilSunday := (7 - int(normalized.Weekday())) % 7
	if daysUntilSunday == 0 {
		daysUntilSunday = 7
	}

	return normalized.AddDate(0, 0, daysUntilSunday)
}

// nextSundayAfter returns the first Sunday on or after the given date
func nextSundayAfter(from time.Time) time.Time {
	normalized := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)

	if normalized.Weekday() == time.Sunday {
		return normalized
	}

	daysUntilSunday := (7 - int(normalized.Weekday())) % 7
	return normalized.AddDate(0, 0, daysUntilSunday)
}
