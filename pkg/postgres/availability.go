package postgres

import (
	"context"
	"fmt"

	"github.com/harborlight/rota/pkg/db"
)

// GetAvailabilityResponses retrieves all availability response records
func (d *DB) GetAvailabilityResponses(ctx context.Context) ([]db.AvailabilityResponse, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, rota_id, volunteer_id, responded, unavailable_dates
		FROM availability_response
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability responses: %w", err)
	}
	defer rows.Close()

	var responses []db.AvailabilityResponse
	for rows.Next() {
		var r db.AvailabilityResponse
		if err := rows.Scan(&r.ID, &r.RotaID, &r.VolunteerID, &r.Responded, &r.UnavailableDates); err != nil {
			return nil, fmt.Errorf("failed to scan availability response: %w", err)
		}
		responses = append(responses, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability responses: %w", err)
	}

	return responses, nil
}

// InsertAvailabilityResponses inserts response records in one
// transaction. Re-importing a volunteer's response for a rota replaces
// the earlier one.
func (d *DB) InsertAvailabilityResponses(ctx context.Context, responses []db.AvailabilityResponse) error {
	if len(responses) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range responses {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_response (id, rota_id, volunteer_id, responded, unavailable_dates)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (rota_id, volunteer_id) DO UPDATE SET
				responded = EXCLUDED.responded,
				unavailable_dates = EXCLUDED.unavailable_dates
		`, r.ID, r.RotaID, r.VolunteerID, r.Responded, r.UnavailableDates)
		if err != nil {
			return fmt.Errorf("failed to insert availability response for volunteer %s: %w", r.VolunteerID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
