package postgres

import (
	"context"
	"fmt"

	"github.com/harborlight/rota/pkg/db"
)

// GetVolunteers retrieves the full roster
func (d *DB) GetVolunteers(ctx context.Context) ([]db.Volunteer, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, first_name, last_name, gender, role, status, group_key
		FROM volunteer
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []db.Volunteer
	for rows.Next() {
		var v db.Volunteer
		var groupKey *string
		if err := rows.Scan(&v.ID, &v.FirstName, &v.LastName, &v.Gender, &v.Role, &v.Status, &groupKey); err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		if groupKey != nil {
			v.GroupKey = *groupKey
		}
		volunteers = append(volunteers, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}

// InsertVolunteers inserts roster records in one transaction, updating
// records that already exist
func (d *DB) InsertVolunteers(ctx context.Context, volunteers []db.Volunteer) error {
	if len(volunteers) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, v := range volunteers {
		var groupKey *string
		if v.GroupKey != "" {
			groupKey = &v.GroupKey
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO volunteer (id, first_name, last_name, gender, role, status, group_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				first_name = EXCLUDED.first_name,
				last_name = EXCLUDED.last_name,
				gender = EXCLUDED.gender,
				role = EXCLUDED.role,
				status = EXCLUDED.status,
				group_key = EXCLUDED.group_key
		`, v.ID, v.FirstName, v.LastName, v.Gender, v.Role, v.Status, groupKey)
		if err != nil {
			return fmt.Errorf("failed to insert volunteer %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
