package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/equilibre-app/equilibre-api/internal/models"
)

// ManualHoursRepository persists self-reported weekly activity hours.
type ManualHoursRepository struct {
	db *sqlx.DB
}

// NewManualHoursRepository constructs a manual hours repository.
func NewManualHoursRepository(db *sqlx.DB) *ManualHoursRepository {
	return &ManualHoursRepository{db: db}
}

const manualHoursColumns = `id, user_id, week_start, hours, created_at, updated_at`

// ListInRange returns a user's entries whose week start falls in [start, end].
func (r *ManualHoursRepository) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ManualHoursEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM manual_hours WHERE user_id = $1 AND week_start BETWEEN $2 AND $3 ORDER BY week_start ASC`, manualHoursColumns)
	var entries []models.ManualHoursEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("list manual hours: %w", err)
	}
	return entries, nil
}

// Upsert inserts or replaces the entry for a user's week. One row per
// (user, week_start) pair is enforced by a unique constraint.
func (r *ManualHoursRepository) Upsert(ctx context.Context, entry *models.ManualHoursEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	const query = `INSERT INTO manual_hours (id, user_id, week_start, hours, created_at, updated_at)
VALUES (:id, :user_id, :week_start, :hours, :created_at, :updated_at)
ON CONFLICT (user_id, week_start) DO UPDATE SET hours = EXCLUDED.hours, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("upsert manual hours: %w", err)
	}
	return nil
}

// Delete removes the entry for a user's week.
func (r *ManualHoursRepository) Delete(ctx context.Context, userID string, weekStart time.Time) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM manual_hours WHERE user_id = $1 AND week_start = $2", userID, weekStart)
	if err != nil {
		return fmt.Errorf("delete manual hours: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
