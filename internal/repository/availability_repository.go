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

// AvailabilityRepository persists recurring unavailability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

const availabilityColumns = `id, user_id, day_of_week, start_time, end_time, reason, created_at, updated_at`

// ListByUser returns every unavailability window declared by a user.
func (r *AvailabilityRepository) ListByUser(ctx context.Context, userID string) ([]models.UnavailabilityWindow, error) {
	query := fmt.Sprintf(`SELECT %s FROM unavailability_windows WHERE user_id = $1
ORDER BY CASE day_of_week
	WHEN 'MONDAY' THEN 1 WHEN 'TUESDAY' THEN 2 WHEN 'WEDNESDAY' THEN 3 WHEN 'THURSDAY' THEN 4
	WHEN 'FRIDAY' THEN 5 WHEN 'SATURDAY' THEN 6 ELSE 7 END, start_time ASC`, availabilityColumns)
	var windows []models.UnavailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, userID); err != nil {
		return nil, fmt.Errorf("list unavailability windows: %w", err)
	}
	return windows, nil
}

// GetByID fetches a window owned by the given user.
func (r *AvailabilityRepository) GetByID(ctx context.Context, userID, id string) (*models.UnavailabilityWindow, error) {
	query := fmt.Sprintf(`SELECT %s FROM unavailability_windows WHERE id = $1 AND user_id = $2 LIMIT 1`, availabilityColumns)
	var window models.UnavailabilityWindow
	if err := r.db.GetContext(ctx, &window, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get unavailability window: %w", err)
	}
	return &window, nil
}

// Create inserts a window.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.UnavailabilityWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = now
	}
	window.UpdatedAt = now
	const query = `INSERT INTO unavailability_windows (id, user_id, day_of_week, start_time, end_time, reason, created_at, updated_at)
VALUES (:id, :user_id, :day_of_week, :start_time, :end_time, :reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create unavailability window: %w", err)
	}
	return nil
}

// Update modifies a window owned by its user.
func (r *AvailabilityRepository) Update(ctx context.Context, window *models.UnavailabilityWindow) error {
	window.UpdatedAt = time.Now().UTC()
	const query = `UPDATE unavailability_windows SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time,
reason = :reason, updated_at = :updated_at WHERE id = :id AND user_id = :user_id`
	result, err := r.db.NamedExecContext(ctx, query, window)
	if err != nil {
		return fmt.Errorf("update unavailability window: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a window owned by the given user.
func (r *AvailabilityRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM unavailability_windows WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete unavailability window: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
