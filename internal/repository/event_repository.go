package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/equilibre-app/equilibre-api/internal/models"
)

// EventRepository persists scheduled events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, user_id, title, event_type, start_date, end_date, start_time, end_time, location, hourly_rate, created_at, updated_at`

// List returns events matching the filter with a total count. Results are
// always scoped to the filter's user.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.ScheduledEvent, int, error) {
	base := "FROM scheduled_events"
	where := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.EndDate)
	}
	if filter.EventType != "" {
		where = append(where, fmt.Sprintf("event_type = $%d", len(args)+1))
		args = append(args, filter.EventType)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY start_date ASC, start_time ASC LIMIT %d OFFSET %d`,
		eventColumns, base, whereClause, size, offset)
	var events []models.ScheduledEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// ListInRange returns every event of a user whose date range intersects
// [start, end], without pagination. Used to build analysis snapshots.
func (r *EventRepository) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ScheduledEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_events
WHERE user_id = $1 AND end_date >= $2 AND start_date <= $3
ORDER BY start_date ASC, start_time ASC`, eventColumns)
	var events []models.ScheduledEvent
	if err := r.db.SelectContext(ctx, &events, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("list events in range: %w", err)
	}
	return events, nil
}

// GetByID fetches an event owned by the given user.
func (r *EventRepository) GetByID(ctx context.Context, userID, id string) (*models.ScheduledEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM scheduled_events WHERE id = $1 AND user_id = $2 LIMIT 1`, eventColumns)
	var event models.ScheduledEvent
	if err := r.db.GetContext(ctx, &event, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, event *models.ScheduledEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO scheduled_events (id, user_id, title, event_type, start_date, end_date, start_time, end_time, location, hourly_rate, created_at, updated_at)
VALUES (:id, :user_id, :title, :event_type, :start_date, :end_date, :start_time, :end_time, :location, :hourly_rate, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies an event owned by its user.
func (r *EventRepository) Update(ctx context.Context, event *models.ScheduledEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE scheduled_events SET title = :title, event_type = :event_type, start_date = :start_date,
end_date = :end_date, start_time = :start_time, end_time = :end_time, location = :location, hourly_rate = :hourly_rate, updated_at = :updated_at
WHERE id = :id AND user_id = :user_id`
	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an event owned by the given user.
func (r *EventRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM scheduled_events WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
