package models

import "time"

// Event type strings recognised by the balance engine's category table.
// The backend treats event types as free-form, so these are conventions,
// not a closed set.
const (
	EventTypeWork     = "work"
	EventTypeStudy    = "study"
	EventTypeDeadline = "deadline"
	EventTypeOther    = "other"
)

// ScheduledEvent represents a calendar entry owned by a user. Times are
// stored as HH:MM strings; an event may span several days and applies the
// same time range to each day in [StartDate, EndDate].
type ScheduledEvent struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Title      string    `db:"title" json:"title"`
	EventType  string    `db:"event_type" json:"event_type"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	Location   *string   `db:"location" json:"location,omitempty"`
	HourlyRate *float64  `db:"hourly_rate" json:"hourly_rate,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows down scheduled events.
type EventFilter struct {
	UserID    string
	StartDate *time.Time
	EndDate   *time.Time
	EventType string
	Page      int
	PageSize  int
}
