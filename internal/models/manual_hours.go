package models

import "time"

// ManualHoursEntry is a coarse, self-reported bucket of activity time keyed
// by the start date of the week it belongs to. Entries carry no time-of-day
// information and never participate in conflict detection.
type ManualHoursEntry struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	WeekStart time.Time `db:"week_start" json:"week_start"`
	Hours     float64   `db:"hours" json:"hours"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
