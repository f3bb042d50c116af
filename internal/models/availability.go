package models

import "time"

// UnavailabilityWindow is a recurring weekly window in which the user is not
// available for scheduled activity. A nil EndTime means "rest of the day".
type UnavailabilityWindow struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   *string   `db:"end_time" json:"end_time,omitempty"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
