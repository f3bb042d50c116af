// Package balance implements the routine-balance analysis engine: a pure,
// stateless pipeline that turns a snapshot of calendar events, recurring
// unavailability windows and self-reported activity hours into an equilibrium
// score, conflict and overload listings, and deterministic recommendations.
// It performs no I/O — callers supply pre-fetched records and receive an
// immutable result.
package balance

import "time"

// Category is one of the fixed life categories events are folded into.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryStudy    Category = "study"
	CategoryRest     Category = "rest"
	CategoryActivity Category = "activity"
	CategoryOther    Category = "other"
)

// Categories lists every category in canonical order.
var Categories = []Category{CategoryWork, CategoryStudy, CategoryRest, CategoryActivity, CategoryOther}

// EventInput is a raw calendar event row. Dates use 2006-01-02, times HH:MM.
// EndDate may be empty, meaning the event covers only Date; a multi-day
// event applies the same time range to each day of its range.
type EventInput struct {
	ID         string
	Title      string
	Type       string
	Date       string
	EndDate    string
	StartTime  string
	EndTime    string
	Location   *string
	HourlyRate *float64
}

// UnavailabilityInput is a raw recurring unavailability row. A nil EndTime
// means the window extends to the end of the day.
type UnavailabilityInput struct {
	Weekday   string
	StartTime string
	EndTime   *string
}

// ManualHoursInput is a self-reported activity bucket keyed by week start.
type ManualHoursInput struct {
	WeekStart string
	Hours     float64
}

// Window is the inclusive analysis date range.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Input is the full snapshot one analysis run operates on.
type Input struct {
	Events         []EventInput
	Unavailability []UnavailabilityInput
	ManualHours    []ManualHoursInput
	Window         Window
}

// TimeInterval is a time range anchored to a single calendar day. Minutes
// count from midnight; intervals never span midnight.
type TimeInterval struct {
	Day         time.Time `json:"day"`
	StartMinute int       `json:"start_minute"`
	EndMinute   int       `json:"end_minute"`
}

// Minutes returns the interval duration in minutes.
func (i TimeInterval) Minutes() int {
	return i.EndMinute - i.StartMinute
}

// Overlaps reports whether two same-day intervals overlap using half-open
// semantics: touching endpoints do not overlap.
func (i TimeInterval) Overlaps(other TimeInterval) bool {
	if !i.Day.Equal(other.Day) {
		return false
	}
	return i.StartMinute < other.EndMinute && other.StartMinute < i.EndMinute
}

// CategoryTotals accumulates hours and percentage shares per category over
// the analysis window. Percentages are computed over total accounted hours
// (committed event hours plus manual activity hours) and sum to 100 within
// rounding, or are all zero for an empty week.
type CategoryTotals struct {
	Hours               map[Category]float64 `json:"hours"`
	Percentages         map[Category]float64 `json:"percentages"`
	TotalCommittedHours float64              `json:"total_committed_hours"`
	TotalAccountedHours float64              `json:"total_accounted_hours"`
	IsEmptyWeek         bool                 `json:"is_empty_week"`
}

// UnavailabilityRef is the sentinel event id reported for conflicts against
// a declared unavailability window.
const UnavailabilityRef = "unavailability"

// Conflict records one overlapping pair of same-day intervals. EventB is
// UnavailabilityRef when the counterpart is a declared unavailability window.
type Conflict struct {
	Date           string `json:"date"`
	EventA         string `json:"event_a"`
	EventB         string `json:"event_b"`
	OverlapMinutes int    `json:"overlap_minutes"`
}

// OverloadReason explains why a day was flagged.
type OverloadReason string

const (
	OverloadDailyCap  OverloadReason = "exceeds-daily-cap"
	OverloadNoRestGap OverloadReason = "no-rest-gap"
)

// OverloadedDay flags a single day for a single reason; a day carrying both
// reasons appears twice.
type OverloadedDay struct {
	Date       time.Time      `json:"date"`
	TotalHours float64        `json:"total_hours"`
	Reason     OverloadReason `json:"reason"`
}

// ScoreBreakdown retains every term feeding the final equilibrium score.
type ScoreBreakdown struct {
	BaseScore        float64 `json:"base_score"`
	WorkStudyBalance float64 `json:"work_study_balance"`
	RestPenalty      float64 `json:"rest_penalty"`
	ConflictPenalty  float64 `json:"conflict_penalty"`
	OverloadPenalty  float64 `json:"overload_penalty"`
	Bonuses          float64 `json:"bonuses"`
	FinalScore       float64 `json:"final_score"`
}

// Priority ranks recommendations.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Recommendation is one templated, prioritised advice entry.
type Recommendation struct {
	Category        Category `json:"category"`
	Priority        Priority `json:"priority"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	SuggestedAction string   `json:"suggested_action,omitempty"`
}

// SuggestionKind names the concrete action an optimization suggestion proposes.
type SuggestionKind string

const (
	SuggestionMove   SuggestionKind = "move"
	SuggestionAdd    SuggestionKind = "add"
	SuggestionRemove SuggestionKind = "remove"
	SuggestionMerge  SuggestionKind = "merge"
	SuggestionPause  SuggestionKind = "pause"
)

// OptimizationSuggestion is a day-specific, concrete schedule adjustment.
type OptimizationSuggestion struct {
	Date            time.Time      `json:"date"`
	Kind            SuggestionKind `json:"kind"`
	Description     string         `json:"description"`
	EstimatedImpact string         `json:"estimated_impact"`
}

// Result is the immutable aggregate produced by one analysis run.
type Result struct {
	Window          Window                   `json:"window"`
	Totals          CategoryTotals           `json:"totals"`
	Conflicts       []Conflict               `json:"conflicts"`
	OverloadedDays  []OverloadedDay          `json:"overloaded_days"`
	Score           ScoreBreakdown           `json:"score"`
	Recommendations []Recommendation         `json:"recommendations"`
	Suggestions     []OptimizationSuggestion `json:"suggestions"`
}
