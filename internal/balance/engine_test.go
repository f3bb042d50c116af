package balance

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekWindow() Window {
	return Window{Start: "2026-01-05", End: "2026-01-11"}
}

func strPtr(s string) *string { return &s }

func TestAnalyzeWorkStudyWeek(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "ev-work", Title: "Shift", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "17:00"},
			{ID: "ev-study", Title: "Revision", Type: "study", Date: "2026-01-05", StartTime: "17:00", EndTime: "19:00"},
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)

	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.OverloadedDays)
	assert.False(t, result.Totals.IsEmptyWeek)
	assert.InDelta(t, 10, result.Totals.TotalCommittedHours, 0.001)
	assert.InDelta(t, 10, result.Totals.TotalAccountedHours, 0.001)
	assert.InDelta(t, 80, result.Totals.Percentages[CategoryWork], 0.001)
	assert.InDelta(t, 20, result.Totals.Percentages[CategoryStudy], 0.001)

	// base 70, no balance bonus, clean-week bonus 5, rest shortfall 8h -> 12.
	assert.InDelta(t, 63, result.Score.FinalScore, 0.001)
	assert.InDelta(t, 5, result.Score.Bonuses, 0.001)
	assert.InDelta(t, 12, result.Score.RestPenalty, 0.001)
	assert.Zero(t, result.Score.ConflictPenalty)
	assert.Zero(t, result.Score.OverloadPenalty)

	require.Len(t, result.Recommendations, 4)
	priorities := make([]Priority, 0, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		priorities = append(priorities, rec.Priority)
	}
	assert.Equal(t, []Priority{PriorityHigh, PriorityHigh, PriorityHigh, PriorityMedium}, priorities)
	assert.Equal(t, "Schedule more rest", result.Recommendations[0].Title)
}

func TestAnalyzeSingleOverlapConflict(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "ev-a", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "12:00"},
			{ID: "ev-b", Type: "work", Date: "2026-01-05", StartTime: "11:00", EndTime: "14:00"},
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, Conflict{
		Date:           "2026-01-05",
		EventA:         "ev-a",
		EventB:         "ev-b",
		OverlapMinutes: 60,
	}, result.Conflicts[0])
	assert.InDelta(t, 5, result.Score.ConflictPenalty, 0.001)
	assert.Zero(t, result.Score.Bonuses)
}

func TestAnalyzeBackToBackBlocksOverloadBothReasons(t *testing.T) {
	// Five 3h blocks from 05:00 to 20:00: 15h exceeds the 14h cap, and the
	// remaining open stretches (5h before, 4h after) are both under 6h.
	events := make([]EventInput, 0, 5)
	starts := []string{"05:00", "08:00", "11:00", "14:00", "17:00"}
	ends := []string{"08:00", "11:00", "14:00", "17:00", "20:00"}
	for i := range starts {
		events = append(events, EventInput{
			ID: "block-" + starts[i], Type: "work",
			Date: "2026-01-05", StartTime: starts[i], EndTime: ends[i],
		})
	}

	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{Events: events, Window: weekWindow()})
	require.NoError(t, err)

	assert.Empty(t, result.Conflicts, "touching blocks must not conflict")

	require.Len(t, result.OverloadedDays, 2)
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	reasons := map[OverloadReason]bool{}
	for _, od := range result.OverloadedDays {
		assert.True(t, od.Date.Equal(day))
		assert.InDelta(t, 15, od.TotalHours, 0.001)
		reasons[od.Reason] = true
	}
	assert.True(t, reasons[OverloadDailyCap])
	assert.True(t, reasons[OverloadNoRestGap])

	// base 70, crowd-out -5, rest shortfall -12, two overload flags -12.
	assert.InDelta(t, 41, result.Score.FinalScore, 0.001)

	require.NotEmpty(t, result.Suggestions)
	kinds := map[SuggestionKind]bool{}
	for _, s := range result.Suggestions {
		kinds[s.Kind] = true
	}
	assert.True(t, kinds[SuggestionMove])
	assert.True(t, kinds[SuggestionPause])
}

func TestAnalyzeEmptyWeekIsNeutral(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{Window: weekWindow()})
	require.NoError(t, err)

	assert.True(t, result.Totals.IsEmptyWeek)
	assert.InDelta(t, 50, result.Score.FinalScore, 0.001)
	assert.Zero(t, result.Score.BaseScore)
	assert.Zero(t, result.Score.RestPenalty)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.OverloadedDays)
	assert.Empty(t, result.Recommendations)

	for _, cat := range Categories {
		assert.Zero(t, result.Totals.Percentages[cat])
	}

	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, SuggestionAdd, result.Suggestions[0].Kind)
	assert.True(t, result.Suggestions[0].Date.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)))
}

func TestAnalyzeEventAgainstUnavailability(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "ev-late", Type: "study", Date: "2026-01-11", StartTime: "21:30", EndTime: "23:00"},
		},
		Unavailability: []UnavailabilityInput{
			{Weekday: "SUNDAY", StartTime: "22:00"}, // open end: rest of day
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)

	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, Conflict{
		Date:           "2026-01-11",
		EventA:         "ev-late",
		EventB:         UnavailabilityRef,
		OverlapMinutes: 60,
	}, result.Conflicts[0])

	// Unavailability never contributes committed hours.
	assert.InDelta(t, 1.5, result.Totals.TotalCommittedHours, 0.001)
}

func TestAnalyzeConflictsPermutationInvariant(t *testing.T) {
	events := []EventInput{
		{ID: "a", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "12:00"},
		{ID: "b", Type: "study", Date: "2026-01-05", StartTime: "10:00", EndTime: "13:00"},
		{ID: "c", Type: "other", Date: "2026-01-05", StartTime: "11:00", EndTime: "15:00"},
		{ID: "d", Type: "work", Date: "2026-01-07", StartTime: "08:00", EndTime: "09:30"},
		{ID: "e", Type: "work", Date: "2026-01-07", StartTime: "09:00", EndTime: "10:00"},
	}
	engine := NewEngine(Config{})

	baseline, err := engine.Analyze(Input{Events: events, Window: weekWindow()})
	require.NoError(t, err)
	require.Len(t, baseline.Conflicts, 4)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]EventInput, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		result, err := engine.Analyze(Input{Events: shuffled, Window: weekWindow()})
		require.NoError(t, err)
		assert.Equal(t, baseline.Conflicts, result.Conflicts)
	}
}

func TestAnalyzeSameClockDifferentDaysNoConflict(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "mon", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "12:00"},
			{ID: "tue", Type: "work", Date: "2026-01-06", StartTime: "09:00", EndTime: "12:00"},
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
}

func TestConfigNegativeTermDisables(t *testing.T) {
	cfg := Config{CleanWeekBonus: -1, CrowdOutPenalty: -1}.withDefaults()
	assert.Zero(t, cfg.CleanWeekBonus)
	assert.Zero(t, cfg.CrowdOutPenalty)
	assert.InDelta(t, DefaultConfig().ConflictPenaltyEach, cfg.ConflictPenaltyEach, 0.001)

	engine := NewEngine(Config{CleanWeekBonus: -1})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "ev-work", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "17:00"},
			{ID: "ev-study", Type: "study", Date: "2026-01-05", StartTime: "17:00", EndTime: "19:00"},
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)

	// Same week as TestAnalyzeWorkStudyWeek, minus the clean-week bonus.
	assert.Zero(t, result.Score.Bonuses)
	assert.InDelta(t, 58, result.Score.FinalScore, 0.001)
}

func TestAnalyzeOneMinuteOverlapConflicts(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "first", Type: "work", Date: "2026-01-06", StartTime: "09:00", EndTime: "10:00"},
			{ID: "second", Type: "work", Date: "2026-01-06", StartTime: "09:59", EndTime: "11:00"},
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, 1, result.Conflicts[0].OverlapMinutes)
}

func TestAnalyzeScoreStaysInRange(t *testing.T) {
	engine := NewEngine(Config{})
	inputs := []Input{
		{Window: weekWindow()},
		{
			Window: weekWindow(),
			Events: []EventInput{
				{ID: "w", Type: "work", Date: "2026-01-05", StartTime: "00:30", EndTime: "23:30"},
				{ID: "x", Type: "work", Date: "2026-01-05", StartTime: "01:00", EndTime: "22:00"},
				{ID: "y", Type: "work", Date: "2026-01-06", StartTime: "00:30", EndTime: "23:30"},
				{ID: "z", Type: "work", Date: "2026-01-06", StartTime: "01:00", EndTime: "22:00"},
				{ID: "q", Type: "work", Date: "2026-01-07", StartTime: "00:30", EndTime: "23:30"},
			},
			Unavailability: []UnavailabilityInput{
				{Weekday: "MONDAY", StartTime: "00:00"},
				{Weekday: "TUESDAY", StartTime: "00:00"},
			},
		},
		{
			Window: weekWindow(),
			Events: []EventInput{
				{ID: "rest", Type: "rest", Date: "2026-01-08", StartTime: "08:00", EndTime: "20:00"},
			},
			ManualHours: []ManualHoursInput{{WeekStart: "2026-01-05", Hours: 4}},
		},
	}
	for _, in := range inputs {
		result, err := engine.Analyze(in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Score.FinalScore, 0.0)
		assert.LessOrEqual(t, result.Score.FinalScore, 100.0)
	}
}

func TestAnalyzePercentagesSumToHundred(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "w", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "16:20"},
			{ID: "s", Type: "deadline", Date: "2026-01-06", StartTime: "10:00", EndTime: "11:45"},
			{ID: "r", Type: "rest", Date: "2026-01-07", StartTime: "13:00", EndTime: "14:10"},
			{ID: "o", Type: "mystery-type", Date: "2026-01-08", StartTime: "08:00", EndTime: "09:00"},
		},
		ManualHours: []ManualHoursInput{{WeekStart: "2026-01-05", Hours: 3.5}},
		Window:      weekWindow(),
	})
	require.NoError(t, err)

	var sum float64
	for _, cat := range Categories {
		sum += result.Totals.Percentages[cat]
	}
	assert.InDelta(t, 100, sum, 0.0001)

	// deadline counts as study, unknown types as other, manual hours as activity.
	assert.Positive(t, result.Totals.Percentages[CategoryStudy])
	assert.Positive(t, result.Totals.Percentages[CategoryOther])
	assert.InDelta(t, 3.5, result.Totals.Hours[CategoryActivity], 0.001)
}

func TestAnalyzeManualHoursOutsideWindowIgnored(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "w", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "10:00"},
		},
		ManualHours: []ManualHoursInput{
			{WeekStart: "2025-12-29", Hours: 6},
			{WeekStart: "2026-01-05", Hours: 2},
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)
	assert.InDelta(t, 2, result.Totals.Hours[CategoryActivity], 0.001)
	assert.InDelta(t, 3, result.Totals.TotalAccountedHours, 0.001)
}

func TestAnalyzeMultiDayEventSpansEachDay(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "conf", Type: "work", Date: "2026-01-06", EndDate: "2026-01-08", StartTime: "09:00", EndTime: "12:00"},
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)
	assert.InDelta(t, 9, result.Totals.TotalCommittedHours, 0.001)
}

func TestAnalyzeInputErrors(t *testing.T) {
	engine := NewEngine(Config{})
	tests := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{
			name:    "window end before start",
			input:   Input{Window: Window{Start: "2026-01-11", End: "2026-01-05"}},
			wantErr: ErrEmptyWindow,
		},
		{
			name: "bad clock string",
			input: Input{
				Window: weekWindow(),
				Events: []EventInput{{ID: "x", Type: "work", Date: "2026-01-05", StartTime: "9am", EndTime: "10:00"}},
			},
			wantErr: ErrInvalidTimeFormat,
		},
		{
			name: "start not before end",
			input: Input{
				Window: weekWindow(),
				Events: []EventInput{{ID: "x", Type: "work", Date: "2026-01-05", StartTime: "12:00", EndTime: "12:00"}},
			},
			wantErr: ErrInvalidInterval,
		},
		{
			name: "event straddles window edge",
			input: Input{
				Window: weekWindow(),
				Events: []EventInput{{ID: "x", Type: "work", Date: "2026-01-10", EndDate: "2026-01-13", StartTime: "09:00", EndTime: "10:00"}},
			},
			wantErr: ErrMalformedRange,
		},
		{
			name: "unknown weekday",
			input: Input{
				Window:         weekWindow(),
				Unavailability: []UnavailabilityInput{{Weekday: "FUNDAY", StartTime: "08:00"}},
			},
			wantErr: ErrInvalidTimeFormat,
		},
		{
			name: "inverted unavailability",
			input: Input{
				Window:         weekWindow(),
				Unavailability: []UnavailabilityInput{{Weekday: "MONDAY", StartTime: "18:00", EndTime: strPtr("08:00")}},
			},
			wantErr: ErrInvalidInterval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Analyze(tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnalyzeEventOutsideWindowDropped(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "before", Type: "work", Date: "2026-01-01", StartTime: "09:00", EndTime: "10:00"},
			{ID: "after", Type: "work", Date: "2026-02-01", StartTime: "09:00", EndTime: "10:00"},
		},
		Window: weekWindow(),
	})
	require.NoError(t, err)
	assert.True(t, result.Totals.IsEmptyWeek)
}

func TestResultJSONRoundTrip(t *testing.T) {
	engine := NewEngine(Config{})
	result, err := engine.Analyze(Input{
		Events: []EventInput{
			{ID: "a", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "12:00"},
			{ID: "b", Type: "study", Date: "2026-01-05", StartTime: "10:00", EndTime: "13:00"},
		},
		ManualHours: []ManualHoursInput{{WeekStart: "2026-01-05", Hours: 1}},
		Window:      weekWindow(),
	})
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, *result, decoded)
}
