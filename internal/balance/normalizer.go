package balance

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	minutesPerDay = 24 * 60
)

// dayInterval is a normalized interval annotated with its origin. Projected
// unavailability windows carry unavail=true and UnavailabilityRef as id.
type dayInterval struct {
	Interval TimeInterval
	EventID  string
	Title    string
	RawType  string
	Category Category
	Unavail  bool
}

var weekdayIndex = map[string]time.Weekday{
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
	"SUNDAY":    time.Sunday,
}

func parseDay(raw string) (time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a %s date", ErrInvalidTimeFormat, raw, dateLayout)
	}
	return day.UTC(), nil
}

func parseClock(raw string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a 24-hour HH:MM time", ErrInvalidTimeFormat, raw)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	day, ok := weekdayIndex[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a weekday name", ErrInvalidTimeFormat, raw)
	}
	return day, nil
}

// normalizeWindow validates and parses the inclusive analysis range.
func normalizeWindow(w Window) (time.Time, time.Time, error) {
	start, err := parseDay(w.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDay(w.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s > %s", ErrEmptyWindow, w.Start, w.End)
	}
	return start, end, nil
}

// normalizeEvents converts raw event rows into per-day intervals. Events
// entirely outside the window are dropped; events straddling a window edge
// are rejected rather than silently clipped.
func normalizeEvents(events []EventInput, windowStart, windowEnd time.Time) ([]dayInterval, error) {
	intervals := make([]dayInterval, 0, len(events))
	for _, ev := range events {
		first, err := parseDay(ev.Date)
		if err != nil {
			return nil, err
		}
		last := first
		if strings.TrimSpace(ev.EndDate) != "" {
			last, err = parseDay(ev.EndDate)
			if err != nil {
				return nil, err
			}
		}
		if last.Before(first) {
			return nil, fmt.Errorf("%w: event %s end date precedes start date", ErrInvalidInterval, ev.ID)
		}

		startMin, err := parseClock(ev.StartTime)
		if err != nil {
			return nil, err
		}
		endMin, err := parseClock(ev.EndTime)
		if err != nil {
			return nil, err
		}
		if startMin >= endMin {
			return nil, fmt.Errorf("%w: event %s (%s-%s)", ErrInvalidInterval, ev.ID, ev.StartTime, ev.EndTime)
		}

		if last.Before(windowStart) || first.After(windowEnd) {
			continue
		}
		if first.Before(windowStart) || last.After(windowEnd) {
			return nil, fmt.Errorf("%w: event %s spans %s to %s", ErrMalformedRange, ev.ID, ev.Date, last.Format(dateLayout))
		}

		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			intervals = append(intervals, dayInterval{
				Interval: TimeInterval{Day: day, StartMinute: startMin, EndMinute: endMin},
				EventID:  ev.ID,
				Title:    ev.Title,
				RawType:  ev.Type,
			})
		}
	}
	return intervals, nil
}

// normalizeUnavailability projects each recurring window onto every matching
// weekday inside the analysis range. A missing end time extends the window to
// the day boundary.
func normalizeUnavailability(rows []UnavailabilityInput, windowStart, windowEnd time.Time) ([]dayInterval, error) {
	intervals := make([]dayInterval, 0, len(rows))
	for _, row := range rows {
		weekday, err := parseWeekday(row.Weekday)
		if err != nil {
			return nil, err
		}
		startMin, err := parseClock(row.StartTime)
		if err != nil {
			return nil, err
		}
		endMin := minutesPerDay
		if row.EndTime != nil && strings.TrimSpace(*row.EndTime) != "" {
			endMin, err = parseClock(*row.EndTime)
			if err != nil {
				return nil, err
			}
		}
		if startMin >= endMin {
			return nil, fmt.Errorf("%w: unavailability on %s", ErrInvalidInterval, row.Weekday)
		}

		for day := windowStart; !day.After(windowEnd); day = day.AddDate(0, 0, 1) {
			if day.Weekday() != weekday {
				continue
			}
			intervals = append(intervals, dayInterval{
				Interval: TimeInterval{Day: day, StartMinute: startMin, EndMinute: endMin},
				EventID:  UnavailabilityRef,
				Unavail:  true,
			})
		}
	}
	return intervals, nil
}

// normalizeManualHours parses week-start dates and keeps only entries whose
// named week start falls inside the window. Hours contribute to the week
// whose start they name and nowhere else.
func normalizeManualHours(rows []ManualHoursInput, windowStart, windowEnd time.Time) (float64, error) {
	var total float64
	for _, row := range rows {
		weekStart, err := parseDay(row.WeekStart)
		if err != nil {
			return 0, err
		}
		if row.Hours < 0 {
			return 0, fmt.Errorf("%w: manual hours for week %s are negative", ErrInvalidInterval, row.WeekStart)
		}
		if weekStart.Before(windowStart) || weekStart.After(windowEnd) {
			continue
		}
		total += row.Hours
	}
	return total, nil
}
