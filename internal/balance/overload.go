package balance

import (
	"sort"
	"time"
)

// detectOverload flags days whose committed event load is unsustainable.
// Unavailability windows never count toward load. A day is flagged once per
// reason: once when committed hours strictly exceed the daily cap, and once
// when no free gap of at least MinRestGapHours remains anywhere in the day,
// counting the open stretches before the first and after the last interval.
func detectOverload(intervals []dayInterval, cfg Config) []OverloadedDay {
	byDay := make(map[time.Time][]TimeInterval)
	for _, iv := range intervals {
		if iv.Unavail {
			continue
		}
		byDay[iv.Interval.Day] = append(byDay[iv.Interval.Day], iv.Interval)
	}

	days := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	minGapMinutes := int(cfg.MinRestGapHours * 60)
	flagged := make([]OverloadedDay, 0)
	for _, day := range days {
		dayIntervals := byDay[day]
		var totalMinutes int
		for _, iv := range dayIntervals {
			totalMinutes += iv.Minutes()
		}
		totalHours := float64(totalMinutes) / 60.0

		if totalHours > cfg.DailyCapHours {
			flagged = append(flagged, OverloadedDay{
				Date:       day,
				TotalHours: totalHours,
				Reason:     OverloadDailyCap,
			})
		}
		if largestGap(dayIntervals) < minGapMinutes {
			flagged = append(flagged, OverloadedDay{
				Date:       day,
				TotalHours: totalHours,
				Reason:     OverloadNoRestGap,
			})
		}
	}
	return flagged
}

// largestGap returns the longest stretch of the day not covered by any
// interval, after merging overlaps.
func largestGap(intervals []TimeInterval) int {
	merged := mergeIntervals(intervals)
	if len(merged) == 0 {
		return minutesPerDay
	}

	largest := merged[0].StartMinute
	for i := 1; i < len(merged); i++ {
		if gap := merged[i].StartMinute - merged[i-1].EndMinute; gap > largest {
			largest = gap
		}
	}
	if tail := minutesPerDay - merged[len(merged)-1].EndMinute; tail > largest {
		largest = tail
	}
	return largest
}

// mergeIntervals coalesces overlapping or touching same-day intervals into a
// sorted, disjoint set.
func mergeIntervals(intervals []TimeInterval) []TimeInterval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]TimeInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartMinute != sorted[j].StartMinute {
			return sorted[i].StartMinute < sorted[j].StartMinute
		}
		return sorted[i].EndMinute < sorted[j].EndMinute
	})

	merged := []TimeInterval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.StartMinute <= last.EndMinute {
			if iv.EndMinute > last.EndMinute {
				last.EndMinute = iv.EndMinute
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}
