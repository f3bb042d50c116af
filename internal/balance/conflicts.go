package balance

import "sort"

type rawConflict struct {
	conflict      Conflict
	earliestStart int
}

// detectConflicts reports every overlapping pair of intervals on the same
// day. Intervals are grouped per day and swept in start order, so only pairs
// that can still overlap are inspected. Pairs of unavailability windows are
// skipped: the user cannot resolve an overlap between two blocks they already
// marked as off-limits. Output ordering is deterministic regardless of input
// order.
func detectConflicts(intervals []dayInterval) []Conflict {
	byDay := make(map[string][]dayInterval)
	for _, iv := range intervals {
		key := iv.Interval.Day.Format(dateLayout)
		byDay[key] = append(byDay[key], iv)
	}

	raw := make([]rawConflict, 0)
	for date, day := range byDay {
		sort.Slice(day, func(i, j int) bool { return pairLess(day[i], day[j]) })
		for i := 0; i < len(day); i++ {
			for j := i + 1; j < len(day) && day[j].Interval.StartMinute < day[i].Interval.EndMinute; j++ {
				a, b := day[i], day[j]
				if a.Unavail && b.Unavail {
					continue
				}
				// An unavailability window always takes the second slot.
				if a.Unavail {
					a, b = b, a
				}
				overlapStart := day[j].Interval.StartMinute
				overlapEnd := minInt(day[i].Interval.EndMinute, day[j].Interval.EndMinute)
				raw = append(raw, rawConflict{
					conflict: Conflict{
						Date:           date,
						EventA:         a.EventID,
						EventB:         b.EventID,
						OverlapMinutes: overlapEnd - overlapStart,
					},
					earliestStart: day[i].Interval.StartMinute,
				})
			}
		}
	}

	sort.Slice(raw, func(i, j int) bool {
		ci, cj := raw[i].conflict, raw[j].conflict
		if ci.Date != cj.Date {
			return ci.Date < cj.Date
		}
		if raw[i].earliestStart != raw[j].earliestStart {
			return raw[i].earliestStart < raw[j].earliestStart
		}
		if ci.EventA != cj.EventA {
			return ci.EventA < cj.EventA
		}
		return ci.EventB < cj.EventB
	})

	conflicts := make([]Conflict, len(raw))
	for i, r := range raw {
		conflicts[i] = r.conflict
	}
	return conflicts
}

// pairLess fixes the EventA/EventB assignment for two committed events.
func pairLess(a, b dayInterval) bool {
	if a.Interval.StartMinute != b.Interval.StartMinute {
		return a.Interval.StartMinute < b.Interval.StartMinute
	}
	return a.EventID < b.EventID
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
