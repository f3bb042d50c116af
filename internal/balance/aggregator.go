package balance

// aggregate sums per-category hours across the window. Manual hours always
// land in the activity bucket regardless of how events were categorized;
// percentages are taken over all accounted hours so they always sum to 100
// on a non-empty week. Both maps carry every category, zero-valued buckets
// included.
func aggregate(intervals []dayInterval, manualHours float64) CategoryTotals {
	totals := CategoryTotals{
		Hours:       make(map[Category]float64, len(Categories)),
		Percentages: make(map[Category]float64, len(Categories)),
	}
	for _, cat := range Categories {
		totals.Hours[cat] = 0
		totals.Percentages[cat] = 0
	}

	for _, iv := range intervals {
		if iv.Unavail {
			continue
		}
		hours := float64(iv.Interval.Minutes()) / 60.0
		totals.Hours[iv.Category] += hours
		totals.TotalCommittedHours += hours
	}

	totals.Hours[CategoryActivity] += manualHours
	totals.TotalAccountedHours = totals.TotalCommittedHours + manualHours

	if totals.TotalAccountedHours == 0 {
		totals.IsEmptyWeek = true
		return totals
	}
	for _, cat := range Categories {
		totals.Percentages[cat] = totals.Hours[cat] / totals.TotalAccountedHours * 100
	}
	return totals
}
