package balance

import "strings"

var typeCategory = map[string]Category{
	"work":     CategoryWork,
	"study":    CategoryStudy,
	"deadline": CategoryStudy,
	"other":    CategoryOther,
	"rest":     CategoryRest,
	"activity": CategoryActivity,
}

// categorize maps a raw event type onto one of the five balance categories.
// Unknown types land in "other" so that unexpected inputs never break a run.
func categorize(rawType string) Category {
	if cat, ok := typeCategory[strings.ToLower(strings.TrimSpace(rawType))]; ok {
		return cat
	}
	return CategoryOther
}

func categorizeAll(intervals []dayInterval) {
	for i := range intervals {
		if intervals[i].Unavail {
			continue
		}
		intervals[i].Category = categorize(intervals[i].RawType)
	}
}
