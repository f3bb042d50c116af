package balance

import (
	"fmt"
	"sort"
	"time"
)

// facts is the read-only view of one analysis run the rule table is
// evaluated against.
type facts struct {
	Totals     CategoryTotals
	Conflicts  []Conflict
	Overloaded []OverloadedDay
	Score      ScoreBreakdown
}

// rule is one row of the fixed recommendation table. Apply returns nil when
// the rule does not fire; otherwise a recommendation whose priority reflects
// how far the underlying metric sits from its target.
type rule struct {
	name  string
	apply func(f facts, cfg Config) *Recommendation
}

// ruleTable is evaluated top to bottom; declaration order breaks priority
// ties, so the ordering here is part of the engine's contract.
var ruleTable = []rule{
	{name: "resolve-conflicts", apply: resolveConflictsRule},
	{name: "lighten-overloaded-days", apply: lightenOverloadRule},
	{name: "raise-rest", apply: raiseRestRule},
	{name: "trim-work-share", apply: trimWorkRule},
	{name: "trim-study-share", apply: trimStudyRule},
	{name: "rebalance-work-study", apply: rebalanceRule},
	{name: "add-personal-activity", apply: addActivityRule},
	{name: "restructure-week", apply: restructureRule},
}

// recommend evaluates the rule table and returns at most MaxRecommendations
// entries, highest priority first, declaration order breaking ties.
func recommend(f facts, cfg Config) []Recommendation {
	type ranked struct {
		rec   Recommendation
		order int
	}
	matched := make([]ranked, 0, len(ruleTable))
	for i, r := range ruleTable {
		if rec := r.apply(f, cfg); rec != nil {
			matched = append(matched, ranked{rec: *rec, order: i})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		pi, pj := priorityRank(matched[i].rec.Priority), priorityRank(matched[j].rec.Priority)
		if pi != pj {
			return pi > pj
		}
		return matched[i].order < matched[j].order
	})

	if len(matched) > cfg.MaxRecommendations {
		matched = matched[:cfg.MaxRecommendations]
	}
	recs := make([]Recommendation, len(matched))
	for i, m := range matched {
		recs[i] = m.rec
	}
	return recs
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// deviationPriority maps a metric's relative deviation from its target onto
// a priority: past double the tolerance is high, past the tolerance is
// medium, anything below is low.
func deviationPriority(deviation, tolerance float64) Priority {
	switch {
	case deviation >= 2*tolerance:
		return PriorityHigh
	case deviation >= tolerance:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func resolveConflictsRule(f facts, cfg Config) *Recommendation {
	if len(f.Conflicts) == 0 {
		return nil
	}
	return &Recommendation{
		Category:        CategoryOther,
		Priority:        deviationPriority(float64(len(f.Conflicts)), 2),
		Title:           "Resolve schedule conflicts",
		Description:     fmt.Sprintf("%d overlapping commitments were found in this period.", len(f.Conflicts)),
		SuggestedAction: "Move or shorten one event in each overlapping pair.",
	}
}

func lightenOverloadRule(f facts, cfg Config) *Recommendation {
	if len(f.Overloaded) == 0 {
		return nil
	}
	return &Recommendation{
		Category:        CategoryOther,
		Priority:        deviationPriority(float64(len(f.Overloaded)), 2),
		Title:           "Lighten overloaded days",
		Description:     fmt.Sprintf("%d day flags exceeded the sustainable daily load.", len(f.Overloaded)),
		SuggestedAction: "Spread long blocks across quieter days.",
	}
}

func raiseRestRule(f facts, cfg Config) *Recommendation {
	rest := f.Totals.Hours[CategoryRest]
	if rest >= cfg.RestFloorHours {
		return nil
	}
	shortfall := cfg.RestFloorHours - rest
	return &Recommendation{
		Category:        CategoryRest,
		Priority:        deviationPriority(shortfall, cfg.RestFloorHours/2),
		Title:           "Schedule more rest",
		Description:     fmt.Sprintf("Rest time is %.1fh below the %.0fh weekly floor.", shortfall, cfg.RestFloorHours),
		SuggestedAction: "Block out recovery time before adding new commitments.",
	}
}

func trimWorkRule(f facts, cfg Config) *Recommendation {
	share := f.Totals.Percentages[CategoryWork]
	if share <= cfg.BalanceBandMax {
		return nil
	}
	excess := share - cfg.BalanceBandMax
	return &Recommendation{
		Category:        CategoryWork,
		Priority:        deviationPriority(excess, 10),
		Title:           "Reduce work share",
		Description:     fmt.Sprintf("Work takes %.0f%% of accounted time, above the %.0f%% target ceiling.", share, cfg.BalanceBandMax),
		SuggestedAction: "Delegate or defer the least urgent work blocks.",
	}
}

func trimStudyRule(f facts, cfg Config) *Recommendation {
	share := f.Totals.Percentages[CategoryStudy]
	if share <= cfg.BalanceBandMax {
		return nil
	}
	excess := share - cfg.BalanceBandMax
	return &Recommendation{
		Category:        CategoryStudy,
		Priority:        deviationPriority(excess, 10),
		Title:           "Spread study sessions out",
		Description:     fmt.Sprintf("Study takes %.0f%% of accounted time, above the %.0f%% target ceiling.", share, cfg.BalanceBandMax),
		SuggestedAction: "Split long study blocks across more days.",
	}
}

func rebalanceRule(f facts, cfg Config) *Recommendation {
	work := f.Totals.Percentages[CategoryWork]
	study := f.Totals.Percentages[CategoryStudy]
	if work == 0 || study == 0 {
		return nil
	}
	lo, hi := work, study
	if lo > hi {
		lo, hi = hi, lo
	}
	ratio := hi / lo
	if ratio <= cfg.BalanceMaxRatio {
		return nil
	}
	heavier := CategoryWork
	if study > work {
		heavier = CategoryStudy
	}
	return &Recommendation{
		Category:        heavier,
		Priority:        deviationPriority(ratio-cfg.BalanceMaxRatio, cfg.BalanceMaxRatio),
		Title:           "Rebalance work and study",
		Description:     fmt.Sprintf("The heavier of work/study outweighs the other %.1f to 1.", ratio),
		SuggestedAction: fmt.Sprintf("Shift time out of %s toward the lighter category.", heavier),
	}
}

func addActivityRule(f facts, cfg Config) *Recommendation {
	share := f.Totals.Percentages[CategoryActivity]
	if share >= 5 {
		return nil
	}
	return &Recommendation{
		Category:        CategoryActivity,
		Priority:        deviationPriority(5-share, 2.5),
		Title:           "Make room for personal activities",
		Description:     fmt.Sprintf("Personal activities fill only %.0f%% of accounted time.", share),
		SuggestedAction: "Add at least one hobby or exercise block this week.",
	}
}

func restructureRule(f facts, cfg Config) *Recommendation {
	if f.Score.FinalScore >= 40 {
		return nil
	}
	return &Recommendation{
		Category:    CategoryOther,
		Priority:    deviationPriority(40-f.Score.FinalScore, 15),
		Title:       "Restructure the week",
		Description: fmt.Sprintf("The equilibrium score is %.0f; several factors are pulling it down at once.", f.Score.FinalScore),
	}
}

// suggest produces day-specific optimization suggestions: one per overloaded
// day flag and one per conflict whose overlap reaches the high-severity
// threshold. The empty week gets a single seed suggestion dated at the
// window start. Output is date-ordered and capped at MaxSuggestions.
func suggest(f facts, windowStart time.Time, cfg Config) []OptimizationSuggestion {
	if f.Totals.IsEmptyWeek {
		return []OptimizationSuggestion{{
			Date:            windowStart,
			Kind:            SuggestionAdd,
			Description:     "No commitments were recorded for this period; add events to get a meaningful assessment.",
			EstimatedImpact: "Enables scoring and recommendations.",
		}}
	}

	suggestions := make([]OptimizationSuggestion, 0, len(f.Overloaded)+len(f.Conflicts))
	for _, day := range f.Overloaded {
		switch day.Reason {
		case OverloadDailyCap:
			suggestions = append(suggestions, OptimizationSuggestion{
				Date:            day.Date,
				Kind:            SuggestionMove,
				Description:     fmt.Sprintf("%.1fh are committed on this day, above the %.0fh cap; move a block to a lighter day.", day.TotalHours, cfg.DailyCapHours),
				EstimatedImpact: fmt.Sprintf("Removes one of up to %d overload flags.", len(f.Overloaded)),
			})
		case OverloadNoRestGap:
			suggestions = append(suggestions, OptimizationSuggestion{
				Date:            day.Date,
				Kind:            SuggestionPause,
				Description:     fmt.Sprintf("No free stretch of %.0fh or more remains on this day; pause or shorten a commitment.", cfg.MinRestGapHours),
				EstimatedImpact: "Restores a contiguous rest gap.",
			})
		}
	}
	for _, c := range f.Conflicts {
		if c.OverlapMinutes < cfg.HighSeverityOverlapMinutes {
			continue
		}
		date, err := parseDay(c.Date)
		if err != nil {
			continue
		}
		suggestions = append(suggestions, OptimizationSuggestion{
			Date:            date,
			Kind:            SuggestionMove,
			Description:     fmt.Sprintf("%s and %s overlap by %d minutes; move one of them.", c.EventA, c.EventB, c.OverlapMinutes),
			EstimatedImpact: "Eliminates a major conflict.",
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Date.Before(suggestions[j].Date)
	})
	if len(suggestions) > cfg.MaxSuggestions {
		suggestions = suggestions[:cfg.MaxSuggestions]
	}
	return suggestions
}
