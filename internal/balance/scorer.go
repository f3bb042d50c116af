package balance

import "math"

// score folds the aggregated totals and the detector outputs into a single
// 0-100 equilibrium figure, keeping every contributing term visible in the
// breakdown. Penalty fields hold positive magnitudes; they are subtracted
// when the final score is assembled.
func score(totals CategoryTotals, conflicts []Conflict, overloaded []OverloadedDay, cfg Config) ScoreBreakdown {
	if totals.IsEmptyWeek {
		return ScoreBreakdown{FinalScore: cfg.NeutralScore}
	}

	breakdown := ScoreBreakdown{BaseScore: cfg.BaseScore}
	breakdown.WorkStudyBalance = workStudyTerm(totals, cfg)
	breakdown.RestPenalty = restPenalty(totals, cfg)
	breakdown.ConflictPenalty = math.Min(float64(len(conflicts))*cfg.ConflictPenaltyEach, cfg.MaxConflictPenalty)
	breakdown.OverloadPenalty = math.Min(float64(len(overloaded))*cfg.OverloadPenaltyEach, cfg.MaxOverloadPenalty)
	if len(conflicts) == 0 && len(overloaded) == 0 {
		breakdown.Bonuses = cfg.CleanWeekBonus
	}

	raw := breakdown.BaseScore +
		breakdown.WorkStudyBalance +
		breakdown.Bonuses -
		breakdown.RestPenalty -
		breakdown.ConflictPenalty -
		breakdown.OverloadPenalty
	breakdown.FinalScore = clamp(raw, 0, 100)
	return breakdown
}

// workStudyTerm rewards work and study shares that both sit inside the
// healthy band with a moderate ratio, and penalises one category crowding the
// other out. The two conditions are mutually exclusive, so the term is either
// a bonus, a penalty, or zero.
func workStudyTerm(totals CategoryTotals, cfg Config) float64 {
	work := totals.Percentages[CategoryWork]
	study := totals.Percentages[CategoryStudy]

	lo, hi := math.Min(work, study), math.Max(work, study)
	if lo >= cfg.BalanceBandMin && hi <= cfg.BalanceBandMax && hi <= lo*cfg.BalanceMaxRatio {
		return cfg.MaxBalanceBonus * (lo / hi)
	}
	if hi >= cfg.CrowdOutShare && lo < cfg.BalanceBandMin {
		return -cfg.CrowdOutPenalty
	}
	return 0
}

// restPenalty charges for every hour the rest category falls short of the
// weekly floor.
func restPenalty(totals CategoryTotals, cfg Config) float64 {
	rest := totals.Hours[CategoryRest]
	if rest >= cfg.RestFloorHours {
		return 0
	}
	return math.Min((cfg.RestFloorHours-rest)*cfg.RestPenaltyPerHour, cfg.MaxRestPenalty)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
