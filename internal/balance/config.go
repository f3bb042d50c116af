package balance

// Config groups every threshold and weight the engine uses, so tests can
// exercise boundary values without recompiling. Zero-valued fields are
// backfilled with defaults by NewEngine; bonus and penalty terms accept a
// negative value to disable the term outright.
type Config struct {
	// Scoring.
	BaseScore    float64
	NeutralScore float64

	// Work/study balance term.
	BalanceBandMin  float64
	BalanceBandMax  float64
	BalanceMaxRatio float64
	MaxBalanceBonus float64
	CrowdOutShare   float64
	CrowdOutPenalty float64

	// Rest.
	RestFloorHours     float64
	RestPenaltyPerHour float64
	MaxRestPenalty     float64

	// Conflicts.
	ConflictPenaltyEach float64
	MaxConflictPenalty  float64

	// Overload.
	DailyCapHours       float64
	MinRestGapHours     float64
	OverloadPenaltyEach float64
	MaxOverloadPenalty  float64

	CleanWeekBonus float64

	// Recommender.
	HighSeverityOverlapMinutes int
	MaxRecommendations         int
	MaxSuggestions             int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseScore:    70,
		NeutralScore: 50,

		BalanceBandMin:  20,
		BalanceBandMax:  45,
		BalanceMaxRatio: 2.0,
		MaxBalanceBonus: 15,
		CrowdOutShare:   60,
		CrowdOutPenalty: 5,

		RestFloorHours:     8,
		RestPenaltyPerHour: 1.5,
		MaxRestPenalty:     15,

		ConflictPenaltyEach: 5,
		MaxConflictPenalty:  25,

		DailyCapHours:       14,
		MinRestGapHours:     6,
		OverloadPenaltyEach: 6,
		MaxOverloadPenalty:  24,

		CleanWeekBonus: 5,

		HighSeverityOverlapMinutes: 60,
		MaxRecommendations:         5,
		MaxSuggestions:             5,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseScore <= 0 {
		c.BaseScore = def.BaseScore
	}
	if c.NeutralScore <= 0 {
		c.NeutralScore = def.NeutralScore
	}
	if c.BalanceBandMin <= 0 {
		c.BalanceBandMin = def.BalanceBandMin
	}
	if c.BalanceBandMax <= 0 {
		c.BalanceBandMax = def.BalanceBandMax
	}
	if c.BalanceMaxRatio <= 0 {
		c.BalanceMaxRatio = def.BalanceMaxRatio
	}
	c.MaxBalanceBonus = defaultTerm(c.MaxBalanceBonus, def.MaxBalanceBonus)
	if c.CrowdOutShare <= 0 {
		c.CrowdOutShare = def.CrowdOutShare
	}
	c.CrowdOutPenalty = defaultTerm(c.CrowdOutPenalty, def.CrowdOutPenalty)
	if c.RestFloorHours <= 0 {
		c.RestFloorHours = def.RestFloorHours
	}
	c.RestPenaltyPerHour = defaultTerm(c.RestPenaltyPerHour, def.RestPenaltyPerHour)
	c.MaxRestPenalty = defaultTerm(c.MaxRestPenalty, def.MaxRestPenalty)
	c.ConflictPenaltyEach = defaultTerm(c.ConflictPenaltyEach, def.ConflictPenaltyEach)
	c.MaxConflictPenalty = defaultTerm(c.MaxConflictPenalty, def.MaxConflictPenalty)
	if c.DailyCapHours <= 0 {
		c.DailyCapHours = def.DailyCapHours
	}
	if c.MinRestGapHours <= 0 {
		c.MinRestGapHours = def.MinRestGapHours
	}
	c.OverloadPenaltyEach = defaultTerm(c.OverloadPenaltyEach, def.OverloadPenaltyEach)
	c.MaxOverloadPenalty = defaultTerm(c.MaxOverloadPenalty, def.MaxOverloadPenalty)
	c.CleanWeekBonus = defaultTerm(c.CleanWeekBonus, def.CleanWeekBonus)
	if c.HighSeverityOverlapMinutes <= 0 {
		c.HighSeverityOverlapMinutes = def.HighSeverityOverlapMinutes
	}
	if c.MaxRecommendations <= 0 {
		c.MaxRecommendations = def.MaxRecommendations
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = def.MaxSuggestions
	}
	return c
}

// defaultTerm backfills an unset (zero) bonus or penalty weight and maps a
// negative value to zero so a term can be switched off.
func defaultTerm(v, def float64) float64 {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return def
	default:
		return v
	}
}
