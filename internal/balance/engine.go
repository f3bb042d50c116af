package balance

// Engine runs the analysis pipeline. It holds only configuration and keeps
// no state between calls, so one instance may serve any number of
// concurrent callers.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine, backfilling zero-valued config fields with the
// production defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration after default backfill.
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze runs the full pipeline over one input snapshot: normalize,
// categorize, aggregate, detect conflicts and overload, score, recommend.
// Any temporal or shape defect in the input aborts the run before scoring.
func (e *Engine) Analyze(in Input) (*Result, error) {
	windowStart, windowEnd, err := normalizeWindow(in.Window)
	if err != nil {
		return nil, err
	}

	eventIntervals, err := normalizeEvents(in.Events, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	unavailIntervals, err := normalizeUnavailability(in.Unavailability, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	manualHours, err := normalizeManualHours(in.ManualHours, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	categorizeAll(eventIntervals)
	all := make([]dayInterval, 0, len(eventIntervals)+len(unavailIntervals))
	all = append(all, eventIntervals...)
	all = append(all, unavailIntervals...)

	totals := aggregate(eventIntervals, manualHours)
	conflicts := detectConflicts(all)
	overloaded := detectOverload(eventIntervals, e.cfg)
	breakdown := score(totals, conflicts, overloaded, e.cfg)

	f := facts{
		Totals:     totals,
		Conflicts:  conflicts,
		Overloaded: overloaded,
		Score:      breakdown,
	}
	recommendations := []Recommendation{}
	if !totals.IsEmptyWeek {
		recommendations = recommend(f, e.cfg)
	}

	return &Result{
		Window:          in.Window,
		Totals:          totals,
		Conflicts:       conflicts,
		OverloadedDays:  overloaded,
		Score:           breakdown,
		Recommendations: recommendations,
		Suggestions:     suggest(f, windowStart, e.cfg),
	}, nil
}
