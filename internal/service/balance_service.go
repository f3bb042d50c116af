package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/balance"
	"github.com/equilibre-app/equilibre-api/internal/models"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
)

const analysisDateLayout = "2006-01-02"

// analysisCachePattern matches every cached analysis of one user.
func analysisCachePattern(userID string) string {
	return fmt.Sprintf("bal:%s:*", userID)
}

func analysisCacheKey(userID string, window balance.Window) string {
	return fmt.Sprintf("bal:%s:%s:%s", userID, window.Start, window.End)
}

type balanceEventSource interface {
	ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ScheduledEvent, error)
}

type balanceAvailabilitySource interface {
	ListByUser(ctx context.Context, userID string) ([]models.UnavailabilityWindow, error)
}

type balanceManualHoursSource interface {
	ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ManualHoursEntry, error)
}

// BalanceService assembles an input snapshot from the user's stored records,
// runs the analysis engine over it, and caches the result per user and
// window until a write invalidates it.
type BalanceService struct {
	events       balanceEventSource
	availability balanceAvailabilitySource
	manualHours  balanceManualHoursSource
	engine       *balance.Engine
	cache        *CacheService
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// BalanceServiceParams bundles dependencies for NewBalanceService.
type BalanceServiceParams struct {
	Events       balanceEventSource
	Availability balanceAvailabilitySource
	ManualHours  balanceManualHoursSource
	Engine       *balance.Engine
	Cache        *CacheService
	CacheTTL     time.Duration
	Logger       *zap.Logger
}

// NewBalanceService constructs the service, backfilling optional deps.
func NewBalanceService(params BalanceServiceParams) *BalanceService {
	if params.Engine == nil {
		params.Engine = balance.NewEngine(balance.DefaultConfig())
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.CacheTTL <= 0 {
		params.CacheTTL = 10 * time.Minute
	}
	return &BalanceService{
		events:       params.Events,
		availability: params.Availability,
		manualHours:  params.ManualHours,
		engine:       params.Engine,
		cache:        params.Cache,
		cacheTTL:     params.CacheTTL,
		logger:       params.Logger,
	}
}

// Analyze computes the balance assessment for the user over the inclusive
// window. The boolean reports whether the result came from cache.
func (s *BalanceService) Analyze(ctx context.Context, userID string, window balance.Window) (*balance.Result, bool, error) {
	start, err := time.Parse(analysisDateLayout, window.Start)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid window start %q", window.Start))
	}
	end, err := time.Parse(analysisDateLayout, window.End)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid window end %q", window.End))
	}
	if end.Before(start) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "window end precedes start")
	}

	key := analysisCacheKey(userID, window)
	var cached balance.Result
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	input, err := s.buildInput(ctx, userID, start.UTC(), end.UTC(), window)
	if err != nil {
		return nil, false, err
	}

	result, err := s.engine.Analyze(*input)
	if err != nil {
		if isAnalysisInputError(err) {
			return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "stored records failed temporal validation")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "analysis failed")
	}

	if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache analysis result", zap.String("key", key), zap.Error(err))
	}
	return result, false, nil
}

// buildInput converts stored records into the engine's snapshot form. Events
// intersecting but not contained in the window are clamped to it, since a
// recurring planner legitimately holds events crossing any window edge.
func (s *BalanceService) buildInput(ctx context.Context, userID string, start, end time.Time, window balance.Window) (*balance.Input, error) {
	events, err := s.events.ListInRange(ctx, userID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	windows, err := s.availability.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unavailability windows")
	}
	manual, err := s.manualHours.ListInRange(ctx, userID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load manual hours")
	}

	input := &balance.Input{
		Events:         make([]balance.EventInput, 0, len(events)),
		Unavailability: make([]balance.UnavailabilityInput, 0, len(windows)),
		ManualHours:    make([]balance.ManualHoursInput, 0, len(manual)),
		Window:         window,
	}
	for _, ev := range events {
		first, last := ev.StartDate, ev.EndDate
		if first.Before(start) {
			first = start
		}
		if last.After(end) {
			last = end
		}
		input.Events = append(input.Events, balance.EventInput{
			ID:         ev.ID,
			Title:      ev.Title,
			Type:       ev.EventType,
			Date:       first.Format(analysisDateLayout),
			EndDate:    last.Format(analysisDateLayout),
			StartTime:  ev.StartTime,
			EndTime:    ev.EndTime,
			Location:   ev.Location,
			HourlyRate: ev.HourlyRate,
		})
	}
	for _, w := range windows {
		input.Unavailability = append(input.Unavailability, balance.UnavailabilityInput{
			Weekday:   w.DayOfWeek,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
		})
	}
	for _, m := range manual {
		input.ManualHours = append(input.ManualHours, balance.ManualHoursInput{
			WeekStart: m.WeekStart.Format(analysisDateLayout),
			Hours:     m.Hours,
		})
	}
	return input, nil
}

func isAnalysisInputError(err error) bool {
	return errors.Is(err, balance.ErrInvalidTimeFormat) ||
		errors.Is(err, balance.ErrInvalidInterval) ||
		errors.Is(err, balance.ErrMalformedRange) ||
		errors.Is(err, balance.ErrEmptyWindow)
}
