package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/balance"
	"github.com/equilibre-app/equilibre-api/internal/models"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
)

type fakeEventSource struct {
	events []models.ScheduledEvent
	calls  int
}

func (f *fakeEventSource) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ScheduledEvent, error) {
	f.calls++
	return f.events, nil
}

type fakeAvailabilitySource struct {
	windows []models.UnavailabilityWindow
}

func (f *fakeAvailabilitySource) ListByUser(ctx context.Context, userID string) ([]models.UnavailabilityWindow, error) {
	return f.windows, nil
}

type fakeManualHoursSource struct {
	entries []models.ManualHoursEntry
}

func (f *fakeManualHoursSource) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ManualHoursEntry, error) {
	return f.entries, nil
}

// stubCacheRepo is an in-memory CacheRepository for exercising the
// cache-aside path without Redis.
type stubCacheRepo struct {
	store map[string][]byte
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{store: make(map[string][]byte)}
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	s.store = make(map[string][]byte)
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newBalanceService(events *fakeEventSource, cacheRepo CacheRepository) *BalanceService {
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	}
	return NewBalanceService(BalanceServiceParams{
		Events:       events,
		Availability: &fakeAvailabilitySource{},
		ManualHours:  &fakeManualHoursSource{},
		Cache:        cache,
		Logger:       zap.NewNop(),
	})
}

func TestBalanceServiceAnalyze(t *testing.T) {
	events := &fakeEventSource{events: []models.ScheduledEvent{
		{ID: "e1", UserID: "u1", Title: "Shift", EventType: "work", StartDate: day(2026, 1, 5), EndDate: day(2026, 1, 5), StartTime: "09:00", EndTime: "17:00"},
	}}
	svc := newBalanceService(events, nil)

	result, cached, err := svc.Analyze(context.Background(), "u1", balance.Window{Start: "2026-01-05", End: "2026-01-11"})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.InDelta(t, 8, result.Totals.TotalCommittedHours, 0.001)
	assert.GreaterOrEqual(t, result.Score.FinalScore, 0.0)
	assert.LessOrEqual(t, result.Score.FinalScore, 100.0)
}

func TestBalanceServiceAnalyzeUsesCache(t *testing.T) {
	events := &fakeEventSource{events: []models.ScheduledEvent{
		{ID: "e1", UserID: "u1", EventType: "study", StartDate: day(2026, 1, 6), EndDate: day(2026, 1, 6), StartTime: "10:00", EndTime: "12:00"},
	}}
	svc := newBalanceService(events, newStubCacheRepo())
	window := balance.Window{Start: "2026-01-05", End: "2026-01-11"}

	first, cached, err := svc.Analyze(context.Background(), "u1", window)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := svc.Analyze(context.Background(), "u1", window)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, events.calls, "second call must not hit the store")
	assert.Equal(t, first.Score.FinalScore, second.Score.FinalScore)
}

func TestBalanceServiceClampsEventsCrossingWindowEdge(t *testing.T) {
	// A stored event running Jan 10-13 intersects a window ending Jan 11;
	// only the in-window days may contribute.
	events := &fakeEventSource{events: []models.ScheduledEvent{
		{ID: "e1", UserID: "u1", EventType: "work", StartDate: day(2026, 1, 10), EndDate: day(2026, 1, 13), StartTime: "09:00", EndTime: "11:00"},
	}}
	svc := newBalanceService(events, nil)

	result, _, err := svc.Analyze(context.Background(), "u1", balance.Window{Start: "2026-01-05", End: "2026-01-11"})
	require.NoError(t, err)
	assert.InDelta(t, 4, result.Totals.TotalCommittedHours, 0.001)
}

func TestBalanceServiceRejectsInvalidWindow(t *testing.T) {
	svc := newBalanceService(&fakeEventSource{}, nil)

	_, _, err := svc.Analyze(context.Background(), "u1", balance.Window{Start: "2026-01-11", End: "2026-01-05"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Analyze(context.Background(), "u1", balance.Window{Start: "bad", End: "2026-01-05"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
