package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/models"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
)

type fakeManualHoursRepo struct {
	entries map[time.Time]*models.ManualHoursEntry
}

func newFakeManualHoursRepo() *fakeManualHoursRepo {
	return &fakeManualHoursRepo{entries: make(map[time.Time]*models.ManualHoursEntry)}
}

func (f *fakeManualHoursRepo) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ManualHoursEntry, error) {
	out := make([]models.ManualHoursEntry, 0, len(f.entries))
	for weekStart, entry := range f.entries {
		if entry.UserID == userID && !weekStart.Before(start) && !weekStart.After(end) {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeManualHoursRepo) Upsert(ctx context.Context, entry *models.ManualHoursEntry) error {
	f.entries[entry.WeekStart] = entry
	return nil
}

func (f *fakeManualHoursRepo) Delete(ctx context.Context, userID string, weekStart time.Time) error {
	entry, ok := f.entries[weekStart]
	if !ok || entry.UserID != userID {
		return sql.ErrNoRows
	}
	delete(f.entries, weekStart)
	return nil
}

func newManualHoursServiceForTest(repo *fakeManualHoursRepo) (*ManualHoursService, *recordingCacheRepo) {
	cacheRepo := &recordingCacheRepo{stubCacheRepo: newStubCacheRepo()}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	return NewManualHoursService(repo, cache, validator.New(), zap.NewNop()), cacheRepo
}

func TestManualHoursServiceUpsert(t *testing.T) {
	repo := newFakeManualHoursRepo()
	svc, cacheRepo := newManualHoursServiceForTest(repo)

	entry, err := svc.Upsert(context.Background(), "u1", UpsertManualHoursRequest{
		WeekStart: time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC),
		Hours:     3.5,
	})
	require.NoError(t, err)
	assert.True(t, entry.WeekStart.Equal(day(2026, 1, 5)), "week start is truncated to midnight")
	assert.Contains(t, cacheRepo.invalidated, "bal:u1:*")

	replaced, err := svc.Upsert(context.Background(), "u1", UpsertManualHoursRequest{
		WeekStart: day(2026, 1, 5),
		Hours:     5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5.0, replaced.Hours)
	assert.Len(t, repo.entries, 1)
}

func TestManualHoursServiceUpsertRejectsOutOfRange(t *testing.T) {
	svc, _ := newManualHoursServiceForTest(newFakeManualHoursRepo())

	for _, hours := range []float64{-1, 169} {
		_, err := svc.Upsert(context.Background(), "u1", UpsertManualHoursRequest{
			WeekStart: day(2026, 1, 5),
			Hours:     hours,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestManualHoursServiceDelete(t *testing.T) {
	repo := newFakeManualHoursRepo()
	repo.entries[day(2026, 1, 5)] = &models.ManualHoursEntry{UserID: "u1", WeekStart: day(2026, 1, 5), Hours: 2}
	svc, cacheRepo := newManualHoursServiceForTest(repo)

	require.NoError(t, svc.Delete(context.Background(), "u1", day(2026, 1, 5)))
	assert.Empty(t, repo.entries)
	assert.Contains(t, cacheRepo.invalidated, "bal:u1:*")

	err := svc.Delete(context.Background(), "u1", day(2026, 1, 12))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
