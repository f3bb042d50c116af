package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/models"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
)

type manualHoursRepository interface {
	ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ManualHoursEntry, error)
	Upsert(ctx context.Context, entry *models.ManualHoursEntry) error
	Delete(ctx context.Context, userID string, weekStart time.Time) error
}

// ManualHoursService manages self-reported weekly activity hours. Writes
// invalidate the user's cached analysis results.
type ManualHoursService struct {
	repo      manualHoursRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewManualHoursService constructs the service.
func NewManualHoursService(repo manualHoursRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ManualHoursService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManualHoursService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// UpsertManualHoursRequest records hours for the week starting at WeekStart.
type UpsertManualHoursRequest struct {
	WeekStart time.Time `json:"week_start" validate:"required"`
	Hours     float64   `json:"hours" validate:"gte=0,lte=168"`
}

// List returns entries whose week start falls inside [start, end].
func (s *ManualHoursService) List(ctx context.Context, userID string, start, end time.Time) ([]models.ManualHoursEntry, error) {
	entries, err := s.repo.ListInRange(ctx, userID, start.UTC(), end.UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list manual hours")
	}
	return entries, nil
}

// Upsert records or replaces the hours for a week.
func (s *ManualHoursService) Upsert(ctx context.Context, userID string, req UpsertManualHoursRequest) (*models.ManualHoursEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manual hours payload")
	}
	entry := &models.ManualHoursEntry{
		UserID:    userID,
		WeekStart: req.WeekStart.UTC().Truncate(24 * time.Hour),
		Hours:     req.Hours,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store manual hours")
	}
	s.invalidateAnalysis(ctx, userID)
	return entry, nil
}

// Delete removes the entry for a week.
func (s *ManualHoursService) Delete(ctx context.Context, userID string, weekStart time.Time) error {
	if err := s.repo.Delete(ctx, userID, weekStart.UTC().Truncate(24*time.Hour)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "manual hours entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete manual hours")
	}
	s.invalidateAnalysis(ctx, userID)
	return nil
}

func (s *ManualHoursService) invalidateAnalysis(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, analysisCachePattern(userID)); err != nil {
		s.logger.Warn("failed to invalidate analysis cache", zap.String("user_id", userID), zap.Error(err))
	}
}
