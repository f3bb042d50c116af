package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/models"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
)

type availabilityRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.UnavailabilityWindow, error)
	GetByID(ctx context.Context, userID, id string) (*models.UnavailabilityWindow, error)
	Create(ctx context.Context, window *models.UnavailabilityWindow) error
	Update(ctx context.Context, window *models.UnavailabilityWindow) error
	Delete(ctx context.Context, userID, id string) error
}

var weekdayNames = map[string]struct{}{
	"MONDAY": {}, "TUESDAY": {}, "WEDNESDAY": {}, "THURSDAY": {},
	"FRIDAY": {}, "SATURDAY": {}, "SUNDAY": {},
}

// AvailabilityService manages recurring unavailability windows. Writes
// invalidate the user's cached analysis results.
type AvailabilityService struct {
	repo      availabilityRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(repo availabilityRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerClockValidation(validate)
	validate.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := weekdayNames[strings.ToUpper(fl.Field().String())]
		return ok
	})
	return &AvailabilityService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// UpsertAvailabilityRequest describes the create/update payload. A nil
// EndTime keeps the window open until the end of the day.
type UpsertAvailabilityRequest struct {
	DayOfWeek string  `json:"day_of_week" validate:"required,weekday"`
	StartTime string  `json:"start_time" validate:"required,clock"`
	EndTime   *string `json:"end_time" validate:"omitempty,clock"`
	Reason    *string `json:"reason"`
}

// List returns the user's unavailability windows.
func (s *AvailabilityService) List(ctx context.Context, userID string) ([]models.UnavailabilityWindow, error) {
	windows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailability windows")
	}
	return windows, nil
}

// Create stores a new window.
func (s *AvailabilityService) Create(ctx context.Context, userID string, req UpsertAvailabilityRequest) (*models.UnavailabilityWindow, error) {
	window, err := s.buildWindow(userID, "", req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, window); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create unavailability window")
	}
	s.invalidateAnalysis(ctx, userID)
	return window, nil
}

// Update replaces a window's fields.
func (s *AvailabilityService) Update(ctx context.Context, userID, id string, req UpsertAvailabilityRequest) (*models.UnavailabilityWindow, error) {
	window, err := s.buildWindow(userID, id, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, window); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unavailability window not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update unavailability window")
	}
	s.invalidateAnalysis(ctx, userID)
	return window, nil
}

// Delete removes the user's window.
func (s *AvailabilityService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "unavailability window not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete unavailability window")
	}
	s.invalidateAnalysis(ctx, userID)
	return nil
}

func (s *AvailabilityService) buildWindow(userID, id string, req UpsertAvailabilityRequest) (*models.UnavailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid unavailability payload")
	}
	if req.EndTime != nil && req.StartTime >= *req.EndTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must precede end_time")
	}
	return &models.UnavailabilityWindow{
		ID:        id,
		UserID:    userID,
		DayOfWeek: strings.ToUpper(strings.TrimSpace(req.DayOfWeek)),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	}, nil
}

func (s *AvailabilityService) invalidateAnalysis(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, analysisCachePattern(userID)); err != nil {
		s.logger.Warn("failed to invalidate analysis cache", zap.String("user_id", userID), zap.Error(err))
	}
}
