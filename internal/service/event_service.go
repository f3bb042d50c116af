package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/models"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
)

type eventRepository interface {
	List(ctx context.Context, filter models.EventFilter) ([]models.ScheduledEvent, int, error)
	GetByID(ctx context.Context, userID, id string) (*models.ScheduledEvent, error)
	Create(ctx context.Context, event *models.ScheduledEvent) error
	Update(ctx context.Context, event *models.ScheduledEvent) error
	Delete(ctx context.Context, userID, id string) error
}

// EventService manages a user's scheduled events. Every write invalidates
// the user's cached analysis results.
type EventService struct {
	repo      eventRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerClockValidation(validate)
	return &EventService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// registerClockValidation adds the "clock" tag for HH:MM 24-hour strings.
func registerClockValidation(validate *validator.Validate) {
	validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
}

// EventListRequest describes filters for listing a user's events.
type EventListRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	EventType string     `json:"event_type"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}

// CreateEventRequest describes the create payload.
type CreateEventRequest struct {
	Title      string    `json:"title" validate:"required"`
	EventType  string    `json:"event_type" validate:"required"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date"`
	StartTime  string    `json:"start_time" validate:"required,clock"`
	EndTime    string    `json:"end_time" validate:"required,clock"`
	Location   *string   `json:"location"`
	HourlyRate *float64  `json:"hourly_rate"`
}

// UpdateEventRequest describes the update payload.
type UpdateEventRequest struct {
	Title      string    `json:"title" validate:"required"`
	EventType  string    `json:"event_type" validate:"required"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date"`
	StartTime  string    `json:"start_time" validate:"required,clock"`
	EndTime    string    `json:"end_time" validate:"required,clock"`
	Location   *string   `json:"location"`
	HourlyRate *float64  `json:"hourly_rate"`
}

// List returns the user's events with pagination metadata.
func (s *EventService) List(ctx context.Context, userID string, req EventListRequest) ([]models.ScheduledEvent, *models.Pagination, error) {
	filter := models.EventFilter{
		UserID:    userID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		EventType: strings.ToLower(strings.TrimSpace(req.EventType)),
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return events, pagination, nil
}

// Get returns one of the user's events.
func (s *EventService) Get(ctx context.Context, userID, id string) (*models.ScheduledEvent, error) {
	event, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

// Create stores a new event for the user.
func (s *EventService) Create(ctx context.Context, userID string, req CreateEventRequest) (*models.ScheduledEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event := &models.ScheduledEvent{
		UserID:     userID,
		Title:      strings.TrimSpace(req.Title),
		EventType:  strings.ToLower(strings.TrimSpace(req.EventType)),
		StartDate:  req.StartDate.UTC().Truncate(24 * time.Hour),
		EndDate:    req.EndDate.UTC().Truncate(24 * time.Hour),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Location:   req.Location,
		HourlyRate: req.HourlyRate,
	}
	if event.EndDate.IsZero() {
		event.EndDate = event.StartDate
	}
	if err := validateEventShape(event); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.invalidateAnalysis(ctx, userID)
	return event, nil
}

// Update replaces an event's mutable fields.
func (s *EventService) Update(ctx context.Context, userID, id string, req UpdateEventRequest) (*models.ScheduledEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	event := &models.ScheduledEvent{
		ID:         id,
		UserID:     userID,
		Title:      strings.TrimSpace(req.Title),
		EventType:  strings.ToLower(strings.TrimSpace(req.EventType)),
		StartDate:  req.StartDate.UTC().Truncate(24 * time.Hour),
		EndDate:    req.EndDate.UTC().Truncate(24 * time.Hour),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Location:   req.Location,
		HourlyRate: req.HourlyRate,
	}
	if event.EndDate.IsZero() {
		event.EndDate = event.StartDate
	}
	if err := validateEventShape(event); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, event); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidateAnalysis(ctx, userID)
	return event, nil
}

// Delete removes the user's event.
func (s *EventService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidateAnalysis(ctx, userID)
	return nil
}

func (s *EventService) invalidateAnalysis(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, analysisCachePattern(userID)); err != nil {
		s.logger.Warn("failed to invalidate analysis cache", zap.String("user_id", userID), zap.Error(err))
	}
}

func validateEventShape(event *models.ScheduledEvent) error {
	if event.EndDate.Before(event.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date precedes start_date")
	}
	if event.StartTime >= event.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start_time %s must precede end_time %s", event.StartTime, event.EndTime))
	}
	return nil
}
