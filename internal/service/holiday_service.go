package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nanoufn/bolsa-api/internal/dto"
	"github.com/nanoufn/bolsa-api/internal/models"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/holidays"
	"github.com/nanoufn/bolsa-api/pkg/timeutil"
)

type holidayRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.CustomHoliday, error)
	FindByID(ctx context.Context, id string) (*models.CustomHoliday, error)
	Create(ctx context.Context, holiday *models.CustomHoliday) error
	Delete(ctx context.Context, id string) error
}

// HolidayService merges the computed national calendar with the user's
// custom non-working days.
type HolidayService struct {
	repo      holidayRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs a HolidayService.
func NewHolidayService(repo holidayRepository, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, validator: validate, logger: logger}
}

// IsHoliday reports whether the day is excluded from scheduling, either by
// the computed calendar or by a custom entry.
func (s *HolidayService) IsHoliday(ctx context.Context, userID string, day time.Time) (bool, error) {
	if _, ok := holidays.Lookup(day); ok {
		return true, nil
	}
	custom, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list custom holidays")
	}
	key := timeutil.DayKey(day)
	for _, h := range custom {
		if timeutil.DayKey(h.Date) == key {
			return true, nil
		}
	}
	return false, nil
}

// Calendar returns the merged holiday view for a year, computed entries
// first, custom ones appended with their ids so they can be removed.
func (s *HolidayService) Calendar(ctx context.Context, userID string, year int) (*dto.HolidayCalendar, error) {
	custom, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list custom holidays")
	}

	cal := &dto.HolidayCalendar{Year: year, Computed: holidays.ForYear(year), Custom: []models.CustomHoliday{}}
	yearPrefix := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	for _, h := range custom {
		if timeutil.DayKey(h.Date)[:4] == yearPrefix {
			cal.Custom = append(cal.Custom, h)
		}
	}
	return cal, nil
}

// CreateCustom declares a user-specific non-working day.
func (s *HolidayService) CreateCustom(ctx context.Context, userID string, input models.CustomHolidayInput) (*models.CustomHoliday, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	existing, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list custom holidays")
	}
	for _, h := range existing {
		if timeutil.DayKey(h.Date) == input.Date {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a custom holiday already exists on this date")
		}
	}

	holiday := &models.CustomHoliday{
		UserID: userID,
		Date:   timeutil.Date(date.Year(), date.Month(), date.Day()),
		Name:   input.Name,
	}
	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create custom holiday")
	}
	return holiday, nil
}

// DeleteCustom removes an owned custom holiday.
func (s *HolidayService) DeleteCustom(ctx context.Context, userID, id string) error {
	holiday, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "custom holiday not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load custom holiday")
	}
	if holiday.UserID != userID {
		return appErrors.Clone(appErrors.ErrNotFound, "custom holiday not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete custom holiday")
	}
	return nil
}
