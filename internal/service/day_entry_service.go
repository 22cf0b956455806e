package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nanoufn/bolsa-api/internal/models"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/timeutil"
)

type dayEntryRepository interface {
	ListByRange(ctx context.Context, userID string, start, end time.Time) ([]models.DayEntry, error)
	FindByID(ctx context.Context, id string) (*models.DayEntry, error)
	Create(ctx context.Context, entry *models.DayEntry) error
	Update(ctx context.Context, entry *models.DayEntry) error
	Delete(ctx context.Context, id string) error
}

// DayEntryService manages manually logged time blocks.
type DayEntryService struct {
	repo      dayEntryRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDayEntryService constructs a DayEntryService.
func NewDayEntryService(repo dayEntryRepository, validate *validator.Validate, logger *zap.Logger) *DayEntryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DayEntryService{repo: repo, validator: validate, logger: logger}
}

// ListMonth returns the user's entries for the given month.
func (s *DayEntryService) ListMonth(ctx context.Context, userID string, year, month int) ([]models.DayEntry, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	start, end := timeutil.MonthRange(year, month)
	entries, err := s.repo.ListByRange(ctx, userID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day entries")
	}
	if entries == nil {
		entries = []models.DayEntry{}
	}
	return entries, nil
}

// Create stores a manual entry. Hours defaults to the derived duration
// unless the input overrides it.
func (s *DayEntryService) Create(ctx context.Context, userID string, input models.DayEntryInput) (*models.DayEntry, error) {
	entry, err := s.entryFromInput(userID, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create day entry")
	}
	return entry, nil
}

// Update replaces the fields of an owned entry.
func (s *DayEntryService) Update(ctx context.Context, userID, id string, input models.DayEntryInput) (*models.DayEntry, error) {
	existing, err := s.ownedEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	entry, err := s.entryFromInput(userID, input)
	if err != nil {
		return nil, err
	}
	entry.ID = existing.ID
	entry.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update day entry")
	}
	return entry, nil
}

// Delete removes an owned entry.
func (s *DayEntryService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedEntry(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete day entry")
	}
	return nil
}

func (s *DayEntryService) ownedEntry(ctx context.Context, userID, id string) (*models.DayEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "day entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load day entry")
	}
	if entry.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "day entry not found")
	}
	return entry, nil
}

func (s *DayEntryService) entryFromInput(userID string, input models.DayEntryInput) (*models.DayEntry, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day entry payload")
	}
	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if timeutil.ClockMinutes(input.EndTime) <= timeutil.ClockMinutes(input.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	hours := timeutil.Hours(input.StartTime, input.EndTime)
	if input.Hours != nil {
		hours = *input.Hours
	}
	color := models.EntryColor(input.Color)
	if color == "" {
		color = models.ColorManual
	}

	return &models.DayEntry{
		UserID:      userID,
		Date:        timeutil.Date(date.Year(), date.Month(), date.Day()),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Description: input.Description,
		Hours:       hours,
		Color:       color,
	}, nil
}
