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

type weeklySlotRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.WeeklySlot, error)
	FindByID(ctx context.Context, id string) (*models.WeeklySlot, error)
	Create(ctx context.Context, slot *models.WeeklySlot) error
	Update(ctx context.Context, slot *models.WeeklySlot) error
	Delete(ctx context.Context, id string) error
}

// WeeklySlotService manages recurring weekly commitments. Overlapping slot
// definitions are rejected at write time so the scheduler never has to
// resolve conflicting recurring entries.
type WeeklySlotService struct {
	repo      weeklySlotRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWeeklySlotService constructs a WeeklySlotService.
func NewWeeklySlotService(repo weeklySlotRepository, validate *validator.Validate, logger *zap.Logger) *WeeklySlotService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklySlotService{repo: repo, validator: validate, logger: logger}
}

// List returns the user's slots.
func (s *WeeklySlotService) List(ctx context.Context, userID string) ([]models.WeeklySlot, error) {
	slots, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly slots")
	}
	if slots == nil {
		slots = []models.WeeklySlot{}
	}
	return slots, nil
}

// Create stores a new slot after checking it against the existing ones.
func (s *WeeklySlotService) Create(ctx context.Context, userID string, input models.WeeklySlotInput) (*models.WeeklySlot, error) {
	slot, err := s.slotFromInput(userID, input)
	if err != nil {
		return nil, err
	}
	if err := s.rejectOverlap(ctx, slot, ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create weekly slot")
	}
	return slot, nil
}

// Update replaces the fields of an owned slot.
func (s *WeeklySlotService) Update(ctx context.Context, userID, id string, input models.WeeklySlotInput) (*models.WeeklySlot, error) {
	existing, err := s.ownedSlot(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	slot, err := s.slotFromInput(userID, input)
	if err != nil {
		return nil, err
	}
	slot.ID = existing.ID
	slot.CreatedAt = existing.CreatedAt

	if err := s.rejectOverlap(ctx, slot, slot.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update weekly slot")
	}
	return slot, nil
}

// Delete removes an owned slot.
func (s *WeeklySlotService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedSlot(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete weekly slot")
	}
	return nil
}

func (s *WeeklySlotService) ownedSlot(ctx context.Context, userID, id string) (*models.WeeklySlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load weekly slot")
	}
	if slot.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "weekly slot not found")
	}
	return slot, nil
}

func (s *WeeklySlotService) slotFromInput(userID string, input models.WeeklySlotInput) (*models.WeeklySlot, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly slot payload")
	}
	if timeutil.ClockMinutes(input.EndTime) <= timeutil.ClockMinutes(input.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}

	startDate, err := parseOptionalDate(input.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start date must be YYYY-MM-DD")
	}
	endDate, err := parseOptionalDate(input.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be YYYY-MM-DD")
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not precede start date")
	}

	return &models.WeeklySlot{
		UserID:      userID,
		Weekday:     input.Weekday,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Description: input.Description,
		StartDate:   startDate,
		EndDate:     endDate,
	}, nil
}

// rejectOverlap fails with a conflict when the candidate intersects another
// slot on the same weekday, in both clock time and validity window.
func (s *WeeklySlotService) rejectOverlap(ctx context.Context, candidate *models.WeeklySlot, excludeID string) error {
	existing, err := s.repo.ListByUser(ctx, candidate.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly slots")
	}
	for _, other := range existing {
		if other.ID == excludeID || other.Weekday != candidate.Weekday {
			continue
		}
		if !clocksIntersect(candidate.StartTime, candidate.EndTime, other.StartTime, other.EndTime) {
			continue
		}
		if windowsIntersect(candidate.StartDate, candidate.EndDate, other.StartDate, other.EndDate) {
			return appErrors.Clone(appErrors.ErrSlotOverlap, "slot overlaps \""+other.Description+"\"")
		}
	}
	return nil
}

func clocksIntersect(aStart, aEnd, bStart, bEnd string) bool {
	return timeutil.ClockMinutes(aStart) < timeutil.ClockMinutes(bEnd) &&
		timeutil.ClockMinutes(bStart) < timeutil.ClockMinutes(aEnd)
}

// windowsIntersect treats nil bounds as open-ended.
func windowsIntersect(aStart, aEnd, bStart, bEnd *time.Time) bool {
	if aStart != nil && bEnd != nil && bEnd.Before(*aStart) {
		return false
	}
	if bStart != nil && aEnd != nil && aEnd.Before(*bStart) {
		return false
	}
	return true
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	d := timeutil.Date(parsed.Year(), parsed.Month(), parsed.Day())
	return &d, nil
}
