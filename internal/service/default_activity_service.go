package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nanoufn/bolsa-api/internal/models"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
)

type defaultActivityRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.DefaultActivity, error)
	FindByID(ctx context.Context, id string) (*models.DefaultActivity, error)
	Create(ctx context.Context, activity *models.DefaultActivity) error
	Update(ctx context.Context, activity *models.DefaultActivity) error
	Delete(ctx context.Context, id string) error
}

// DefaultActivityService manages the filler activity pool.
type DefaultActivityService struct {
	repo      defaultActivityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDefaultActivityService constructs a DefaultActivityService.
func NewDefaultActivityService(repo defaultActivityRepository, validate *validator.Validate, logger *zap.Logger) *DefaultActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultActivityService{repo: repo, validator: validate, logger: logger}
}

// List returns the user's activities in rotation order.
func (s *DefaultActivityService) List(ctx context.Context, userID string) ([]models.DefaultActivity, error) {
	activities, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list default activities")
	}
	if activities == nil {
		activities = []models.DefaultActivity{}
	}
	return activities, nil
}

// Create stores a new activity.
func (s *DefaultActivityService) Create(ctx context.Context, userID string, input models.DefaultActivityInput) (*models.DefaultActivity, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid default activity payload")
	}
	activity := &models.DefaultActivity{
		UserID:      userID,
		Description: input.Description,
		Color:       input.Color,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create default activity")
	}
	return activity, nil
}

// Update replaces the fields of an owned activity.
func (s *DefaultActivityService) Update(ctx context.Context, userID, id string, input models.DefaultActivityInput) (*models.DefaultActivity, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid default activity payload")
	}
	activity, err := s.ownedActivity(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	activity.Description = input.Description
	activity.Color = input.Color
	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update default activity")
	}
	return activity, nil
}

// Delete removes an owned activity.
func (s *DefaultActivityService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedActivity(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete default activity")
	}
	return nil
}

func (s *DefaultActivityService) ownedActivity(ctx context.Context, userID, id string) (*models.DefaultActivity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "default activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load default activity")
	}
	if activity.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "default activity not found")
	}
	return activity, nil
}
