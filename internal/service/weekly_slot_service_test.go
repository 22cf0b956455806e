package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoufn/bolsa-api/internal/models"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
)

type fakeSlotRepo struct {
	slots  []models.WeeklySlot
	nextID int
}

func (r *fakeSlotRepo) ListByUser(_ context.Context, userID string) ([]models.WeeklySlot, error) {
	var out []models.WeeklySlot
	for _, slot := range r.slots {
		if slot.UserID == userID {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (r *fakeSlotRepo) FindByID(_ context.Context, id string) (*models.WeeklySlot, error) {
	for i := range r.slots {
		if r.slots[i].ID == id {
			slot := r.slots[i]
			return &slot, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeSlotRepo) Create(_ context.Context, slot *models.WeeklySlot) error {
	r.nextID++
	slot.ID = fmt.Sprintf("slot-%d", r.nextID)
	r.slots = append(r.slots, *slot)
	return nil
}

func (r *fakeSlotRepo) Update(_ context.Context, slot *models.WeeklySlot) error {
	for i := range r.slots {
		if r.slots[i].ID == slot.ID {
			r.slots[i] = *slot
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *fakeSlotRepo) Delete(_ context.Context, id string) error {
	for i := range r.slots {
		if r.slots[i].ID == id {
			r.slots = append(r.slots[:i], r.slots[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestWeeklySlotCreateRejectsOverlap(t *testing.T) {
	repo := &fakeSlotRepo{}
	svc := NewWeeklySlotService(repo, nil, nil)

	_, err := svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Aula",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "09:00", EndTime: "11:00", Description: "Monitoria",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotOverlap.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.slots, 1)
}

func TestWeeklySlotCreateAllowsAdjacentAndOtherWeekdays(t *testing.T) {
	repo := &fakeSlotRepo{}
	svc := NewWeeklySlotService(repo, nil, nil)

	_, err := svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Aula",
	})
	require.NoError(t, err)

	// Back to back on the same weekday is fine.
	_, err = svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "10:00", EndTime: "12:00", Description: "Monitoria",
	})
	require.NoError(t, err)

	// Same clock window on another weekday is fine.
	_, err = svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 3, StartTime: "08:00", EndTime: "10:00", Description: "Aula",
	})
	require.NoError(t, err)
	assert.Len(t, repo.slots, 3)
}

func TestWeeklySlotCreateAllowsDisjointValidityWindows(t *testing.T) {
	repo := &fakeSlotRepo{}
	svc := NewWeeklySlotService(repo, nil, nil)

	firstEnd := "2024-06-30"
	secondStart := "2024-07-01"

	_, err := svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Aula", EndDate: &firstEnd,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Estágio", StartDate: &secondStart,
	})
	require.NoError(t, err)
}

func TestWeeklySlotUpdateIgnoresItselfInOverlapCheck(t *testing.T) {
	repo := &fakeSlotRepo{}
	svc := NewWeeklySlotService(repo, nil, nil)

	created, err := svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Aula",
	})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "u1", created.ID, models.WeeklySlotInput{
		Weekday: 2, StartTime: "08:30", EndTime: "10:30", Description: "Aula",
	})
	require.NoError(t, err)
	assert.Equal(t, "08:30", updated.StartTime)
}

func TestWeeklySlotValidation(t *testing.T) {
	svc := NewWeeklySlotService(&fakeSlotRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "10:00", EndTime: "08:00", Description: "Aula",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "08:00", EndTime: "10:00",
	})
	require.Error(t, err)
}

func TestWeeklySlotOwnershipHidesForeignSlots(t *testing.T) {
	repo := &fakeSlotRepo{}
	svc := NewWeeklySlotService(repo, nil, nil)

	created, err := svc.Create(context.Background(), "u1", models.WeeklySlotInput{
		Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Aula",
	})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "u2", created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.slots, 1)
}
