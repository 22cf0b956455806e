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
	"github.com/nanoufn/bolsa-api/pkg/timeutil"
)

type fakeHolidayRepo struct {
	holidays []models.CustomHoliday
	nextID   int
}

func (r *fakeHolidayRepo) ListByUser(_ context.Context, userID string) ([]models.CustomHoliday, error) {
	var out []models.CustomHoliday
	for _, h := range r.holidays {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHolidayRepo) FindByID(_ context.Context, id string) (*models.CustomHoliday, error) {
	for i := range r.holidays {
		if r.holidays[i].ID == id {
			h := r.holidays[i]
			return &h, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeHolidayRepo) Create(_ context.Context, holiday *models.CustomHoliday) error {
	r.nextID++
	holiday.ID = fmt.Sprintf("holiday-%d", r.nextID)
	r.holidays = append(r.holidays, *holiday)
	return nil
}

func (r *fakeHolidayRepo) Delete(_ context.Context, id string) error {
	for i := range r.holidays {
		if r.holidays[i].ID == id {
			r.holidays = append(r.holidays[:i], r.holidays[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestIsHolidayComputedCalendar(t *testing.T) {
	svc := NewHolidayService(&fakeHolidayRepo{}, nil, nil)

	natal, err := svc.IsHoliday(context.Background(), "u1", timeutil.Date(2024, 12, 25))
	require.NoError(t, err)
	assert.True(t, natal)

	// Carnaval 2024 is a movable feast derived from Easter.
	carnaval, err := svc.IsHoliday(context.Background(), "u1", timeutil.Date(2024, 2, 13))
	require.NoError(t, err)
	assert.True(t, carnaval)

	ordinary, err := svc.IsHoliday(context.Background(), "u1", timeutil.Date(2024, 6, 3))
	require.NoError(t, err)
	assert.False(t, ordinary)
}

func TestIsHolidayCustomEntry(t *testing.T) {
	repo := &fakeHolidayRepo{}
	svc := NewHolidayService(repo, nil, nil)

	_, err := svc.CreateCustom(context.Background(), "u1", models.CustomHolidayInput{
		Date: "2024-06-14", Name: "Recesso",
	})
	require.NoError(t, err)

	mine, err := svc.IsHoliday(context.Background(), "u1", timeutil.Date(2024, 6, 14))
	require.NoError(t, err)
	assert.True(t, mine)

	// Custom holidays are per user.
	other, err := svc.IsHoliday(context.Background(), "u2", timeutil.Date(2024, 6, 14))
	require.NoError(t, err)
	assert.False(t, other)
}

func TestCreateCustomRejectsDuplicateDate(t *testing.T) {
	svc := NewHolidayService(&fakeHolidayRepo{}, nil, nil)

	_, err := svc.CreateCustom(context.Background(), "u1", models.CustomHolidayInput{Date: "2024-06-14", Name: "Recesso"})
	require.NoError(t, err)

	_, err = svc.CreateCustom(context.Background(), "u1", models.CustomHolidayInput{Date: "2024-06-14", Name: "Outro"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCalendarMergesComputedAndCustom(t *testing.T) {
	repo := &fakeHolidayRepo{}
	svc := NewHolidayService(repo, nil, nil)

	_, err := svc.CreateCustom(context.Background(), "u1", models.CustomHolidayInput{Date: "2024-06-14", Name: "Recesso"})
	require.NoError(t, err)
	_, err = svc.CreateCustom(context.Background(), "u1", models.CustomHolidayInput{Date: "2025-01-10", Name: "Outro ano"})
	require.NoError(t, err)

	cal, err := svc.Calendar(context.Background(), "u1", 2024)
	require.NoError(t, err)
	assert.Equal(t, 2024, cal.Year)
	assert.Len(t, cal.Computed, 15)
	require.Len(t, cal.Custom, 1)
	assert.Equal(t, "Recesso", cal.Custom[0].Name)
}

func TestDeleteCustomChecksOwnership(t *testing.T) {
	repo := &fakeHolidayRepo{}
	svc := NewHolidayService(repo, nil, nil)

	created, err := svc.CreateCustom(context.Background(), "u1", models.CustomHolidayInput{Date: "2024-06-14", Name: "Recesso"})
	require.NoError(t, err)

	err = svc.DeleteCustom(context.Background(), "u2", created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.DeleteCustom(context.Background(), "u1", created.ID))
	assert.Empty(t, repo.holidays)
}
