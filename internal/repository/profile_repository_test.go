package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoufn/bolsa-api/internal/models"
)

func TestProfileRepositoryFindByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	rows := sqlmock.NewRows([]string{"id", "user_id", "scholar", "advisor", "lab", "grant_name", "weekly_workload_hours", "created_at", "updated_at"}).
		AddRow("p1", "u1", "Maria", "Dr. Silva", "Lab 3", "PIBIC", 20.0, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM profiles WHERE user_id").
		WithArgs("u1").
		WillReturnRows(rows)

	profile, err := repo.FindByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 20.0, profile.WeeklyWorkloadHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProfileRepository(db)
	mock.ExpectExec("INSERT INTO profiles").
		WillReturnResult(sqlmock.NewResult(1, 1))

	profile := &models.Profile{
		UserID:              "u1",
		Scholar:             "Maria",
		Advisor:             "Dr. Silva",
		WeeklyWorkloadHours: 20,
	}
	require.NoError(t, repo.Upsert(context.Background(), profile))
	assert.NotEmpty(t, profile.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
