package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoufn/bolsa-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestDayEntryRepositoryListByRange(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDayEntryRepository(db)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows := sqlmock.NewRows([]string{"id", "user_id", "date", "start_time", "end_time", "description", "hours", "color", "created_at", "updated_at"}).
		AddRow("e1", "u1", start.AddDate(0, 0, 2), "08:00", "10:00", "Aula", 2.0, "cinza", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM day_entries WHERE user_id").
		WithArgs("u1", start, end).
		WillReturnRows(rows)

	entries, err := repo.ListByRange(context.Background(), "u1", start, end)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Aula", entries[0].Description)
	assert.Equal(t, models.ColorRecurring, entries[0].Color)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayEntryRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDayEntryRepository(db)
	mock.ExpectExec("INSERT INTO day_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.DayEntry{
		UserID:      "u1",
		Date:        time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		StartTime:   "14:00",
		EndTime:     "16:00",
		Description: "Pesquisa",
		Hours:       2,
		Color:       "verde",
	}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDayEntryRepositoryUpdateTimes(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDayEntryRepository(db)
	mock.ExpectExec("UPDATE day_entries SET start_time").
		WithArgs("08:30", "10:30", 2.0, models.ColorRecurring, "e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateTimes(context.Background(), "e1", "08:30", "10:30", 2.0, models.ColorRecurring))
	assert.NoError(t, mock.ExpectationsWereMet())
}
