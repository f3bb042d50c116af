package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equilibre-app/equilibre-api/internal/models"
)

func newManualHoursMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestManualHoursRepositoryListInRange(t *testing.T) {
	db, mock, cleanup := newManualHoursMock(t)
	defer cleanup()
	repo := NewManualHoursRepository(db)

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "week_start", "hours", "created_at", "updated_at"}).
		AddRow("mh-1", "user-1", start, 4.5, time.Now(), time.Now())
	mock.ExpectQuery("FROM manual_hours WHERE user_id = \\$1 AND week_start BETWEEN \\$2 AND \\$3").
		WithArgs("user-1", start, end).
		WillReturnRows(rows)

	entries, err := repo.ListInRange(context.Background(), "user-1", start, end)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.InDelta(t, 4.5, entries[0].Hours, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManualHoursRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newManualHoursMock(t)
	defer cleanup()
	repo := NewManualHoursRepository(db)

	mock.ExpectExec("INSERT INTO manual_hours").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ManualHoursEntry{UserID: "user-1", WeekStart: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Hours: 3}
	require.NoError(t, repo.Upsert(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
