package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equilibre-app/equilibre-api/internal/models"
)

func newAvailabilityMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAvailabilityRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newAvailabilityMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	end := "23:00"
	rows := sqlmock.NewRows([]string{"id", "user_id", "day_of_week", "start_time", "end_time", "reason", "created_at", "updated_at"}).
		AddRow("uw-1", "user-1", "MONDAY", "22:00", end, nil, time.Now(), time.Now()).
		AddRow("uw-2", "user-1", "SUNDAY", "08:00", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery("FROM unavailability_windows WHERE user_id = \\$1").
		WithArgs("user-1").
		WillReturnRows(rows)

	windows, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	require.NotNil(t, windows[0].EndTime)
	assert.Equal(t, "23:00", *windows[0].EndTime)
	assert.Nil(t, windows[1].EndTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAvailabilityMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("INSERT INTO unavailability_windows").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	window := &models.UnavailabilityWindow{UserID: "user-1", DayOfWeek: "MONDAY", StartTime: "22:00"}
	require.NoError(t, repo.Create(context.Background(), window))
	assert.NotEmpty(t, window.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newAvailabilityMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM unavailability_windows WHERE id = $1 AND user_id = $2")).
		WithArgs("missing", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
