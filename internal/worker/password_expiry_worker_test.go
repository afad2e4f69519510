package worker

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/admin_api/internal/models"
	"github.com/GTDGit/admin_api/internal/repository"
)

func TestPasswordExpirySweep(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewAdminUserRepository(sqlx.NewDb(db, "sqlmock"))
	w := NewPasswordExpiryWorker(repo, time.Hour)

	fixed := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }
	cutoff := fixed.AddDate(0, -models.PasswordMaxAgeMonths, 0)

	mock.ExpectExec(`SET force_password_reset = TRUE`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	w.run()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordExpirySweepSurvivesError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewAdminUserRepository(sqlx.NewDb(db, "sqlmock"))
	w := NewPasswordExpiryWorker(repo, time.Hour)

	mock.ExpectExec(`SET force_password_reset = TRUE`).
		WillReturnError(assert.AnError)

	// The sweep logs and returns; the worker loop keeps running.
	w.run()
	assert.NoError(t, mock.ExpectationsWereMet())
}
