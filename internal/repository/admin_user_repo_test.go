package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/admin_api/internal/models"
)

func newMockRepo(t *testing.T) (*AdminUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAdminUserRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func userRow(u *models.AdminUser) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "role",
		"failed_login_count", "force_password_reset", "password_changed_at",
		"last_login_at", "created_at", "updated_at",
	}).AddRow(
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.FailedLoginCount, u.ForcePasswordReset, u.PasswordChangedAt,
		u.LastLoginAt, u.CreatedAt, u.UpdatedAt,
	)
}

func sampleUser() *models.AdminUser {
	return &models.AdminUser{
		ID:                1,
		Email:             "jo.public@example.com",
		PasswordHash:      "$2a$10$hash",
		FirstName:         "Jo",
		LastName:          "Public",
		Role:              models.RoleModerator,
		PasswordChangedAt: time.Now(),
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
}

func TestGetByEmailIgnoresCase(t *testing.T) {
	repo, mock := newMockRepo(t)
	want := sampleUser()

	mock.ExpectQuery(`lower\(email\) = lower\(\$1\)`).
		WithArgs("JO.PUBLIC@EXAMPLE.COM").
		WillReturnRows(userRow(want))

	got, err := repo.GetByEmail("JO.PUBLIC@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, want.Email, got.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailTaken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("jo.public@example.com", 0).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.EmailTaken("jo.public@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := sampleUser()
	u.ID = 0
	u.ForcePasswordReset = true

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO admin_users`).
		WithArgs(u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
			u.FailedLoginCount, u.ForcePasswordReset, u.PasswordChangedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, now, now))

	require.NoError(t, repo.Create(u))
	assert.Equal(t, 7, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementFailedLoginCount(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`failed_login_count = failed_login_count \+ 1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_count"}).AddRow(3))

	count, err := repo.IncrementFailedLoginCount(1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordLogin(t *testing.T) {
	repo, mock := newMockRepo(t)
	at := time.Now()

	mock.ExpectExec(`SET failed_login_count = 0, last_login_at = \$1`).
		WithArgs(at, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RecordLogin(1, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByNameOrdering(t *testing.T) {
	repo, mock := newMockRepo(t)

	reagan := sampleUser()
	reagan.FirstName, reagan.LastName = "Ronald", "Reagan"
	clinton := sampleUser()
	clinton.ID = 2
	clinton.FirstName, clinton.LastName = "Bill", "Clinton"

	rows := userRow(clinton)
	rows.AddRow(
		reagan.ID, reagan.Email, reagan.PasswordHash, reagan.FirstName, reagan.LastName,
		reagan.Role, reagan.FailedLoginCount, reagan.ForcePasswordReset,
		reagan.PasswordChangedAt, reagan.LastLoginAt, reagan.CreatedAt, reagan.UpdatedAt,
	)

	mock.ExpectQuery(`ORDER BY last_name ASC, first_name ASC`).WillReturnRows(rows)

	users, err := repo.ListByName()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Clinton", users[0].LastName)
	assert.Equal(t, "Reagan", users[1].LastName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRole(t *testing.T) {
	repo, mock := newMockRepo(t)
	u := sampleUser()

	mock.ExpectQuery(`WHERE role = \$1`).
		WithArgs(models.RoleModerator).
		WillReturnRows(userRow(u))

	users, err := repo.ListByRole(models.RoleModerator)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleModerator, users[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkExpiredPasswords(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, -models.PasswordMaxAgeMonths, 0)

	mock.ExpectExec(`SET force_password_reset = TRUE`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 2))

	flagged, err := repo.MarkExpiredPasswords(now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), flagged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
