package service

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/admin_api/internal/models"
	"github.com/GTDGit/admin_api/internal/repository"
)

func newUserService(t *testing.T) (*AdminUserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewAdminUserService(repository.NewAdminUserRepository(sqlx.NewDb(db, "sqlmock")))
	return svc, mock
}

func validCreateRequest() *CreateAdminRequest {
	return &CreateAdminRequest{
		Email:                "jo.public@example.com",
		Password:             "Letmein1!",
		PasswordConfirmation: "Letmein1!",
		FirstName:            "Jo",
		LastName:             "Public",
		Role:                 models.RoleModerator,
	}
}

func TestCreateSuccess(t *testing.T) {
	svc, mock := newUserService(t)
	fixed := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return fixed })

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("jo.public@example.com", 0).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO admin_users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, fixed, fixed))

	user, err := svc.Create(validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, user.ID)
	assert.True(t, user.ForcePasswordReset, "new accounts must rotate the provisioned password")
	assert.Equal(t, fixed, user.PasswordChangedAt)
	assert.NotEqual(t, "Letmein1!", user.PasswordHash, "password must never be stored in plaintext")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Letmein1!")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEmailTaken(t *testing.T) {
	svc, mock := newUserService(t)

	// Second creation with the same email differing only in case.
	req := validCreateRequest()
	req.Email = "JO.PUBLIC@example.com"
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(req.Email, 0).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := svc.Create(req)
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("email", models.ReasonTaken))
	assert.NoError(t, mock.ExpectationsWereMet(), "no insert may happen for an invalid record")
}

func TestCreateInvalidRecordNotPersisted(t *testing.T) {
	svc, mock := newUserService(t)

	req := &CreateAdminRequest{
		Email:                "",
		Password:             "weakpass",
		PasswordConfirmation: "weakpass",
		Role:                 models.Role("unheard_of"),
	}
	_, err := svc.Create(req)

	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("email", models.ReasonBlank))
	assert.True(t, verrs.Has("password", models.ReasonWeak))
	assert.True(t, verrs.Has("first_name", models.ReasonBlank))
	assert.True(t, verrs.Has("last_name", models.ReasonBlank))
	assert.True(t, verrs.Has("role", models.ReasonInclusion))
	// With a blank email the uniqueness probe is skipped too.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAccountDisabledNormalizesCounter(t *testing.T) {
	svc, mock := newUserService(t)
	u := serviceSampleUser()
	u.FailedLoginCount = 9

	mock.ExpectQuery(`WHERE id = \$1`).WithArgs(1).WillReturnRows(serviceUserRow(u))
	mock.ExpectExec(`SET failed_login_count = \$1`).
		WithArgs(models.FailedLoginLimit, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := svc.SetAccountDisabled(1, true)
	require.NoError(t, err)
	assert.Equal(t, models.FailedLoginLimit, updated.FailedLoginCount)
	assert.True(t, updated.IsAccountDisabled())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAccountEnabledResetsCounter(t *testing.T) {
	svc, mock := newUserService(t)
	u := serviceSampleUser()
	u.FailedLoginCount = 5

	mock.ExpectQuery(`WHERE id = \$1`).WithArgs(1).WillReturnRows(serviceUserRow(u))
	mock.ExpectExec(`SET failed_login_count = \$1`).
		WithArgs(0, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := svc.SetAccountDisabled(1, false)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.FailedLoginCount)
	assert.False(t, updated.IsAccountDisabled())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeRoleRejectsUnknownRole(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.ChangeRole(1, models.Role("unheard_of"))
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("role", models.ReasonInclusion))
}

func TestListByRoleRejectsUnknownRole(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.ListByRole(models.Role("unheard_of"))
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has("role", models.ReasonInclusion))
}

func serviceSampleUser() *models.AdminUser {
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

func serviceUserRow(u *models.AdminUser) *sqlmock.Rows {
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
