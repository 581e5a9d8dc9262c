package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/model"
)

var userCols = []string{"id", "email", "password_hash", "first_name", "last_name", "is_verified", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepo(db), mock
}

func userRow(id uuid.UUID, email string, verified bool) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(userCols).AddRow(id.String(), email, "hash", "Ada", "Lovelace", verified, now, now)
}

func TestUserRepo_GetByEmail_Normalizes(t *testing.T) {
	r, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE email = \$1`).
		WithArgs("alice@x.com").
		WillReturnRows(userRow(id, "alice@x.com", false))

	u, err := r.GetByEmail(context.Background(), "  Alice@X.com ")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.False(t, u.IsVerified)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	r, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := r.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepo_GetByID_DBError(t *testing.T) {
	r, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`(?s)SELECT .* FROM users WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnError(errors.New("db down"))

	_, err := r.GetByID(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserRepo_Create(t *testing.T) {
	r, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`(?s)INSERT INTO users \(email, password_hash, first_name, last_name\)\s+VALUES \(\$1, \$2, \$3, \$4\)\s+RETURNING`).
		WithArgs("bob@x.com", "hash", "Bob", "Smith").
		WillReturnRows(userRow(id, "bob@x.com", false))

	u, err := r.Create(context.Background(), model.NewUser{
		Email: "Bob@x.com", PasswordHash: "hash", FirstName: "Bob", LastName: "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	r, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	_, err := r.Create(context.Background(), model.NewUser{Email: "bob@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepo_MarkVerified(t *testing.T) {
	r, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectExec(`(?s)UPDATE users SET is_verified = TRUE`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.MarkVerified(context.Background(), id))

	mock.ExpectExec(`(?s)UPDATE users SET is_verified = TRUE`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, r.MarkVerified(context.Background(), id), ErrUserNotFound)
}

func TestUserRepo_UpdatePassword(t *testing.T) {
	r, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectExec(`(?s)UPDATE users SET password_hash = \$2`).
		WithArgs(id.String(), "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.UpdatePassword(context.Background(), id, "new-hash"))
}
