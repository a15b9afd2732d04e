package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb/internal/models"
)

var userCols = []string{
	"id", "username", "email", "first_name", "last_name", "bio", "role",
	"is_superuser", "is_active", "confirmation_seq", "last_login", "date_joined", "updated_at",
}

func newRepoWithMock(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewUserRepository(db), mock
}

func aliceRow(lastLogin any) *sqlmock.Rows {
	joined := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows(userCols).
		AddRow(int64(7), "alice", "a@x.com", "", "", "", "user", false, false, int64(2), lastLogin, joined, joined)
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users.*RETURNING\s+id,\s*confirmation_seq,\s*date_joined,\s*updated_at`).
		WithArgs("alice", "a@x.com", "", "", "", "user", false, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "confirmation_seq", "date_joined", "updated_at"}).
			AddRow(int64(1), int64(0), now, now))

	u := &models.User{Username: "alice", Email: "a@x.com"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, now, u.DateJoined)
}

func TestCreate_UniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		field      string
	}{
		{"users_username_key", "username"},
		{"users_email_key", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectQuery(`INSERT\s+INTO\s+users`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@x.com"})
			require.ErrorIs(t, err, ErrDuplicate)

			var dup *DuplicateError
			require.True(t, errors.As(err, &dup))
			assert.Equal(t, tt.field, dup.Field)
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@x.com"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "user create: db down")
}

func TestFindByUsername(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	login := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)SELECT.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("alice").
		WillReturnRows(aliceRow(login))

	u, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, int64(2), u.ConfirmationSeq)
	require.NotNil(t, u.LastLogin)
	assert.True(t, login.Equal(*u.LastLogin))
}

func TestFindByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)SELECT.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(7)).
		WillReturnRows(aliceRow(nil))

	u, err := repo.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestFindByUsernameAndEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)WHERE\s+username\s*=\s*\$1\s+AND\s+email\s*=\s*\$2`).
		WithArgs("ghost", "g@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUsernameAndEmail(context.Background(), "ghost", "g@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByEmail_NullLastLogin(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@x.com").
		WillReturnRows(aliceRow(nil))

	u, err := repo.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, u.LastLogin)
}

func TestRotateConfirmation(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+confirmation_seq\s*=\s*confirmation_seq\s*\+\s*1`).
		WithArgs(int64(7)).
		WillReturnRows(aliceRow(nil))

	u, err := repo.RotateConfirmation(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestMarkActivated(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+is_active\s*=\s*TRUE,\s*last_login\s*=\s*\$2.*confirmation_seq\s*=\s*\$3`).
		WithArgs(int64(7), at, int64(2), nil).
		WillReturnRows(aliceRow(at))

	u, err := repo.MarkActivated(context.Background(), &models.User{ID: 7, ConfirmationSeq: 2}, at)
	require.NoError(t, err)
	require.NotNil(t, u.LastLogin)
}

func TestMarkActivated_Missing(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

	_, err := repo.MarkActivated(context.Background(), &models.User{ID: 99}, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+users`).
		WithArgs("ali").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)ORDER\s+BY\s+username\s+LIMIT\s+\$2\s+OFFSET\s+\$3`).
		WithArgs("ali", 50, 0).
		WillReturnRows(aliceRow(nil))

	users, total, err := repo.List(context.Background(), models.UserFilter{Search: "ali"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestUpdate_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET.*username\s*=\s*\$1`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Update(context.Background(), &models.User{ID: 7, Username: "alice", Email: "b@x.com", Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestDeleteByUsername(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`DELETE\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+users`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteByUsername(context.Background(), "alice"))
	assert.ErrorIs(t, repo.DeleteByUsername(context.Background(), "ghost"), ErrNotFound)
}

func TestUpdate_BumpsConfirmationOnIdentityChange(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+confirmation_seq\s*=\s*confirmation_seq\s*\+\s*CASE\s+WHEN\s+username\s*<>\s*\$1\s+OR\s+email\s*<>\s*\$2\s+THEN\s+1\s+ELSE\s+0\s+END.*RETURNING\s+confirmation_seq,\s*updated_at`).
		WithArgs("alice", "new@x.com", "", "", "", "user", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"confirmation_seq", "updated_at"}).AddRow(int64(3), now))

	u := &models.User{ID: 7, Username: "alice", Email: "new@x.com", Role: models.RoleUser, ConfirmationSeq: 2}
	require.NoError(t, repo.Update(context.Background(), u))
	assert.Equal(t, int64(3), u.ConfirmationSeq)
	assert.Equal(t, now, u.UpdatedAt)
}
