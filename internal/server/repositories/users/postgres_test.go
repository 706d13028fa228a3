package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userColumns = []string{"id", "username", "password_hash", "known_as", "gender", "date_of_birth",
	"city", "country", "introduction", "looking_for", "interests", "created_at", "last_active"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(username,\s*password_hash,.*RETURNING\s+id,\s*created_at,\s*last_active$`).
		WithArgs("alice", []byte("hash"), "Alice", "female", sqlmock.AnyArg(), "Riga", "Latvia").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "last_active"}).AddRow("u-1", now, now))

	u := &models.User{UserName: "alice", PasswordHash: []byte("hash"), KnownAs: "Alice", Gender: "female", City: "Riga", Country: "Latvia"}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetUserByLogin_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	dob := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT\s+id,\s*username,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice", []byte("hash"), "Alice", "female", dob, "Riga", "Latvia", "hi", "fun", "cats", now, now))

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, []byte("hash"), got.PasswordHash)
	assert.Equal(t, dob, got.DateOfBirth)
	assert.Equal(t, "cats", got.Interests)
}

func TestGetUserByLogin_NullDateOfBirth(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+username`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "alice", []byte("hash"), "", "", nil, "", "", "", "", "", now, now))

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, got.DateOfBirth.IsZero())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLockForUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

	require.NoError(t, repo.LockForUpdate(context.Background(), "u-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	upd := models.ProfileUpdate{Introduction: "hi", LookingFor: "someone", Interests: "go", City: "Riga", Country: "LV"}

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+introduction`).
		WithArgs("u-1", "hi", "someone", "go", "Riga", "LV").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateProfile(context.Background(), "u-1", upd))

	mock.ExpectExec(`UPDATE\s+users\s+SET\s+introduction`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateProfile(context.Background(), "ghost", upd), common.ErrorNotFound)
}

func TestListMembers(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	minDob := time.Date(1925, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDob := time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC)
	f := models.MemberFilter{
		CurrentUsername: "alice", Gender: "male",
		MinDateOfBirth: minDob, MaxDateOfBirth: maxDob,
		OrderBy: "created", PageNumber: 2, PageSize: 5,
	}

	mock.ExpectQuery(`SELECT\s+count\(\*\)\s+FROM\s+users\s+u`).
		WithArgs("alice", "male", minDob, maxDob).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	now := time.Now()
	mock.ExpectQuery(`(?s)LEFT\s+JOIN\s+photos.*ORDER\s+BY\s+u\.created_at\s+DESC.*LIMIT\s+\$5\s+OFFSET\s+\$6`).
		WithArgs("alice", "male", minDob, maxDob, 5, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "known_as", "gender", "date_of_birth", "city", "country",
			"introduction", "looking_for", "interests", "created_at", "last_active", "url"}).
			AddRow("u-6", "bob", "Bob", "male", nil, "", "", "", "", "", now, now, "http://img/bob.jpg"))

	page, err := repo.ListMembers(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 6, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages())
	require.Len(t, page.Items, 1)
	assert.Equal(t, "http://img/bob.jpg", page.Items[0].MainPhotoURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoles(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+role\s+FROM\s+user_roles`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("Admin").AddRow("Member"))

	roles, err := repo.GetRoles(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin", "Member"}, roles)

	mock.ExpectExec(`DELETE\s+FROM\s+user_roles`).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT\s+INTO\s+user_roles`).WithArgs("u-1", "Member").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+user_roles`).WithArgs("u-1", "Moderator").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetRoles(context.Background(), "u-1", []string{"Member", "Moderator"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithRoles_GroupsRows(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`LEFT\s+JOIN\s+user_roles`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "role"}).
			AddRow("u-1", "admin", "Admin").
			AddRow("u-1", "admin", "Moderator").
			AddRow("u-2", "bob", ""))

	users, err := repo.ListWithRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, []string{"Admin", "Moderator"}, users[0].Roles)
	assert.Empty(t, users[1].Roles)
}
