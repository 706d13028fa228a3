package photos

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestListByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+id,\s*user_id,\s*url,\s*public_id,\s*is_main\s+FROM\s+photos\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "url", "public_id", "is_main"}).
			AddRow(int64(1), "u-1", "https://img/1.jpg", "da/1", true).
			AddRow(int64(2), "u-1", "https://img/2.jpg", nil, false))

	got, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsMain)
	assert.Equal(t, "da/1", got[0].PublicID)
	assert.Empty(t, got[1].PublicID)
}

func TestListByUser_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+photos`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "url", "public_id", "is_main"}))

	got, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+photos\s*\(user_id,\s*url,\s*public_id,\s*is_main\)`).
		WithArgs("u-1", "https://img/1.jpg", "da/1", true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	p, err := repo.Create(context.Background(), &models.Photo{UserID: "u-1", URL: "https://img/1.jpg", PublicID: "da/1", IsMain: true})
	require.NoError(t, err)
	assert.Equal(t, int64(9), p.ID)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+photos`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Photo{UserID: "u-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestSetMain(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+photos\s+SET\s+is_main\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(3), false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetMain(context.Background(), 3, false))

	mock.ExpectExec(`UPDATE\s+photos`).
		WithArgs(int64(4), true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetMain(context.Background(), 4, true), common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+photos\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
