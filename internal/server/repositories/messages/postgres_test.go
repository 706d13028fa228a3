package messages

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pgArrayConverter lets []int64 through the way the pgx driver does.
type pgArrayConverter struct{}

func (pgArrayConverter) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]int64); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(pgArrayConverter{}),
	)
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var messageColumns = []string{"id", "sender_id", "sender_username", "recipient_id", "recipient_username",
	"content", "date_read", "message_sent", "sender_deleted", "recipient_deleted", "sp", "rp"}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	sent := time.Now()
	mock.ExpectQuery(`INSERT\s+INTO\s+messages`).
		WithArgs("u-1", "alice", "u-2", "bob", "cipher").
		WillReturnRows(sqlmock.NewRows([]string{"id", "message_sent"}).AddRow(int64(5), sent))

	m, err := repo.Create(context.Background(), &models.Message{
		SenderID: "u-1", SenderUsername: "alice", RecipientID: "u-2", RecipientUsername: "bob", Content: "cipher",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.ID)
	assert.Equal(t, sent, m.MessageSent)
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	read := time.Now()
	mock.ExpectQuery(`FROM\s+messages\s+m.*WHERE\s+m\.id\s*=\s*\$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(int64(5), "u-1", "alice", "u-2", "bob", "cipher", read, read, false, true, "a.jpg", ""))

	m, err := repo.Get(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, m.DateRead)
	assert.True(t, m.RecipientDeleted)
	assert.Equal(t, "a.jpg", m.SenderPhotoURL)

	mock.ExpectQuery(`WHERE\s+m\.id`).WithArgs(int64(6)).WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), 6)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_ContainerConditions(t *testing.T) {
	tests := []struct {
		container string
		where     string
	}{
		{models.ContainerInbox, `m\.recipient_username\s*=\s*\$1\s+AND\s+NOT\s+m\.recipient_deleted\s+ORDER`},
		{models.ContainerOutbox, `m\.sender_username\s*=\s*\$1\s+AND\s+NOT\s+m\.sender_deleted\s+ORDER`},
		{"", `m\.date_read\s+IS\s+NULL\s+ORDER`},
	}

	for _, tt := range tests {
		t.Run("container "+tt.container, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(`SELECT\s+count\(\*\)\s+FROM\s+messages`).
				WithArgs("alice").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			mock.ExpectQuery(tt.where+`\s+BY\s+m\.message_sent\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3`).
				WithArgs("alice", 10, 0).
				WillReturnRows(sqlmock.NewRows(messageColumns).
					AddRow(int64(1), "u-2", "bob", "u-1", "alice", "c", nil, time.Now(), false, false, "", ""))

			page, err := repo.List(context.Background(), models.MessageFilter{
				Username: "alice", Container: tt.container, PageNumber: 1, PageSize: 10,
			})
			require.NoError(t, err)
			assert.Equal(t, 1, page.TotalCount)
			require.Len(t, page.Items, 1)
			assert.Nil(t, page.Items[0].DateRead)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestThread(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)WHERE\s+\(m\.recipient_username\s*=\s*\$1.*ORDER\s+BY\s+m\.message_sent$`).
		WithArgs("alice", "bob").
		WillReturnRows(sqlmock.NewRows(messageColumns))

	thread, err := repo.Thread(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Empty(t, thread)
}

func TestMarkRead(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Now()
	require.NoError(t, repo.MarkRead(context.Background(), nil, at))

	mock.ExpectExec(`UPDATE\s+messages\s+SET\s+date_read\s*=\s*\$1\s+WHERE\s+id\s*=\s*ANY\(\$2\)`).
		WithArgs(at, []int64{1, 2}).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.MarkRead(context.Background(), []int64{1, 2}, at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDeletedAndDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+messages\s+SET\s+sender_deleted`).
		WithArgs(int64(3), true, false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE\s+FROM\s+messages`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateDeleted(context.Background(), 3, true, false))
	require.NoError(t, repo.Delete(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}
