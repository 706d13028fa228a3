package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/datingapp/internal/common"
	"github.com/dmitrijs2005/datingapp/internal/dbx"
	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectMessage = `SELECT m.id, m.sender_id, m.sender_username, m.recipient_id, m.recipient_username,
		m.content, m.date_read, m.message_sent, m.sender_deleted, m.recipient_deleted,
		COALESCE(sp.url, ''), COALESCE(rp.url, '')
	 FROM messages m
	 LEFT JOIN photos sp ON sp.user_id = m.sender_id AND sp.is_main
	 LEFT JOIN photos rp ON rp.user_id = m.recipient_id AND rp.is_main`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	m := &models.Message{}
	var read sql.NullTime
	err := row.Scan(&m.ID, &m.SenderID, &m.SenderUsername, &m.RecipientID, &m.RecipientUsername,
		&m.Content, &read, &m.MessageSent, &m.SenderDeleted, &m.RecipientDeleted,
		&m.SenderPhotoURL, &m.RecipientPhotoURL)
	if err != nil {
		return nil, err
	}
	if read.Valid {
		t := read.Time
		m.DateRead = &t
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO messages (sender_id, sender_username, recipient_id, recipient_username, content)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, message_sent`

	err := r.db.QueryRowContext(ctx, query, m.SenderID, m.SenderUsername, m.RecipientID, m.RecipientUsername, m.Content).
		Scan(&m.ID, &m.MessageSent)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, selectMessage+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func containerCondition(container string) string {
	switch container {
	case models.ContainerInbox:
		return ` WHERE m.recipient_username = $1 AND NOT m.recipient_deleted`
	case models.ContainerOutbox:
		return ` WHERE m.sender_username = $1 AND NOT m.sender_deleted`
	default:
		return ` WHERE m.recipient_username = $1 AND NOT m.recipient_deleted AND m.date_read IS NULL`
	}
}

func (r *PostgresRepository) List(ctx context.Context, f models.MessageFilter) (*models.Page[*models.Message], error) {
	where := containerCondition(f.Container)
	page := &models.Page[*models.Message]{CurrentPage: f.PageNumber, PageSize: f.PageSize}

	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM messages m`+where, f.Username).Scan(&page.TotalCount); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	query := selectMessage + where + ` ORDER BY m.message_sent DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, f.Username, f.PageSize, (f.PageNumber-1)*f.PageSize)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		page.Items = append(page.Items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return page, nil
}

func (r *PostgresRepository) Thread(ctx context.Context, current, other string) ([]*models.Message, error) {
	query := selectMessage +
		` WHERE (m.recipient_username = $1 AND NOT m.recipient_deleted AND m.sender_username = $2)
		    OR (m.recipient_username = $2 AND m.sender_username = $1 AND NOT m.sender_deleted)
		 ORDER BY m.message_sent`

	rows, err := r.db.QueryContext(ctx, query, current, other)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	thread := []*models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		thread = append(thread, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return thread, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE messages SET date_read = $1 WHERE id = ANY($2)`, at, ids); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateDeleted(ctx context.Context, id int64, senderDeleted, recipientDeleted bool) error {
	query := `UPDATE messages SET sender_deleted = $2, recipient_deleted = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, senderDeleted, recipientDeleted); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
