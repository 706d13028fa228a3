package photos

import (
	"context"
	"database/sql"
	"fmt"

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

// ListByUser returns the user's photos in insertion order.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Photo, error) {
	query :=
		`SELECT id, user_id, url, public_id, is_main
		 FROM photos
		 WHERE user_id = $1
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	photos := []*models.Photo{}
	for rows.Next() {
		p := &models.Photo{}
		var publicID sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.URL, &publicID, &p.IsMain); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		p.PublicID = publicID.String
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photos, nil
}

func (r *PostgresRepository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	query :=
		`INSERT INTO photos (user_id, url, public_id, is_main)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`

	publicID := sql.NullString{String: photo.PublicID, Valid: photo.PublicID != ""}
	if err := r.db.QueryRowContext(ctx, query, photo.UserID, photo.URL, publicID, photo.IsMain).Scan(&photo.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photo, nil
}

func (r *PostgresRepository) SetMain(ctx context.Context, id int64, isMain bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE photos SET is_main = $2 WHERE id = $1`, id, isMain)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
