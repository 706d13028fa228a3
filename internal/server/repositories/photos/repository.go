// Package photos stores photo metadata. The images themselves live in the
// configured image storage backend.
package photos

import (
	"context"

	"github.com/dmitrijs2005/datingapp/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Photo, error)
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)
	SetMain(ctx context.Context, id int64, isMain bool) error
	Delete(ctx context.Context, id int64) error
}
